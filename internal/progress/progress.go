package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"multicam/internal/logging"
)

// Reporter observes completed rounds. Implementations must not fail the run.
type Reporter interface {
	RoundCompleted(sequence, images int)
	Finish()
}

// New picks a bar reporter for terminals and a log reporter otherwise.
// A total of zero means the number of rounds is open-ended.
func New(w io.Writer, total int, logger *slog.Logger) Reporter {
	if IsTerminal(w) {
		return NewBar(w, total)
	}
	return NewLog(logger, total)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type barReporter struct {
	bar   *progressbar.ProgressBar
	total int
}

// NewBar renders a progress bar on w.
func NewBar(w io.Writer, total int) Reporter {
	limit := total
	if limit <= 0 {
		limit = -1
	}
	bar := progressbar.NewOptions(limit,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("capturing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(total > 0),
		progressbar.OptionClearOnFinish(),
	)
	return &barReporter{bar: bar, total: total}
}

func (b *barReporter) RoundCompleted(sequence, images int) {
	b.bar.Describe(fmt.Sprintf("round %d (%d images)", sequence, images))
	_ = b.bar.Add(1)
}

func (b *barReporter) Finish() {
	_ = b.bar.Finish()
}

type logReporter struct {
	logger *slog.Logger
	total  int
	done   int
}

// NewLog reports each round as an info log line.
func NewLog(logger *slog.Logger, total int) Reporter {
	return &logReporter{logger: logging.NewComponentLogger(logger, "progress"), total: total}
}

func (l *logReporter) RoundCompleted(sequence, images int) {
	l.done++
	attrs := []logging.Attr{
		logging.Int(logging.FieldRound, sequence),
		logging.Int("images", images),
		logging.Int("completed", l.done),
	}
	if l.total > 0 {
		attrs = append(attrs, logging.Int("total", l.total))
	}
	l.logger.Info("round complete", logging.Args(attrs...)...)
}

func (l *logReporter) Finish() {
	l.logger.Info("capture finished", logging.Int("rounds", l.done))
}

// Event is one recorded round.
type Event struct {
	Sequence int
	Images   int
}

// Recorder collects events in memory.
type Recorder struct {
	mu       sync.Mutex
	Events   []Event
	Finished bool
}

func (r *Recorder) RoundCompleted(sequence, images int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Event{Sequence: sequence, Images: images})
}

func (r *Recorder) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = true
}

// Nop discards progress.
type Nop struct{}

func (Nop) RoundCompleted(int, int) {}

func (Nop) Finish() {}
