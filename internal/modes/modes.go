package modes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"multicam/internal/acquisition"
	"multicam/internal/imagekey"
	"multicam/internal/logging"
	"multicam/internal/progress"
	"multicam/internal/services"
)

// Kind is an acquisition cadence.
type Kind int

const (
	Manual Kind = iota + 1
	Timed
	Continuous
)

func (k Kind) String() string {
	switch k {
	case Manual:
		return "manual"
	case Timed:
		return "timed"
	case Continuous:
		return "continuous"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts the menu number or the mode name.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "manual":
		return Manual, nil
	case "2", "timed":
		return Timed, nil
	case "3", "continuous":
		return Continuous, nil
	default:
		return 0, fmt.Errorf("%w: acquisition mode %q (want 1, 2 or 3)", services.ErrInvalidInput, value)
	}
}

// Action is the operator's answer at the manual prompt.
type Action int

const (
	ActionCapture Action = iota + 1
	ActionExit
)

// Input supplies manual-mode decisions. Implementations reprompt on invalid
// input themselves and return ActionExit at end of input.
type Input interface {
	NextAction(ctx context.Context) (Action, error)
}

// Capturer runs one round; *acquisition.Session satisfies it.
type Capturer interface {
	CaptureRound(ctx context.Context, sequence int) (acquisition.CaptureRound, error)
}

// Clock sleeps between rounds.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock sleeps on the wall clock.
type RealClock struct{}

// Sleep waits for d or until ctx ends.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options configures Run.
type Options struct {
	Kind  Kind
	Count int
	Delay time.Duration
	// Countdown is waited once before the first timed or continuous round.
	Countdown            time.Duration
	SleepAfterFinalRound bool
	// StartSequence is the first round number; zero means 1.
	StartSequence int

	Input    Input
	Progress progress.Reporter
	Clock    Clock
	// Bell receives a terminal bell when automatic capture starts and when
	// capture ends.
	Bell   io.Writer
	Logger *slog.Logger
}

// Result is the accumulated image set of a run.
type Result struct {
	Images map[imagekey.Key]*acquisition.CapturedImage
	Rounds int
}

// Validate checks the options for the selected mode.
func (o Options) Validate() error {
	switch o.Kind {
	case Manual:
		if o.Input == nil {
			return fmt.Errorf("%w: manual mode needs operator input", services.ErrInvalidInput)
		}
	case Timed:
		if o.Count < 1 {
			return fmt.Errorf("%w: round count must be at least 1, got %d", services.ErrInvalidInput, o.Count)
		}
		if o.Delay < 0 {
			return fmt.Errorf("%w: delay must not be negative", services.ErrInvalidInput)
		}
	case Continuous:
		if o.Count < 1 {
			return fmt.Errorf("%w: round count must be at least 1, got %d", services.ErrInvalidInput, o.Count)
		}
	default:
		return fmt.Errorf("%w: unknown acquisition mode %d", services.ErrInvalidInput, int(o.Kind))
	}
	return nil
}

type runner struct {
	capturer Capturer
	opts     Options
	logger   *slog.Logger
	result   Result
	sequence int
}

// Run drives capturer under opts. On failure the images of every completed
// round are returned alongside the error.
func Run(ctx context.Context, capturer Capturer, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{Images: map[imagekey.Key]*acquisition.CapturedImage{}}, err
	}
	if opts.Progress == nil {
		opts.Progress = progress.Nop{}
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.StartSequence < 1 {
		opts.StartSequence = 1
	}
	r := &runner{
		capturer: capturer,
		opts:     opts,
		logger:   logging.NewComponentLogger(opts.Logger, "modes").With(logging.String("mode", opts.Kind.String())),
		result:   Result{Images: make(map[imagekey.Key]*acquisition.CapturedImage)},
		sequence: opts.StartSequence,
	}
	defer opts.Progress.Finish()

	var err error
	switch opts.Kind {
	case Manual:
		err = r.manual(ctx)
	case Timed:
		err = r.automatic(ctx, opts.Delay)
	case Continuous:
		err = r.automatic(ctx, 0)
	}
	r.bell()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			r.logger.Info("capture interrupted", logging.Int("rounds", r.result.Rounds))
		}
		return r.result, err
	}
	r.logger.Info("capture complete", logging.Int("rounds", r.result.Rounds), logging.Int("images", len(r.result.Images)))
	return r.result, nil
}

func (r *runner) manual(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		action, err := r.opts.Input.NextAction(ctx)
		if err != nil {
			return err
		}
		if action == ActionExit {
			return nil
		}
		if err := r.round(ctx); err != nil {
			return err
		}
	}
}

// automatic runs Count rounds, sleeping delay after each one. The sleep
// after the final round is skipped unless SleepAfterFinalRound is set.
func (r *runner) automatic(ctx context.Context, delay time.Duration) error {
	if r.opts.Countdown > 0 {
		r.logger.Info("starting soon", logging.Duration("countdown", r.opts.Countdown), logging.Int("rounds", r.opts.Count))
		if err := r.opts.Clock.Sleep(ctx, r.opts.Countdown); err != nil {
			return err
		}
	}
	r.bell()
	for i := 1; i <= r.opts.Count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.round(ctx); err != nil {
			return err
		}
		if delay > 0 && (i < r.opts.Count || r.opts.SleepAfterFinalRound) {
			if err := r.opts.Clock.Sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *runner) round(ctx context.Context) error {
	seq := r.sequence
	round, err := r.capturer.CaptureRound(ctx, seq)
	if err != nil {
		return err
	}
	for key, img := range round.Images {
		if _, dup := r.result.Images[key]; dup {
			return services.Wrap(services.ErrCapture, "capture", "merge", fmt.Sprintf("duplicate image key %s", key), nil)
		}
		r.result.Images[key] = img
	}
	r.sequence++
	r.result.Rounds++
	r.opts.Progress.RoundCompleted(seq, len(round.Images))
	return nil
}

func (r *runner) bell() {
	if r.opts.Bell != nil {
		_, _ = io.WriteString(r.opts.Bell, "\a")
	}
}
