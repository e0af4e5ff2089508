package operator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"multicam/internal/driver"
	"multicam/internal/modes"
	"multicam/internal/registry"
	"multicam/internal/services"
)

type line struct {
	text string
	err  error
}

// Prompter reads answers from in and writes questions to out. Close stops
// the background reader once the prompter is no longer needed.
type Prompter struct {
	in    io.Reader
	out   io.Writer
	fs    afero.Fs
	lines chan line

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// New returns a prompter. A nil fs means the OS filesystem, used to check
// that an overridden destination exists.
func New(in io.Reader, out io.Writer, fs afero.Fs) *Prompter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Prompter{in: in, out: out, fs: fs, done: make(chan struct{})}
}

// Close stops the reader goroutine; later prompts see end of input. A read
// already blocked on in finishes when in delivers or closes.
func (p *Prompter) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// readLines feeds p.lines from a single reader goroutine so a cancelled
// prompt does not lose the line read for it.
func (p *Prompter) readLines() {
	defer close(p.stopped)
	send := func(l line) bool {
		select {
		case p.lines <- l:
			return true
		case <-p.done:
			return false
		}
	}
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		if !send(line{text: strings.TrimRight(scanner.Text(), "\r")}) {
			return
		}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	if send(line{err: err}) {
		close(p.lines)
	}
}

// Ask writes question and waits for one line of input.
func (p *Prompter) Ask(ctx context.Context, question string) (string, error) {
	if p.lines == nil {
		p.lines = make(chan line)
		p.stopped = make(chan struct{})
		go p.readLines()
	}
	fmt.Fprint(p.out, question)
	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case <-p.done:
		return "", io.EOF
	case l, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}

// Say prints an informational line.
func (p *Prompter) Say(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ask wraps Ask, turning end of input into an invalid answer.
func (p *Prompter) ask(ctx context.Context, question string) (string, error) {
	answer, err := p.Ask(ctx, question)
	if errors.Is(err, io.EOF) {
		return "", invalid("no answer to %q", strings.TrimSpace(question))
	}
	return strings.TrimSpace(answer), err
}

// Mode asks for the acquisition mode.
func (p *Prompter) Mode(ctx context.Context) (modes.Kind, error) {
	answer, err := p.ask(ctx, "Image acquisition mode? Type 1 for manual, 2 for timed, or 3 for continuous: ")
	if err != nil {
		return 0, err
	}
	return ParseMode(answer)
}

// ParseMode validates a mode answer.
func ParseMode(answer string) (modes.Kind, error) {
	switch answer {
	case "1":
		return modes.Manual, nil
	case "2":
		return modes.Timed, nil
	case "3":
		return modes.Continuous, nil
	}
	return modes.ParseKind(answer)
}

// PixelFormat asks for the pixel format. An empty answer selects def when it
// is a valid format.
func (p *Prompter) PixelFormat(ctx context.Context, def driver.PixelFormat) (driver.PixelFormat, error) {
	question := "Image color mode? Type 1 for mono8, 2 for mono12, or 3 for mono16: "
	if def.Valid() {
		question = fmt.Sprintf("Image color mode? Type 1 for mono8, 2 for mono12, or 3 for mono16 [%s]: ", def)
	}
	answer, err := p.ask(ctx, question)
	if err != nil {
		return 0, err
	}
	if answer == "" && def.Valid() {
		return def, nil
	}
	return ParsePixelFormat(answer)
}

// ParsePixelFormat accepts the menu number or a format name.
func ParsePixelFormat(answer string) (driver.PixelFormat, error) {
	switch answer {
	case "1":
		return driver.Mono8, nil
	case "2":
		return driver.Mono12, nil
	case "3":
		return driver.Mono16, nil
	}
	if strings.HasPrefix(strings.ToLower(answer), "mono") {
		if f, err := driver.ParsePixelFormat(answer); err == nil {
			return f, nil
		}
	}
	return 0, invalid("pixel format %q (want 1, 2 or 3)", answer)
}

// Count asks for the number of rounds.
func (p *Prompter) Count(ctx context.Context) (int, error) {
	answer, err := p.ask(ctx, "Enter the number of images: ")
	if err != nil {
		return 0, err
	}
	return ParseCount(answer)
}

// ParseCount validates a round count.
func ParseCount(answer string) (int, error) {
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 {
		return 0, invalid("number of images %q (want a whole number of at least 1)", answer)
	}
	return n, nil
}

// Delay asks for the timed-mode delay in seconds.
func (p *Prompter) Delay(ctx context.Context) (time.Duration, error) {
	answer, err := p.ask(ctx, "Enter the time delay in seconds: ")
	if err != nil {
		return 0, err
	}
	return ParseDelay(answer)
}

// ParseDelay accepts seconds ("1.5") or a Go duration ("1500ms").
func ParseDelay(answer string) (time.Duration, error) {
	if seconds, err := strconv.ParseFloat(answer, 64); err == nil {
		if seconds < 0 {
			return 0, invalid("time delay %q must not be negative", answer)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(answer)
	if err != nil || d < 0 {
		return 0, invalid("time delay %q (want seconds)", answer)
	}
	return d, nil
}

// Destination confirms the default output directory or asks for another
// one, which must already exist.
func (p *Prompter) Destination(ctx context.Context, defaultPath string) (string, error) {
	answer, err := p.ask(ctx, fmt.Sprintf("The default file path is '%s'. Would you like to save here? ('y' for yes, 'n' for no) ", defaultPath))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return defaultPath, nil
	case "n", "no":
	default:
		return "", invalid("answer %q (want 'y' or 'n')", answer)
	}
	path, err := p.ask(ctx, "Please enter a valid path you would like to save to: ")
	if err != nil {
		return "", err
	}
	return p.CheckDestination(path)
}

// CheckDestination verifies path is an existing directory.
func (p *Prompter) CheckDestination(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", invalid("empty file path")
	}
	ok, err := afero.DirExists(p.fs, path)
	if err != nil || !ok {
		return "", invalid("file path %q does not exist", path)
	}
	return path, nil
}

// Naming asks whether to use camera nicknames. An empty answer selects def
// when one is given.
func (p *Prompter) Naming(ctx context.Context, def registry.Policy) (registry.Policy, error) {
	question := "Do you want to use camera nicknames? ('y' for yes, 'n' for no) "
	if def != "" {
		question = fmt.Sprintf("Do you want to use camera nicknames? ('y' for yes, 'n' for no) [%s] ", def)
	}
	answer, err := p.ask(ctx, question)
	if err != nil {
		return "", err
	}
	if answer == "" && def != "" {
		return def, nil
	}
	return ParseNaming(answer)
}

// ParseNaming accepts y/n or a policy name.
func ParseNaming(answer string) (registry.Policy, error) {
	switch strings.ToLower(answer) {
	case "y", "yes":
		return registry.Nickname, nil
	case "n", "no":
		return registry.Serial, nil
	}
	policy, err := registry.ParsePolicy(answer)
	if err != nil {
		return "", invalid("answer %q (want 'y' or 'n')", answer)
	}
	return policy, nil
}

// NextAction implements modes.Input for manual capture. Invalid answers are
// reported and asked again; end of input exits.
func (p *Prompter) NextAction(ctx context.Context) (modes.Action, error) {
	for {
		answer, err := p.Ask(ctx, "Type enter to take a picture or 'e' to exit ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return modes.ActionExit, nil
		}
		if err != nil {
			return 0, err
		}
		switch strings.TrimSpace(answer) {
		case "":
			return modes.ActionCapture, nil
		case "e", "E":
			return modes.ActionExit, nil
		default:
			p.Say("Invalid input! Try again.")
		}
	}
}
