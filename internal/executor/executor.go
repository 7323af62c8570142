// Package executor performs the steps of a resolved macro on the local
// machine.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net/url"
	"os"
	"os/exec"
	"time"

	"vocmd/internal/macro"
	"vocmd/internal/platform"
	"vocmd/internal/tts"
)

// ErrDeclined is returned when a macro that requires confirmation was not
// confirmed.
var ErrDeclined = errors.New("execution declined")

const DefaultSearchURL = "https://www.google.com/search?q="

// Runner runs one shell command line.
type Runner interface {
	Run(ctx context.Context, command string) error
}

// ShellRunner runs commands through the user's shell.
type ShellRunner struct {
	GOOS   string
	Stdout io.Writer
	Stderr io.Writer
}

func (s ShellRunner) Run(ctx context.Context, command string) error {
	goos := s.GOOS
	if goos == "" {
		goos = platform.Current()
	}

	shell, args := platform.ShellInvocation(goos, command)
	cmd := exec.CommandContext(ctx, shell, args...)
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

// ConfirmFunc asks whether m may run.
type ConfirmFunc func(ctx context.Context, m *macro.Macro) (bool, error)

// Yes approves everything.
func Yes(context.Context, *macro.Macro) (bool, error) { return true, nil }

type Executor struct {
	runner    Runner
	speaker   tts.Speaker
	goos      string
	searchURL string
}

type Option func(*Executor)

func WithGOOS(goos string) Option {
	return func(e *Executor) { e.goos = goos }
}

// WithSearchURL sets the prefix the escaped query is appended to.
func WithSearchURL(prefix string) Option {
	return func(e *Executor) {
		if prefix != "" {
			e.searchURL = prefix
		}
	}
}

func New(runner Runner, speaker tts.Speaker, opts ...Option) *Executor {
	if speaker == nil {
		speaker = tts.Log{}
	}

	e := &Executor{
		runner:    runner,
		speaker:   speaker,
		goos:      platform.Current(),
		searchURL: DefaultSearchURL,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runner == nil {
		e.runner = ShellRunner{GOOS: e.goos}
	}
	return e
}

// Run performs the steps of m in order and stops at the first failure.
// A macro with RequiresConfirmation and shell steps runs only after confirm
// approves it; a nil confirm counts as a refusal.
func (e *Executor) Run(ctx context.Context, m *macro.Macro, confirm ConfirmFunc) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid macro: %w", err)
	}

	if m.RequiresConfirmation && len(m.ShellCommands()) > 0 {
		if confirm == nil {
			return ErrDeclined
		}
		ok, err := confirm(ctx, m)
		if err != nil {
			return fmt.Errorf("confirmation: %w", err)
		}
		if !ok {
			return ErrDeclined
		}
	}

	for i, step := range m.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		log.Debug("Running step", "n", i, "action", step.Kind)
		if err := e.step(ctx, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Kind, err)
		}
	}

	return nil
}

func (e *Executor) step(ctx context.Context, a macro.Action) error {
	switch a.Kind {
	case macro.KindShell:
		return e.runner.Run(ctx, a.Cmd)
	case macro.KindOpen:
		return e.runner.Run(ctx, platform.OpenCommand(e.goos, a.Target))
	case macro.KindTerminal:
		return e.runner.Run(ctx, platform.TerminalCommand(e.goos))
	case macro.KindSearch:
		return e.runner.Run(ctx, platform.OpenCommand(e.goos, e.SearchURL(a.Query)))
	case macro.KindSpeak:
		return e.speaker.Speak(ctx, a.Text)
	case macro.KindWait:
		return sleep(ctx, time.Duration(a.Seconds*float64(time.Second)))
	default:
		return fmt.Errorf("unknown action %q", a.Kind)
	}
}

// SearchURL is the page a search step opens.
func (e *Executor) SearchURL(query string) string {
	return e.searchURL + url.QueryEscape(query)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
