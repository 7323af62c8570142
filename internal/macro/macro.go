package macro

import (
	"errors"
	"fmt"

	"vocmd/internal/safety"
	"vocmd/pkg/util"
)

// Kind tags the variant carried by an Action.
type Kind string

const (
	KindShell    Kind = "shell"
	KindSpeak    Kind = "speak"
	KindOpen     Kind = "open"
	KindSearch   Kind = "search"
	KindTerminal Kind = "terminal"
	KindWait     Kind = "wait"
)

// TypeMacro is the only value Macro.Type takes.
const TypeMacro = "macro"

// Action is one leaf instruction for the executor. Only the field that
// belongs to Kind is set.
type Action struct {
	Kind    Kind    `json:"action"`
	Cmd     string  `json:"cmd,omitempty"`
	Text    string  `json:"text,omitempty"`
	Target  string  `json:"target,omitempty"`
	Query   string  `json:"q,omitempty"`
	Seconds float64 `json:"seconds,omitempty"`
}

func Shell(cmd string) Action { return Action{Kind: KindShell, Cmd: cmd} }
func Speak(text string) Action { return Action{Kind: KindSpeak, Text: text} }
func Open(target string) Action { return Action{Kind: KindOpen, Target: target} }
func Search(query string) Action { return Action{Kind: KindSearch, Query: query} }
func Terminal() Action { return Action{Kind: KindTerminal} }
func Wait(seconds float64) Action { return Action{Kind: KindWait, Seconds: seconds} }

func (a Action) Validate() error {
	switch a.Kind {
	case KindShell:
		if a.Cmd == "" {
			return errors.New("shell action without command")
		}
	case KindSpeak:
		if a.Text == "" {
			return errors.New("speak action without text")
		}
	case KindOpen:
		if a.Target == "" {
			return errors.New("open action without target")
		}
	case KindSearch:
		if a.Query == "" {
			return errors.New("search action without query")
		}
	case KindTerminal:
	case KindWait:
		if a.Seconds < 0 {
			return fmt.Errorf("wait action with negative duration %v", a.Seconds)
		}
	default:
		return fmt.Errorf("unknown action %q", a.Kind)
	}
	return nil
}

// Macro is an ordered list of actions produced for one utterance.
type Macro struct {
	Type                 string   `json:"type"`
	Steps                []Action `json:"steps"`
	RequiresConfirmation bool     `json:"requires_confirmation"`
	Intent               string   `json:"intent,omitempty"`
	Score                *float64 `json:"score,omitempty"`
}

// New builds a macro and flags it for confirmation when any shell step
// matches a forbidden pattern.
func New(steps ...Action) *Macro {
	m := &Macro{
		Type:  TypeMacro,
		Steps: append([]Action(nil), steps...),
	}
	m.RequiresConfirmation = util.AnyOf(m.ShellCommands(), safety.IsForbidden)
	return m
}

// WithMatch records the intent and rescaled similarity that produced m.
func (m *Macro) WithMatch(intent string, score float64) *Macro {
	m.Intent = intent
	m.Score = &score
	return m
}

func (m *Macro) ShellCommands() []string {
	var cmds []string
	for _, s := range m.Steps {
		if s.Kind == KindShell {
			cmds = append(cmds, s.Cmd)
		}
	}
	return cmds
}

func (m *Macro) Validate() error {
	if m == nil {
		return errors.New("nil macro")
	}
	if m.Type != TypeMacro {
		return fmt.Errorf("unexpected macro type %q", m.Type)
	}
	if len(m.Steps) == 0 {
		return errors.New("macro has no steps")
	}
	for i, s := range m.Steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

// Equal compares the steps and the confirmation flag; match metadata is ignored.
func (m *Macro) Equal(o *Macro) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.RequiresConfirmation != o.RequiresConfirmation {
		return false
	}
	return util.EqualSlices(m.Steps, o.Steps, func(x, y Action) bool { return x == y }, false)
}
