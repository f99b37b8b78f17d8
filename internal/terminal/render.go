package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"case-chat/internal/model"
)

const defaultPrompt = "> "

// Renderer writes conversation output. Lines are serialized so background
// log output does not interleave with a message.
type Renderer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = io.Discard
	}
	return &Renderer{out: out}
}

func (r *Renderer) Line(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, strings.TrimRight(format, "\n")+"\n", args...)
}

func (r *Renderer) Prompt(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if label == "" {
		label = defaultPrompt
	}
	io.WriteString(r.out, label)
}

// Message prints one chat entry.
func (r *Renderer) Message(m model.ChatMessage) {
	if m.Role == model.RoleUser {
		r.Line("you: %s", m.Text)
		return
	}
	switch m.ContentType {
	case model.ContentStep:
		if m.Step != nil {
			r.Step(*m.Step)
			return
		}
		r.Line("bot: %s", m.Display())
	case model.ContentImage, model.ContentVideo:
		r.Line("bot: [%s] %s", m.ContentType, m.Text)
	default:
		r.Line("bot: %s", m.Text)
	}
}

// Step prints a step prompt with the input hint for its type.
func (r *Renderer) Step(s model.StepMessage) {
	title := strings.TrimSpace(s.StepTitle)
	if n := s.StepNumber.String(); n != "" {
		title = fmt.Sprintf("Step %s: %s", n, title)
	}
	r.Line("bot: %s", title)
	if s.Message != "" {
		r.Line("     %s", s.Message)
	}
	switch s.InputType {
	case model.InputRadio, model.InputCheckbox:
		for i, o := range s.Options {
			r.Line("     %d) %s", i+1, o)
		}
	}
	r.Line("     (%s)", hint(s))
}

func hint(s model.StepMessage) string {
	switch s.InputType {
	case model.InputRadio:
		return "choose one option by number"
	case model.InputCheckbox:
		return "choose options by number, comma separated, in order"
	case model.InputDocument:
		if len(s.RequiredFormats) > 0 {
			return fmt.Sprintf("enter file paths, comma separated (%s), or 'skip'", strings.Join(s.RequiredFormats, ", "))
		}
		return "enter file paths, comma separated, or 'skip'"
	default:
		return "type your answer"
	}
}
