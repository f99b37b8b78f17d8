package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"case-chat/internal/model"
)

var (
	ErrBusy          = errors.New("a submission is already in progress")
	ErrEmptyAnswer   = errors.New("nothing to submit")
	ErrWrongInput    = errors.New("action does not match the step input type")
	ErrUnknownOption = errors.New("option not offered by this step")
)

// SkipDisplay is the user-facing text of a skipped document step.
const SkipDisplay = "Skip for now"

// Answer is the finalized value of one step.
type Answer struct {
	Values  []string
	Files   []model.File
	Skipped bool
}

// Message is the value sent as content.message.
func (a Answer) Message() string {
	if a.Skipped {
		return ""
	}
	return strings.Join(a.Values, ", ")
}

// Display is the text of the user's chat bubble for this answer.
func (a Answer) Display() string {
	switch {
	case a.Skipped:
		return SkipDisplay
	case len(a.Files) > 0:
		names := make([]string, len(a.Files))
		for i, f := range a.Files {
			names[i] = f.Name
		}
		return "Uploaded: " + strings.Join(names, ", ")
	default:
		return a.Message()
	}
}

type SubmitFunc func(ctx context.Context, a Answer) error

// FormatError rejects a staged file whose extension is not accepted.
type FormatError struct {
	Name    string
	Ext     string
	Allowed []string
}

func (e *FormatError) Error() string {
	ext := e.Ext
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("%s: file type %s is not allowed, accepted formats: %s", e.Name, ext, strings.Join(e.Allowed, ", "))
}

// Form holds the transient answer for one step message. A new step gets a
// new Form.
type Form struct {
	step     model.StepMessage
	submit   SubmitFunc
	busy     func() bool
	allowed  []string
	inflight atomic.Bool

	mu       sync.Mutex
	selected []string
	text     string
	staged   []model.File
}

type FormOption func(*Form)

// WithBusy disables the form while fn reports a conversation-wide submission.
func WithBusy(fn func() bool) FormOption {
	return func(f *Form) { f.busy = fn }
}

func NewForm(step model.StepMessage, submit SubmitFunc, opts ...FormOption) (*Form, error) {
	if err := step.Validate(); err != nil {
		return nil, err
	}
	f := &Form{step: step, submit: submit, busy: func() bool { return false }}
	for _, o := range opts {
		o(f)
	}
	for _, ext := range step.RequiredFormats {
		ext = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" && !slices.Contains(f.allowed, ext) {
			f.allowed = append(f.allowed, ext)
		}
	}
	return f, nil
}

func (f *Form) Step() model.StepMessage { return f.step }

// Disabled reports whether controls are locked by an in-flight submission.
func (f *Form) Disabled() bool {
	return f.inflight.Load() || f.busy()
}

// Select answers a radio step immediately.
func (f *Form) Select(ctx context.Context, option string) error {
	if err := f.expect(model.InputRadio); err != nil {
		return err
	}
	if !slices.Contains(f.step.Options, option) {
		return fmt.Errorf("%w: %q", ErrUnknownOption, option)
	}
	return f.run(ctx, Answer{Values: []string{option}}, nil)
}

// Toggle adds or removes a checkbox option, keeping selection order.
func (f *Form) Toggle(option string) error {
	if err := f.expect(model.InputCheckbox); err != nil {
		return err
	}
	if !slices.Contains(f.step.Options, option) {
		return fmt.Errorf("%w: %q", ErrUnknownOption, option)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := slices.Index(f.selected, option); i >= 0 {
		f.selected = slices.Delete(f.selected, i, i+1)
	} else {
		f.selected = append(f.selected, option)
	}
	return nil
}

// ClearSelection drops any checkbox options toggled so far.
func (f *Form) ClearSelection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = nil
}

func (f *Form) Selected() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.selected)
}

func (f *Form) SetText(s string) error {
	if err := f.expect(model.InputText); err != nil {
		return err
	}
	f.mu.Lock()
	f.text = s
	f.mu.Unlock()
	return nil
}

// Stage validates files against the step's required formats. Accepted files
// are appended; each rejected file yields a *FormatError.
func (f *Form) Stage(files ...model.File) []error {
	if err := f.expect(model.InputDocument); err != nil {
		return []error{err}
	}
	var errs []error
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range files {
		if len(f.allowed) > 0 && !slices.Contains(f.allowed, file.Ext()) {
			errs = append(errs, &FormatError{Name: file.Name, Ext: file.Ext(), Allowed: slices.Clone(f.allowed)})
			continue
		}
		f.staged = append(f.staged, file)
	}
	return errs
}

func (f *Form) Staged() []model.File {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.staged)
}

// Confirm submits the accumulated answer of a checkbox, text or document
// step. An empty answer is rejected without calling the submit callback.
func (f *Form) Confirm(ctx context.Context) error {
	if f.Disabled() {
		return ErrBusy
	}
	f.mu.Lock()
	var (
		a     Answer
		reset func()
	)
	switch f.step.InputType {
	case model.InputCheckbox:
		a.Values = slices.Clone(f.selected)
		reset = func() { f.selected = nil }
	case model.InputText:
		if strings.TrimSpace(f.text) != "" {
			a.Values = []string{f.text}
		}
		reset = func() { f.text = "" }
	case model.InputDocument:
		a.Files = slices.Clone(f.staged)
		reset = func() { f.staged = nil }
	default:
		f.mu.Unlock()
		return ErrWrongInput
	}
	f.mu.Unlock()

	if len(a.Values) == 0 && len(a.Files) == 0 {
		return ErrEmptyAnswer
	}
	return f.run(ctx, a, reset)
}

// Skip submits an empty, skipped answer for a document step, dropping any
// staged files.
func (f *Form) Skip(ctx context.Context) error {
	if err := f.expect(model.InputDocument); err != nil {
		return err
	}
	return f.run(ctx, Answer{Skipped: true}, func() { f.staged = nil })
}

func (f *Form) expect(t model.InputType) error {
	if f.step.InputType != t {
		return fmt.Errorf("%w: step is %s", ErrWrongInput, f.step.InputType)
	}
	if f.Disabled() {
		return ErrBusy
	}
	return nil
}

func (f *Form) run(ctx context.Context, a Answer, reset func()) error {
	if f.busy() || !f.inflight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer f.inflight.Store(false)

	err := f.submit(ctx, a)
	if reset != nil && !errors.Is(err, ErrBusy) {
		f.mu.Lock()
		reset()
		f.mu.Unlock()
	}
	return err
}
