package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type InputType string

const (
	InputRadio    InputType = "radio"
	InputCheckbox InputType = "checkbox"
	InputText     InputType = "text"
	InputDocument InputType = "document"
)

type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentStep  ContentType = "step"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FallbackReply replaces an assistant reply that carried no content.
const FallbackReply = "I couldn't process your message. Please try again."

var (
	ErrNoOptions        = errors.New("step has no options")
	ErrUnknownInputType = errors.New("unknown input type")
)

// StepMessage is a structured prompt from the assistant backend that expects
// a typed answer.
type StepMessage struct {
	StepNumber      FlexString `json:"step_number"`
	StepTitle       string     `json:"step_title"`
	Message         string     `json:"message"`
	Options         []string   `json:"options"`
	InputType       InputType  `json:"input_type"`
	RequiredFormats []string   `json:"required_formats,omitempty"`
}

// Validate checks that choice steps carry options and the input type is known.
func (s StepMessage) Validate() error {
	switch s.InputType {
	case InputRadio, InputCheckbox:
		if len(s.Options) == 0 {
			return fmt.Errorf("%s step %q: %w", s.InputType, s.StepNumber, ErrNoOptions)
		}
	case InputText, InputDocument:
	default:
		return fmt.Errorf("step %q: %w: %q", s.StepNumber, ErrUnknownInputType, s.InputType)
	}
	return nil
}

var stepKeys = []string{"step_number", "step_title", "message", "input_type"}

// IsStepMessage reports whether a decoded JSON value has the step shape:
// the four step keys plus an array-valued "options". The check is purely
// structural.
func IsStepMessage(v any) bool {
	switch s := v.(type) {
	case StepMessage:
		return true
	case *StepMessage:
		return s != nil
	}
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return false
	}
	for _, k := range stepKeys {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	_, ok = obj["options"].([]any)
	return ok
}

// UnmarshalJSON coerces scalar fields so that every value IsStepMessage
// accepts also converts.
func (s *StepMessage) UnmarshalJSON(b []byte) error {
	var w struct {
		StepNumber      FlexString   `json:"step_number"`
		StepTitle       FlexString   `json:"step_title"`
		Message         FlexString   `json:"message"`
		Options         []FlexString `json:"options"`
		InputType       FlexString   `json:"input_type"`
		RequiredFormats []FlexString `json:"required_formats"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*s = StepMessage{
		StepNumber:      w.StepNumber,
		StepTitle:       string(w.StepTitle),
		Message:         string(w.Message),
		Options:         flexStrings(w.Options),
		InputType:       InputType(w.InputType),
		RequiredFormats: flexStrings(w.RequiredFormats),
	}
	return nil
}

func flexStrings(in []FlexString) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

// ParseStep decodes raw into a StepMessage when it passes IsStepMessage.
func ParseStep(raw json.RawMessage) (*StepMessage, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil || !IsStepMessage(v) {
		return nil, false
	}
	var step StepMessage
	if err := json.Unmarshal(raw, &step); err != nil {
		return nil, false
	}
	return &step, true
}

// ChatMessage is one entry of a conversation. Exactly one of Text or Step is
// meaningful, selected by ContentType.
type ChatMessage struct {
	Role        Role
	Text        string
	Step        *StepMessage
	Time        time.Time
	ContentType ContentType
	CaseType    string
}

type chatMessageJSON struct {
	Role        Role            `json:"role"`
	Content     json.RawMessage `json:"content"`
	Time        json.RawMessage `json:"time,omitempty"`
	ContentType ContentType     `json:"contentType"`
	CaseType    string          `json:"caseType,omitempty"`
}

func (m ChatMessage) MarshalJSON() ([]byte, error) {
	var content any = m.Text
	if m.Step != nil {
		content = m.Step
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	w := chatMessageJSON{
		Role:        m.Role,
		Content:     raw,
		ContentType: m.ContentType,
		CaseType:    m.CaseType,
	}
	if !m.Time.IsZero() {
		w.Time, _ = json.Marshal(m.Time.UTC().Format(time.RFC3339Nano))
	}
	return json.Marshal(w)
}

func (m *ChatMessage) UnmarshalJSON(b []byte) error {
	var w chatMessageJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*m = ChatMessage{Role: w.Role, ContentType: w.ContentType, CaseType: w.CaseType}
	m.Time = parseTime(w.Time)
	if step, ok := ParseStep(w.Content); ok {
		m.Step = step
		m.ContentType = ContentStep
		return nil
	}
	m.Text = textOf(w.Content)
	if m.ContentType == "" || m.ContentType == ContentStep {
		m.ContentType = ContentText
	}
	return nil
}

// parseTime accepts an RFC 3339 string or epoch milliseconds. Anything else
// yields the zero time rather than failing the whole message.
func parseTime(raw json.RawMessage) time.Time {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
		return time.Time{}
	}
	var ms int64
	if json.Unmarshal(raw, &ms) == nil && ms > 0 {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

// Display returns the text shown for m; steps show their prompt.
func (m ChatMessage) Display() string {
	if m.Step != nil {
		return m.Step.Message
	}
	return m.Text
}

type Conversation struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Messages []ChatMessage `json:"messages"`
	CaseType string        `json:"caseType,omitempty"`
}

// Last returns the newest message, if any.
func (c Conversation) Last() (ChatMessage, bool) {
	if len(c.Messages) == 0 {
		return ChatMessage{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// Envelope wraps every assistant-produced payload.
type Envelope struct {
	Type     string          `json:"type"`
	Content  json.RawMessage `json:"content"`
	CaseType string          `json:"caseType,omitempty"`
}

// Payload resolves the assistant payload: a step-shaped content is used as
// is, otherwise content.message when present, otherwise content.
func (e Envelope) Payload() json.RawMessage {
	if _, ok := ParseStep(e.Content); ok {
		return e.Content
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(e.Content, &obj) == nil {
		if msg, ok := obj["message"]; ok && !isNull(msg) {
			return msg
		}
	}
	return e.Content
}

// ToMessage converts the envelope into the assistant message appended to the
// conversation. caseType is used when the envelope does not name one.
func (e Envelope) ToMessage(caseType string, now time.Time) ChatMessage {
	if e.CaseType != "" {
		caseType = e.CaseType
	}
	msg := ChatMessage{Role: RoleAssistant, Time: now, CaseType: caseType}
	payload := e.Payload()
	if step, ok := ParseStep(payload); ok {
		msg.Step = step
		msg.ContentType = ContentStep
		return msg
	}
	msg.Text = textOf(payload)
	if strings.TrimSpace(msg.Text) == "" {
		msg.Text = FallbackReply
	}
	switch ct := ContentType(e.Type); ct {
	case ContentImage, ContentVideo:
		msg.ContentType = ct
	default:
		msg.ContentType = ContentText
	}
	return msg
}

// textOf renders a non-step payload as display text. Media objects yield
// their url.
func textOf(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj map[string]any
	if json.Unmarshal(raw, &obj) == nil {
		for _, k := range []string{"url", "message"} {
			if v, ok := obj[k].(string); ok && v != "" {
				return v
			}
		}
	}
	var buf bytes.Buffer
	if json.Compact(&buf, raw) == nil {
		return buf.String()
	}
	return string(raw)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
