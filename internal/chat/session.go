// Package chat holds the client-side conversation model: step forms, the
// conversation store and the per-case session that dispatches answers to the
// webhook backend.
package chat

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"case-chat/internal/logger"
	"case-chat/internal/model"
)

// ErrorReply replaces any failed assistant round trip. Raw error detail is
// only logged.
const ErrorReply = "Sorry, I encountered an error. Please try again."

// Backend is the subset of the webhook API a chat session needs.
type Backend interface {
	InitiateChat(ctx context.Context, ref model.CaseRef) (*model.Envelope, error)
	AIResponse(ctx context.Context, ref model.CaseRef, message string) (*model.Envelope, error)
	AIResponseFiles(ctx context.Context, ref model.CaseRef, files []model.File) (*model.Envelope, error)
}

// Session is one opened case. At most one submission is in flight at a time
// and replies that resolve after Close are dropped.
type Session struct {
	backend Backend
	store   *Store
	ref     model.CaseRef
	convID  string
	now     func() time.Time

	loading atomic.Bool
	gen     atomic.Uint64
}

type SessionOption func(*Session)

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// Open bootstraps the conversation for c. A non-empty history is used as is;
// otherwise the backend is asked to initiate the chat. Failing to initiate
// still opens the case, with no messages.
func Open(ctx context.Context, backend Backend, store *Store, c model.Case, history []model.ChatMessage, opts ...SessionOption) *Session {
	s := &Session{
		backend: backend,
		store:   store,
		ref:     c.Ref().Normalized(),
		convID:  ConversationID(c.CaseID),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	messages := history
	if len(messages) == 0 {
		env, err := backend.InitiateChat(ctx, s.ref)
		if err != nil {
			logger.Warn("chat.initiate.failed", "case", s.ref.CaseID, "err", err)
		} else {
			messages = []model.ChatMessage{env.ToMessage(s.ref.CaseType, s.now())}
		}
	}

	store.Put(model.Conversation{
		ID:       s.convID,
		Title:    s.ref.CaseName,
		Messages: messages,
		CaseType: s.ref.CaseType,
	})
	logger.Info("chat.open", "case", s.ref.CaseID, "messages", len(messages))
	return s
}

// ConversationID is the store key of a case's conversation.
func ConversationID(id model.CaseID) string { return "case-" + string(id) }

func (s *Session) ConversationID() string { return s.convID }

func (s *Session) Case() model.CaseRef { return s.ref }

func (s *Session) Conversation() model.Conversation {
	c, _ := s.store.Get(s.convID)
	return c
}

// Loading reports whether a submission is in flight.
func (s *Session) Loading() bool { return s.loading.Load() }

// Close detaches the session; replies still in flight are discarded.
func (s *Session) Close() { s.gen.Add(1) }

// NewForm builds the form for a step of this conversation, locked while
// the session is loading.
func (s *Session) NewForm(step model.StepMessage) (*Form, error) {
	return NewForm(step, s.Submit, WithBusy(s.Loading))
}

// Send submits free text typed into the chat input.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyAnswer
	}
	return s.Submit(ctx, Answer{Values: []string{text}})
}

// Submit appends the user's answer, forwards it and appends the assistant
// reply. Failures become ErrorReply in the conversation and are returned
// to the caller.
func (s *Session) Submit(ctx context.Context, a Answer) error {
	if !s.loading.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.loading.Store(false)

	gen := s.gen.Load()
	s.store.Append(s.convID, s.userMessage(a.Display()))

	var (
		env *model.Envelope
		err error
	)
	if len(a.Files) > 0 && !a.Skipped {
		env, err = s.backend.AIResponseFiles(ctx, s.ref, a.Files)
	} else {
		env, err = s.backend.AIResponse(ctx, s.ref, a.Message())
	}

	var reply model.ChatMessage
	if err != nil {
		logger.Warn("chat.submit.failed", "case", s.ref.CaseID, "files", len(a.Files), "err", err)
		reply = model.ChatMessage{
			Role:        model.RoleAssistant,
			Text:        ErrorReply,
			Time:        s.now(),
			ContentType: model.ContentText,
			CaseType:    s.ref.CaseType,
		}
	} else {
		reply = env.ToMessage(s.ref.CaseType, s.now())
	}

	if s.gen.Load() != gen {
		logger.Info("chat.reply.stale", "case", s.ref.CaseID)
		return err
	}
	s.store.Append(s.convID, reply)
	return err
}

func (s *Session) userMessage(text string) model.ChatMessage {
	return model.ChatMessage{
		Role:        model.RoleUser,
		Text:        text,
		Time:        s.now(),
		ContentType: model.ContentText,
		CaseType:    s.ref.CaseType,
	}
}
