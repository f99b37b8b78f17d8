package chat

import (
	"slices"
	"sync"

	"case-chat/internal/model"
)

// Store keeps the conversations of this process. Every mutation is applied
// to the latest committed value under the lock, so concurrent appends are
// never lost.
type Store struct {
	mu    sync.Mutex
	convs map[string]model.Conversation
	order []string
}

func NewStore() *Store {
	return &Store{convs: make(map[string]model.Conversation)}
}

// Put adds c or replaces the conversation with the same id.
func (s *Store) Put(c model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.convs[c.ID]; !ok {
		s.order = append(s.order, c.ID)
	}
	c.Messages = slices.Clone(c.Messages)
	s.convs[c.ID] = c
}

// Update replaces conversation id with fn(current). It reports false when
// the conversation does not exist.
func (s *Store) Update(id string, fn func(model.Conversation) model.Conversation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.convs[id]
	if !ok {
		return false
	}
	next := fn(cur)
	next.ID = id
	s.convs[id] = next
	return true
}

func (s *Store) Append(id string, msgs ...model.ChatMessage) bool {
	return s.Update(id, func(c model.Conversation) model.Conversation {
		c.Messages = slices.Concat(c.Messages, msgs)
		return c
	})
}

func (s *Store) Get(id string) (model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	c.Messages = slices.Clone(c.Messages)
	return c, ok
}

// List returns conversations in the order they were first added.
func (s *Store) List() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Conversation, 0, len(s.order))
	for _, id := range s.order {
		c := s.convs[id]
		c.Messages = slices.Clone(c.Messages)
		out = append(out, c)
	}
	return out
}
