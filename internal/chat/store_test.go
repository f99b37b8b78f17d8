package chat

import (
	"fmt"
	"sync"
	"testing"

	"case-chat/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(role model.Role, s string) model.ChatMessage {
	return model.ChatMessage{Role: role, Text: s, ContentType: model.ContentText}
}

func TestStoreAppendUnknownConversation(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Append("missing", text(model.RoleUser, "hi")))
	_, ok := s.Get("missing")
	assert.False(t, ok)
}

func TestStoreConcurrentAppendsAreNotLost(t *testing.T) {
	s := NewStore()
	s.Put(model.Conversation{ID: "c"})

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append("c", text(model.RoleUser, fmt.Sprint(i)))
		}(i)
	}
	wg.Wait()

	c, ok := s.Get("c")
	require.True(t, ok)
	assert.Len(t, c.Messages, n)
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Put(model.Conversation{ID: "c", Messages: []model.ChatMessage{text(model.RoleUser, "a")}})

	c, _ := s.Get("c")
	c.Messages[0].Text = "mutated"
	s.Append("c", text(model.RoleAssistant, "b"))

	c, _ = s.Get("c")
	require.Len(t, c.Messages, 2)
	assert.Equal(t, "a", c.Messages[0].Text)
}

func TestStoreListKeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	s.Put(model.Conversation{ID: "b", Title: "B"})
	s.Put(model.Conversation{ID: "a", Title: "A"})
	s.Put(model.Conversation{ID: "b", Title: "B2"})

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "B2", list[0].Title)
	assert.Equal(t, "A", list[1].Title)
}
