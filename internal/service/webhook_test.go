package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"case-chat/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardRelaysStatusAndBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhook/create-case", r.URL.Path)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"A","type":"civil"}`, string(body))
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"exists"}`))
	}))
	defer upstream.Close()

	svc := NewWebhookService(upstream.URL+"/webhook", time.Second)
	reply, err := svc.Forward(context.Background(), Call{
		Method:      http.MethodPost,
		Endpoint:    "/create-case",
		Body:        strings.NewReader(`{"name":"A","type":"civil"}`),
		ContentType: "application/json",
		Auth:        "Bearer abc",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, reply.Status)
	assert.JSONEq(t, `{"message":"exists"}`, string(reply.Body))
}

func TestForwardRejectsNonJSONBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer upstream.Close()

	svc := NewWebhookService(upstream.URL, time.Second)
	reply, err := svc.Forward(context.Background(), Call{Method: http.MethodGet, Endpoint: "/user-details"})
	assert.ErrorIs(t, err, ErrUpstreamBody)
	require.NotNil(t, reply)
	assert.Equal(t, http.StatusOK, reply.Status)
}

func TestForwardTransportError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	svc := NewWebhookService(url, time.Second)
	reply, err := svc.Forward(context.Background(), Call{Method: http.MethodGet, Endpoint: "/user-details"})
	assert.Error(t, err)
	assert.Nil(t, reply)
}

func TestTokenFingerprint(t *testing.T) {
	assert.Equal(t, "", TokenFingerprint(""))
	assert.Equal(t, "", TokenFingerprint("Bearer "))
	a := TokenFingerprint("Bearer abc")
	assert.Len(t, a, 16)
	assert.Equal(t, a, TokenFingerprint("abc"))
	assert.NotEqual(t, a, TokenFingerprint("Bearer abd"))
}

func TestNilAuditIsNoop(t *testing.T) {
	var s *AuditService
	assert.NoError(t, s.Migrate())
	assert.NoError(t, s.Record(context.Background(), nil))
	s.RecordAsync(model.WebhookCall{Endpoint: "/login"})
}

func TestDemoReply(t *testing.T) {
	cases := map[string]string{
		"Hey there":      "Hello! 👋 How can I assist you today? Feel free to ask me anything!",
		"how are you":    "I'm doing great, thanks for asking!",
		"I love Python":  "Great! I'm well-versed in programming.",
		"Write an essay": "I'd love to help with your writing!",
		"tell me a joke": "Why did the AI go to school?",
		"Goodbye":        "Goodbye! It was great chatting with you.",
	}
	for in, want := range cases {
		assert.True(t, strings.HasPrefix(DemoReply(in), want), in)
	}
	assert.True(t, strings.HasPrefix(DemoReply(`say "x"`), `That's an interesting question: "say "x"". I can help you with that!`))
}
