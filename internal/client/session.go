package client

import "sync"

// Session holds the bearer token for one signed-in user. It is initialized
// by Login and torn down by Logout, which also runs on any 401 reply.
type Session struct {
	mu       sync.RWMutex
	token    string
	onLogout []func()
}

func NewSession() *Session { return &Session{} }

func (s *Session) Login(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Logout clears the token and runs the registered hooks once per active
// session.
func (s *Session) Logout() {
	s.mu.Lock()
	hadToken := s.token != ""
	s.token = ""
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	if !hadToken {
		return
	}
	for _, fn := range hooks {
		fn()
	}
}

func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}
