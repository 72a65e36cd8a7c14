package session

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/google/uuid"
)

const (
	KeyToken            = "token"
	KeyUserEmail        = "user_email"
	KeyUserRole         = "user_role"
	KeyCustomerID       = "customer_id"
	KeySiteID           = "site_id"
	KeyDigitalServiceID = "digital_service_id"
	KeyCSRF             = "csrf"
)

// Session is the per-request view of one stored session. Values are strings; a missing key
// reads as "".
type Session struct {
	mu     sync.Mutex
	id     string
	values map[string]string
	dirty  bool
	renew  bool
	stored bool
}

func newSession(id string, values map[string]string, stored bool) *Session {
	if values == nil {
		values = make(map[string]string)
	}
	return &Session{id: id, values: values, stored: stored}
}

// New returns an empty session that is not yet backed by a store.
func New() *Session {
	return newSession(uuid.NewString(), nil, false)
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *Session) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.values[key]; ok && cur == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

func (s *Session) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// Clear drops every key, the CSRF token included.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return
	}
	s.values = make(map[string]string)
	s.dirty = true
}

// Renew asks the manager to move the values to a fresh id when the request ends. Called
// after a successful login.
func (s *Session) Renew() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renew = true
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

func (s *Session) Values() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyValues(s.values)
}

func (s *Session) Token() string { return s.Get(KeyToken) }

func (s *Session) LoggedIn() bool { return s.Get(KeyToken) != "" }

// CSRFToken returns the session's anti-forgery token, creating it on first use.
func (s *Session) CSRFToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok := s.values[KeyCSRF]; tok != "" {
		return tok
	}
	tok := uuid.NewString()
	s.values[KeyCSRF] = tok
	s.dirty = true
	return tok
}

func (s *Session) ValidCSRF(token string) bool {
	want := s.Get(KeyCSRF)
	if want == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 1
}

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's session. Outside the manager middleware it returns a
// detached empty session so callers never see nil.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok && s != nil {
		return s
	}
	return New()
}
