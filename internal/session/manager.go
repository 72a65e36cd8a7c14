package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultCookieName  = "iot_session"
	DefaultIdleTimeout = 5 * time.Minute
)

type ManagerOptions struct {
	Store        Store
	CookieName   string
	CookieSecure bool
	IdleTimeout  time.Duration
	Logger       *slog.Logger
}

// Manager binds sessions to requests through an opaque cookie and writes changes back to
// the store before the response headers go out.
type Manager struct {
	store  Store
	cookie string
	secure bool
	idle   time.Duration
	log    *slog.Logger
}

func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	m := &Manager{
		store:  opts.Store,
		cookie: opts.CookieName,
		secure: opts.CookieSecure,
		idle:   opts.IdleTimeout,
		log:    opts.Logger,
	}
	if m.cookie == "" {
		m.cookie = DefaultCookieName
	}
	if m.idle <= 0 {
		m.idle = DefaultIdleTimeout
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	m.log = m.log.With("module", "session")
	return m, nil
}

func (m *Manager) CookieName() string { return m.cookie }

func (m *Manager) IdleTimeout() time.Duration { return m.idle }

func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, presented := m.load(r)
		sw := &sessionWriter{ResponseWriter: w, m: m, ctx: context.WithoutCancel(r.Context()), sess: sess, presented: presented}
		next.ServeHTTP(sw, r.WithContext(NewContext(r.Context(), sess)))
		sw.finish()
	})
}

func (m *Manager) load(r *http.Request) (*Session, string) {
	c, err := r.Cookie(m.cookie)
	if err != nil || c.Value == "" {
		return New(), ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return New(), c.Value
	}
	values, err := m.store.Load(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.WarnContext(r.Context(), "session load failed",
				"operation", "session_load",
				"outcome", "failure",
				"error", err.Error(),
			)
		}
		return New(), c.Value
	}
	return newSession(c.Value, values, true), c.Value
}

// persist writes the session state back. It reports the id the browser should hold, or ""
// when the session is empty and the cookie should be dropped.
func (m *Manager) persist(ctx context.Context, s *Session) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.renew {
		if s.stored {
			if err := m.store.Delete(ctx, s.id); err != nil {
				m.logPersistError(ctx, "session_renew", err)
			}
		}
		s.id = uuid.NewString()
		s.stored = false
		s.renew = false
	}

	if len(s.values) == 0 {
		if s.stored {
			if err := m.store.Delete(ctx, s.id); err != nil {
				m.logPersistError(ctx, "session_delete", err)
			}
			s.stored = false
		}
		s.dirty = false
		return ""
	}

	// Saved on every request so the idle timeout slides.
	if err := m.store.Save(ctx, s.id, copyValues(s.values), m.idle); err != nil {
		m.logPersistError(ctx, "session_save", err)
		return s.id
	}
	s.stored = true
	s.dirty = false
	return s.id
}

func (m *Manager) logPersistError(ctx context.Context, op string, err error) {
	m.log.ErrorContext(ctx, "session persist failed",
		"operation", op,
		"outcome", "failure",
		"error", err.Error(),
	)
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type sessionWriter struct {
	http.ResponseWriter
	m         *Manager
	ctx       context.Context
	sess      *Session
	presented string
	committed bool
}

func (w *sessionWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true

	id := w.m.persist(w.ctx, w.sess)
	switch {
	case id == "" && w.presented != "":
		w.m.expireCookie(w.ResponseWriter)
	case id != "" && id != w.presented:
		w.m.setCookie(w.ResponseWriter, id)
	}
}

func (w *sessionWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Flush() {
	w.commit()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *sessionWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// finish runs after the handler. Changes made once headers were sent are still stored,
// but the cookie can no longer change.
func (w *sessionWriter) finish() {
	if !w.committed {
		w.commit()
		return
	}
	w.sess.mu.Lock()
	dirty := w.sess.dirty
	w.sess.mu.Unlock()
	if dirty {
		w.m.persist(w.ctx, w.sess)
	}
}
