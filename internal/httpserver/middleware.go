package httpserver

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"iotconsole/iot-ui/internal/domain"
	"iotconsole/iot-ui/internal/gate"
	"iotconsole/iot-ui/internal/observability"
	"iotconsole/iot-ui/internal/session"
)

const (
	csrfFormField  = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(observability.WithRequestID(r.Context(), reqID)))
	})
}

func (h *handler) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.log.ErrorContext(r.Context(), "panic recovered",
					"operation", "http_panic_recovery",
					"outcome", "failure",
					"request_id", observability.RequestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				h.renderError(w, r, http.StatusInternalServerError, msgGeneric)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if r.statusCode == 0 {
		r.statusCode = statusCode
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (h *handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		outcome := "success"
		if statusCode >= 400 {
			outcome = "failure"
		}

		fields := []any{
			"operation", "http_request",
			"outcome", outcome,
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", statusCode,
			"bytes", recorder.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", observability.RequestIDFromContext(r.Context()),
		}
		switch {
		case statusCode >= 500:
			h.log.ErrorContext(r.Context(), "http request completed", fields...)
		case statusCode >= 400:
			h.log.WarnContext(r.Context(), "http request completed", fields...)
		default:
			h.log.InfoContext(r.Context(), "http request completed", fields...)
		}
	})
}

// csrfMiddleware rejects state-changing requests whose token does not match the session.
func (h *handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		sess := session.FromContext(r.Context())
		token := r.Header.Get(csrfHeaderName)
		if token == "" {
			token = r.PostFormValue(csrfFormField)
		}
		if !sess.ValidCSRF(token) {
			h.log.WarnContext(r.Context(), "csrf token rejected",
				"operation", "csrf_check",
				"outcome", "denied",
				"request_id", observability.RequestIDFromContext(r.Context()),
				"path", r.URL.Path,
			)
			// Pre-login forms outlive an expired session; show them again with a fresh token.
			switch r.URL.Path {
			case "/login":
				h.render(w, r, http.StatusUnprocessableEntity, "login", "Log in", loginView{
					Email:     formString(r.PostForm, "email"),
					FormError: msgSessionExpired,
					Errors:    domain.FieldErrors{},
				})
				return
			case "/admin/register":
				h.renderRegisterAdmin(w, r, http.StatusUnprocessableEntity, registerFields(r.PostForm), msgSessionExpired)
				return
			}
			h.renderError(w, r, http.StatusForbidden, msgForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		switch h.deps.Gate.Check(r.Context(), sess) {
		case gate.ShowConnectivityError:
			h.renderError(w, r, http.StatusServiceUnavailable, msgUnavailable)
			return
		case gate.RedirectToLogin:
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func (h *handler) audit(r *http.Request, action, target, outcome, detail string) {
	if h.deps.Audit == nil {
		return
	}
	sess := session.FromContext(r.Context())
	parts := []string{"ip=" + clientIP(r)}
	if detail = strings.TrimSpace(detail); detail != "" {
		parts = append(parts, "detail="+detail)
	}
	if err := h.deps.Audit.Log(r.Context(), sess.Get(session.KeyUserEmail), action, target, outcome, strings.Join(parts, " | ")); err != nil {
		h.log.WarnContext(r.Context(), "audit write failed",
			"operation", "audit_log",
			"outcome", "failure",
			"error", err.Error(),
		)
	}
}
