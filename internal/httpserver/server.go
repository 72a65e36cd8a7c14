package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"iotconsole/iot-ui/internal/config"
	"iotconsole/iot-ui/internal/domain"
	"iotconsole/iot-ui/internal/gate"
	"iotconsole/iot-ui/internal/session"
)

// Resource is the proxy contract every remote resource satisfies.
type Resource[T any] interface {
	List(ctx context.Context, token, parentID string) ([]T, error)
	Get(ctx context.Context, token, id string) (T, error)
	Create(ctx context.Context, token, parentID string, v T) (string, error)
	Update(ctx context.Context, token string, v T) error
	Delete(ctx context.Context, token, id string) error
}

type AuthService interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error)
}

type Gatekeeper interface {
	Check(ctx context.Context, s *session.Session) gate.Decision
}

type Prober interface {
	Probe(ctx context.Context) error
}

type DashboardSource interface {
	RecentData(ctx context.Context, token string) ([]domain.DataPoint, error)
}

type AuditLogger interface {
	Log(ctx context.Context, actor, action, target, outcome, detail string) error
}

type Deps struct {
	Sessions *session.Manager
	Auth     AuthService
	Gate     Gatekeeper
	API      Prober
	Audit    AuditLogger
	Logger   *slog.Logger

	Customers         Resource[domain.Customer]
	Sites             Resource[domain.Site]
	Devices           Resource[domain.Device]
	DigitalServices   Resource[domain.DigitalService]
	NotificationUsers Resource[domain.DigitalService]
	Users             Resource[domain.User]
	Admins            Resource[domain.User]
	Roles             Resource[domain.Role]
	ProductTypes      Resource[domain.ProductType]
	Dashboard         DashboardSource
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewHandler(deps),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

type handler struct {
	deps Deps
	log  *slog.Logger
}

// NewHandler builds the browser-facing router. Deps.Sessions and Deps.Gate are required.
func NewHandler(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{deps: deps, log: logger.With("module", "httpserver")}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", h.readyz)

	r.Group(func(r chi.Router) {
		r.Use(deps.Sessions.Middleware)
		r.Use(h.csrfMiddleware)
		r.NotFound(h.notFound)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		})
		r.Get("/login", h.loginForm)
		r.Post("/login", h.login)
		r.Get("/logoff", h.logoff)
		r.Post("/logoff", h.logoff)
		r.Get("/admin/register", h.registerAdminForm)
		r.Post("/admin/register", h.registerAdmin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireLogin)
			h.mountDashboard(r)
			h.mountCustomers(r)
			h.mountSites(r)
			h.mountDigitalServices(r)
			h.mountUsers(r)
			h.mountCatalog(r)
		})
	})

	return r
}

func (h *handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.deps.API != nil {
		if err := h.deps.API.Probe(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
