package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"iotconsole/iot-ui/internal/apiclient"
	"iotconsole/iot-ui/internal/audit"
	"iotconsole/iot-ui/internal/auth"
	"iotconsole/iot-ui/internal/config"
	"iotconsole/iot-ui/internal/gate"
	"iotconsole/iot-ui/internal/httpserver"
	"iotconsole/iot-ui/internal/observability"
	"iotconsole/iot-ui/internal/resource"
	"iotconsole/iot-ui/internal/session"
)

const purgeInterval = time.Minute

// purger is implemented by stores that do not expire entries on their own.
type purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

type App struct {
	cfg     config.Config
	log     *slog.Logger
	store   session.Store
	closers []io.Closer
	server  *httpserver.Server
}

func New(cfg config.Config) (*App, error) {
	logger := observability.NewLogger(cfg.LogLevel)

	api, err := apiclient.New(apiclient.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		ProbePath: cfg.API.ProbePath,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	a := &App{cfg: cfg, log: logger}
	store, err := a.openSessionStore(context.Background())
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = store

	sessions, err := session.NewManager(session.ManagerOptions{
		Store:        store,
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
		IdleTimeout:  cfg.Session.IdleTimeout,
		Logger:       logger,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create session manager: %w", err)
	}

	authService, err := auth.NewService(api, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create auth service: %w", err)
	}

	catalog := resource.NewCatalog(api)
	a.server = httpserver.New(cfg.HTTP, httpserver.Deps{
		Sessions: sessions,
		Auth:     authService,
		Gate:     gate.New(api, logger),
		API:      api,
		Audit:    audit.NewLogger(cfg.AuditLogFile),
		Logger:   logger,

		Customers:         catalog.Customers,
		Sites:             catalog.Sites,
		Devices:           catalog.Devices,
		DigitalServices:   catalog.DigitalServices,
		NotificationUsers: catalog.NotificationUsers,
		Users:             catalog.Users,
		Admins:            catalog.Admins,
		Roles:             catalog.Roles,
		ProductTypes:      catalog.ProductTypes,
		Dashboard:         catalog.Dashboard,
	})
	return a, nil
}

func (a *App) openSessionStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.Session.Store {
	case config.SessionStorePostgres:
		db, err := sql.Open("postgres", a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.closers = append(a.closers, db)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		store, err := session.NewPostgresStore(db)
		if err != nil {
			return nil, fmt.Errorf("create postgres session store: %w", err)
		}
		a.log.Info("session store ready", "backend", "postgres")
		return store, nil

	case config.SessionStoreRedis:
		client, err := session.Connect(ctx, a.cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, client)
		store, err := session.NewRedisStore(client)
		if err != nil {
			return nil, fmt.Errorf("create redis session store: %w", err)
		}
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.log.Info("session store ready", "backend", "redis")
		return store, nil
	}

	a.log.Info("session store ready", "backend", "memory")
	return session.NewMemoryStore(), nil
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

// purgeLoop drops expired sessions from stores without native expiry until ctx ends.
func (a *App) purgeLoop(ctx context.Context, p purger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				a.log.WarnContext(ctx, "session purge failed", "operation", "session_purge", "outcome", "failure", "error", err.Error())
				continue
			}
			if n > 0 {
				a.log.DebugContext(ctx, "expired sessions purged", "operation", "session_purge", "outcome", "success", "count", n)
			}
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if p, ok := a.store.(purger); ok {
		purgeCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go a.purgeLoop(purgeCtx, p)
	}

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr, "api_base_url", a.cfg.API.BaseURL)
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
