package gate

import (
	"context"
	"log/slog"

	"iotconsole/iot-ui/internal/session"
)

type Decision int

const (
	Proceed Decision = iota
	ShowConnectivityError
	RedirectToLogin
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case ShowConnectivityError:
		return "connectivity_error"
	case RedirectToLogin:
		return "redirect_to_login"
	}
	return "unknown"
}

type Prober interface {
	Probe(ctx context.Context) error
}

// Gate runs before every protected page: the remote API must answer and the session must
// carry a token.
type Gate struct {
	prober Prober
	log    *slog.Logger
}

func New(prober Prober, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{prober: prober, log: logger.With("module", "gate")}
}

// Check probes on every call. An unreachable API clears the session whether or not it held
// a token.
func (g *Gate) Check(ctx context.Context, s *session.Session) Decision {
	if err := g.prober.Probe(ctx); err != nil {
		g.log.WarnContext(ctx, "remote api unreachable",
			"operation", "gate_check",
			"outcome", "failure",
			"error", err.Error(),
		)
		s.Clear()
		return ShowConnectivityError
	}
	if !s.LoggedIn() {
		return RedirectToLogin
	}
	return Proceed
}
