package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"iotconsole/iot-ui/internal/apiclient"
	"iotconsole/iot-ui/internal/domain"
	"iotconsole/iot-ui/internal/session"
)

var (
	// ErrLoginFailed means the remote answered the login call with a non-2xx status.
	ErrLoginFailed = errors.New("login failed")
	// ErrInvalidCredentials means the remote answered with success=false.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	MsgLoginFailed        = "Login failed. Please try again."
	MsgInvalidCredentials = "Incorrect Email or Password."
	MsgLoginError         = "An error occurred. Please try again."
)

const loginPath = "User/Login"

type Service struct {
	api *apiclient.Client
	log *slog.Logger
}

func NewService(api *apiclient.Client, logger *slog.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, log: logger.With("module", "auth")}, nil
}

// Login exchanges credentials for a bearer token. It never touches the session.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error) {
	creds.Email = strings.TrimSpace(creds.Email)

	resp, err := s.api.Do(ctx, http.MethodPost, loginPath, "", creds)
	if err != nil {
		s.logOutcome(ctx, "failure", "transport", err)
		return domain.LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if !resp.OK() {
		s.logOutcome(ctx, "failure", "status", fmt.Errorf("status %d", resp.StatusCode))
		return domain.LoginResult{}, fmt.Errorf("login: status %d: %w", resp.StatusCode, ErrLoginFailed)
	}

	var env apiclient.Envelope[domain.LoginResult]
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		s.logOutcome(ctx, "failure", "decode", err)
		return domain.LoginResult{}, fmt.Errorf("login: %w: %v", apiclient.ErrMalformed, err)
	}
	if !env.Success {
		s.logOutcome(ctx, "denied", "credentials", nil)
		return domain.LoginResult{}, fmt.Errorf("login: %w", ErrInvalidCredentials)
	}
	if env.Data.Token == "" {
		s.logOutcome(ctx, "failure", "decode", errors.New("empty token"))
		return domain.LoginResult{}, fmt.Errorf("login: %w: empty token", apiclient.ErrMalformed)
	}
	if env.Data.Email == "" {
		env.Data.Email = creds.Email
	}
	s.logOutcome(ctx, "success", "", nil)
	return env.Data, nil
}

func (s *Service) logOutcome(ctx context.Context, outcome, reason string, err error) {
	attrs := []any{"operation", "login", "outcome", outcome}
	if reason != "" {
		attrs = append(attrs, "reason", reason)
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	if outcome == "success" {
		s.log.InfoContext(ctx, "login completed", attrs...)
		return
	}
	s.log.WarnContext(ctx, "login rejected", attrs...)
}

// Message maps a Login error to the text shown on the login form.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, ErrLoginFailed):
		return MsgLoginFailed
	}
	return MsgLoginError
}

// Establish moves the session to the logged-in state and rotates its id.
func Establish(s *session.Session, res domain.LoginResult) {
	s.Set(session.KeyToken, res.Token)
	s.Set(session.KeyUserEmail, res.Email)
	s.Set(session.KeyUserRole, res.Roles)
	s.Renew()
}

// Logoff drops every session key.
func Logoff(s *session.Session) {
	s.Clear()
}
