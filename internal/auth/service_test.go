package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"iotconsole/iot-ui/internal/apiclient"
	"iotconsole/iot-ui/internal/domain"
	"iotconsole/iot-ui/internal/session"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	api, err := apiclient.New(apiclient.Options{BaseURL: srv.URL + "/api/"})
	if err != nil {
		t.Fatalf("apiclient.New() error: %v", err)
	}
	svc, err := NewService(api, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	return svc
}

func TestNewServiceRequiresClient(t *testing.T) {
	if _, err := NewService(nil, nil); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestLoginSuccess(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/User/Login" {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login must not carry a bearer token")
		}
		var creds domain.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email != "admin@iot.test" || creds.Password != "secret1" {
			t.Errorf("unexpected credentials %+v", creds)
		}
		_, _ = w.Write([]byte(`{"success":true,"message":null,"data":{"token":"jwt-1","email":"admin@iot.test","roles":"GlobalAdmin"}}`))
	})

	res, err := svc.Login(context.Background(), domain.Credentials{Email: " admin@iot.test ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if res.Token != "jwt-1" || res.Roles != "GlobalAdmin" {
		t.Fatalf("unexpected login result %+v", res)
	}
}

func TestLoginFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		want   error
		msg    string
	}{
		"non-2xx":      {status: http.StatusInternalServerError, body: ``, want: ErrLoginFailed, msg: MsgLoginFailed},
		"unauthorized": {status: http.StatusUnauthorized, body: `{"success":false}`, want: ErrLoginFailed, msg: MsgLoginFailed},
		"wrong creds":  {status: http.StatusOK, body: `{"success":false,"message":"bad","data":null}`, want: ErrInvalidCredentials, msg: MsgInvalidCredentials},
		"garbage":      {status: http.StatusOK, body: `not json`, want: apiclient.ErrMalformed, msg: MsgLoginError},
		"empty token":  {status: http.StatusOK, body: `{"success":true,"data":{"token":""}}`, want: apiclient.ErrMalformed, msg: MsgLoginError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := svc.Login(context.Background(), domain.Credentials{Email: "a@b.test", Password: "secret1"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if got := Message(err); got != tc.msg {
				t.Fatalf("expected message %q, got %q", tc.msg, got)
			}
		})
	}
}

func TestLoginTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	api, err := apiclient.New(apiclient.Options{BaseURL: base})
	if err != nil {
		t.Fatalf("apiclient.New() error: %v", err)
	}
	svc, _ := NewService(api, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err = svc.Login(context.Background(), domain.Credentials{Email: "a@b.test", Password: "secret1"})
	if !errors.Is(err, apiclient.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if Message(err) != MsgLoginError {
		t.Fatalf("unexpected message %q", Message(err))
	}
}

func TestEstablishAndLogoff(t *testing.T) {
	s := session.New()
	s.Set(session.KeyCustomerID, "c-1")

	Establish(s, domain.LoginResult{Token: "jwt", Email: "a@b.test", Roles: "Admin"})
	if s.Token() != "jwt" || s.Get(session.KeyUserEmail) != "a@b.test" || s.Get(session.KeyUserRole) != "Admin" {
		t.Fatalf("unexpected session after login %v", s.Values())
	}

	Logoff(s)
	if s.Len() != 0 {
		t.Fatalf("expected every key cleared, got %v", s.Values())
	}
	if s.LoggedIn() {
		t.Fatalf("expected logged out")
	}
}
