package gate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"iotconsole/iot-ui/internal/session"
)

type fakeProber struct {
	probeFn func(ctx context.Context) error
	calls   int
}

func (f *fakeProber) Probe(ctx context.Context) error {
	f.calls++
	return f.probeFn(ctx)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckUnreachableClearsSession(t *testing.T) {
	p := &fakeProber{probeFn: func(context.Context) error { return errors.New("dial tcp: refused") }}
	g := New(p, quietLogger())

	s := session.New()
	s.Set(session.KeyToken, "tok")
	s.Set(session.KeyCustomerID, "c-1")

	if got := g.Check(context.Background(), s); got != ShowConnectivityError {
		t.Fatalf("expected ShowConnectivityError, got %v", got)
	}
	if s.Len() != 0 {
		t.Fatalf("expected session cleared, got %v", s.Values())
	}
}

func TestCheckUnreachableWithoutTokenStillShowsError(t *testing.T) {
	p := &fakeProber{probeFn: func(context.Context) error { return errors.New("timeout") }}
	g := New(p, quietLogger())

	if got := g.Check(context.Background(), session.New()); got != ShowConnectivityError {
		t.Fatalf("expected ShowConnectivityError, got %v", got)
	}
}

func TestCheckMissingTokenRedirects(t *testing.T) {
	p := &fakeProber{probeFn: func(context.Context) error { return nil }}
	g := New(p, quietLogger())

	s := session.New()
	s.Set(session.KeyUserEmail, "a@b.test")
	if got := g.Check(context.Background(), s); got != RedirectToLogin {
		t.Fatalf("expected RedirectToLogin, got %v", got)
	}
	if s.Get(session.KeyUserEmail) != "a@b.test" {
		t.Fatalf("redirect must not clear the session")
	}
}

func TestCheckProceedsAndProbesEveryTime(t *testing.T) {
	p := &fakeProber{probeFn: func(context.Context) error { return nil }}
	g := New(p, quietLogger())

	s := session.New()
	s.Set(session.KeyToken, "tok")
	for i := 0; i < 3; i++ {
		if got := g.Check(context.Background(), s); got != Proceed {
			t.Fatalf("expected Proceed, got %v", got)
		}
	}
	if p.calls != 3 {
		t.Fatalf("expected a probe per check, got %d", p.calls)
	}
}

func TestDecisionString(t *testing.T) {
	if ShowConnectivityError.String() != "connectivity_error" || Decision(42).String() != "unknown" {
		t.Fatalf("unexpected decision names")
	}
}
