package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/api"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNewValidatesBaseURL(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error for empty base url")
	}
	if _, err := New(Options{BaseURL: "not a url"}); err == nil {
		t.Fatalf("expected error for relative base url")
	}
	c, err := New(Options{BaseURL: "http://api.local/api"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if c.BaseURL() != "http://api.local/api/" {
		t.Fatalf("expected trailing slash to be added, got %q", c.BaseURL())
	}
}

func TestDoAttachesBearerTokenOnlyWhenPresent(t *testing.T) {
	var gotAuth []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		if r.URL.Path != "/api/Customer/GetAllCustomers" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})

	if _, err := c.Do(context.Background(), http.MethodGet, "Customer/GetAllCustomers", "tok-1", nil); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if _, err := c.Do(context.Background(), http.MethodGet, "Customer/GetAllCustomers", "", nil); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if len(gotAuth) != 2 || gotAuth[0] != "Bearer tok-1" || gotAuth[1] != "" {
		t.Fatalf("unexpected authorization headers: %q", gotAuth)
	}
}

func TestGetDataUnwrapsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":null,"data":["a","b"]}`))
	})

	got, err := GetData[[]string](context.Background(), c, "List", "tok")
	if err != nil {
		t.Fatalf("GetData() error: %v", err)
	}
	if len(got) != 2 || got[0] != "a" {
		t.Fatalf("unexpected data %v", got)
	}
}

func TestGetDataFailures(t *testing.T) {
	cases := map[string]struct {
		status  int
		body    string
		wantIs  error
		wantMsg string
	}{
		"success false": {status: http.StatusOK, body: `{"success":false,"message":"nope","data":null}`, wantMsg: "nope"},
		"not found":     {status: http.StatusNotFound, body: ``, wantIs: ErrNotFound, wantMsg: FallbackMessage},
		"unauthorized":  {status: http.StatusUnauthorized, body: `{"success":false,"message":"expired"}`, wantIs: ErrUnauthorized, wantMsg: "expired"},
		"malformed":     {status: http.StatusOK, body: `<html>`, wantIs: ErrMalformed, wantMsg: FallbackMessage},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := GetData[map[string]any](context.Background(), c, "X", "tok")
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.wantIs != nil && !errors.Is(err, tc.wantIs) {
				t.Fatalf("expected %v, got %v", tc.wantIs, err)
			}
			if got := UserMessage(err); got != tc.wantMsg {
				t.Fatalf("expected user message %q, got %q", tc.wantMsg, got)
			}
		})
	}
}

func TestSendReturnsErrorEnvelopeMessage(t *testing.T) {
	var received map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Customer email already exists.","data":null}`))
	})

	_, err := c.Send(context.Background(), http.MethodPost, "Customer/RegisterCustomer", "tok", map[string]string{"customerName": "Acme"})
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.StatusCode != http.StatusBadRequest || re.Message != "Customer email already exists." {
		t.Fatalf("unexpected remote error %+v", re)
	}
	if received["customerName"] != "Acme" {
		t.Fatalf("expected request body to be forwarded, got %v", received)
	}
}

func TestProbe(t *testing.T) {
	healthy := true
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/Dashboard" {
			t.Errorf("unexpected probe path %q", r.URL.Path)
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := c.Probe(context.Background()); err != nil {
		t.Fatalf("expected healthy probe, got %v", err)
	}
	healthy = false
	if err := c.Probe(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: base})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := c.Probe(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for closed server, got %v", err)
	}
}

func TestGetRawDecodesBareArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"temperature":21.5},{"windSpeed":3}]`))
	})
	got, err := GetRaw[[]map[string]float64](context.Background(), c, "Dashboard/GetRecentData", "tok")
	if err != nil {
		t.Fatalf("GetRaw() error: %v", err)
	}
	if len(got) != 2 || got[0]["temperature"] != 21.5 {
		t.Fatalf("unexpected data %v", got)
	}
}
