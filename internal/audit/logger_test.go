package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"iotconsole/iot-ui/internal/observability"
)

func TestLoggerWritesJSONLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.log")
	l := NewLogger(path)
	l.nowFunc = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }

	ctx := observability.WithRequestID(context.Background(), "req-42")
	if err := l.Log(ctx, "ops@iot.test", "customer.delete", "c-1", OutcomeSuccess, ""); err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if err := l.Log(context.Background(), "", "login", "", OutcomeDenied, "Incorrect Email or Password."); err != nil {
		t.Fatalf("Log() error: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two audit lines, got %d", len(lines))
	}

	var first, second Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode audit line: %v", err)
	}
	if first.Actor != "ops@iot.test" || first.Action != "customer.delete" || first.RequestID != "req-42" {
		t.Fatalf("unexpected audit event content: %+v", first)
	}
	if first.At != "2026-03-01T09:30:00Z" {
		t.Fatalf("unexpected timestamp %q", first.At)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("decode audit line: %v", err)
	}
	if second.Actor != "anonymous" || second.Outcome != OutcomeDenied {
		t.Fatalf("unexpected audit event content: %+v", second)
	}
}

func TestDisabledLoggerIsNoop(t *testing.T) {
	var nilLogger *Logger
	if err := nilLogger.Log(context.Background(), "a", "b", "", OutcomeSuccess, ""); err != nil {
		t.Fatalf("nil logger must be a no-op, got %v", err)
	}
	if NewLogger("").Enabled() {
		t.Fatalf("empty path must disable logging")
	}
}
