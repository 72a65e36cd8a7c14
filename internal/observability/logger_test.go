package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug {
		t.Fatalf("expected debug level")
	}
	if ParseLevel("warn") != slog.LevelWarn {
		t.Fatalf("expected warn level")
	}
	if ParseLevel("bogus") != slog.LevelInfo {
		t.Fatalf("expected unknown level to fall back to info")
	}
}

func TestNewLoggerWritesJSONAndFiltersLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := newLogger(&buf, "warn")
	logger.Info("dropped")
	logger.Warn("kept", "operation", "test")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "kept" || entry["operation"] != "test" {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
}
