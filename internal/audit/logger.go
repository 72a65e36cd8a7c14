package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"iotconsole/iot-ui/internal/observability"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
)

// Event is one line of the audit trail. Actor is the signed-in email, or "anonymous".
type Event struct {
	At        string `json:"at"`
	RequestID string `json:"request_id,omitempty"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Target    string `json:"target,omitempty"`
	Outcome   string `json:"outcome"`
	Detail    string `json:"detail,omitempty"`
}

// Logger appends audit events as JSON lines. A nil Logger or an empty path records nothing.
type Logger struct {
	path    string
	mu      sync.Mutex
	nowFunc func() time.Time
}

func NewLogger(path string) *Logger {
	return &Logger{path: path, nowFunc: time.Now}
}

func (l *Logger) Enabled() bool {
	return l != nil && l.path != ""
}

func (l *Logger) Log(ctx context.Context, actor, action, target, outcome, detail string) error {
	if !l.Enabled() {
		return nil
	}
	if actor == "" {
		actor = "anonymous"
	}
	e := Event{
		At:        l.nowFunc().UTC().Format(time.RFC3339),
		RequestID: observability.RequestIDFromContext(ctx),
		Actor:     actor,
		Action:    action,
		Target:    target,
		Outcome:   outcome,
		Detail:    detail,
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("mkdir audit log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write audit log entry: %w", err)
	}
	return nil
}
