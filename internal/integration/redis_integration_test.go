package integration

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"iotconsole/iot-ui/internal/session"
)

func openTestRedis(t *testing.T) *session.RedisStore {
	t.Helper()

	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set; skipping Redis integration tests")
	}

	client, err := session.Connect(context.Background(), redisURL)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	store, err := session.NewRedisStore(client)
	if err != nil {
		t.Fatalf("NewRedisStore() error: %v", err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
	return store
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	store := openTestRedis(t)
	ctx := context.Background()
	id := uuid.NewString()
	t.Cleanup(func() { _ = store.Delete(ctx, id) })

	if err := store.Save(ctx, id, map[string]string{session.KeyToken: "tok"}, time.Minute); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got[session.KeyToken] != "tok" {
		t.Fatalf("unexpected values: %v", got)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.Load(ctx, id); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRedisSessionStoreTTL(t *testing.T) {
	store := openTestRedis(t)
	ctx := context.Background()
	id := uuid.NewString()

	if err := store.Save(ctx, id, map[string]string{"k": "v"}, 50*time.Millisecond); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if _, err := store.Load(ctx, id); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected expired session to be missing, got %v", err)
	}
}
