package session

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS web_sessions").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := NewPostgresStore(db)
	if err != nil {
		t.Fatalf("NewPostgresStore() error: %v", err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.nowFunc = func() time.Time { return now }
	return store, mock
}

func TestNewPostgresStoreRequiresDB(t *testing.T) {
	if _, err := NewPostgresStore(nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
}

func TestPostgresStoreSaveLoadDelete(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO web_sessions").
		WithArgs("sid1", sqlmock.AnyArg(), now.Add(5*time.Minute)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	if err := store.Save(ctx, "sid1", map[string]string{KeyToken: "tok"}, 5*time.Minute); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	mock.ExpectQuery("SELECT data FROM web_sessions WHERE id = \\$1 AND expires_at > \\$2").
		WithArgs("sid1", now).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"token":"tok"}`)))
	values, err := store.Load(ctx, "sid1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if values[KeyToken] != "tok" {
		t.Fatalf("unexpected values %v", values)
	}

	mock.ExpectExec("DELETE FROM web_sessions WHERE id").
		WithArgs("sid1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.Delete(ctx, "sid1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresStoreLoadMissing(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT data FROM web_sessions").WillReturnError(sql.ErrNoRows)
	if _, err := store.Load(context.Background(), "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStoreLoadQueryError(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT data FROM web_sessions").WillReturnError(errors.New("connection reset"))
	_, err := store.Load(context.Background(), "sid")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected query error, got %v", err)
	}
}

func TestPostgresStorePurgeExpired(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectExec("DELETE FROM web_sessions WHERE expires_at").WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := store.PurgeExpired(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("PurgeExpired() = %d, %v", n, err)
	}
}
