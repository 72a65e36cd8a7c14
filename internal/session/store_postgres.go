package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db      *sql.DB
	nowFunc func() time.Time
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &PostgresStore{db: db, nowFunc: time.Now}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS web_sessions (
	id TEXT PRIMARY KEY,
	data JSONB NOT NULL DEFAULT '{}'::jsonb,
	expires_at TIMESTAMPTZ NOT NULL
)`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("ensure web_sessions schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (map[string]string, error) {
	const q = `
SELECT data
FROM web_sessions
WHERE id = $1 AND expires_at > $2`
	var raw []byte
	err := s.db.QueryRowContext(ctx, q, id, s.nowFunc().UTC()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	values := make(map[string]string)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("decode session data: %w", err)
		}
	}
	return values, nil
}

func (s *PostgresStore) Save(ctx context.Context, id string, values map[string]string, ttl time.Duration) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode session data: %w", err)
	}
	const q = `
INSERT INTO web_sessions (id, data, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`
	if _, err := s.db.ExecContext(ctx, q, id, data, s.nowFunc().Add(ttl).UTC()); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM web_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *PostgresStore) PurgeExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM web_sessions WHERE expires_at <= $1`, s.nowFunc().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return int(n), nil
}
