package postgres

import (
	"context"
	"database/sql"
	"errors"
)

const defaultKVTable = "kv_store"

// Backend is a Postgres key-value substrate. Each key holds one JSON
// document; writes replace the document whole.
type Backend struct {
	db    *sql.DB
	table string
}

// NewBackend constructs a backend.
func NewBackend(db *sql.DB) (*Backend, error) {
	if db == nil {
		return nil, errors.New("kv backend: nil db")
	}
	return &Backend{db: db, table: defaultKVTable}, nil
}

// EnsureSchema creates the backing table if it does not exist.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	if b == nil || b.db == nil {
		return errors.New("kv backend: nil db")
	}
	_, err := b.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS kv_store (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	return err
}

// Get returns the value at key and whether it exists.
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	if b == nil || b.db == nil {
		return "", false, errors.New("kv backend: nil db")
	}
	if key == "" {
		return "", false, errors.New("kv backend: empty key")
	}
	row := b.db.QueryRowContext(ctx, `
SELECT value
FROM kv_store
WHERE key = $1
LIMIT 1`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Put stores value at key, replacing any previous value.
func (b *Backend) Put(ctx context.Context, key, value string) error {
	if b == nil || b.db == nil {
		return errors.New("kv backend: nil db")
	}
	if key == "" {
		return errors.New("kv backend: empty key")
	}
	_, err := b.db.ExecContext(ctx, `
INSERT INTO kv_store (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value)
	return err
}

// Delete removes key. Deleting an absent key is not an error.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if b == nil || b.db == nil {
		return errors.New("kv backend: nil db")
	}
	if key == "" {
		return errors.New("kv backend: empty key")
	}
	_, err := b.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = $1`, key)
	return err
}
