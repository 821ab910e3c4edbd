// Package sqlite implements persist.Storage on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	_ "modernc.org/sqlite"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/persist"
)

const (
	getStateSQL = `SELECT value FROM client_state WHERE key = ?`
	putStateSQL = `INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	deleteStateSQL = `DELETE FROM client_state WHERE key = ?`
)

var _ persist.Storage = (*Storage)(nil)

// Storage keeps snapshots in the client_state table of a SQLite file.
type Storage struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*Storage, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// One connection, so ":memory:" databases are shared across calls.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, `PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "configure sqlite")
	}
	if _, err := conn.ExecContext(ctx, db.SQLiteSchema); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "migrate sqlite")
	}
	return &Storage{db: conn, now: time.Now}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := s.db.QueryRowContext(ctx, getStateSQL, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persist.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get state %q", key)
	}
	return value, nil
}

func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, putStateSQL, key, value, s.now().UnixMilli()); err != nil {
		return errors.Wrapf(err, "put state %q", key)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteStateSQL, key); err != nil {
		return errors.Wrapf(err, "delete state %q", key)
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
