package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/persist"
)

const (
	getStateSQL = `SELECT value FROM client_state WHERE key = $1`

	putStateSQL = `INSERT INTO client_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	deleteStateSQL = `DELETE FROM client_state WHERE key = $1`
)

var _ persist.Storage = (*StateStorage)(nil)

// StateStorage implements persist.Storage on the client_state table.
type StateStorage struct {
	pool *pgxpool.Pool
}

// NewStateStorage returns a StateStorage that uses the given pool.
func NewStateStorage(pool *pgxpool.Pool) *StateStorage {
	return &StateStorage{pool: pool}
}

func (s *StateStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := s.pool.QueryRow(ctx, getStateSQL, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, persist.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get state %q", key)
	}
	return value, nil
}

func (s *StateStorage) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.pool.Exec(ctx, putStateSQL, key, value); err != nil {
		return errors.Wrapf(err, "put state %q", key)
	}
	return nil
}

func (s *StateStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, deleteStateSQL, key); err != nil {
		return errors.Wrapf(err, "delete state %q", key)
	}
	return nil
}

func (s *StateStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
