package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type KeyValueStore struct {
	pool *pgxpool.Pool
}

func NewKeyValueStore(pool *pgxpool.Pool) *KeyValueStore {
	return &KeyValueStore{pool: pool}
}

func (s *KeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, "SELECT value FROM kv_store WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *KeyValueStore) Set(ctx context.Context, key, value string) error {
	query := `
        INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	_, err := s.pool.Exec(ctx, query, key, value)
	return err
}

func (s *KeyValueStore) Remove(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM kv_store WHERE key = $1", key)
	return err
}
