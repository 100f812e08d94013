package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const upsertSQL = `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

// PostgresKV keeps values in a single kv_store table.
type PostgresKV struct {
	pool *pgxpool.Pool
}

// NewPostgresKV wraps an already connected pool and creates the table if needed.
func NewPostgresKV(ctx context.Context, pool *pgxpool.Pool) (*PostgresKV, error) {
	s := &PostgresKV{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresKV) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS kv_store (
		   key        TEXT PRIMARY KEY,
		   value      TEXT NOT NULL,
		   updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		 )`)
	if err != nil {
		return fmt.Errorf("init kv_store schema: %w", err)
	}
	return nil
}

func (s *PostgresKV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv_store get %q: %w", key, err)
	}
	return v, true, nil
}

func (s *PostgresKV) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, upsertSQL, key, value)
	if err != nil {
		return fmt.Errorf("kv_store set %q: %w", key, err)
	}
	return nil
}

// SetMany upserts every entry inside one transaction.
func (s *PostgresKV) SetMany(ctx context.Context, entries []Entry) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, e := range entries {
			if _, err := tx.Exec(ctx, upsertSQL, e.Key, e.Value); err != nil {
				return fmt.Errorf("kv_store set %q: %w", e.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("kv_store batch: %w", err)
	}
	return nil
}

func (s *PostgresKV) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close is a no-op: the pool is owned by the caller.
func (s *PostgresKV) Close() error { return nil }
