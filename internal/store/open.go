package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"leadsync/internal/db"
)

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	DataPath    string
	SQLitePath  string
	DatabaseURL string
	// Redis is reused when non-nil; otherwise RedisURL is dialed.
	Redis    *redis.Client
	RedisURL string
}

// Open builds the KV named by opts.Backend. The returned closer releases any
// connection Open itself created.
func Open(ctx context.Context, opts Options) (KV, func(), error) {
	noop := func() {}
	switch opts.Backend {
	case BackendFile, "":
		kv, err := NewFileKV(opts.DataPath)
		return kv, noop, err

	case BackendMemory:
		return NewMemoryKV(), noop, nil

	case BackendSQLite:
		kv, err := NewSQLiteKV(ctx, opts.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return kv, func() { kv.Close() }, nil

	case BackendPostgres:
		pool, err := db.NewPostgresPool(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		kv, err := NewPostgresKV(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return kv, pool.Close, nil

	case BackendRedis:
		if opts.Redis != nil {
			return NewRedisKV(opts.Redis, DefaultRedisPrefix), noop, nil
		}
		rdb, err := db.NewRedisClient(ctx, opts.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return NewRedisKV(rdb, DefaultRedisPrefix), func() { rdb.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", opts.Backend)
}
