package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written by RedisKV.
const DefaultRedisPrefix = "leadsync:"

// RedisKV stores each key as a plain Redis string.
type RedisKV struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisKV wraps an already connected client.
func NewRedisKV(rdb *redis.Client, prefix string) *RedisKV {
	return &RedisKV{rdb: rdb, prefix: prefix}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, r.prefix+key, value, 0).Err()
}

// SetMany writes every entry in one MULTI/EXEC block.
func (r *RedisKV) SetMany(ctx context.Context, entries []Entry) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.Set(ctx, r.prefix+e.Key, e.Value, 0)
		}
		return nil
	})
	return err
}

func (r *RedisKV) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close is a no-op: the client is owned by the caller.
func (r *RedisKV) Close() error { return nil }
