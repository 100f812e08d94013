// Package store persists the lead pipeline's state.
//
// Every backend is an opaque string key/value store (KV). Repository owns the
// domain keys and the JSON encoding on top of it, so the backends never see
// domain types.
package store

import (
	"context"
	"sync"
)

// KV is the minimal blob store the Repository needs.
// Get reports ok=false for a missing key; that is not an error.
// SetMany writes every entry or none of them.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, entries []Entry) error
	Ping(ctx context.Context) error
	Close() error
}

// Entry is one key/value pair of a batch write.
type Entry struct {
	Key   string
	Value string
}

// ─── In-memory backend ───────────────────────────────────────────────────────

// MemoryKV keeps values in a map. Used for tests and STORE_BACKEND=memory.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) SetMany(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.data[e.Key] = e.Value
	}
	return nil
}

func (m *MemoryKV) Ping(context.Context) error { return nil }

func (m *MemoryKV) Close() error { return nil }
