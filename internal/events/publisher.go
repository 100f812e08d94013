// Package events publishes pipeline notifications on Redis pub/sub.
// Publishing is always best effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Channel names. Each event is published on the channel of the same name.
const (
	EventScanCompleted     = "EVENT_SCAN_COMPLETED"
	EventLeadStatusChanged = "EVENT_LEAD_STATUS_CHANGED"
	EventGroupsDiscovered  = "EVENT_GROUPS_DISCOVERED"
	EventProfileDeleted    = "EVENT_PROFILE_DELETED"
	EventConnectionUpdated = "EVENT_CONNECTION_UPDATED"
)

// Publisher sends one event.
type Publisher interface {
	Publish(ctx context.Context, event string, fields map[string]any) error
}

// ─── Redis ───────────────────────────────────────────────────────────────────

// RedisPublisher publishes JSON payloads with a "type" field set to the event.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher wraps a connected client.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, event string, fields map[string]any) error {
	payload, err := encode(event, fields)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, event, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}

// ─── No-op ───────────────────────────────────────────────────────────────────

// Nop drops every event. Used when no Redis URL is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, map[string]any) error { return nil }

// ─── Recorder ────────────────────────────────────────────────────────────────

// Event is one recorded publication.
type Event struct {
	Type   string
	Fields map[string]any
}

// Recorder keeps published events in memory. Err, when set, is returned from
// every Publish after recording.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, event string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Type: event, Fields: fields})
	return r.Err
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func encode(event string, fields map[string]any) ([]byte, error) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["type"] = event
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return raw, nil
}
