package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"leadsync/internal/model"
)

// Storage keys, one JSON array per collection.
const (
	KeyProfiles    = "lead_sync_files"
	KeyLeads       = "lead_sync_leads"
	KeyGroups      = "lead_sync_groups"
	KeyConnections = "lead_sync_connections"
)

// State is the full persisted data set.
type State struct {
	Profiles    []model.Profile
	Leads       []model.Lead
	Groups      []model.Group
	Connections []model.Connection
}

// Repository encodes domain collections into a KV. Reads never fail on bad
// data: a missing key is an empty collection, and malformed JSON is logged
// and treated as empty. Only backend errors are returned.
type Repository struct {
	kv KV
	mu sync.Mutex
}

// NewRepository wraps kv.
func NewRepository(kv KV) *Repository {
	return &Repository{kv: kv}
}

// Ping reports whether the underlying backend is reachable.
func (r *Repository) Ping(ctx context.Context) error { return r.kv.Ping(ctx) }

// Load reads every collection.
func (r *Repository) Load(ctx context.Context) (State, error) {
	var st State
	var err error
	if st.Profiles, err = r.Profiles(ctx); err != nil {
		return State{}, err
	}
	if st.Leads, err = r.Leads(ctx); err != nil {
		return State{}, err
	}
	if st.Groups, err = r.Groups(ctx); err != nil {
		return State{}, err
	}
	if st.Connections, err = r.Connections(ctx); err != nil {
		return State{}, err
	}
	return st, nil
}

// Update runs fn on a freshly loaded State and saves every collection in one
// batch afterwards, so a failed write never leaves the collections out of
// step. Calls are serialized, so concurrent scans cannot lose each other's
// writes. Nothing is saved when fn returns an error.
func (r *Repository) Update(ctx context.Context, fn func(st *State) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, err := r.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&st); err != nil {
		return err
	}

	entries := make([]Entry, 0, 4)
	for _, enc := range []func() (Entry, error){
		func() (Entry, error) { return encode(KeyProfiles, st.Profiles) },
		func() (Entry, error) { return encode(KeyLeads, st.Leads) },
		func() (Entry, error) { return encode(KeyGroups, st.Groups) },
		func() (Entry, error) { return encode(KeyConnections, st.Connections) },
	} {
		e, err := enc()
		if err != nil {
			return err
		}
		entries = append(entries, e)
	}
	if err := r.kv.SetMany(ctx, entries); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Profiles returns the saved profiles with missing optional fields defaulted.
func (r *Repository) Profiles(ctx context.Context) ([]model.Profile, error) {
	profiles, err := load[model.Profile](ctx, r.kv, KeyProfiles)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		migrateProfile(&profiles[i])
	}
	return profiles, nil
}

// Leads returns every saved lead.
func (r *Repository) Leads(ctx context.Context) ([]model.Lead, error) {
	return load[model.Lead](ctx, r.kv, KeyLeads)
}

// Groups returns every saved group.
func (r *Repository) Groups(ctx context.Context) ([]model.Group, error) {
	return load[model.Group](ctx, r.kv, KeyGroups)
}

// Connections returns every saved platform connection.
func (r *Repository) Connections(ctx context.Context) ([]model.Connection, error) {
	return load[model.Connection](ctx, r.kv, KeyConnections)
}

// HasProfiles reports whether the profiles key has ever been written, even
// with an empty list. Used to seed a default profile on first run only.
func (r *Repository) HasProfiles(ctx context.Context) (bool, error) {
	_, ok, err := r.kv.Get(ctx, KeyProfiles)
	return ok, err
}

// ─── Encoding ────────────────────────────────────────────────────────────────

func load[T any](ctx context.Context, kv KV, key string) ([]T, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	out := make([]T, 0)
	if !ok || strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Warn("stored value is not valid JSON, using empty collection", "key", key, "err", err)
		return make([]T, 0), nil
	}
	if out == nil {
		out = make([]T, 0)
	}
	return out, nil
}

func encode[T any](key string, items []T) (Entry, error) {
	if items == nil {
		items = make([]T, 0)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return Entry{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return Entry{Key: key, Value: string(raw)}, nil
}

// migrateProfile defaults fields that older records may lack, so the rest of
// the code never distinguishes absent from empty.
func migrateProfile(p *model.Profile) {
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	if p.ExcludeKeywords == nil {
		p.ExcludeKeywords = []string{}
	}
	if strings.TrimSpace(p.Niche) == "" {
		p.Niche = model.DefaultNiche
	}
	if strings.TrimSpace(p.Location) == "" {
		p.Location = model.DefaultLocation
	}
}
