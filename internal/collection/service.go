// Package collection manages saved keyword profiles.
package collection

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadsync/internal/events"
	"leadsync/internal/model"
	"leadsync/internal/store"
)

// Input is the editable part of a profile.
type Input struct {
	Name            string   `json:"name"`
	Keywords        []string `json:"keywords"`
	ExcludeKeywords []string `json:"excludeKeywords"`
	Niche           string   `json:"niche"`
	Location        string   `json:"location"`
}

// DefaultProfile is seeded on first run.
var DefaultProfile = Input{
	Name:            "SaaS Leads",
	Keywords:        []string{"CRM for startups", "marketing automation"},
	ExcludeKeywords: []string{"jobs", "internship"},
	Niche:           "B2B Software",
	Location:        "California, USA",
}

// Service holds the profile business logic.
type Service struct {
	repo  *store.Repository
	pub   events.Publisher
	newID func() string
	now   func() time.Time
}

// NewService returns a configured Service. A nil publisher drops events.
func NewService(repo *store.Repository, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{repo: repo, pub: pub, newID: uuid.NewString, now: time.Now}
}

// ParseList splits comma-separated form input, trimming items and dropping
// empty ones.
func ParseList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ─── Business logic ──────────────────────────────────────────────────────────

// List returns every profile in creation order.
func (s *Service) List(ctx context.Context) ([]model.Profile, error) {
	return s.repo.Profiles(ctx)
}

// Get returns one profile.
func (s *Service) Get(ctx context.Context, id string) (model.Profile, error) {
	profiles, err := s.repo.Profiles(ctx)
	if err != nil {
		return model.Profile{}, err
	}
	for _, p := range profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Profile{}, fmt.Errorf("profile %s: %w", id, model.ErrNotFound)
}

// Create validates in and stores a new profile.
func (s *Service) Create(ctx context.Context, in Input) (model.Profile, error) {
	p := model.Profile{ID: s.newID(), CreatedAt: s.now().UTC()}
	apply(&p, in)
	if err := p.Validate(); err != nil {
		return model.Profile{}, err
	}

	err := s.repo.Update(ctx, func(st *store.State) error {
		st.Profiles = append(st.Profiles, p)
		return nil
	})
	if err != nil {
		return model.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	log.Printf("[collection] Created profile %s (%q)", p.ID, p.Name)
	return p, nil
}

// Update replaces every editable field of an existing profile. The id and
// creation time never change.
func (s *Service) Update(ctx context.Context, id string, in Input) (model.Profile, error) {
	var updated model.Profile
	err := s.repo.Update(ctx, func(st *store.State) error {
		for i := range st.Profiles {
			if st.Profiles[i].ID != id {
				continue
			}
			p := st.Profiles[i]
			apply(&p, in)
			if err := p.Validate(); err != nil {
				return err
			}
			st.Profiles[i] = p
			updated = p
			return nil
		}
		return fmt.Errorf("profile %s: %w", id, model.ErrNotFound)
	})
	if err != nil {
		return model.Profile{}, err
	}
	return updated, nil
}

// Delete removes a profile and every lead that belongs to it. It returns the
// number of leads removed.
func (s *Service) Delete(ctx context.Context, id string) (int, error) {
	var removed int
	err := s.repo.Update(ctx, func(st *store.State) error {
		kept := st.Profiles[:0]
		found := false
		for _, p := range st.Profiles {
			if p.ID == id {
				found = true
				continue
			}
			kept = append(kept, p)
		}
		if !found {
			return fmt.Errorf("profile %s: %w", id, model.ErrNotFound)
		}
		st.Profiles = kept

		leads := st.Leads[:0]
		for _, l := range st.Leads {
			if l.FileID == id {
				removed++
				continue
			}
			leads = append(leads, l)
		}
		st.Leads = leads
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[collection] Deleted profile %s and %d lead(s)", id, removed)
	if err := s.pub.Publish(ctx, events.EventProfileDeleted, map[string]any{
		"profileId":    id,
		"leadsRemoved": removed,
	}); err != nil {
		slog.Warn("publish EVENT_PROFILE_DELETED failed", "profileId", id, "err", err)
	}
	return removed, nil
}

// EnsureDefault seeds DefaultProfile when profiles have never been saved.
// An explicitly emptied list stays empty.
func (s *Service) EnsureDefault(ctx context.Context) (bool, error) {
	has, err := s.repo.HasProfiles(ctx)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}
	if _, err := s.Create(ctx, DefaultProfile); err != nil {
		return false, err
	}
	return true, nil
}

func apply(p *model.Profile, in Input) {
	p.Name = strings.TrimSpace(in.Name)
	p.Keywords = clean(in.Keywords)
	p.ExcludeKeywords = clean(in.ExcludeKeywords)
	p.Niche = strings.TrimSpace(in.Niche)
	if p.Niche == "" {
		p.Niche = model.DefaultNiche
	}
	p.Location = strings.TrimSpace(in.Location)
	if p.Location == "" {
		p.Location = model.DefaultLocation
	}
}

func clean(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
