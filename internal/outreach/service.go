package outreach

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"leadsync/internal/events"
	"leadsync/internal/export"
	"leadsync/internal/model"
	"leadsync/internal/platform"
	"leadsync/internal/store"
)

// ─── Service ─────────────────────────────────────────────────────────────────

// Service holds the outreach business logic. It has no dependency on
// net/http, so the CLI uses it directly.
type Service struct {
	repo *store.Repository
	pub  events.Publisher
}

// NewService returns a configured Service. A nil publisher drops events.
func NewService(repo *store.Repository, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{repo: repo, pub: pub}
}

// Filter narrows ListLeads and ExportCSV. Empty fields match everything.
type Filter struct {
	ProfileID string
	Platform  string
	Status    string
}

// Overview is the dashboard summary.
type Overview struct {
	Total      int            `json:"total"`
	ByPlatform map[string]int `json:"byPlatform"`
	ByStatus   map[string]int `json:"byStatus"`
	Profiles   int            `json:"profiles"`
	Groups     int            `json:"groups"`
}

// ─── Business logic ──────────────────────────────────────────────────────────

// ListLeads returns the leads matching f, newest first, ties broken by
// relevance.
func (s *Service) ListLeads(ctx context.Context, f Filter) ([]model.Lead, error) {
	match, err := f.matcher()
	if err != nil {
		return nil, err
	}
	all, err := s.repo.Leads(ctx)
	if err != nil {
		return nil, fmt.Errorf("listLeads: %w", err)
	}

	out := make([]model.Lead, 0, len(all))
	for _, l := range all {
		if match(l) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DetectedAt.Equal(out[j].DetectedAt) {
			return out[i].DetectedAt.After(out[j].DetectedAt)
		}
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	return out, nil
}

// SetStatus moves one lead to a new outreach status.
// Returns ErrNotFound for an unknown lead and a ValidationError for an
// unknown status.
func (s *Service) SetStatus(ctx context.Context, leadID, newStatusStr string) (model.Lead, error) {
	newStatus, err := ParseStatus(newStatusStr)
	if err != nil {
		return model.Lead{}, &model.ValidationError{Msg: err.Error()}
	}

	var (
		updated model.Lead
		from    Status
	)
	err = s.repo.Update(ctx, func(st *store.State) error {
		for i := range st.Leads {
			if st.Leads[i].ID != leadID {
				continue
			}
			from = statusOf(st.Leads[i])
			if !IsTransitionAllowed(from, newStatus) {
				return &model.ValidationError{Msg: fmt.Sprintf("transition %s → %s is not allowed", from, newStatus)}
			}
			st.Leads[i].Status = string(newStatus)
			updated = st.Leads[i]
			return nil
		}
		return fmt.Errorf("lead %s: %w", leadID, model.ErrNotFound)
	})
	if err != nil {
		return model.Lead{}, err
	}

	// Publish status change (non-fatal)
	if err := s.pub.Publish(ctx, events.EventLeadStatusChanged, map[string]any{
		"leadId":    updated.ID,
		"profileId": updated.FileID,
		"from":      string(from),
		"to":        string(newStatus),
	}); err != nil {
		slog.Warn("publish EVENT_LEAD_STATUS_CHANGED failed", "leadId", leadID, "err", err)
	}

	return updated, nil
}

// Overview counts leads per platform and per status. An empty profileID
// covers every profile. Every supported platform and every status is present
// in the maps, zero or not.
func (s *Service) Overview(ctx context.Context, profileID string) (Overview, error) {
	st, err := s.repo.Load(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("overview: %w", err)
	}

	ov := Overview{
		ByPlatform: make(map[string]int),
		ByStatus:   make(map[string]int),
		Profiles:   len(st.Profiles),
		Groups:     len(st.Groups),
	}
	for _, l := range platform.Supported() {
		ov.ByPlatform[string(l)] = 0
	}
	for _, s := range AllStatuses() {
		ov.ByStatus[string(s)] = 0
	}

	for _, l := range st.Leads {
		if profileID != "" && l.FileID != profileID {
			continue
		}
		ov.Total++
		ov.ByPlatform[l.Platform]++
		ov.ByStatus[string(statusOf(l))]++
	}
	return ov, nil
}

// ExportCSV writes the leads matching f as CSV.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, f Filter) error {
	leads, err := s.ListLeads(ctx, f)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, leads)
}

// matcher validates f and returns its predicate.
func (f Filter) matcher() (func(model.Lead) bool, error) {
	var label platform.Label
	if f.Platform != "" {
		l, ok := platform.Parse(f.Platform)
		if !ok {
			return nil, &model.ValidationError{Msg: fmt.Sprintf("unknown platform %q", f.Platform)}
		}
		label = l
	}
	if f.Status != "" {
		if _, err := ParseStatus(f.Status); err != nil {
			return nil, &model.ValidationError{Msg: err.Error()}
		}
	}
	return func(l model.Lead) bool {
		if f.ProfileID != "" && l.FileID != f.ProfileID {
			return false
		}
		if label != "" && l.Platform != string(label) {
			return false
		}
		if f.Status != "" && string(statusOf(l)) != f.Status {
			return false
		}
		return true
	}, nil
}

// statusOf returns the lead's status. Records without a recognizable status
// are treated as new.
func statusOf(l model.Lead) Status {
	st, err := ParseStatus(l.Status)
	if err != nil {
		return InitialStatus
	}
	return st
}
