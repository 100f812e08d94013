// Package discovery runs the search pipeline: prompt, grounded search,
// extraction, assembly and persistence.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"leadsync/internal/ai"
	"leadsync/internal/events"
	"leadsync/internal/extract"
	"leadsync/internal/lead"
	"leadsync/internal/model"
	"leadsync/internal/platform"
	"leadsync/internal/prompt"
	"leadsync/internal/store"
	"leadsync/internal/urlnorm"
)

// FallbackStrategy is returned by AnalyzeLead when the model answers with no text.
const FallbackStrategy = "Could not generate response suggestion."

// ScanResult summarizes one scan. Leads holds only the records that were new
// to the store.
type ScanResult struct {
	Leads []model.Lead `json:"leads"`
	Found int          `json:"found"`
	Added int          `json:"added"`
}

// Worker runs scans and group discovery against the lead store.
type Worker struct {
	repo      *store.Repository
	searcher  ai.Searcher
	generator ai.Generator
	pub       events.Publisher
	builder   prompt.Builder
	assembler *lead.Assembler
	now       func() time.Time
}

// Option customizes a Worker.
type Option func(*Worker)

// WithBuilder replaces the default prompt builder.
func WithBuilder(b prompt.Builder) Option {
	return func(w *Worker) { w.builder = b }
}

// WithAssembler replaces the default assembler.
func WithAssembler(a *lead.Assembler) Option {
	return func(w *Worker) { w.assembler = a }
}

// WithClock sets the time source used for connection timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// NewWorker constructs a Worker. A nil publisher drops events.
func NewWorker(repo *store.Repository, searcher ai.Searcher, generator ai.Generator, pub events.Publisher, opts ...Option) *Worker {
	if pub == nil {
		pub = events.Nop{}
	}
	w := &Worker{
		repo:      repo,
		searcher:  searcher,
		generator: generator,
		pub:       pub,
		builder:   prompt.Builder{RecencyDays: prompt.DefaultRecencyDays},
		assembler: lead.NewAssembler(lead.NewRandomScorer(uint64(time.Now().UnixNano()))),
		now:       time.Now,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// ─── Scans ───────────────────────────────────────────────────────────────────

// Scan runs one search for req and stores every lead whose normalized URL is
// not yet known. Validation failures return before any external call. A
// failed search returns an empty result with the error.
func (w *Worker) Scan(ctx context.Context, req model.ScanRequest) (ScanResult, error) {
	empty := ScanResult{Leads: []model.Lead{}}

	if err := req.Profile.Validate(); err != nil {
		return empty, err
	}
	if req.Platform != "" {
		l, ok := platform.Parse(req.Platform)
		if !ok {
			return empty, &model.ValidationError{Msg: fmt.Sprintf("unknown platform %q", req.Platform)}
		}
		req.Platform = string(l)
	}

	log.Printf("[worker] Scanning profile %s (%q) platform=%q groups=%d",
		req.Profile.ID, req.Profile.Name, req.Platform, len(req.Groups))

	p := w.builder.BuildScanPrompt(req.Profile, req.Platform, req.Groups)
	res, err := w.search(ctx, p)
	if err != nil {
		log.Printf("[worker] Search failed for profile %s: %v", req.Profile.ID, err)
		return empty, &model.UpstreamError{Op: "AI search", Err: err}
	}

	cands := extract.Extract(res.Text, res.Citations, req)
	incoming := w.assembler.Assemble(cands, req.Profile)

	var added []model.Lead
	err = w.repo.Update(ctx, func(st *store.State) error {
		merged, n := lead.Merge(st.Leads, incoming)
		st.Leads = merged
		added = kept(merged, incoming, n)
		return nil
	})
	if err != nil {
		return empty, fmt.Errorf("save leads: %w", err)
	}

	log.Printf("[worker] Profile %s done: citations=%d candidates=%d added=%d",
		req.Profile.ID, len(res.Citations), len(cands), len(added))

	w.publish(ctx, events.EventScanCompleted, map[string]any{
		"profileId": req.Profile.ID,
		"platform":  req.Platform,
		"found":     len(incoming),
		"added":     len(added),
	})

	return ScanResult{Leads: added, Found: len(incoming), Added: len(added)}, nil
}

// ScanProfile loads a stored profile and the selected stored groups, then
// scans. Unknown group ids are ignored; an unknown profile is ErrNotFound.
func (w *Worker) ScanProfile(ctx context.Context, profileID, platformLabel string, groupIDs []string) (ScanResult, error) {
	st, err := w.repo.Load(ctx)
	if err != nil {
		return ScanResult{Leads: []model.Lead{}}, err
	}
	req := model.ScanRequest{Platform: platformLabel}
	found := false
	for _, p := range st.Profiles {
		if p.ID == profileID {
			req.Profile, found = p, true
			break
		}
	}
	if !found {
		return ScanResult{Leads: []model.Lead{}}, fmt.Errorf("profile %s: %w", profileID, model.ErrNotFound)
	}
	if len(groupIDs) > 0 {
		want := make(map[string]bool, len(groupIDs))
		for _, id := range groupIDs {
			want[id] = true
		}
		for _, g := range st.Groups {
			if want[g.ID] {
				req.Groups = append(req.Groups, g)
			}
		}
	}
	return w.Scan(ctx, req)
}

// Run is the scheduled scan for one profile: a scan across every supported
// platform, then a Nextdoor scan scoped to the connected neighborhood if any.
// Errors are collected and the remaining steps still run.
func (w *Worker) Run(ctx context.Context, p model.Profile) error {
	var errs []error
	if _, err := w.Scan(ctx, model.ScanRequest{Profile: p}); err != nil {
		errs = append(errs, err)
	}

	conns, err := w.repo.Connections(ctx)
	if err != nil {
		errs = append(errs, err)
		return errors.Join(errs...)
	}
	if c, ok := findConnection(conns, platform.Nextdoor); ok && c.IsConnected && c.NeighborhoodURL != "" {
		req := model.ScanRequest{
			Profile:  p,
			Platform: string(platform.Nextdoor),
			Groups: []model.Group{{
				Name:     c.AccountName,
				URL:      c.NeighborhoodURL,
				Platform: string(platform.Nextdoor),
			}},
		}
		if _, err := w.Scan(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ─── Groups ──────────────────────────────────────────────────────────────────

// DiscoverGroups searches for communities about niche near location on one
// platform (Facebook when empty) and stores the new ones. The returned groups
// carry stored ids, so a known community keeps its original id.
func (w *Worker) DiscoverGroups(ctx context.Context, niche, location, platformLabel string) ([]model.Group, error) {
	p, err := w.builder.BuildGroupPrompt(niche, location, platformLabel)
	if err != nil {
		return []model.Group{}, &model.ValidationError{Msg: err.Error(), Err: err}
	}

	res, err := w.search(ctx, p)
	if err != nil {
		log.Printf("[worker] Group search failed (%q, %q): %v", niche, location, err)
		return []model.Group{}, &model.UpstreamError{Op: "AI search", Err: err}
	}

	cands := extract.ExtractGroups(res.Text, res.Citations, platformLabel)
	found := w.assembler.AssembleGroups(cands, strings.TrimSpace(niche))

	var out []model.Group
	var added int
	err = w.repo.Update(ctx, func(st *store.State) error {
		st.Groups, added = lead.MergeGroups(st.Groups, found)
		out = stored(st.Groups, found)
		return nil
	})
	if err != nil {
		return []model.Group{}, fmt.Errorf("save groups: %w", err)
	}

	log.Printf("[worker] Group search (%q, %q): found=%d added=%d", niche, location, len(found), added)
	w.publish(ctx, events.EventGroupsDiscovered, map[string]any{
		"niche":    niche,
		"location": location,
		"found":    len(found),
		"added":    added,
	})
	return out, nil
}

// ListGroups returns every stored group.
func (w *Worker) ListGroups(ctx context.Context) ([]model.Group, error) {
	return w.repo.Groups(ctx)
}

// ─── Strategy ────────────────────────────────────────────────────────────────

// AnalyzeLead asks the model for an outreach strategy for one stored lead.
func (w *Worker) AnalyzeLead(ctx context.Context, leadID string) (string, error) {
	leads, err := w.repo.Leads(ctx)
	if err != nil {
		return "", err
	}
	var target *model.Lead
	for i := range leads {
		if leads[i].ID == leadID {
			target = &leads[i]
			break
		}
	}
	if target == nil {
		return "", model.ErrNotFound
	}

	text, err := w.generate(ctx, w.builder.BuildStrategyPrompt(*target))
	if err != nil {
		return "", &model.UpstreamError{Op: "AI generation", Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return FallbackStrategy, nil
	}
	return text, nil
}

// ─── Connections ─────────────────────────────────────────────────────────────

// ConnectNextdoor links a Nextdoor neighborhood. The URL is stored normalized
// and must point at nextdoor.
func (w *Worker) ConnectNextdoor(ctx context.Context, accountName, neighborhoodURL string) (model.Connection, error) {
	accountName = strings.TrimSpace(accountName)
	if accountName == "" || strings.TrimSpace(neighborhoodURL) == "" {
		return model.Connection{}, &model.ValidationError{Msg: "account name and neighborhood URL are required"}
	}
	norm := urlnorm.Normalize(neighborhoodURL)
	if platform.Classify(norm) != platform.Nextdoor {
		return model.Connection{}, &model.ValidationError{Msg: fmt.Sprintf("%q is not a Nextdoor URL", neighborhoodURL)}
	}

	synced := w.now().UTC()
	conn := model.Connection{
		Platform:        string(platform.Nextdoor),
		IsConnected:     true,
		AccountName:     accountName,
		NeighborhoodURL: norm,
		LastSyncedAt:    &synced,
	}
	err := w.repo.Update(ctx, func(st *store.State) error {
		st.Connections = upsertConnection(st.Connections, conn)
		return nil
	})
	if err != nil {
		return model.Connection{}, fmt.Errorf("save connection: %w", err)
	}

	log.Printf("[worker] Nextdoor connected: %s (%s)", accountName, norm)
	w.publish(ctx, events.EventConnectionUpdated, map[string]any{
		"platform":    conn.Platform,
		"isConnected": true,
	})
	return conn, nil
}

// ListConnections returns every platform with its connection state. Platforms
// never connected are reported as disconnected.
func (w *Worker) ListConnections(ctx context.Context) ([]model.Connection, error) {
	stored, err := w.repo.Connections(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Connection, 0, len(platform.Supported()))
	for _, l := range platform.Supported() {
		if c, ok := findConnection(stored, l); ok {
			out = append(out, c)
			continue
		}
		out = append(out, model.Connection{Platform: string(l)})
	}
	return out, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// search calls the searcher once. A panic inside the backend is reported as
// an error.
func (w *Worker) search(ctx context.Context, p string) (res model.SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = model.SearchResult{}, fmt.Errorf("search panicked: %v", r)
		}
	}()
	return w.searcher.Search(ctx, p)
}

func (w *Worker) generate(ctx context.Context, p string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("generate panicked: %v", r)
		}
	}()
	return w.generator.Generate(ctx, p)
}

func (w *Worker) publish(ctx context.Context, event string, fields map[string]any) {
	if err := w.pub.Publish(ctx, event, fields); err != nil {
		slog.Warn("publish failed", "event", event, "err", err)
	}
}

// kept returns the incoming leads that survived a merge, in incoming order.
func kept(merged, incoming []model.Lead, n int) []model.Lead {
	out := make([]model.Lead, 0, n)
	if n == 0 {
		return out
	}
	ids := make(map[string]struct{}, len(merged))
	for _, l := range merged {
		ids[l.ID] = struct{}{}
	}
	for _, l := range incoming {
		if _, ok := ids[l.ID]; ok {
			out = append(out, l)
		}
	}
	return out
}

// stored maps each found group onto its stored record.
func stored(all, found []model.Group) []model.Group {
	byKey := make(map[string]model.Group, len(all))
	for _, g := range all {
		byKey[urlnorm.Key(g.URL)] = g
	}
	out := make([]model.Group, 0, len(found))
	seen := make(map[string]struct{}, len(found))
	for _, g := range found {
		k := urlnorm.Key(g.URL)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if s, ok := byKey[k]; ok {
			g = s
		}
		out = append(out, g)
	}
	return out
}

func findConnection(conns []model.Connection, l platform.Label) (model.Connection, bool) {
	for _, c := range conns {
		if c.Platform == string(l) {
			return c, true
		}
	}
	return model.Connection{}, false
}

func upsertConnection(conns []model.Connection, c model.Connection) []model.Connection {
	for i := range conns {
		if conns[i].Platform == c.Platform {
			conns[i] = c
			return conns
		}
	}
	return append(conns, c)
}
