// Package lead turns extracted candidates into persisted Lead and Group
// records and merges them into previously accumulated sets.
package lead

import (
	"time"

	"github.com/google/uuid"

	"leadsync/internal/model"
	"leadsync/internal/outreach"
)

// Assembler stamps candidates into final records. Every field is optional:
// nil NewID uses uuid.NewString, nil Now uses time.Now, nil Scorer uses a
// time-seeded RandomScorer.
type Assembler struct {
	NewID  func() string
	Now    func() time.Time
	Scorer Scorer
}

// NewAssembler returns an Assembler with production defaults and the given scorer.
func NewAssembler(scorer Scorer) *Assembler {
	return &Assembler{
		NewID:  uuid.NewString,
		Now:    time.Now,
		Scorer: scorer,
	}
}

// Assemble builds one Lead per candidate, in order. Candidates are read,
// never modified; every returned Lead is a fresh value.
func (a *Assembler) Assemble(cands []model.Candidate, p model.Profile) []model.Lead {
	newID, now, scorer := a.deps()

	detected := now().UTC()
	leads := make([]model.Lead, 0, len(cands))
	for _, c := range cands {
		leads = append(leads, model.Lead{
			ID:             newID(),
			Author:         c.Author,
			Title:          c.Title,
			Snippet:        c.Snippet,
			URL:            c.URL,
			Platform:       c.Platform,
			RelevanceScore: Clamp(scorer.Score(c)),
			DetectedAt:     detected,
			FileID:         p.ID,
			Status:         string(outreach.InitialStatus),
		})
	}
	return leads
}

// AssembleGroups builds one Group per candidate, tagged with niche.
func (a *Assembler) AssembleGroups(cands []model.Candidate, niche string) []model.Group {
	newID, _, _ := a.deps()

	if niche == "" {
		niche = model.DefaultNiche
	}
	groups := make([]model.Group, 0, len(cands))
	for _, c := range cands {
		groups = append(groups, model.Group{
			ID:          newID(),
			Name:        c.Title,
			URL:         c.URL,
			MemberCount: c.MemberCount,
			Niche:       niche,
			Platform:    c.Platform,
		})
	}
	return groups
}

func (a *Assembler) deps() (func() string, func() time.Time, Scorer) {
	newID, now, scorer := a.NewID, a.Now, a.Scorer
	if newID == nil {
		newID = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	if scorer == nil {
		scorer = NewRandomScorer(uint64(time.Now().UnixNano()))
	}
	return newID, now, scorer
}
