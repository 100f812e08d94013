package lead

import (
	"math/rand/v2"
	"sync"

	"leadsync/internal/model"
)

// Relevance scores are advisory and always fall in [MinScore, MaxScore].
const (
	MinScore = 70
	MaxScore = 99
)

// Scorer assigns a relevance score to a candidate. Results outside the
// documented range are clamped by the Assembler.
type Scorer interface {
	Score(c model.Candidate) int
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(model.Candidate) int

// Score calls f(c).
func (f ScorerFunc) Score(c model.Candidate) int { return f(c) }

// RandomScorer draws uniformly from [MinScore, MaxScore]. Two scorers built
// with the same seed produce the same sequence. Safe for concurrent use.
type RandomScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomScorer returns a RandomScorer seeded with seed.
func NewRandomScorer(seed uint64) *RandomScorer {
	return &RandomScorer{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Score ignores the candidate.
func (s *RandomScorer) Score(model.Candidate) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MinScore + s.rng.IntN(MaxScore-MinScore+1)
}

// Clamp forces score into [MinScore, MaxScore].
func Clamp(score int) int {
	switch {
	case score < MinScore:
		return MinScore
	case score > MaxScore:
		return MaxScore
	}
	return score
}
