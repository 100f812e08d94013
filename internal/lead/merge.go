package lead

import (
	"sort"

	"leadsync/internal/model"
	"leadsync/internal/urlnorm"
)

// Merge adds incoming leads to existing, skipping any whose urlnorm.Key is
// already present (existing records win, then earlier incoming records).
// The result is a new slice sorted newest first, ties broken by relevance.
// added is the number of incoming leads kept.
func Merge(existing, incoming []model.Lead) (merged []model.Lead, added int) {
	merged = make([]model.Lead, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))

	for _, l := range existing {
		k := urlnorm.Key(l.URL)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		merged = append(merged, l)
	}
	for _, l := range incoming {
		k := urlnorm.Key(l.URL)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		merged = append(merged, l)
		added++
	}

	SortNewest(merged)
	return merged, added
}

// SortNewest orders leads by DetectedAt descending, then RelevanceScore
// descending. The sort is stable.
func SortNewest(leads []model.Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if !leads[i].DetectedAt.Equal(leads[j].DetectedAt) {
			return leads[i].DetectedAt.After(leads[j].DetectedAt)
		}
		return leads[i].RelevanceScore > leads[j].RelevanceScore
	})
}

// MergeGroups adds incoming groups whose normalized URL is not yet known.
// Existing order is kept and new groups are appended.
func MergeGroups(existing, incoming []model.Group) (merged []model.Group, added int) {
	merged = make([]model.Group, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, g := range existing {
		seen[urlnorm.Key(g.URL)] = struct{}{}
		merged = append(merged, g)
	}
	for _, g := range incoming {
		k := urlnorm.Key(g.URL)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		merged = append(merged, g)
		added++
	}
	return merged, added
}
