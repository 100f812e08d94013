// Package extract turns a grounded search response into deduplicated
// candidate records.
//
// Extraction runs in two phases over one map keyed by urlnorm.Key:
// grounding citations first, then URLs matched in the response text. The first
// write for a key wins, so a citation always beats a text match for the same
// URL. Output keeps insertion order and is deterministic for fixed input.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"mvdan.cc/xurls/v2"

	"leadsync/internal/model"
	"leadsync/internal/platform"
	"leadsync/internal/urlnorm"
)

const (
	// maxAuthorLen is the exclusive upper bound for a title segment to be
	// taken as the author.
	maxAuthorLen  = 40
	maxSnippetLen = 280
)

var (
	urlRe       = xurls.Relaxed()
	separatorRe = regexp.MustCompile(`\s+[-|–—]\s+|\|`)
)

// candidateSet is an insertion-ordered map of candidates. An excluded entry
// still claims its key, so a later match for the same URL cannot replace it.
type candidateSet struct {
	order    []string
	byKey    map[string]model.Candidate
	excluded map[string]bool
}

func newCandidateSet() *candidateSet {
	return &candidateSet{
		byKey:    make(map[string]model.Candidate),
		excluded: make(map[string]bool),
	}
}

// add inserts c under key unless the key is already present. drop marks the
// entry as excluded from the output.
func (s *candidateSet) add(key string, c model.Candidate, drop bool) bool {
	if _, ok := s.byKey[key]; ok {
		return false
	}
	s.byKey[key] = c
	s.order = append(s.order, key)
	if drop {
		s.excluded[key] = true
	}
	return true
}

func (s *candidateSet) values() []model.Candidate {
	out := make([]model.Candidate, 0, len(s.order))
	for _, k := range s.order {
		if s.excluded[k] {
			continue
		}
		out = append(out, s.byKey[k])
	}
	return out
}

// Extract builds lead candidates from the response text and citations of one
// scan. A candidate is dropped when its source text (citation title, derived
// author or matched response line) mentions one of the profile's excluded
// keywords. Default titles and placeholder snippets are never checked.
func Extract(text string, citations []model.Citation, req model.ScanRequest) []model.Candidate {
	set := newCandidateSet()
	lines := splitLines(text)
	excluded := req.Profile.ExcludeKeywords

	// ── Phase A: citations ─────────────────────────────
	for _, c := range citations {
		uri := strings.TrimSpace(c.URI)
		if uri == "" {
			continue
		}
		norm := urlnorm.Normalize(uri)
		if norm == "" {
			continue
		}

		title := strings.TrimSpace(c.Title)
		label := citationLabel(norm, title)

		cand := model.Candidate{
			URL:      norm,
			Platform: string(label),
			Title:    title,
			Author:   DeriveAuthor(title),
			Origin:   model.OriginCitation,
		}
		cand.Snippet = findLine(lines, uri, norm, title)
		drop := ContainsExcluded(cand.Title, cand.Author, cand.Snippet, excluded)

		if cand.Title == "" {
			cand.Title = defaultTitle(label)
		}
		if cand.Snippet == "" {
			cand.Snippet = placeholderSnippet(req.Profile)
		}
		set.add(strings.ToLower(norm), cand, drop)
	}

	// ── Phase B: URLs in the response text ─────────────
	scope := scanScope(req)
	for _, m := range matchURLs(text) {
		norm := urlnorm.Normalize(m)
		if norm == "" {
			continue
		}
		label := platform.Classify(norm)
		if !scope[label] {
			continue
		}
		snippet := findLine(lines, m, norm, "")
		drop := ContainsExcluded("", "", snippet, excluded)
		if snippet == "" {
			snippet = placeholderSnippet(req.Profile)
		}
		set.add(strings.ToLower(norm), model.Candidate{
			URL:      norm,
			Platform: string(label),
			Title:    defaultTitle(label),
			Snippet:  snippet,
			Origin:   model.OriginText,
		}, drop)
	}

	return set.values()
}

// DeriveAuthor returns the first segment of a "<name> - <rest>" or
// "<name> | <rest>" title when a separator is present and the segment is
// short enough to plausibly be a name. Platform names are never authors.
func DeriveAuthor(title string) string {
	parts := separatorRe.Split(strings.TrimSpace(title), 2)
	if len(parts) < 2 {
		return ""
	}
	first := strings.TrimSpace(parts[0])
	if first == "" || utf8.RuneCountInString(first) >= maxAuthorLen {
		return ""
	}
	if l, ok := platform.Parse(first); ok && l != platform.Web {
		return ""
	}
	return first
}

// citationLabel classifies by URI host, falling back to the citation title
// when the host is unknown (grounding redirect links carry the real site only
// in the title).
func citationLabel(norm, title string) platform.Label {
	if l := platform.Classify(norm); l != platform.Web {
		return l
	}
	return platform.Mentioned(title)
}

// scanScope returns the platforms text matches may belong to.
func scanScope(req model.ScanRequest) map[platform.Label]bool {
	scope := make(map[platform.Label]bool)
	if l, ok := platform.Parse(req.Platform); ok {
		scope[l] = true
	}
	for _, g := range req.Groups {
		if l := platform.Classify(g.URL); l != platform.Web {
			scope[l] = true
		}
	}
	if len(scope) == 0 {
		for _, l := range platform.Supported() {
			scope[l] = true
		}
	}
	return scope
}

// matchURLs returns every URL-like match in text. Bare e-mail addresses are
// skipped; they would otherwise classify by their domain.
func matchURLs(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, m := range urlRe.FindAllString(text, -1) {
		if strings.HasPrefix(strings.ToLower(m), "mailto:") {
			continue
		}
		if !strings.Contains(m, "://") && strings.Contains(m, "@") && !strings.Contains(m, "/") {
			continue
		}
		out = append(out, m)
	}
	return out
}

func defaultTitle(l platform.Label) string {
	return fmt.Sprintf("Potential lead from %s", l)
}

func placeholderSnippet(p model.Profile) string {
	topic := p.Niche
	for _, k := range p.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			topic = k
			break
		}
	}
	if strings.TrimSpace(topic) == "" {
		topic = model.DefaultNiche
	}
	location := strings.TrimSpace(p.Location)
	if location == "" {
		location = model.DefaultLocation
	}
	return fmt.Sprintf("Lead found regarding %s in %s. Based on current web discussions.", topic, location)
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// findLine returns the first response line mentioning any needle, trimmed
// of list markers and capped at maxSnippetLen runes. Empty needles and
// titles shorter than 8 characters are ignored.
func findLine(lines []string, raw, norm, title string) string {
	needles := make([]string, 0, 3)
	for _, n := range []string{raw, norm} {
		if n = strings.TrimSpace(n); n != "" {
			needles = append(needles, strings.ToLower(n))
		}
	}
	if utf8.RuneCountInString(title) >= 8 {
		needles = append(needles, strings.ToLower(title))
	}

	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return truncate(strings.TrimLeft(line, "-*•0123456789. "), maxSnippetLen)
			}
		}
	}
	return ""
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:limit-1])) + "…"
}
