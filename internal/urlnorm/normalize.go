// Package urlnorm canonicalizes URLs into stable deduplication keys.
//
// Normalize is idempotent: Normalize(Normalize(u)) == Normalize(u).
// Key is the lowercased form used as a map key everywhere leads are
// deduplicated; the stored URL keeps the casing Normalize produced.
package urlnorm

import (
	"net/url"
	"regexp"
	"strings"
)

// trailingPunct leaks from natural-language generation ("see reddit.com/r/x.").
const trailingPunct = ".,)]!?;:"

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)

// DefaultTrackingParams is the query-parameter deny-list applied by Default.
var DefaultTrackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id",
	"fbclid", "gclid", "msclkid", "igshid", "igsh", "mibextid",
	"ref", "ref_src", "ref_url", "__cft__", "__tn__", "rdt", "share_id", "si",
}

// HostRule collapses every variant host onto one canonical host.
type HostRule struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// DefaultHostRules covers the mobile and alternate hosts of supported platforms.
var DefaultHostRules = []HostRule{
	{Canonical: "www.facebook.com", Variants: []string{
		"facebook.com", "m.facebook.com", "mobile.facebook.com", "web.facebook.com",
		"touch.facebook.com", "mbasic.facebook.com", "fb.com", "www.fb.com", "m.fb.com",
	}},
	{Canonical: "www.reddit.com", Variants: []string{
		"reddit.com", "old.reddit.com", "new.reddit.com", "m.reddit.com", "np.reddit.com", "i.reddit.com",
	}},
	{Canonical: "www.instagram.com", Variants: []string{
		"instagram.com", "m.instagram.com", "instagr.am", "www.instagr.am",
	}},
	{Canonical: "www.linkedin.com", Variants: []string{
		"linkedin.com", "m.linkedin.com", "mobile.linkedin.com",
	}},
	{Canonical: "www.quora.com", Variants: []string{"quora.com", "m.quora.com"}},
	{Canonical: "nextdoor.com", Variants: []string{"www.nextdoor.com", "m.nextdoor.com"}},
	{Canonical: "x.com", Variants: []string{
		"www.x.com", "mobile.x.com", "twitter.com", "www.twitter.com", "mobile.twitter.com", "m.twitter.com",
	}},
	{Canonical: "www.threads.net", Variants: []string{"threads.net", "threads.com", "www.threads.com"}},
	{Canonical: "bsky.app", Variants: []string{"www.bsky.app"}},
	{Canonical: "t.me", Variants: []string{"www.t.me", "telegram.me", "www.telegram.me"}},
}

// Normalizer holds the deny-list and host table. The zero value does nothing
// beyond the structural cleanup; use New or Default.
type Normalizer struct {
	tracking  map[string]struct{}
	hosts     map[string]string
	canonical map[string]struct{}
}

// Option extends a Normalizer.
type Option func(*Normalizer)

// WithTrackingParams adds query parameters to the deny-list.
func WithTrackingParams(params ...string) Option {
	return func(n *Normalizer) {
		for _, p := range params {
			if p = strings.TrimSpace(p); p != "" {
				n.tracking[p] = struct{}{}
			}
		}
	}
}

// WithHostRules adds or overrides host canonicalization rules.
func WithHostRules(rules ...HostRule) Option {
	return func(n *Normalizer) {
		for _, r := range rules {
			canonical := strings.ToLower(strings.TrimSpace(r.Canonical))
			if canonical == "" {
				continue
			}
			n.canonical[canonical] = struct{}{}
			for _, v := range r.Variants {
				if v = strings.ToLower(strings.TrimSpace(v)); v != "" && v != canonical {
					n.hosts[v] = canonical
				}
			}
		}
	}
}

// New returns a Normalizer seeded with the default deny-list and host rules,
// then extended by opts.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		tracking:  make(map[string]struct{}),
		hosts:     make(map[string]string),
		canonical: make(map[string]struct{}),
	}
	WithTrackingParams(DefaultTrackingParams...)(n)
	WithHostRules(DefaultHostRules...)(n)
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Default is the process-wide normalizer used by Normalize and Key.
// Replace it once at startup (before serving) to apply a rules file.
var Default = New()

// Normalize canonicalizes raw with the Default normalizer.
func Normalize(raw string) string { return Default.Normalize(raw) }

// Key returns the case-insensitive dedup key for raw with the Default normalizer.
func Key(raw string) string { return Default.Key(raw) }

// Key returns the lowercased normalized form of raw.
func (n *Normalizer) Key(raw string) string {
	return strings.ToLower(n.Normalize(raw))
}

// maxPasses bounds the fixpoint loop in Normalize.
const maxPasses = 4

// Normalize canonicalizes raw. It never panics; input that does not parse as a
// URL comes back trimmed of whitespace and trailing punctuation.
func (n *Normalizer) Normalize(raw string) string {
	out := n.normalizeOnce(raw)
	// Dropping a trailing tracking parameter can expose punctuation that a
	// second pass would strip; iterate so the result is a fixpoint.
	for i := 1; i < maxPasses; i++ {
		next := n.normalizeOnce(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func (n *Normalizer) normalizeOnce(raw string) string {
	stripped := strings.TrimRight(strings.TrimSpace(raw), trailingPunct)
	if stripped == "" {
		return ""
	}

	withScheme := stripped
	if !schemeRe.MatchString(withScheme) {
		withScheme = "https://" + withScheme
	}

	u, err := url.Parse(withScheme)
	if err != nil || u.Host == "" {
		return stripped
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.TrimRight(strings.ToLower(u.Hostname()), ".")
	port := u.Port()
	if (u.Scheme == "https" && port == "443") || (u.Scheme == "http" && port == "80") {
		port = ""
	}
	if c, ok := n.hosts[host]; ok {
		host = c
	}
	if _, known := n.canonical[host]; known {
		u.Scheme = "https"
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host = host + ":" + port
	}
	u.Host = host

	if u.RawQuery != "" {
		q := u.Query()
		for p := range q {
			if _, deny := n.tracking[p]; deny {
				q.Del(p)
			}
		}
		u.RawQuery = q.Encode()
	}
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery == "" {
		u.Path = strings.TrimRight(u.Path, "/"+trailingPunct)
		u.RawPath = ""
	} else {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}

	return u.String()
}
