// Package platform maps URLs onto the closed set of social platform labels.
package platform

import (
	"strings"
	"unicode"
)

// Label is one of the supported platform names, or Web.
type Label string

const (
	Facebook  Label = "Facebook"
	Reddit    Label = "Reddit"
	Quora     Label = "Quora"
	Instagram Label = "Instagram"
	Nextdoor  Label = "Nextdoor"
	Twitter   Label = "Twitter/X"
	Threads   Label = "Threads"
	Bluesky   Label = "Bluesky"
	Telegram  Label = "Telegram"
	LinkedIn  Label = "LinkedIn"
	Web       Label = "Web"
)

type marker struct {
	label   Label
	domains []string
}

// markers is checked top to bottom; the first match wins.
// Threads sits above Instagram because of legacy threads.instagram.com links.
var markers = []marker{
	{Threads, []string{"threads.net", "threads.com", "threads.instagram.com"}},
	{Facebook, []string{"facebook.com", "fb.com", "fb.me", "fb.watch"}},
	{Reddit, []string{"reddit.com", "redd.it"}},
	{Quora, []string{"quora.com"}},
	{Instagram, []string{"instagram.com", "instagr.am"}},
	{Nextdoor, []string{"nextdoor.com", "nextdoor.co.uk", "nextdoor.ca"}},
	{Twitter, []string{"twitter.com", "x.com", "t.co"}},
	{Bluesky, []string{"bsky.app", "bsky.social"}},
	{Telegram, []string{"t.me", "telegram.me", "telegram.org", "telegram.dog"}},
	{LinkedIn, []string{"linkedin.com", "lnkd.in"}},
}

// siteDomains are the search-operator domains per label.
var siteDomains = map[Label][]string{
	Facebook:  {"facebook.com"},
	Reddit:    {"reddit.com"},
	Quora:     {"quora.com"},
	Instagram: {"instagram.com"},
	Nextdoor:  {"nextdoor.com"},
	Twitter:   {"x.com", "twitter.com"},
	Threads:   {"threads.net"},
	Bluesky:   {"bsky.app"},
	Telegram:  {"t.me"},
	LinkedIn:  {"linkedin.com"},
}

// Classify returns the platform label for a URL or URL-like string.
// It never fails: anything unrecognised is Web.
func Classify(raw string) Label {
	host := hostOf(raw)
	if host == "" {
		return Web
	}
	for _, m := range markers {
		for _, d := range m.domains {
			if host == d || strings.HasSuffix(host, "."+d) {
				return m.label
			}
		}
	}
	return Web
}

// namedLabels are the platform names recognised in free text by Mentioned.
// Threads and Twitter/X are left out: "threads" and "x" are ordinary words.
var namedLabels = map[string]Label{
	"facebook":  Facebook,
	"reddit":    Reddit,
	"quora":     Quora,
	"instagram": Instagram,
	"nextdoor":  Nextdoor,
	"twitter":   Twitter,
	"bluesky":   Bluesky,
	"telegram":  Telegram,
	"linkedin":  LinkedIn,
}

// Mentioned returns the first platform named in free text such as a citation
// title ("r/Austin - Reddit", "facebook.com"), or Web.
func Mentioned(text string) Label {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '-'
	})
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".-")
		if l, ok := namedLabels[tok]; ok {
			return l
		}
		if strings.Contains(tok, ".") {
			if l := Classify(tok); l != Web {
				return l
			}
		}
	}
	return Web
}

// Supported lists every concrete platform label; Web is excluded.
func Supported() []Label {
	return []Label{Facebook, Reddit, Quora, Instagram, Nextdoor, Twitter, Threads, Bluesky, Telegram, LinkedIn}
}

// Parse converts a label string, accepting the canonical spelling case-insensitively
// plus the "twitter" and "x" shorthands.
func Parse(s string) (Label, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "twitter", "x":
		return Twitter, true
	case "web":
		return Web, true
	}
	for _, l := range Supported() {
		if strings.EqualFold(string(l), s) {
			return l, true
		}
	}
	return "", false
}

// SiteDomains returns the domains used for site: restrictions of a label.
// Web has none.
func SiteDomains(l Label) []string {
	return siteDomains[l]
}

// hostOf extracts a lowercased host from a URL, a bare domain, or arbitrary text.
func hostOf(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#\\ \t\n"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, ".")
}
