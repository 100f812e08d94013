// Package prompt assembles the natural-language search directives sent to the
// generative search backend. Every function here is pure: identical inputs
// produce byte-identical prompts.
package prompt

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"leadsync/internal/model"
	"leadsync/internal/platform"
	"leadsync/internal/urlnorm"
)

// DefaultRecencyDays is the lookback window used when Builder.RecencyDays is unset.
const DefaultRecencyDays = 90

// ErrLocationRequired is returned by BuildGroupPrompt when no location is given.
var ErrLocationRequired = errors.New("location required before searching for groups")

// Builder renders prompts. The zero value uses DefaultRecencyDays.
type Builder struct {
	RecencyDays int
}

func (b Builder) days() int {
	if b.RecencyDays <= 0 {
		return DefaultRecencyDays
	}
	return b.RecencyDays
}

// BuildScanPrompt renders the lead search directive for a profile.
//
// Scope precedence: groups (when supplied) restrict the search to each
// group's normalized URL; otherwise platformLabel restricts it to that
// platform's domains; an empty or unknown label means every supported
// platform.
func (b Builder) BuildScanPrompt(p model.Profile, platformLabel string, groups []model.Group) string {
	niche := orDefault(p.Niche, model.DefaultNiche)
	location := orDefault(p.Location, model.DefaultLocation)

	var sb strings.Builder
	sb.WriteString("Find recent public posts where people are asking for help, recommendations or a provider matching this business profile.\n\n")
	fmt.Fprintf(&sb, "Niche: %s\n", niche)
	fmt.Fprintf(&sb, "Target location: %s\n", location)
	fmt.Fprintf(&sb, "Search terms: %s\n", disjunction(p.Keywords))

	if excl := cleanTerms(p.ExcludeKeywords); len(excl) > 0 {
		fmt.Fprintf(&sb, "Exclude: %s\n", strings.Join(excl, ", "))
		negated := make([]string, 0, len(excl))
		for _, t := range excl {
			negated = append(negated, `-"`+t+`"`)
		}
		fmt.Fprintf(&sb, "Negative terms: %s\n", strings.Join(negated, " "))
	}

	fmt.Fprintf(&sb, "Recency: only posts published in the last %d days.\n", b.days())
	fmt.Fprintf(&sb, "Scope: %s\n\n", scanScope(platformLabel, groups))

	sb.WriteString("Focus on people describing a pain point or requesting a service related to the search terms.\n")
	sb.WriteString("For each post found give the post title, the author or community name when visible, ")
	sb.WriteString("a one-line summary of the need, and the full post URL on its own line.\n")
	sb.WriteString("Skip advertisements and posts written by providers promoting themselves.\n")
	return sb.String()
}

// BuildGroupPrompt renders the community discovery directive.
// An empty platformLabel defaults to Facebook groups.
func (b Builder) BuildGroupPrompt(niche, location, platformLabel string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", ErrLocationRequired
	}
	niche = orDefault(niche, model.DefaultNiche)

	label := platform.Facebook
	if l, ok := platform.Parse(platformLabel); ok && l != platform.Web {
		label = l
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Find active %s communities (groups, forums, channels) for the niche %q in or around %s.\n",
		label, niche, location)
	fmt.Fprintf(&sb, "Scope: %s\n", siteDisjunction(platform.SiteDomains(label)))
	fmt.Fprintf(&sb, "Prefer communities with posts in the last %d days.\n", b.days())
	sb.WriteString("List up to 10 communities. For each give the community name, the approximate member count when shown, ")
	sb.WriteString("and the full community URL on its own line.\n")
	return sb.String(), nil
}

// BuildStrategyPrompt renders the outreach-strategy request for one lead.
func (b Builder) BuildStrategyPrompt(l model.Lead) string {
	var sb strings.Builder
	sb.WriteString("Analyze this potential customer post and suggest a high-converting, personalized reply.\n\n")
	fmt.Fprintf(&sb, "Platform: %s\n", l.Platform)
	if l.Author != "" {
		fmt.Fprintf(&sb, "Author: %s\n", l.Author)
	}
	fmt.Fprintf(&sb, "Title: %s\n", l.Title)
	fmt.Fprintf(&sb, "Post: %q\n", l.Snippet)
	fmt.Fprintf(&sb, "URL: %s\n\n", l.URL)
	sb.WriteString("Keep the reply short, helpful first and free of hard selling. Match the tone of the platform.\n")
	return sb.String()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func scanScope(platformLabel string, groups []model.Group) string {
	if len(groups) > 0 {
		sites := make([]string, 0, len(groups))
		seen := make(map[string]bool, len(groups))
		for _, g := range groups {
			s := groupSite(g.URL)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			sites = append(sites, s)
		}
		if len(sites) > 0 {
			return siteDisjunction(sites)
		}
	}

	if l, ok := platform.Parse(platformLabel); ok && l != platform.Web {
		return siteDisjunction(platform.SiteDomains(l))
	}

	var all []string
	for _, l := range platform.Supported() {
		all = append(all, platform.SiteDomains(l)...)
	}
	return siteDisjunction(all)
}

// groupSite turns a group URL into a site: operand: normalized host without
// "www." followed by the path.
func groupSite(raw string) string {
	norm := urlnorm.Normalize(raw)
	if norm == "" {
		return ""
	}
	u, err := url.Parse(norm)
	if err != nil || u.Host == "" {
		return strings.TrimPrefix(norm, "https://")
	}
	return strings.TrimPrefix(u.Host, "www.") + u.EscapedPath()
}

func siteDisjunction(sites []string) string {
	parts := make([]string, 0, len(sites))
	for _, s := range sites {
		parts = append(parts, "site:"+s)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func disjunction(terms []string) string {
	clean := cleanTerms(terms)
	quoted := make([]string, 0, len(clean))
	for _, t := range clean {
		quoted = append(quoted, `"`+t+`"`)
	}
	return "(" + strings.Join(quoted, " OR ") + ")"
}

// cleanTerms trims terms, drops empties and strips embedded double quotes so
// they cannot break the quoted search syntax.
func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(strings.ReplaceAll(t, `"`, ""))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
