package extract

import (
	"net/url"
	"regexp"
	"strings"

	"leadsync/internal/model"
	"leadsync/internal/platform"
	"leadsync/internal/urlnorm"
)

var membersRe = regexp.MustCompile(`(?i)(\d[\d,.]*\s?[km]?)\s*(?:\+\s*)?members`)

// groupPaths are the path prefixes that identify a community page per platform.
// A platform without an entry accepts any non-root path.
var groupPaths = map[platform.Label][]string{
	platform.Facebook: {"/groups/"},
	platform.Reddit:   {"/r/"},
	platform.LinkedIn: {"/groups/"},
	platform.Nextdoor: {"/neighborhood/", "/g/", "/groups/"},
	platform.Quora:    {"/q/", "/topic/"},
}

// ExtractGroups builds group candidates for one community discovery call.
// Only URLs that belong to label (Facebook when empty) and look like a
// community page are kept.
func ExtractGroups(text string, citations []model.Citation, label string) []model.Candidate {
	want := platform.Facebook
	if l, ok := platform.Parse(label); ok && l != platform.Web {
		want = l
	}

	set := newCandidateSet()
	lines := splitLines(text)

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

		// Redirect links are accepted on the strength of the title alone.
		byHost := platform.Classify(norm)
		switch {
		case byHost == want:
			if !IsGroupURL(norm, want) {
				continue
			}
		case byHost == platform.Web && platform.Mentioned(title) == want:
		default:
			continue
		}

		line := findLine(lines, uri, norm, title)
		name := title
		if name == "" {
			name = groupNameFromURL(norm)
		}
		set.add(strings.ToLower(norm), model.Candidate{
			URL:         norm,
			Platform:    string(want),
			Title:       name,
			Snippet:     line,
			Origin:      model.OriginCitation,
			MemberCount: memberCount(line),
		}, false)
	}

	for _, m := range matchURLs(text) {
		norm := urlnorm.Normalize(m)
		if norm == "" || platform.Classify(norm) != want || !IsGroupURL(norm, want) {
			continue
		}
		line := findLine(lines, m, norm, "")
		set.add(strings.ToLower(norm), model.Candidate{
			URL:         norm,
			Platform:    string(want),
			Title:       groupNameFromURL(norm),
			Snippet:     line,
			Origin:      model.OriginText,
			MemberCount: memberCount(line),
		}, false)
	}

	return set.values()
}

// IsGroupURL reports whether a normalized URL points at a community page on l.
func IsGroupURL(norm string, l platform.Label) bool {
	u, err := url.Parse(norm)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	prefixes, ok := groupPaths[l]
	if !ok {
		return strings.Trim(path, "/") != ""
	}
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) && len(path) > len(p) {
			return true
		}
	}
	return false
}

// groupNameFromURL turns the community slug into a readable name.
func groupNameFromURL(norm string) string {
	u, err := url.Parse(norm)
	if err != nil {
		return norm
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	slug := segs[len(segs)-1]
	if slug == "" {
		return u.Host
	}
	if dec, err := url.PathUnescape(slug); err == nil {
		slug = dec
	}
	return strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(slug))
}

func memberCount(line string) string {
	m := membersRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(m[1], " ", ""))
}
