package extract_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadsync/internal/extract"
	"leadsync/internal/model"
)

func scanReq() model.ScanRequest {
	return model.ScanRequest{Profile: model.Profile{
		ID:       "p1",
		Keywords: []string{"need a plumber"},
		Niche:    "Home Services",
		Location: "Austin, TX",
	}}
}

func TestExtract_MobileFacebookCitation(t *testing.T) {
	cands := extract.Extract("", []model.Citation{{URI: "https://m.facebook.com/groups/abc?ref=1"}}, scanReq())

	require.Len(t, cands, 1)
	assert.Equal(t, "https://www.facebook.com/groups/abc", cands[0].URL)
	assert.Equal(t, "Facebook", cands[0].Platform)
	assert.Equal(t, "Potential lead from Facebook", cands[0].Title)
	assert.Equal(t, model.OriginCitation, cands[0].Origin)
	assert.Equal(t, "Lead found regarding need a plumber in Austin, TX. Based on current web discussions.", cands[0].Snippet)
}

func TestExtract_TextPunctuationVariantsDedup(t *testing.T) {
	text := "Someone asked here: http://reddit.com/r/x.\nSame thread again http://reddit.com/r/x"
	cands := extract.Extract(text, nil, scanReq())

	require.Len(t, cands, 1)
	assert.Equal(t, "https://www.reddit.com/r/x", cands[0].URL)
	assert.Equal(t, "Reddit", cands[0].Platform)
	assert.Equal(t, model.OriginText, cands[0].Origin)
	assert.Equal(t, "Someone asked here: http://reddit.com/r/x.", cands[0].Snippet)
}

func TestExtract_CitationBeatsText(t *testing.T) {
	citations := []model.Citation{{
		Title: "Jane Doe - Need a plumber in Austin",
		URI:   "https://www.reddit.com/r/Austin/comments/1",
	}}
	text := "1. Pipe burst, anyone? https://www.reddit.com/r/Austin/comments/1/?utm_source=share"
	cands := extract.Extract(text, citations, scanReq())

	require.Len(t, cands, 1)
	c := cands[0]
	assert.Equal(t, model.OriginCitation, c.Origin)
	assert.Equal(t, "Jane Doe - Need a plumber in Austin", c.Title)
	assert.Equal(t, "Jane Doe", c.Author)
	assert.Equal(t, "Pipe burst, anyone? https://www.reddit.com/r/Austin/comments/1/?utm_source=share", c.Snippet)
}

func TestExtract_InsertionOrderCitationsFirst(t *testing.T) {
	citations := []model.Citation{
		{Title: "B", URI: "https://www.quora.com/b"},
		{Title: "A", URI: "https://www.linkedin.com/posts/a"},
	}
	text := "https://x.com/c/status/1 then https://bsky.app/profile/d"
	cands := extract.Extract(text, citations, scanReq())

	require.Len(t, cands, 4)
	assert.Equal(t, "https://www.quora.com/b", cands[0].URL)
	assert.Equal(t, "https://www.linkedin.com/posts/a", cands[1].URL)
	assert.Equal(t, "https://x.com/c/status/1", cands[2].URL)
	assert.Equal(t, "https://bsky.app/profile/d", cands[3].URL)
}

func TestExtract_NoDuplicateKeys(t *testing.T) {
	citations := []model.Citation{
		{URI: "https://m.facebook.com/groups/abc?ref=1"},
		{URI: "https://www.facebook.com/groups/abc/"},
		{URI: "HTTPS://WWW.FACEBOOK.COM/groups/abc#top"},
		{URI: "https://www.reddit.com/r/Plumbing"},
	}
	text := "see facebook.com/groups/abc, also https://reddit.com/r/plumbing/ and https://np.reddit.com/r/Plumbing?utm_source=a"
	cands := extract.Extract(text, citations, scanReq())

	seen := map[string]bool{}
	for _, c := range cands {
		key := strings.ToLower(c.URL)
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
	assert.Len(t, cands, 2)
}

func TestExtract_MalformedCitations(t *testing.T) {
	citations := []model.Citation{
		{Title: "empty"},
		{Title: "blank", URI: "   "},
		{Title: "broken", URI: "http://[bad"},
	}
	cands := extract.Extract("", citations, scanReq())

	require.Len(t, cands, 1)
	assert.Equal(t, "http://[bad", cands[0].URL)
	assert.Equal(t, "Web", cands[0].Platform)
	assert.Equal(t, "broken", cands[0].Title)
}

func TestExtract_RedirectCitationUsesTitle(t *testing.T) {
	citations := []model.Citation{{
		Title: "reddit.com",
		URI:   "https://vertexaisearch.cloud.google.com/grounding-api-redirect/AbC123",
	}}
	cands := extract.Extract("", citations, scanReq())

	require.Len(t, cands, 1)
	assert.Equal(t, "Reddit", cands[0].Platform)
	assert.Equal(t, "https://vertexaisearch.cloud.google.com/grounding-api-redirect/AbC123", cands[0].URL)
}

func TestExtract_TextScope(t *testing.T) {
	text := "https://www.facebook.com/groups/a https://www.reddit.com/r/b https://example.com/blog"

	unscoped := extract.Extract(text, nil, scanReq())
	require.Len(t, unscoped, 2, "Web links never pass the default scope")

	req := scanReq()
	req.Platform = "Reddit"
	scoped := extract.Extract(text, nil, req)
	require.Len(t, scoped, 1)
	assert.Equal(t, "Reddit", scoped[0].Platform)

	req = scanReq()
	req.Groups = []model.Group{{URL: "https://www.facebook.com/groups/a"}}
	grouped := extract.Extract(text, nil, req)
	require.Len(t, grouped, 1)
	assert.Equal(t, "Facebook", grouped[0].Platform)
}

func TestExtract_Deterministic(t *testing.T) {
	citations := []model.Citation{
		{Title: "Mike | Austin Plumbing", URI: "https://www.facebook.com/groups/x/posts/1"},
		{Title: "Q", URI: "https://www.quora.com/q"},
	}
	text := "https://t.me/austinhelp https://www.threads.net/@a/post/1 https://nextdoor.com/p/abc"
	first := extract.Extract(text, citations, scanReq())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, extract.Extract(text, citations, scanReq()))
	}
}

func TestExtract_ExcludedKeywordsFiltered(t *testing.T) {
	req := scanReq()
	req.Profile.ExcludeKeywords = []string{"Job"}
	citations := []model.Citation{
		{Title: "Plumber job opening in Austin", URI: "https://www.reddit.com/r/austinjobs/comments/1"},
		{Title: "Need a plumber ASAP", URI: "https://www.reddit.com/r/Austin/comments/2"},
	}
	cands := extract.Extract("", citations, req)

	require.Len(t, cands, 1)
	assert.Equal(t, "https://www.reddit.com/r/Austin/comments/2", cands[0].URL)
}

func TestExtract_ExclusionIgnoresDefaultText(t *testing.T) {
	for _, term := range []string{"web", "lead", "potential", "discussions"} {
		t.Run(term, func(t *testing.T) {
			req := scanReq()
			req.Profile.ExcludeKeywords = []string{term}
			cands := extract.Extract("", []model.Citation{{URI: "https://m.facebook.com/groups/abc?ref=1"}}, req)

			require.Len(t, cands, 1)
			assert.Equal(t, "https://www.facebook.com/groups/abc", cands[0].URL)
			assert.Equal(t, "Potential lead from Facebook", cands[0].Title)
		})
	}
}

func TestExtract_ExclusionChecksResponseLine(t *testing.T) {
	req := scanReq()
	req.Profile.ExcludeKeywords = []string{"hiring"}
	text := "- We are hiring plumbers https://www.reddit.com/r/austinjobs/comments/7\n- Leaky sink https://www.reddit.com/r/Austin/comments/8"
	cands := extract.Extract(text, nil, req)

	require.Len(t, cands, 1)
	assert.Equal(t, "https://www.reddit.com/r/Austin/comments/8", cands[0].URL)
}

func TestExtract_ExcludedCitationStillClaimsURL(t *testing.T) {
	req := scanReq()
	req.Profile.ExcludeKeywords = []string{"opening"}
	citations := []model.Citation{{Title: "Plumber job opening", URI: "https://www.reddit.com/r/austinjobs/comments/1"}}
	cands := extract.Extract("see https://reddit.com/r/austinjobs/comments/1", citations, req)

	assert.Empty(t, cands)
}

func TestExtract_EmptyInput(t *testing.T) {
	assert.Empty(t, extract.Extract("", nil, scanReq()))
	assert.Empty(t, extract.Extract("no links in here at all", []model.Citation{}, scanReq()))
}

func TestDeriveAuthor(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Jane Doe - Need a plumber", "Jane Doe"},
		{"Mike | Austin Plumbing", "Mike"},
		{"No separator here", ""},
		{"e-commerce tips", ""},
		{"A very long opening segment that is clearly not a name - rest", ""},
		{"Reddit - Dive into anything", ""},
		{" - leading separator", ""},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, extract.DeriveAuthor(c.title), "DeriveAuthor(%q)", c.title)
	}
}

func TestContainsExcluded(t *testing.T) {
	assert.False(t, extract.ContainsExcluded("t", "a", "s", nil))
	assert.False(t, extract.ContainsExcluded("t", "a", "s", []string{"", "  "}))
	assert.True(t, extract.ContainsExcluded("Hiring now", "", "", []string{"hiring"}))
	assert.True(t, extract.ContainsExcluded("", "InternshipBot", "", []string{"internship"}))
	assert.False(t, extract.ContainsExcluded("Need a plumber", "Jane", "burst pipe", []string{"jobs"}))
}
