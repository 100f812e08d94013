// Package model defines shared data structures for the lead discovery pipeline.
package model

import "time"

// Default qualifiers applied to profiles saved without a niche or location.
const (
	DefaultNiche    = "Business"
	DefaultLocation = "Global"
)

// Profile is a saved keyword collection that drives a scan.
type Profile struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Keywords        []string  `json:"keywords"`
	ExcludeKeywords []string  `json:"excludeKeywords"`
	Niche           string    `json:"niche"`
	Location        string    `json:"location"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Lead is a discovered opportunity tied to a single normalized URL.
type Lead struct {
	ID             string    `json:"id"`
	Author         string    `json:"author,omitempty"`
	Title          string    `json:"title"`
	Snippet        string    `json:"snippet"`
	URL            string    `json:"url"`
	Platform       string    `json:"platform"`
	RelevanceScore int       `json:"relevanceScore"`
	DetectedAt     time.Time `json:"detectedAt"`
	FileID         string    `json:"fileId"`
	Status         string    `json:"status"`
}

// Group is an online community usable as a scan-scope restriction.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	MemberCount string `json:"memberCount,omitempty"`
	Niche       string `json:"niche"`
	Platform    string `json:"platform"`
}

// Connection records a linked platform account (e.g. a Nextdoor neighborhood).
type Connection struct {
	Platform        string     `json:"platform"`
	IsConnected     bool       `json:"isConnected"`
	AccountName     string     `json:"accountName,omitempty"`
	NeighborhoodURL string     `json:"neighborhoodUrl,omitempty"`
	LastSyncedAt    *time.Time `json:"lastSyncedAt,omitempty"`
}

// Citation is a grounding source returned by the generative search backend.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// SearchResult is the only response shape the pipeline consumes from the
// generative search backend: free text plus grounding citations.
type SearchResult struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// Candidate origins, in precedence order.
const (
	OriginCitation = "citation"
	OriginText     = "text"
)

// Candidate is a not-yet-finalized Lead or Group produced by the extractor.
type Candidate struct {
	URL      string
	Platform string
	Title    string
	Snippet  string
	Author   string
	Origin   string

	// MemberCount is only filled for group candidates.
	MemberCount string
}

// ScanRequest describes one scan: the profile plus an optional scope.
// Platform is a classifier label; empty means every supported platform.
type ScanRequest struct {
	Profile  Profile
	Platform string
	Groups   []Group
}
