// Package ai wraps the generative search backend. The rest of the pipeline
// only sees model.SearchResult.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"leadsync/internal/model"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.7
	DefaultTimeout     = 30 * time.Second
)

// ErrQuotaExhausted is returned when the local request budget is spent or the
// API answers with a rate-limit error.
var ErrQuotaExhausted = errors.New("gemini quota exhausted")

// Searcher runs a grounded web search and returns text plus citations.
type Searcher interface {
	Search(ctx context.Context, prompt string) (model.SearchResult, error)
}

// Generator returns plain model text without search grounding.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SearchFunc adapts a function to Searcher.
type SearchFunc func(ctx context.Context, prompt string) (model.SearchResult, error)

func (f SearchFunc) Search(ctx context.Context, prompt string) (model.SearchResult, error) {
	return f(ctx, prompt)
}

// GenerateFunc adapts a function to Generator.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

func (f GenerateFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Config configures the Gemini client.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
	// RPM and RPD cap requests per minute and per day. Zero means unlimited.
	RPM int
	RPD int
}

// Gemini implements Searcher and Generator on google.golang.org/genai.
type Gemini struct {
	client *genai.Client
	cfg    Config
	quota  *Quota
}

var (
	_ Searcher  = (*Gemini)(nil)
	_ Generator = (*Gemini)(nil)
)

// NewGemini creates the API client. The key is required.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	return &Gemini{
		client: client,
		cfg:    cfg,
		quota:  NewQuota(cfg.RPM, cfg.RPD),
	}, nil
}

// Search sends one grounded request with the Google Search tool enabled.
func (g *Gemini) Search(ctx context.Context, prompt string) (model.SearchResult, error) {
	resp, err := g.generate(ctx, prompt, true)
	if err != nil {
		return model.SearchResult{}, err
	}
	return toSearchResult(resp), nil
}

// Generate sends one plain request.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.generate(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

func (g *Gemini) generate(ctx context.Context, prompt string, grounded bool) (*genai.GenerateContentResponse, error) {
	if !g.quota.Allow() {
		return nil, ErrQuotaExhausted
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	temp := g.cfg.Temperature
	config := &genai.GenerateContentConfig{Temperature: &temp}
	if grounded {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), config)
	if err != nil {
		if isRateLimited(err) {
			return nil, fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
		}
		return nil, fmt.Errorf("gemini %s: %w", g.cfg.Model, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("gemini %s: empty response", g.cfg.Model)
	}
	return resp, nil
}

// toSearchResult flattens the first candidate's grounding chunks into
// citations. Missing metadata, nil chunks, and chunks without a web source are
// skipped.
func toSearchResult(resp *genai.GenerateContentResponse) model.SearchResult {
	out := model.SearchResult{Citations: []model.Citation{}}
	if resp == nil {
		return out
	}
	out.Text = responseText(resp)

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return out
	}
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		out.Citations = append(out.Citations, model.Citation{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}
	return out
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func isRateLimited(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "resource_exhausted") ||
		strings.Contains(s, "quota")
}
