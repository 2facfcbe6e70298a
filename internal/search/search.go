// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries a web search backend and returns ranked candidate
// sources. The provider never fails: an empty result list signals "no
// results" to the caller.
package search

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/websight/pkg/types"
)

// Backend performs a single search request against one engine. Each
// backend implements this interface per the Strategy pattern.
type Backend interface {
	Name() string
	Search(ctx context.Context, keywords string, limit int, cfg types.SearchConfig) ([]types.SearchResult, error)
}

// stopWords are dropped when simplifying a query that returned nothing.
var stopWords = map[string]bool{
	"about": true, "tell": true, "what": true, "where": true, "when": true,
	"which": true, "who": true, "whom": true, "whose": true, "why": true,
	"how": true,
}

// searchDelay is the polite pause after each backend call. Tests override
// this to avoid real sleeps.
var searchDelay = func(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// Provider runs searches with one retry on a simplified query.
type Provider struct {
	backend Backend
	cfg     types.SearchConfig
	log     io.Writer
}

// NewProvider creates a search provider over the given backend. Progress
// and warnings are written to w.
func NewProvider(backend Backend, cfg types.SearchConfig, w io.Writer) *Provider {
	if w == nil {
		w = io.Discard
	}
	return &Provider{backend: backend, cfg: cfg, log: w}
}

// Search returns up to limit ranked results for the keywords. Backend
// failures are recovered by returning an empty list; when the first
// attempt yields nothing, a simplified form of the query is tried once.
func (p *Provider) Search(ctx context.Context, keywords string, limit int) []types.SearchResult {
	results := p.attempt(ctx, keywords, limit)
	if len(results) > 0 {
		return results
	}

	simplified := Simplify(keywords)
	if simplified == keywords {
		return results
	}

	fmt.Fprintf(p.log, "no results for %q, retrying with simplified query %q\n", keywords, simplified)
	return p.attempt(ctx, simplified, limit)
}

func (p *Provider) attempt(ctx context.Context, keywords string, limit int) []types.SearchResult {
	if limit <= 0 {
		limit = p.cfg.MaxResults
	}
	if limit <= 0 {
		limit = 10
	}

	results, err := p.backend.Search(ctx, keywords, limit, p.cfg)
	searchDelay(p.cfg.RequestDelay)
	if err != nil {
		fmt.Fprintf(p.log, "warning: backend %s failed: %v\n", p.backend.Name(), err)
		return nil
	}
	return results
}

// Simplify reduces a query to its substantive terms: words of at least
// four characters that are not stop words. When fewer than two such terms
// remain, the original query is returned unchanged.
func Simplify(query string) string {
	var important []string
	for _, word := range strings.Fields(query) {
		if len(word) >= 4 && !stopWords[strings.ToLower(word)] {
			important = append(important, word)
		}
	}
	if len(important) >= 2 {
		return strings.Join(important, " ")
	}
	return query
}

// CandidateURLs returns the ordered, de-duplicated URL list from search
// results. Empty URLs are dropped; first-seen order is preserved.
func CandidateURLs(results []types.SearchResult) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		urls = append(urls, r.URL)
	}
	return urls
}

// TitleFor returns the title of the first search result carrying the URL,
// or "Untitled" when none does.
func TitleFor(results []types.SearchResult, url string) string {
	for _, r := range results {
		if r.URL == url && r.Title != "" {
			return r.Title
		}
	}
	return "Untitled"
}
