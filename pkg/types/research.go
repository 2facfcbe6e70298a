// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model and configuration for websight.
package types

import "time"

// ResearchQuery is one incoming research request. It is immutable: created
// per request, consumed by the orchestrator, never persisted.
type ResearchQuery struct {
	// Text is the raw natural-language question.
	Text string `json:"text" yaml:"text"`

	// PriorContext is optional context carried over from earlier queries in
	// the same conversation. Empty when the query stands alone.
	PriorContext string `json:"prior_context,omitempty" yaml:"prior_context,omitempty"`
}

// QueryAnalysis is the model's reading of a research query. A fallback value
// (the original query text as keywords) is substituted whenever generation
// fails or returns unparseable output, so the field is never absent.
type QueryAnalysis struct {
	// Analysis is a brief summary of the user's intent.
	Analysis string `json:"analysis" yaml:"analysis"`

	// SearchQuery is the derived search keyword string.
	SearchQuery string `json:"search_query" yaml:"search_query"`
}

// SearchResult is one candidate source returned by a search backend.
// Ordering is backend rank order; uniqueness is enforced on URL.
type SearchResult struct {
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// FetchResult is the outcome of fetching and extracting one page. Fetching
// never fails with a Go error; a failed fetch is a record with Error set.
type FetchResult struct {
	URL   string `json:"url" yaml:"url"`
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// SourceAnalysis is the structured analysis of one fetched source. If Error
// is non-empty the summary and key points are unusable for synthesis
// regardless of their content.
type SourceAnalysis struct {
	URL   string `json:"url" yaml:"url"`
	Title string `json:"title" yaml:"title"`

	// Summary is a concise summary of the information relevant to the query.
	Summary string `json:"summary" yaml:"summary"`

	// KeyPoints lists the main takeaways, in the order extracted.
	KeyPoints []string `json:"key_points" yaml:"key_points"`

	// RelevanceScore is a confidence in [0, 1] that the source answers the
	// query. Unparseable analyses default to a low score reflecting
	// uncertainty rather than topical irrelevance.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// Error is the analysis failure message, if any.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Usable reports whether the analysis can contribute to synthesis.
func (a SourceAnalysis) Usable(minRelevance float64) bool {
	return a.Error == "" && a.Summary != "" && a.RelevanceScore > minRelevance
}

// ReportSection is one block of a synthesized report.
type ReportSection struct {
	// Heading is true when the block is a heading rather than body text
	// (all-uppercase, or ending with a colon).
	Heading bool `json:"heading" yaml:"heading"`

	Text string `json:"text" yaml:"text"`
}

// Report is the final synthesized research report.
type Report struct {
	Query    string          `json:"query" yaml:"query"`
	Text     string          `json:"text" yaml:"text"`
	Sections []ReportSection `json:"sections" yaml:"sections"`
	Sources  []SourceAnalysis `json:"sources,omitempty" yaml:"sources,omitempty"`
	Created  time.Time       `json:"created" yaml:"created"`
}

// HistoryEntry is one prior research exchange kept for conversational
// context. Owned by a per-user bounded list with FIFO eviction.
type HistoryEntry struct {
	Query     string    `json:"query" yaml:"query"`
	Summary   string    `json:"summary" yaml:"summary"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}
