// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research sequences the pipeline: query analysis, web search,
// iterative fetch+analyze, and synthesis. Every external call has a
// non-throwing fallback at its call site; the only early-return outcomes
// are "no search results" and "no relevant sources after filtering".
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/websight/internal/gen"
	"github.com/pdiddy/websight/internal/report"
	"github.com/pdiddy/websight/internal/search"
	"github.com/pdiddy/websight/pkg/types"
)

// Literal terminal messages. The web client renders these verbatim.
const (
	NoResultsMessage  = "Could not find any relevant web pages for the query."
	NoRelevantMessage = "Found web sources, but none contained sufficiently relevant information after analysis."
	NoAnalysesMessage = "No relevant information was found or successfully processed from the web search."
)

// Searcher returns ranked candidate sources; an empty list means no results.
type Searcher interface {
	Search(ctx context.Context, keywords string, limit int) []types.SearchResult
}

// Fetcher retrieves one page's text; failures live in the returned record.
type Fetcher interface {
	Fetch(ctx context.Context, url string) types.FetchResult
}

// SourceAnalyzer scores page text against the research query.
type SourceAnalyzer interface {
	Analyze(ctx context.Context, content, queryContext string) types.SourceAnalysis
}

// Hooks are optional callbacks invoked at stage boundaries, in pipeline
// order. Any field may be nil.
type Hooks struct {
	QueryAnalyzed   func(analysis types.QueryAnalysis)
	SearchDone      func(results []types.SearchResult)
	SourceStarted   func(num, total int, url, title string)
	SourceCompleted func(num, total int, url, title string, relevance float64)
	SynthesisStart  func()
}

// Agent runs end-to-end research over the external collaborators.
type Agent struct {
	gen      gen.Generator
	searcher Searcher
	fetcher  Fetcher
	analyzer SourceAnalyzer
	cfg      types.ResearchConfig
	log      io.Writer
}

// NewAgent wires the pipeline stages together. Progress and warnings are
// written to w.
func NewAgent(g gen.Generator, s Searcher, f Fetcher, a SourceAnalyzer, cfg types.ResearchConfig, w io.Writer) *Agent {
	if w == nil {
		w = io.Discard
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 10
	}
	if cfg.MaxSources <= 0 {
		cfg.MaxSources = 7
	}
	if cfg.MinRelevance <= 0 {
		cfg.MinRelevance = 0.15
	}
	return &Agent{gen: g, searcher: s, fetcher: f, analyzer: a, cfg: cfg, log: w}
}

// Research runs the pipeline for one query. priorContext carries earlier
// conversation context and may be empty. The returned report's Text is
// always set: a synthesized report, one of the literal no-result messages,
// or a synthesis error string.
func (a *Agent) Research(ctx context.Context, query, priorContext string, hooks Hooks) types.Report {
	fmt.Fprintf(a.log, "starting research: %s\n", query)

	analysis := a.analyzeQuery(ctx, query, priorContext)
	if hooks.QueryAnalyzed != nil {
		hooks.QueryAnalyzed(analysis)
	}

	results := a.searcher.Search(ctx, analysis.SearchQuery, a.cfg.MaxSearchResults)
	if hooks.SearchDone != nil {
		hooks.SearchDone(results)
	}
	if len(results) == 0 {
		fmt.Fprintln(a.log, "research complete: no search results")
		return report.Build(query, NoResultsMessage, nil)
	}

	analyses := a.processSources(ctx, query, results, hooks)

	if hooks.SynthesisStart != nil {
		hooks.SynthesisStart()
	}
	return a.synthesize(ctx, query, priorContext, analyses)
}

// analyzeQueryPrompt asks for strict JSON so the search keywords can be
// extracted mechanically.
const analyzeQueryPrompt = `Analyze the following research query and identify the core intent and key entities.
Based on this, suggest a concise, effective search query (max 5 keywords) to use on a web search engine.

Research Query: "%s"%s

Output ONLY a JSON object with the following structure:
{
  "analysis": "Brief analysis of the user's intent.",
  "search_query": "Suggested search keywords."
}`

const analyzeContextSection = `

Additionally, consider this context from previous research:
%s

Use this context to better understand the user's intent and refine your search strategy.`

// analyzeQuery derives search keywords from the query. Analysis never
// fails the pipeline: provider errors and unparseable output fall back to
// the original query text.
func (a *Agent) analyzeQuery(ctx context.Context, query, priorContext string) types.QueryAnalysis {
	contextSection := ""
	if priorContext != "" {
		contextSection = fmt.Sprintf(analyzeContextSection, priorContext)
	}
	prompt := fmt.Sprintf(analyzeQueryPrompt, query, contextSection)

	raw, err := gen.GenerateWithRetry(ctx, a.gen, prompt, a.cfg.MaxRetries)
	if err != nil {
		fmt.Fprintf(a.log, "query analysis failed: %v, falling back to original query\n", err)
		return fallbackQueryAnalysis(query)
	}

	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var analysis types.QueryAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil || analysis.SearchQuery == "" {
		fmt.Fprintf(a.log, "query analysis unparseable, falling back to original query\n")
		return fallbackQueryAnalysis(query)
	}

	fmt.Fprintf(a.log, "query analysis: %s\n", analysis.SearchQuery)
	return analysis
}

func fallbackQueryAnalysis(query string) types.QueryAnalysis {
	return types.QueryAnalysis{
		Analysis:    "Analysis failed, using original query.",
		SearchQuery: query,
	}
}

// processSources fetches and analyzes candidate URLs in rank order until
// the ceiling of successfully analyzed sources is reached. Fetch failures
// and empty pages skip the URL without counting against the ceiling.
func (a *Agent) processSources(ctx context.Context, query string, results []types.SearchResult, hooks Hooks) []types.SourceAnalysis {
	urls := search.CandidateURLs(results)

	total := len(urls)
	if total > a.cfg.MaxSources {
		total = a.cfg.MaxSources
	}

	var analyses []types.SourceAnalysis
	sourceNum := 0

	for _, url := range urls {
		if len(analyses) >= a.cfg.MaxSources {
			fmt.Fprintf(a.log, "reached processing limit (%d sources)\n", a.cfg.MaxSources)
			break
		}

		sourceNum++
		title := search.TitleFor(results, url)

		if hooks.SourceStarted != nil {
			hooks.SourceStarted(sourceNum, total, url, title)
		}

		fetched := a.fetcher.Fetch(ctx, url)
		if fetched.Error != "" {
			fmt.Fprintf(a.log, "skipping %s: fetch error: %s\n", url, fetched.Error)
			continue
		}
		if fetched.Text == "" {
			fmt.Fprintf(a.log, "skipping %s: no text content\n", url)
			continue
		}

		analysis := a.analyzer.Analyze(ctx, fetched.Text, query)
		analysis.URL = url
		analysis.Title = title
		analyses = append(analyses, analysis)

		if analysis.Error != "" {
			fmt.Fprintf(a.log, "analysis for %s reported error: %s\n", url, analysis.Error)
			continue
		}

		fmt.Fprintf(a.log, "analyzed %s (relevance %.2f)\n", url, analysis.RelevanceScore)
		if hooks.SourceCompleted != nil {
			hooks.SourceCompleted(sourceNum, total, url, title, analysis.RelevanceScore)
		}
	}

	return analyses
}

const synthesisPrompt = `Based *only* on the provided context from web sources below, synthesize a comprehensive and well-structured report answering the original research query.
Address the query directly. Do not add any information not present in the sources.
If sources contradict, point this out. Structure the report logically with clear paragraphs.

IMPORTANT: Format the report for readability. DO NOT include source citations in the format "(Source X)".
DO NOT use "**Key Points:**" or similar raw formatting markers. Instead, create a properly formatted report
with clear sections and well-written paragraphs. If you need to mention sources, do so naturally in the text.

%s

Synthesized Report:`

// synthesize builds the source context block from qualifying analyses and
// asks the generator for the final report. Synthesis failure is the only
// user-visible error outcome, returned as report text rather than raised.
func (a *Agent) synthesize(ctx context.Context, query, priorContext string, analyses []types.SourceAnalysis) types.Report {
	if len(analyses) == 0 {
		fmt.Fprintln(a.log, "research complete: nothing analyzed")
		return report.Build(query, NoAnalysesMessage, nil)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Research Query: %s\n\n", query)
	if priorContext != "" {
		fmt.Fprintf(&b, "Previous Research Context:\n%s\n\n", priorContext)
	}
	b.WriteString("Sources Analyzed:\n")

	var qualifying []types.SourceAnalysis
	for _, item := range analyses {
		if !item.Usable(a.cfg.MinRelevance) {
			continue
		}
		qualifying = append(qualifying, item)
		fmt.Fprintf(&b, "\n--- Source %d (URL: %s) ---\n", len(qualifying), item.URL)
		fmt.Fprintf(&b, "Relevance Score: %.2f\n", item.RelevanceScore)
		fmt.Fprintf(&b, "Summary: %s\n", item.Summary)
		b.WriteString("Key Points:\n")
		for _, point := range item.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", point)
		}
	}

	if len(qualifying) == 0 {
		fmt.Fprintln(a.log, "research complete: no sufficiently relevant sources")
		return report.Build(query, NoRelevantMessage, nil)
	}

	fmt.Fprintf(a.log, "synthesizing from %d sources\n", len(qualifying))

	raw, err := gen.GenerateWithRetry(ctx, a.gen, fmt.Sprintf(synthesisPrompt, b.String()), a.cfg.MaxRetries)
	if err != nil {
		fmt.Fprintf(a.log, "synthesis failed: %v\n", err)
		return report.Build(query, fmt.Sprintf("Error during synthesis: %v. Partial data might be available in logs.", err), qualifying)
	}

	fmt.Fprintln(a.log, "research complete")
	return report.Build(query, raw, qualifying)
}
