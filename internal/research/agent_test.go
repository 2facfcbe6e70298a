// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/websight/internal/gen"
	"github.com/pdiddy/websight/pkg/types"
)

func init() {
	gen.BackoffBase = 1
}

// routeGen answers query-analysis and synthesis prompts separately so a
// single test can script both stages.
type routeGen struct {
	analyzeResp string
	analyzeErr  error
	synthResp   string
	synthErr    error

	analyzePrompt string
	synthPrompt   string
}

func (g *routeGen) Generate(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "Synthesized Report:") {
		g.synthPrompt = prompt
		return g.synthResp, g.synthErr
	}
	g.analyzePrompt = prompt
	return g.analyzeResp, g.analyzeErr
}

type fakeSearcher struct {
	results  []types.SearchResult
	keywords string
}

func (s *fakeSearcher) Search(_ context.Context, keywords string, _ int) []types.SearchResult {
	s.keywords = keywords
	return s.results
}

type fakeFetcher struct {
	pages   map[string]types.FetchResult
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) types.FetchResult {
	f.fetched = append(f.fetched, url)
	if r, ok := f.pages[url]; ok {
		return r
	}
	return types.FetchResult{URL: url, Text: "content of " + url}
}

type fakeAnalyzer struct {
	byContent map[string]types.SourceAnalysis
}

func (a *fakeAnalyzer) Analyze(_ context.Context, content, _ string) types.SourceAnalysis {
	if r, ok := a.byContent[content]; ok {
		return r
	}
	return types.SourceAnalysis{Summary: "summary of " + content, KeyPoints: []string{"point"}, RelevanceScore: 0.8}
}

func testAgent(g gen.Generator, s Searcher, f Fetcher, a SourceAnalyzer) *Agent {
	return NewAgent(g, s, f, a, types.ResearchConfig{
		MaxSearchResults: 10,
		MaxSources:       7,
		MinRelevance:     0.15,
	}, io.Discard)
}

func analyzeJSON(keywords string) string {
	return fmt.Sprintf(`{"analysis": "Looking things up.", "search_query": "%s"}`, keywords)
}

func nResults(n int) []types.SearchResult {
	var out []types.SearchResult
	for i := 0; i < n; i++ {
		out = append(out, types.SearchResult{
			Title: fmt.Sprintf("Result %d", i),
			URL:   fmt.Sprintf("https://example.com/%d", i),
		})
	}
	return out
}

func TestResearchNoSearchResults(t *testing.T) {
	g := &routeGen{analyzeResp: analyzeJSON("rust borrow checker")}
	fetcher := &fakeFetcher{}
	agent := testAgent(g, &fakeSearcher{}, fetcher, &fakeAnalyzer{})

	rep := agent.Research(context.Background(), "how does the borrow checker work", "", Hooks{})

	assert.Equal(t, NoResultsMessage, rep.Text)
	assert.Empty(t, fetcher.fetched, "no fetches should happen without search results")
	assert.Empty(t, rep.Sources)
}

func TestResearchSourceCeiling(t *testing.T) {
	g := &routeGen{analyzeResp: analyzeJSON("go generics"), synthResp: "A report."}
	fetcher := &fakeFetcher{}
	agent := testAgent(g, &fakeSearcher{results: nResults(10)}, fetcher, &fakeAnalyzer{})

	agent.Research(context.Background(), "explain go generics", "", Hooks{})

	assert.Len(t, fetcher.fetched, 7, "processing stops at the source ceiling")
}

func TestResearchDeduplicatesURLs(t *testing.T) {
	results := []types.SearchResult{
		{Title: "A", URL: "https://example.com/a"},
		{Title: "A again", URL: "https://example.com/a"},
		{Title: "B", URL: "https://example.com/b"},
	}
	g := &routeGen{analyzeResp: analyzeJSON("dup test"), synthResp: "A report."}
	fetcher := &fakeFetcher{}
	agent := testAgent(g, &fakeSearcher{results: results}, fetcher, &fakeAnalyzer{})

	agent.Research(context.Background(), "dup test", "", Hooks{})

	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, fetcher.fetched)
}

func TestResearchSkipsFetchFailures(t *testing.T) {
	g := &routeGen{analyzeResp: analyzeJSON("q"), synthResp: "A report."}
	fetcher := &fakeFetcher{pages: map[string]types.FetchResult{
		"https://example.com/0": {URL: "https://example.com/0", Error: "HTTP 500"},
		"https://example.com/1": {URL: "https://example.com/1", Text: ""},
	}}
	agent := testAgent(g, &fakeSearcher{results: nResults(3)}, fetcher, &fakeAnalyzer{})

	rep := agent.Research(context.Background(), "q", "", Hooks{})

	// The failed and empty pages are skipped; only the third contributes.
	require.Len(t, rep.Sources, 1)
	assert.Equal(t, "https://example.com/2", rep.Sources[0].URL)
	assert.Len(t, fetcher.fetched, 3, "skipped URLs do not count toward the ceiling")
}

func TestResearchFiltersIrrelevantSources(t *testing.T) {
	g := &routeGen{analyzeResp: analyzeJSON("q"), synthResp: "A report."}
	analyzer := &fakeAnalyzer{byContent: map[string]types.SourceAnalysis{
		"content of https://example.com/0": {Summary: "too weak", KeyPoints: []string{"p"}, RelevanceScore: 0.1},
		"content of https://example.com/1": {Summary: "", KeyPoints: []string{"p"}, RelevanceScore: 0.9},
		"content of https://example.com/2": {Summary: "errored", RelevanceScore: 0.9, Error: "generation failed: boom"},
	}}
	agent := testAgent(g, &fakeSearcher{results: nResults(3)}, &fakeFetcher{}, analyzer)

	rep := agent.Research(context.Background(), "q", "", Hooks{})

	assert.Equal(t, NoRelevantMessage, rep.Text)
	assert.Empty(t, rep.Sources)
}

func TestResearchEndToEnd(t *testing.T) {
	g := &routeGen{
		analyzeResp: analyzeJSON("solar panel efficiency"),
		synthResp:   "Panels improved markedly (Source 1). **Key Points:** efficiency rose (Sources 1, 2).",
	}
	analyzer := &fakeAnalyzer{byContent: map[string]types.SourceAnalysis{
		"content of https://example.com/0": {Summary: "First source summary", KeyPoints: []string{"alpha", "beta"}, RelevanceScore: 0.9},
		"content of https://example.com/1": {Summary: "Second source summary", KeyPoints: []string{"gamma"}, RelevanceScore: 0.4},
	}}
	searcher := &fakeSearcher{results: nResults(2)}
	agent := testAgent(g, searcher, &fakeFetcher{}, analyzer)

	rep := agent.Research(context.Background(), "how efficient are solar panels", "", Hooks{})

	assert.Equal(t, "solar panel efficiency", searcher.keywords)

	// Sources appear in the synthesis context in processing order.
	require.NotEmpty(t, g.synthPrompt)
	first := strings.Index(g.synthPrompt, "--- Source 1 (URL: https://example.com/0) ---")
	second := strings.Index(g.synthPrompt, "--- Source 2 (URL: https://example.com/1) ---")
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
	assert.Contains(t, g.synthPrompt, "Relevance Score: 0.90")
	assert.Contains(t, g.synthPrompt, "- alpha")

	// Citation markers and bold labels are stripped from the final text.
	assert.NotContains(t, rep.Text, "(Source 1)")
	assert.NotContains(t, rep.Text, "(Sources 1, 2)")
	assert.NotContains(t, rep.Text, "**")
	require.Len(t, rep.Sources, 2)
}

func TestResearchQueryAnalysisFallback(t *testing.T) {
	g := &routeGen{analyzeErr: errors.New("provider down"), synthResp: "A report."}
	searcher := &fakeSearcher{results: nResults(1)}
	agent := testAgent(g, searcher, &fakeFetcher{}, &fakeAnalyzer{})

	agent.Research(context.Background(), "original query text", "", Hooks{})

	assert.Equal(t, "original query text", searcher.keywords)
}

func TestResearchQueryAnalysisMalformed(t *testing.T) {
	g := &routeGen{analyzeResp: "not json at all", synthResp: "A report."}
	searcher := &fakeSearcher{results: nResults(1)}
	agent := testAgent(g, searcher, &fakeFetcher{}, &fakeAnalyzer{})

	agent.Research(context.Background(), "plain query", "", Hooks{})

	assert.Equal(t, "plain query", searcher.keywords)
}

func TestResearchSynthesisFailure(t *testing.T) {
	g := &routeGen{analyzeResp: analyzeJSON("q"), synthErr: errors.New("model overloaded")}
	agent := testAgent(g, &fakeSearcher{results: nResults(1)}, &fakeFetcher{}, &fakeAnalyzer{})

	rep := agent.Research(context.Background(), "q", "", Hooks{})

	assert.Contains(t, rep.Text, "Error during synthesis:")
	assert.Contains(t, rep.Text, "Partial data might be available in logs.")
	require.Len(t, rep.Sources, 1, "qualifying sources survive a failed synthesis")
}

func TestResearchPriorContextInPrompts(t *testing.T) {
	g := &routeGen{analyzeResp: analyzeJSON("follow up"), synthResp: "A report."}
	agent := testAgent(g, &fakeSearcher{results: nResults(1)}, &fakeFetcher{}, &fakeAnalyzer{})

	agent.Research(context.Background(), "and what about storage", "Q: solar panels\nA: they improved", Hooks{})

	assert.Contains(t, g.analyzePrompt, "context from previous research")
	assert.Contains(t, g.analyzePrompt, "Q: solar panels")
	assert.Contains(t, g.synthPrompt, "Previous Research Context:")
}

func TestResearchHooks(t *testing.T) {
	g := &routeGen{analyzeResp: analyzeJSON("q"), synthResp: "A report."}
	analyzer := &fakeAnalyzer{byContent: map[string]types.SourceAnalysis{
		"content of https://example.com/1": {Summary: "bad", RelevanceScore: 0.9, Error: "generation failed: x"},
	}}
	agent := testAgent(g, &fakeSearcher{results: nResults(2)}, &fakeFetcher{}, analyzer)

	var started, completed []int
	var totals []int
	synthCalled := false
	hooks := Hooks{
		QueryAnalyzed: func(a types.QueryAnalysis) {
			assert.Equal(t, "q", a.SearchQuery)
		},
		SearchDone: func(results []types.SearchResult) {
			assert.Len(t, results, 2)
		},
		SourceStarted: func(num, total int, _, _ string) {
			started = append(started, num)
			totals = append(totals, total)
		},
		SourceCompleted: func(num, _ int, _, _ string, _ float64) {
			completed = append(completed, num)
		},
		SynthesisStart: func() { synthCalled = true },
	}

	agent.Research(context.Background(), "q", "", hooks)

	assert.Equal(t, []int{1, 2}, started)
	assert.Equal(t, []int{2, 2}, totals)
	// The second source's analysis carried an error, so only the first completes.
	assert.Equal(t, []int{1}, completed)
	assert.True(t, synthCalled)
}
