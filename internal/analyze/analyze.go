// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze scores fetched page text for relevance to a research
// query. Model output is untrusted and frequently malformed, so parsing
// runs through an ordered list of recovery strategies; the analyzer never
// fails, it only degrades the relevance score and flags an error.
package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/websight/internal/gen"
	"github.com/pdiddy/websight/pkg/types"
)

// fallbackScore is assigned when no response could be obtained at all.
const fallbackScore = 0.1

// stopWords are excluded from query keyword extraction.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"if": true, "because": true, "as": true, "what": true, "when": true,
	"where": true, "how": true, "why": true, "who": true, "whom": true,
	"which": true, "tell": true, "me": true, "about": true, "can": true,
	"you": true, "please": true, "need": true, "would": true, "could": true,
	"should": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true,
	"shall": true, "may": true, "might": true, "must": true, "current": true,
}

const analysisPrompt = `CONTENT ANALYSIS TASK: Analyze web content to determine its relevance to a search query.

WEB CONTENT:
%s

SEARCH QUERY:
"%s"

KEY TERMS TO FOCUS ON:
%s

ANALYSIS GUIDELINES:
- Determine if the content contains information relevant to the query
- Be generous with relevance - if there's ANY helpful information, consider it relevant
- Write a concise summary (up to 200 words) of the relevant information
- Extract 3-5 key points related to the query
- Assign a relevance score between 0.0 and 1.0:
  * 0.1-0.3: Minimal relevance (mentions key terms but little useful information)
  * 0.4-0.6: Moderate relevance (has helpful information but not comprehensive)
  * 0.7-1.0: High relevance (directly addresses the query with substantial information)

OUTPUT FORMAT:
You must output ONLY a valid JSON object with these exact keys:
{
  "summary": "Your concise summary here",
  "key_points": ["Point 1", "Point 2", "Point 3"],
  "relevance_score": 0.7
}`

// Analyzer evaluates page content against a research query.
type Analyzer struct {
	gen gen.Generator
	cfg types.AnalysisConfig
}

// NewAnalyzer creates an analyzer over the given generator.
func NewAnalyzer(g gen.Generator, cfg types.AnalysisConfig) *Analyzer {
	return &Analyzer{gen: g, cfg: cfg}
}

// Analyze evaluates content for relevance to queryContext. The returned
// record always has a summary, key points, and a score in [0, 1]; a
// non-empty Error marks the record unusable for synthesis.
func (a *Analyzer) Analyze(ctx context.Context, content, queryContext string) types.SourceAnalysis {
	maxLen := a.cfg.MaxContentLength
	if maxLen <= 0 {
		maxLen = 50000
	}
	if len(content) > maxLen {
		content = content[:maxLen]
	}

	keywords := Keywords(queryContext)
	hint := queryContext
	if len(keywords) > 0 {
		hint = strings.Join(keywords, ", ")
	}

	prompt := fmt.Sprintf(analysisPrompt, content, queryContext, hint)

	raw, err := gen.GenerateWithRetry(ctx, a.gen, prompt, a.cfg.MaxRetries)
	if err != nil {
		return fallbackAnalysis(fmt.Sprintf("generation failed: %v", err))
	}

	return ParseResponse(raw, queryContext)
}

// Keywords extracts the substantive terms of a query: lowercase tokens
// longer than three characters that are not stop words.
func Keywords(query string) []string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) > 3 && !stopWords[word] {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

// fallbackAnalysis is the record returned when no analysis could be made.
func fallbackAnalysis(errMsg string) types.SourceAnalysis {
	return types.SourceAnalysis{
		Summary:        "",
		KeyPoints:      []string{},
		RelevanceScore: fallbackScore,
		Error:          errMsg,
	}
}
