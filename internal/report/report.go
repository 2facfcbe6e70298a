// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report cleans synthesized model output and splits it into
// renderable sections.
package report

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/websight/pkg/types"
)

// Citation and markup cleanup patterns. The model is instructed not to
// emit these, but it does anyway often enough to warrant stripping.
var (
	sourceCitationPattern = regexp.MustCompile(`\(Sources? \d+(?:, \d+)*\)`)
	boldLabelPattern      = regexp.MustCompile(`\*\*(.*?):\*\*`)
	repeatedSpacePattern  = regexp.MustCompile(` +`)
	emptyParensPattern    = regexp.MustCompile(`\(\s*\)`)
)

// CleanCitations strips source-citation markers and emphasis markup from
// synthesized text. The operation is idempotent: cleaning cleaned text is
// a no-op.
func CleanCitations(text string) string {
	cleaned := sourceCitationPattern.ReplaceAllString(text, "")
	cleaned = boldLabelPattern.ReplaceAllString(cleaned, "$1:")
	cleaned = strings.ReplaceAll(cleaned, "**", "")
	cleaned = emptyParensPattern.ReplaceAllString(cleaned, "")
	// Whitespace collapse runs last so a second pass finds nothing to do.
	cleaned = repeatedSpacePattern.ReplaceAllString(cleaned, " ")
	return cleaned
}

// Build cleans raw synthesis output and assembles the final report for the
// query, splitting the text into heading and body sections.
func Build(query, raw string, sources []types.SourceAnalysis) types.Report {
	cleaned := CleanCitations(raw)
	return types.Report{
		Query:    query,
		Text:     cleaned,
		Sections: splitSections(cleaned),
		Sources:  sources,
		Created:  time.Now().UTC(),
	}
}

// splitSections splits text on blank-line boundaries. A paragraph that is
// all-uppercase or ends with a colon is a heading rather than body text.
func splitSections(text string) []types.ReportSection {
	var sections []types.ReportSection
	for _, paragraph := range strings.Split(text, "\n\n") {
		trimmed := strings.TrimSpace(paragraph)
		if trimmed == "" {
			continue
		}
		sections = append(sections, types.ReportSection{
			Heading: strings.HasSuffix(trimmed, ":") || isAllUpper(trimmed),
			Text:    trimmed,
		})
	}
	return sections
}

// isAllUpper reports whether the text contains at least one letter and no
// lowercase letters.
func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}
