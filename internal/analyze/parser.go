// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/websight/pkg/types"
)

// Defaults backfilled when a parsed response is missing a required key.
const (
	defaultSummary  = "Content related to query but missing details"
	defaultKeyPoint = "Information extracted from webpage"
	defaultScore    = 0.5
)

// parseStrategy attempts one way of reading a model response. The second
// return value reports whether the strategy succeeded; strategies are
// tried in order until one does.
type parseStrategy func(raw, queryContext string) (types.SourceAnalysis, bool)

var strategies = []parseStrategy{
	parseFencedJSON,
	parseEmbeddedJSON,
	parseHeuristic,
}

// ParseResponse turns a raw model response into a SourceAnalysis through
// the layered recovery strategies. It never fails: the heuristic strategy
// always produces a record.
func ParseResponse(raw, queryContext string) types.SourceAnalysis {
	for _, strategy := range strategies {
		if result, ok := strategy(raw, queryContext); ok {
			return result
		}
	}
	// Unreachable: parseHeuristic always succeeds.
	return fallbackAnalysis("no parse strategy succeeded")
}

// parseFencedJSON strips Markdown code fences and parses the remainder as
// a JSON object.
func parseFencedJSON(raw, _ string) (types.SourceAnalysis, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	return parseJSONObject(s)
}

// parseEmbeddedJSON extracts the largest brace-delimited substring from
// the response and parses it as a JSON object.
func parseEmbeddedJSON(raw, _ string) (types.SourceAnalysis, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return types.SourceAnalysis{}, false
	}
	return parseJSONObject(raw[start : end+1])
}

// parseJSONObject decodes a JSON object and normalizes it: missing keys
// are backfilled with defaults, the score is coerced to a number, and key
// points are coerced to a string list.
func parseJSONObject(s string) (types.SourceAnalysis, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return types.SourceAnalysis{}, false
	}

	result := types.SourceAnalysis{
		Summary:        defaultSummary,
		KeyPoints:      []string{defaultKeyPoint},
		RelevanceScore: defaultScore,
	}

	if v, ok := fields["summary"].(string); ok {
		result.Summary = v
	}

	if v, ok := fields["key_points"]; ok {
		result.KeyPoints = coerceKeyPoints(v)
	}

	if v, ok := fields["relevance_score"]; ok {
		result.RelevanceScore = coerceScore(v)
	}

	return result, true
}

// coerceKeyPoints turns the raw key_points value into a string list: a
// bare string is wrapped, anything unusable becomes the default list.
func coerceKeyPoints(v any) []string {
	switch points := v.(type) {
	case []any:
		var out []string
		for _, p := range points {
			if s, ok := p.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	case string:
		return []string{points}
	}
	return []string{defaultKeyPoint}
}

// coerceScore turns the raw relevance_score value into a float, defaulting
// on coercion failure.
func coerceScore(v any) float64 {
	switch score := v.(type) {
	case float64:
		return clampScore(score)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(score), 64); err == nil {
			return clampScore(f)
		}
	}
	return defaultScore
}

func clampScore(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Heuristic extraction patterns, tried in order within each group.
var (
	summaryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)["']?summary["']?\s*:\s*["']([^"']+)["']`),
		regexp.MustCompile(`(?i)summary\s*(?:is|:)\s*([^.]+\.)`),
		regexp.MustCompile(`([^.]{20,200}\.)`),
	}

	keyPointsArrayPattern   = regexp.MustCompile(`(?is)["']?key_points["']?\s*:\s*\[(.*?)\]`)
	keyPointsSectionPattern = regexp.MustCompile(`(?is)(?:key\s*points|main\s*points|key\s*takeaways)(?:\s*:|\s*are\s*:)(.*?)(?:\n\n|\z)`)
	bulletPattern           = regexp.MustCompile(`[-•*]\s*([^\n]+)`)
	pointSplitPattern       = regexp.MustCompile(`[,"'\n]+`)

	scorePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)["']?relevance_score["']?\s*:\s*(0?\.[0-9]+)`),
		regexp.MustCompile(`(?i)relevance\s*(?:score|rating|is)\s*:?\s*(0?\.[0-9]+)`),
		regexp.MustCompile(`(0?\.[0-9]+)(?:\s*out of\s*1)?`),
	}
)

// maxHeuristicPoints caps how many key points heuristic extraction keeps.
const maxHeuristicPoints = 5

// parseHeuristic recovers structure from a free-text response. It always
// succeeds, assigning a conservative relevance score when no explicit one
// is present.
func parseHeuristic(raw, queryContext string) (types.SourceAnalysis, bool) {
	result := types.SourceAnalysis{
		KeyPoints:      []string{},
		RelevanceScore: 0.3,
	}

	for _, pattern := range summaryPatterns {
		if m := pattern.FindStringSubmatch(raw); m != nil {
			result.Summary = strings.TrimSpace(m[1])
			break
		}
	}

	result.KeyPoints = heuristicKeyPoints(raw)

	// A summary without key points still gets one generic point.
	if len(result.KeyPoints) == 0 && result.Summary != "" {
		result.KeyPoints = []string{"Information related to " + queryContext}
	}

	for _, pattern := range scorePatterns {
		if m := pattern.FindStringSubmatch(raw); m != nil {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil && f >= 0 && f <= 1 {
				result.RelevanceScore = f
				break
			}
		}
	}

	// Derive a confidence from what was recovered. A partial record is
	// worth less than an explicit score on a full one.
	hasPoints := len(result.KeyPoints) > 0 && result.KeyPoints[0] != "Information related to "+queryContext
	switch {
	case result.Summary != "" && !hasPoints:
		result.RelevanceScore = 0.2
	case result.Summary == "" && hasPoints:
		result.RelevanceScore = 0.3
	case result.Summary != "" && hasPoints:
		result.RelevanceScore = maxFloat(0.5, result.RelevanceScore)
	}

	return result, true
}

// heuristicKeyPoints extracts key points from free text: an explicit
// key_points array, a labeled section, or at least two bulleted lines.
func heuristicKeyPoints(raw string) []string {
	if m := keyPointsArrayPattern.FindStringSubmatch(raw); m != nil {
		return splitPoints(m[1])
	}
	if m := keyPointsSectionPattern.FindStringSubmatch(raw); m != nil {
		return splitPoints(m[1])
	}

	bullets := bulletPattern.FindAllStringSubmatch(raw, -1)
	if len(bullets) >= 2 {
		var points []string
		for _, b := range bullets {
			points = append(points, strings.TrimSpace(b[1]))
			if len(points) == maxHeuristicPoints {
				break
			}
		}
		return points
	}
	return nil
}

func splitPoints(s string) []string {
	var points []string
	for _, p := range pointSplitPattern.Split(s, -1) {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			points = append(points, trimmed)
			if len(points) == maxHeuristicPoints {
				break
			}
		}
	}
	return points
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
