// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/websight/internal/httputil"
	"github.com/pdiddy/websight/pkg/types"
)

// duckduckgoAPIBase is the DuckDuckGo HTML endpoint. Declared as a var so
// tests can substitute an httptest server.
var duckduckgoAPIBase = "https://html.duckduckgo.com/html/"

// DuckDuckGoBackend queries the DuckDuckGo HTML interface, which needs no
// API key and returns server-rendered results.
type DuckDuckGoBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *DuckDuckGoBackend) Name() string { return "duckduckgo" }

// Search requests the result page for the keywords and parses it into
// ranked results, capped at limit.
func (b *DuckDuckGoBackend) Search(ctx context.Context, keywords string, limit int, cfg types.SearchConfig) ([]types.SearchResult, error) {
	reqURL := duckduckgoAPIBase + "?" + url.Values{"q": {keywords}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo returned HTTP %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing result page: %w", err)
	}

	results := parseResultPage(doc)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// parseResultPage walks the document collecting result anchors
// (class result__a) and their snippets (class result__snippet).
func parseResultPage(doc *html.Node) []types.SearchResult {
	var results []types.SearchResult
	var current *types.SearchResult

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result__a"):
				if current != nil && current.URL != "" {
					results = append(results, *current)
				}
				current = &types.SearchResult{
					Title: strings.TrimSpace(textContent(n)),
					URL:   resolveResultURL(attr(n, "href")),
				}
			case hasClass(n, "result__snippet") && current != nil && current.Snippet == "":
				current.Snippet = strings.TrimSpace(textContent(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if current != nil && current.URL != "" {
		results = append(results, *current)
	}
	return results
}

// resolveResultURL unwraps DuckDuckGo redirect links (/l/?uddg=...) to the
// destination URL. Plain links pass through unchanged.
func resolveResultURL(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Path, "/l/") || u.Path == "/l/" {
		if dest := u.Query().Get("uddg"); dest != "" {
			return dest
		}
	}
	if u.Scheme == "" {
		u.Scheme = "https"
		return u.String()
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
