// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape fetches web pages and extracts their plain text. Fetching
// never returns a Go error: every call yields a FetchResult record, with
// Error set when the page could not be retrieved.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/pdiddy/websight/pkg/types"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// skippedElements are subtrees that carry no prose content.
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"nav": true, "header": true, "footer": true,
}

// Fetcher retrieves pages at a polite, rate-limited pace.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     types.ScrapeConfig
}

// NewFetcher creates a fetcher from the scrape configuration.
func NewFetcher(cfg types.ScrapeConfig) *Fetcher {
	perSecond := cfg.FetchesPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	return &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		cfg:     cfg,
	}
}

// Fetch retrieves the URL and extracts its text content. Request pacing,
// transport failures, bad statuses, and parse failures all end up in the
// returned record, never as an error return.
func (f *Fetcher) Fetch(ctx context.Context, url string) types.FetchResult {
	if err := f.limiter.Wait(ctx); err != nil {
		return types.FetchResult{URL: url, Error: fmt.Sprintf("request pacing interrupted: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.FetchResult{URL: url, Error: fmt.Sprintf("creating request: %v", err)}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return types.FetchResult{URL: url, Error: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.FetchResult{URL: url, Error: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return types.FetchResult{URL: url, Error: fmt.Sprintf("parsing page: %v", err)}
	}

	return types.FetchResult{URL: url, Text: ExtractText(doc)}
}

// ExtractText walks the document and returns its visible text, skipping
// script, style, and chrome subtrees, with whitespace collapsed to single
// spaces.
func ExtractText(doc *html.Node) string {
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(trimmed)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(b.String()), " ")
}
