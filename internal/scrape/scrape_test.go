// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/pdiddy/websight/pkg/types"
)

// testFetcher returns a fetcher with pacing effectively disabled.
func testFetcher(timeoutCfg types.ScrapeConfig) *Fetcher {
	timeoutCfg.FetchesPerSecond = 1000
	return NewFetcher(timeoutCfg)
}

func TestFetch_ExtractsText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "websight-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `<html><head><title>T</title><style>p{color:red}</style></head>
<body><nav>Menu Home</nav><script>var x = 1;</script>
<p>Go is  a language</p><p>built for concurrency.</p>
<footer>copyright</footer></body></html>`)
	}))
	defer ts.Close()

	f := testFetcher(types.ScrapeConfig{HTTPConfig: types.HTTPConfig{UserAgent: "websight-test"}})
	result := f.Fetch(context.Background(), ts.URL)

	require.Empty(t, result.Error)
	assert.Equal(t, ts.URL, result.URL)
	assert.Contains(t, result.Text, "Go is a language built for concurrency.")
	assert.NotContains(t, result.Text, "var x")
	assert.NotContains(t, result.Text, "color:red")
	assert.NotContains(t, result.Text, "Menu Home")
	assert.NotContains(t, result.Text, "copyright")
}

func TestFetch_BadStatusIsRecorded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	f := testFetcher(types.ScrapeConfig{})
	result := f.Fetch(context.Background(), ts.URL)
	assert.Empty(t, result.Text)
	assert.Equal(t, "HTTP 404", result.Error)
}

func TestFetch_TransportErrorIsRecorded(t *testing.T) {
	f := testFetcher(types.ScrapeConfig{})
	result := f.Fetch(context.Background(), "http://127.0.0.1:1/unreachable")
	assert.Empty(t, result.Text)
	assert.Contains(t, result.Error, "request failed")
}

func TestFetch_InvalidURLIsRecorded(t *testing.T) {
	f := testFetcher(types.ScrapeConfig{})
	result := f.Fetch(context.Background(), "http://bad url with spaces")
	assert.NotEmpty(t, result.Error)
}

func TestExtractText_CollapsesWhitespace(t *testing.T) {
	doc, err := html.Parse(strings.NewReader("<p>one\n\n  two</p><p>three</p>"))
	require.NoError(t, err)
	assert.Equal(t, "one two three", ExtractText(doc))
}
