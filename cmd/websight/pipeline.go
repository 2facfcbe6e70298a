// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/spf13/viper"

	"github.com/pdiddy/websight/internal/analyze"
	"github.com/pdiddy/websight/internal/gen"
	"github.com/pdiddy/websight/internal/research"
	"github.com/pdiddy/websight/internal/scrape"
	"github.com/pdiddy/websight/internal/search"
	"github.com/pdiddy/websight/pkg/types"
)

// loadPipelineConfig builds the runtime configuration from defaults, the
// viper config file, and loaded secrets. The API key resolution order is
// config file, .secrets/gemini-api-key, then the GEMINI_API_KEY variable.
func loadPipelineConfig() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	if v := viper.GetString("analysis.model"); v != "" {
		cfg.Analysis.Model = v
	}
	if v := viper.GetString("research.model"); v != "" {
		cfg.Research.Model = v
	}
	if v := viper.GetInt("research.max_sources"); v > 0 {
		cfg.Research.MaxSources = v
	}
	if v := viper.GetFloat64("research.min_relevance"); v > 0 {
		cfg.Research.MinRelevance = v
	}
	if v := viper.GetInt("research.max_search_results"); v > 0 {
		cfg.Research.MaxSearchResults = v
		cfg.Search.MaxResults = v
	}
	if v := viper.GetString("archive.data_dir"); v != "" {
		cfg.Archive.DataDir = v
	}
	if v := viper.GetString("server.addr"); v != "" {
		cfg.Server.Addr = v
	}

	apiKey := secretDefault("gemini-api-key", viper.GetString("analysis.api_key"))
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cfg.Analysis.APIKey = apiKey
	cfg.Research.APIKey = apiKey

	return cfg
}

// buildAgent assembles the research pipeline. Stage progress is written
// to w.
func buildAgent(ctx context.Context, cfg types.PipelineConfig, w io.Writer) (*research.Agent, error) {
	g, err := gen.NewGemini(ctx, cfg.Research.AIConfig)
	if err != nil {
		return nil, err
	}

	backend := &search.DuckDuckGoBackend{Client: &http.Client{Timeout: cfg.Search.Timeout}}
	provider := search.NewProvider(backend, cfg.Search, w)
	fetcher := scrape.NewFetcher(cfg.Scrape)
	analyzer := analyze.NewAnalyzer(g, cfg.Analysis)

	return research.NewAgent(g, provider, fetcher, analyzer, cfg.Research, w), nil
}
