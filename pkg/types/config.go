package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call the text generation API.
type AIConfig struct {
	// Model is the model identifier (e.g. "gemini-2.0-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the generation API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SearchConfig holds settings for the web search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of search results requested (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// RequestDelay is the polite pause around each search call (default 1s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// ScrapeConfig holds settings for the content fetch stage.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline"`

	// FetchesPerSecond caps the outbound fetch rate (default 1).
	FetchesPerSecond float64 `json:"fetches_per_second" yaml:"fetches_per_second"`
}

// AnalysisConfig holds settings for the relevance analysis stage.
type AnalysisConfig struct {
	AIConfig `yaml:",inline"`

	// MaxContentLength is the page-text truncation limit in characters
	// before the text is embedded in a prompt (default 50000).
	MaxContentLength int `json:"max_content_length" yaml:"max_content_length"`
}

// ResearchConfig holds settings for the orchestration pipeline.
type ResearchConfig struct {
	AIConfig `yaml:",inline"`

	// MaxSearchResults caps the candidate list requested from search (default 10).
	MaxSearchResults int `json:"max_search_results" yaml:"max_search_results"`

	// MaxSources is the ceiling on successfully analyzed sources per job (default 7).
	MaxSources int `json:"max_sources" yaml:"max_sources"`

	// MinRelevance is the score a source must exceed to enter synthesis (default 0.15).
	MinRelevance float64 `json:"min_relevance" yaml:"min_relevance"`
}

// TrackerConfig holds settings for the job progress tracker.
type TrackerConfig struct {
	// Retention is how long a terminal progress record stays visible before
	// eviction (default 5m).
	Retention time.Duration `json:"retention" yaml:"retention"`
}

// HistoryConfig holds settings for per-user conversation history.
type HistoryConfig struct {
	// Capacity is the bounded list size per user; the oldest entry is
	// evicted first (default 10).
	Capacity int `json:"capacity" yaml:"capacity"`

	// ContextWindow is how many recent entries feed a new query's context (default 3).
	ContextWindow int `json:"context_window" yaml:"context_window"`

	// SummaryLength is the truncation limit for stored result summaries (default 200).
	SummaryLength int `json:"summary_length" yaml:"summary_length"`
}

// ArchiveConfig holds settings for the completed-report archive.
type ArchiveConfig struct {
	// DataDir is the directory holding the archive database (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of search hits (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ServerConfig holds settings for the HTTP front end.
type ServerConfig struct {
	// Addr is the listen address (default ":5001").
	Addr string `json:"addr" yaml:"addr"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	Scrape   ScrapeConfig   `json:"scrape" yaml:"scrape"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Research ResearchConfig `json:"research" yaml:"research"`
	Tracker  TrackerConfig  `json:"tracker" yaml:"tracker"`
	History  HistoryConfig  `json:"history" yaml:"history"`
	Archive  ArchiveConfig  `json:"archive" yaml:"archive"`
	Server   ServerConfig   `json:"server" yaml:"server"`
}

// DefaultPipelineConfig returns the configuration the pipeline ships with.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Search: SearchConfig{
			HTTPConfig:   HTTPConfig{Timeout: 15 * time.Second, UserAgent: defaultUserAgent},
			MaxResults:   10,
			RequestDelay: time.Second,
		},
		Scrape: ScrapeConfig{
			HTTPConfig:       HTTPConfig{Timeout: 10 * time.Second, UserAgent: defaultUserAgent},
			FetchesPerSecond: 1,
		},
		Analysis: AnalysisConfig{
			AIConfig:         AIConfig{Model: "gemini-2.0-flash", MaxRetries: 3},
			MaxContentLength: 50000,
		},
		Research: ResearchConfig{
			AIConfig:         AIConfig{Model: "gemini-2.0-flash", MaxRetries: 3},
			MaxSearchResults: 10,
			MaxSources:       7,
			MinRelevance:     0.15,
		},
		Tracker: TrackerConfig{Retention: 5 * time.Minute},
		History: HistoryConfig{Capacity: 10, ContextWindow: 3, SummaryLength: 200},
		Archive: ArchiveConfig{DataDir: "data", MaxResults: 20},
		Server:  ServerConfig{Addr: ":5001"},
	}
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
