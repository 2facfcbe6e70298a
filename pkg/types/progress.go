// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// JobStatus is the state of a research job. Transitions are driven
// exclusively by pipeline callbacks; terminal states are sticky.
type JobStatus string

const (
	StatusStarting          JobStatus = "starting"
	StatusAnalyzingQuery    JobStatus = "analyzing_query"
	StatusSearching         JobStatus = "searching"
	StatusProcessingSources JobStatus = "processing_sources"
	StatusSynthesizing      JobStatus = "synthesizing"
	StatusComplete          JobStatus = "complete"
	StatusError             JobStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// SourceStatus is the per-source processing state within a job.
type SourceStatus string

const (
	SourceProcessing SourceStatus = "processing"
	SourceAnalyzed   SourceStatus = "analyzed"
)

// SourceProgress is one entry in a job's ordered source list.
type SourceProgress struct {
	URL       string       `json:"url"`
	Title     string       `json:"title"`
	Status    SourceStatus `json:"status"`
	Relevance float64      `json:"relevance,omitempty"`
}

// ProgressRecord is a snapshot of one research job's state. Records are
// published as immutable snapshots: a new record replaces the old one on
// every update, so concurrent readers never observe a torn value.
type ProgressRecord struct {
	Status   JobStatus        `json:"status"`
	Phase    string           `json:"phase"`
	Message  string           `json:"message"`
	Sources  []SourceProgress `json:"sources"`
	Percent  int              `json:"progress_pct"`
	Result   string           `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
}
