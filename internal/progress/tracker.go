// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress tracks research jobs for polling and streaming clients.
// Each job holds a single immutable ProgressRecord snapshot; every update
// installs a replacement record, so readers never see a half-written state.
package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/pdiddy/websight/pkg/types"
)

// Percent milestones. Source processing interpolates between searchDonePct
// and processingCapPct; the cap leaves headroom for synthesis.
const (
	startingPct      = 5
	analyzingPct     = 10
	searchDonePct    = 20
	processingSpan   = 60
	processingCapPct = 80
	synthesizingPct  = 85
	terminalPct      = 100
)

// now is swapped out by tests to exercise retention without sleeping.
var now = time.Now

type entry struct {
	record     *types.ProgressRecord
	terminalAt time.Time
	watchers   []chan types.ProgressRecord
}

// Tracker holds progress records for in-flight and recently finished jobs.
// Terminal records are retained for a grace period so late pollers still
// get a result, then evicted.
type Tracker struct {
	mu        sync.RWMutex
	jobs      map[string]*entry
	retention time.Duration
}

// NewTracker returns a tracker retaining finished jobs for cfg.Retention
// (5 minutes when unset).
func NewTracker(cfg types.TrackerConfig) *Tracker {
	retention := cfg.Retention
	if retention <= 0 {
		retention = 5 * time.Minute
	}
	return &Tracker{jobs: make(map[string]*entry), retention: retention}
}

// Start registers a new job in the starting state.
func (t *Tracker) Start(jobID, query string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictExpiredLocked()
	e := &entry{}
	t.jobs[jobID] = e
	t.publishLocked(e, &types.ProgressRecord{
		Status:  types.StatusStarting,
		Phase:   "Starting",
		Message: fmt.Sprintf("Starting research for: %s", query),
		Sources: []types.SourceProgress{},
		Percent: startingPct,
	})
}

// AnalyzingQuery marks the query-analysis stage.
func (t *Tracker) AnalyzingQuery(jobID string) {
	t.update(jobID, func(r *types.ProgressRecord) {
		r.Status = types.StatusAnalyzingQuery
		r.Phase = "Analyzing query"
		r.Message = "Analyzing your query to determine the best search strategy..."
		r.Percent = analyzingPct
	})
}

// Searching marks the web-search stage.
func (t *Tracker) Searching(jobID string) {
	t.update(jobID, func(r *types.ProgressRecord) {
		r.Status = types.StatusSearching
		r.Phase = "Searching"
		r.Message = "Searching the web for relevant sources..."
		r.Percent = searchDonePct
	})
}

// SourceStarted records that source num of total is being fetched. The
// source is appended to the record's ordered source list.
func (t *Tracker) SourceStarted(jobID string, num, total int, url, title string) {
	t.update(jobID, func(r *types.ProgressRecord) {
		r.Status = types.StatusProcessingSources
		r.Phase = "Processing sources"
		r.Message = fmt.Sprintf("Processing source %d of %d: %s", num, total, title)
		r.Sources = append(r.Sources, types.SourceProgress{
			URL:    url,
			Title:  title,
			Status: types.SourceProcessing,
		})
		r.Percent = sourcePercent(num-1, total, r.Percent)
	})
}

// SourceCompleted records a successful analysis for url.
func (t *Tracker) SourceCompleted(jobID string, num, total int, url, title string, relevance float64) {
	t.update(jobID, func(r *types.ProgressRecord) {
		r.Status = types.StatusProcessingSources
		r.Phase = "Processing sources"
		r.Message = fmt.Sprintf("Analyzed source %d of %d: %s", num, total, title)
		for i := range r.Sources {
			if r.Sources[i].URL == url {
				r.Sources[i].Status = types.SourceAnalyzed
				r.Sources[i].Relevance = relevance
			}
		}
		r.Percent = sourcePercent(num, total, r.Percent)
	})
}

// Synthesizing marks the final report-generation stage.
func (t *Tracker) Synthesizing(jobID string) {
	t.update(jobID, func(r *types.ProgressRecord) {
		r.Status = types.StatusSynthesizing
		r.Phase = "Synthesizing"
		r.Message = "Synthesizing findings into a report..."
		r.Percent = synthesizingPct
	})
}

// Complete moves the job to its terminal complete state with the report
// text. Further updates are ignored.
func (t *Tracker) Complete(jobID, result string) {
	t.finish(jobID, func(r *types.ProgressRecord) {
		r.Status = types.StatusComplete
		r.Phase = "Complete"
		r.Message = "Research complete."
		r.Result = result
		r.Percent = terminalPct
	})
}

// Fail moves the job to its terminal error state. Further updates are
// ignored.
func (t *Tracker) Fail(jobID, errMsg string) {
	t.finish(jobID, func(r *types.ProgressRecord) {
		r.Status = types.StatusError
		r.Phase = "Error"
		r.Message = "Research failed."
		r.Error = errMsg
		r.Percent = terminalPct
	})
}

// Get returns a snapshot of the job's current state. The second return is
// false when the job was never started or has been evicted.
func (t *Tracker) Get(jobID string) (types.ProgressRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictExpiredLocked()
	e, ok := t.jobs[jobID]
	if !ok {
		return types.ProgressRecord{}, false
	}
	return *cloneRecord(e.record), true
}

// Watch returns a channel of snapshots for the job, starting with its
// current state. The channel is closed after the first terminal snapshot
// is delivered. The second return is false for unknown jobs.
func (t *Tracker) Watch(jobID string) (<-chan types.ProgressRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictExpiredLocked()
	e, ok := t.jobs[jobID]
	if !ok {
		return nil, false
	}
	// Buffered generously so a slow consumer cannot stall publishers; a
	// job emits at most a few dozen snapshots.
	ch := make(chan types.ProgressRecord, 64)
	ch <- *e.record
	if e.record.Status.Terminal() {
		close(ch)
		return ch, true
	}
	e.watchers = append(e.watchers, ch)
	return ch, true
}

func (t *Tracker) update(jobID string, mutate func(*types.ProgressRecord)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.jobs[jobID]
	if !ok || e.record.Status.Terminal() {
		return
	}
	next := cloneRecord(e.record)
	prevPct := next.Percent
	mutate(next)
	if next.Percent < prevPct {
		next.Percent = prevPct
	}
	t.publishLocked(e, next)
}

func (t *Tracker) finish(jobID string, mutate func(*types.ProgressRecord)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.jobs[jobID]
	if !ok || e.record.Status.Terminal() {
		return
	}
	next := cloneRecord(e.record)
	mutate(next)
	t.publishLocked(e, next)
	e.terminalAt = now()
	for _, ch := range e.watchers {
		close(ch)
	}
	e.watchers = nil
}

// publishLocked installs the new snapshot and fans it out to watchers.
func (t *Tracker) publishLocked(e *entry, r *types.ProgressRecord) {
	e.record = r
	for _, ch := range e.watchers {
		select {
		case ch <- *r:
		default:
		}
	}
}

func (t *Tracker) evictExpiredLocked() {
	cutoff := now().Add(-t.retention)
	for id, e := range t.jobs {
		if !e.terminalAt.IsZero() && e.terminalAt.Before(cutoff) {
			delete(t.jobs, id)
		}
	}
}

// sourcePercent maps processed-of-total onto the processing band. The
// previous percent is the floor so out-of-order callbacks never move the
// bar backwards.
func sourcePercent(processed, total, prev int) int {
	if total <= 0 {
		return prev
	}
	pct := searchDonePct + processed*processingSpan/total
	if pct > processingCapPct {
		pct = processingCapPct
	}
	if pct < prev {
		pct = prev
	}
	return pct
}

func cloneRecord(r *types.ProgressRecord) *types.ProgressRecord {
	next := *r
	next.Sources = make([]types.SourceProgress, len(r.Sources))
	copy(next.Sources, r.Sources)
	return &next
}
