// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a bounded, per-user record of completed research
// exchanges so follow-up queries can carry conversational context.
package history

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/websight/pkg/types"
)

// Store holds per-user history in memory. Each user's list is FIFO
// bounded: once full, the oldest entry is dropped on append.
type Store struct {
	mu    sync.RWMutex
	users map[string][]types.HistoryEntry
	cfg   types.HistoryConfig
}

// NewStore returns an empty store. Zero config fields take the defaults:
// capacity 10, context window 3, summary length 200.
func NewStore(cfg types.HistoryConfig) *Store {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 10
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 3
	}
	if cfg.SummaryLength <= 0 {
		cfg.SummaryLength = 200
	}
	return &Store{users: make(map[string][]types.HistoryEntry), cfg: cfg}
}

// Add records one completed exchange for the user. The report text is
// truncated to the configured summary length with an ellipsis marker.
func (s *Store) Add(userID, query, reportText string) {
	summary := reportText
	if len(summary) > s.cfg.SummaryLength {
		summary = summary[:s.cfg.SummaryLength] + "..."
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries := append(s.users[userID], types.HistoryEntry{
		Query:     query,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
	})
	if len(entries) > s.cfg.Capacity {
		entries = entries[len(entries)-s.cfg.Capacity:]
	}
	s.users[userID] = entries
}

// List returns the user's history, oldest first. Unknown users get an
// empty list.
func (s *Store) List(userID string) []types.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.users[userID]
	out := make([]types.HistoryEntry, len(entries))
	copy(out, entries)
	return out
}

// Context formats the user's most recent exchanges (up to the context
// window) as a text block for prompt injection. Empty history yields "".
func (s *Store) Context(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.users[userID]
	if len(entries) == 0 {
		return ""
	}
	if len(entries) > s.cfg.ContextWindow {
		entries = entries[len(entries)-s.cfg.ContextWindow:]
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("Query: %s\nSummary: %s", e.Query, e.Summary))
	}
	return "Previous research:\n" + strings.Join(lines, "\n")
}

// Clear drops the user's history.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}
