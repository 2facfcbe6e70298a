// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/websight/pkg/types"
)

func TestStoreAddAndList(t *testing.T) {
	s := NewStore(types.HistoryConfig{})
	s.Add("u1", "first query", "first report")
	s.Add("u1", "second query", "second report")

	entries := s.List("u1")
	require.Len(t, entries, 2)
	assert.Equal(t, "first query", entries[0].Query)
	assert.Equal(t, "second query", entries[1].Query)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestStoreCapacity(t *testing.T) {
	s := NewStore(types.HistoryConfig{Capacity: 10})
	for i := 0; i < 15; i++ {
		s.Add("u1", fmt.Sprintf("query %d", i), "report")
	}

	entries := s.List("u1")
	require.Len(t, entries, 10)
	assert.Equal(t, "query 5", entries[0].Query, "oldest entries drop first")
	assert.Equal(t, "query 14", entries[9].Query)
}

func TestStoreSummaryTruncation(t *testing.T) {
	s := NewStore(types.HistoryConfig{SummaryLength: 200})
	long := strings.Repeat("a", 300)
	s.Add("u1", "q", long)
	s.Add("u1", "q2", "short report")

	entries := s.List("u1")
	assert.Equal(t, strings.Repeat("a", 200)+"...", entries[0].Summary)
	assert.Equal(t, "short report", entries[1].Summary, "short reports are kept verbatim")
}

func TestStoreContext(t *testing.T) {
	s := NewStore(types.HistoryConfig{ContextWindow: 3})
	for i := 0; i < 5; i++ {
		s.Add("u1", fmt.Sprintf("query %d", i), fmt.Sprintf("summary %d", i))
	}

	ctx := s.Context("u1")
	assert.True(t, strings.HasPrefix(ctx, "Previous research:\n"))
	assert.NotContains(t, ctx, "query 1", "only the window's entries appear")
	assert.Contains(t, ctx, "Query: query 2\nSummary: summary 2")
	assert.Contains(t, ctx, "Query: query 4\nSummary: summary 4")
}

func TestStoreContextEmpty(t *testing.T) {
	s := NewStore(types.HistoryConfig{})
	assert.Empty(t, s.Context("nobody"))
}

func TestStoreClear(t *testing.T) {
	s := NewStore(types.HistoryConfig{})
	s.Add("u1", "q", "r")
	s.Add("u2", "q", "r")

	s.Clear("u1")
	assert.Empty(t, s.List("u1"))
	assert.Len(t, s.List("u2"), 1, "clearing one user leaves others untouched")
}

func TestStoreUsersIsolated(t *testing.T) {
	s := NewStore(types.HistoryConfig{})
	s.Add("u1", "alpha", "r")
	s.Add("u2", "beta", "r")

	assert.Equal(t, "alpha", s.List("u1")[0].Query)
	assert.Equal(t, "beta", s.List("u2")[0].Query)
}
