// Package audit keeps a bounded trail of execution metadata for processed requests.
// Entries describe where and how a request was processed. They never contain
// document fields, images or submitted text.
package audit

import (
	"context"
	"sync"
	"time"
)

// Entry is one audited request
type Entry struct {
	RequestID        string         `json:"request_id"`
	Route            string         `json:"route"`
	Mode             string         `json:"mode,omitempty"`
	Source           string         `json:"source,omitempty"` // upstream or fallback
	Reason           string         `json:"reason,omitempty"`
	Location         string         `json:"location,omitempty"`
	RawDataLeftCloud bool           `json:"raw_data_left_cloud"`
	ExecutedOnEdge   bool           `json:"executed_on_edge"`
	ElapsedMs        int64          `json:"elapsed_ms"`
	Findings         map[string]int `json:"findings,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
}

// Recorder stores audit entries
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int64) ([]Entry, error)
	Close() error
}

// MemoryRecorder keeps the most recent entries in process memory
type MemoryRecorder struct {
	mu         sync.Mutex
	entries    []Entry
	maxEntries int
}

// NewMemoryRecorder creates an in-memory recorder holding at most maxEntries
func NewMemoryRecorder(maxEntries int) *MemoryRecorder {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &MemoryRecorder{maxEntries: maxEntries}
}

// Record stores an entry, evicting the oldest when full
func (m *MemoryRecorder) Record(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)
	if over := len(m.entries) - m.maxEntries; over > 0 {
		m.entries = append([]Entry(nil), m.entries[over:]...)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (m *MemoryRecorder) Recent(_ context.Context, limit int64) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.entries))
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Close is a no-op
func (m *MemoryRecorder) Close() error { return nil }
