package orchestrator

import (
	"sync"
	"time"
)

// defaultHistoryCapacity bounds the in-memory execution log. Old
// entries are evicted first. A long-running service must not grow this
// without bound.
const defaultHistoryCapacity = 1000

// HistoryEntry records one pipeline execution.
type HistoryEntry struct {
	Query          string    `json:"query"`
	Pipeline       string    `json:"pipeline"`
	AgentsInvolved []string  `json:"agents_involved"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// History is a bounded, append-only execution log. Safe for concurrent
// use.
type History struct {
	mu       sync.Mutex
	entries  []HistoryEntry
	capacity int
}

// NewHistory creates a history log with the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

// Record appends an entry, evicting the oldest when full.
func (h *History) Record(entry HistoryEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	if len(h.entries) > h.capacity {
		h.entries = h.entries[len(h.entries)-h.capacity:]
	}
}

// Entries returns a snapshot of the log, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
