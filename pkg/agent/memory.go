package agent

import (
	"sync"
	"time"
)

// memoryCapacity bounds each agent's memory ring. Oldest entries are
// evicted first.
const memoryCapacity = 50

// MemoryEntry is one remembered execution summary.
type MemoryEntry struct {
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// Memory is a bounded, append-only ring of recent execution summaries.
// Agent-owned and never shared across agents. Safe for concurrent use:
// council voters append from fan-out goroutines.
type Memory struct {
	mu      sync.Mutex
	entries []MemoryEntry
}

// NewMemory creates an empty memory ring.
func NewMemory() *Memory {
	return &Memory{}
}

// Append records a summary. When the ring is full the oldest entry is
// evicted.
func (m *Memory) Append(summary string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, MemoryEntry{Summary: summary, Timestamp: time.Now()})
	if len(m.entries) > memoryCapacity {
		m.entries = m.entries[len(m.entries)-memoryCapacity:]
	}
}

// Entries returns a snapshot of the current contents, oldest first.
func (m *Memory) Entries() []MemoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MemoryEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the current entry count.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
