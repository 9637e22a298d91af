package orchestrator

import (
	"sync"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/remediation"
)

// DefaultHistorySize is the number of completed tasks kept when no size is configured.
const DefaultHistorySize = 100

// HistoryEntry records one completed task.
type HistoryEntry struct {
	TaskID        string                  `json:"task_id"`
	Timestamp     time.Time               `json:"timestamp"`
	Strategy      remediation.Strategy    `json:"strategy"`
	Success       bool                    `json:"success"`
	ExecutionTime time.Duration           `json:"execution_time_ns"`
	Provider      remediation.ProviderTag `json:"provider"`
}

// History is a bounded, thread-safe log of completed tasks, oldest first.
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
	next    int
	full    bool
}

// NewHistory creates a history holding at most size entries.
// A non-positive size uses DefaultHistorySize.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{entries: make([]HistoryEntry, size)}
}

// Add appends an entry, evicting the oldest one when full.
func (h *History) Add(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.next] = e
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.full {
		out := make([]HistoryEntry, h.next)
		copy(out, h.entries[:h.next])
		return out
	}
	out := make([]HistoryEntry, 0, len(h.entries))
	out = append(out, h.entries[h.next:]...)
	out = append(out, h.entries[:h.next]...)
	return out
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.full {
		return len(h.entries)
	}
	return h.next
}
