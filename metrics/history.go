package metrics

import (
	"sync"
	"time"
)

// DefaultHistorySize is how many recent generations the collector keeps.
const DefaultHistorySize = 50

// GenerationRecord summarizes one completed generation request for the
// recent-activity view. The prompt is truncated before recording; full
// prompts live only in the logs.
type GenerationRecord struct {
	CorrelationID string        `json:"correlation_id"`
	PromptPreview string        `json:"prompt_preview"`
	Success       bool          `json:"success"`
	Fallback      bool          `json:"fallback"`
	Seed          int64         `json:"seed"`
	Duration      time.Duration `json:"duration"`
	CompletedAt   time.Time     `json:"completed_at"`
}

// History is a fixed-size ring of the most recent generation records.
// The oldest record is overwritten when the ring is full. Safe for
// concurrent use.
type History struct {
	mu       sync.RWMutex
	records  []GenerationRecord
	capacity int
	size     int
	head     int
	tail     int
}

// NewHistory creates a History holding up to capacity records.
// Panics if capacity is less than 1.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		panic("metrics: history capacity must be at least 1")
	}
	return &History{
		records:  make([]GenerationRecord, capacity),
		capacity: capacity,
	}
}

// Push records a generation, evicting the oldest record when full.
func (h *History) Push(record GenerationRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records[h.head] = record
	h.head = (h.head + 1) % h.capacity

	if h.size < h.capacity {
		h.size++
	} else {
		h.tail = (h.tail + 1) % h.capacity
	}
}

// Recent returns up to n of the most recent records, newest first.
func (h *History) Recent(n int) []GenerationRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || h.size == 0 {
		return []GenerationRecord{}
	}
	if n > h.size {
		n = h.size
	}

	result := make([]GenerationRecord, n)
	for i := 0; i < n; i++ {
		idx := (h.head - 1 - i + h.capacity) % h.capacity
		result[i] = h.records[idx]
	}
	return result
}

// Len returns the number of records currently held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}
