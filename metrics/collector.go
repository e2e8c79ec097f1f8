// Package metrics keeps in-memory counters and timings for generation
// requests, surfaced through the status API.
package metrics

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the collected metrics.
type Snapshot struct {
	TotalRequests      int64         `json:"total_requests"`
	SuccessfulRequests int64         `json:"successful_requests"`
	FailedRequests     int64         `json:"failed_requests"`
	EnrichFallbacks    int64         `json:"enrich_fallbacks"`
	AvgEnrichDuration  time.Duration `json:"avg_enrich_duration"`
	AvgSynthDuration   time.Duration `json:"avg_synth_duration"`
	LastRequestAt      time.Time     `json:"last_request_at"`
	StartedAt          time.Time     `json:"started_at"`
	Uptime             time.Duration `json:"uptime"`

	RecentGenerations []GenerationRecord `json:"recent_generations"`
}

// recentSnapshotSize is how many history records a Snapshot carries.
const recentSnapshotSize = 10

// Collector accumulates request metrics. All methods are safe for
// concurrent use.
type Collector struct {
	mu sync.Mutex

	totalRequests      int64
	successfulRequests int64
	failedRequests     int64
	enrichFallbacks    int64

	enrichTotal time.Duration
	enrichCount int64
	synthTotal  time.Duration
	synthCount  int64

	lastRequestAt time.Time
	startedAt     time.Time

	history *History
}

// NewCollector creates a Collector with the uptime clock started.
func NewCollector() *Collector {
	return &Collector{
		startedAt: time.Now(),
		history:   NewHistory(DefaultHistorySize),
	}
}

// RecordRequest counts a completed generation request.
func (c *Collector) RecordRequest(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests++
	if success {
		c.successfulRequests++
	} else {
		c.failedRequests++
	}
	c.lastRequestAt = time.Now()
}

// RecordEnrichFallback counts a request that fell back to the raw prompt
// after an enrichment failure.
func (c *Collector) RecordEnrichFallback() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enrichFallbacks++
}

// RecordEnrichDuration adds an enrichment stage timing sample.
func (c *Collector) RecordEnrichDuration(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enrichTotal += d
	c.enrichCount++
}

// RecordSynthDuration adds a synthesis stage timing sample.
func (c *Collector) RecordSynthDuration(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.synthTotal += d
	c.synthCount++
}

// RecordGeneration appends a completed generation to the rolling history.
func (c *Collector) RecordGeneration(record GenerationRecord) {
	c.history.Push(record)
}

// Recent returns up to n history records, newest first.
func (c *Collector) Recent(n int) []GenerationRecord {
	return c.history.Recent(n)
}

// Snapshot returns a copy of the current metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		TotalRequests:      c.totalRequests,
		SuccessfulRequests: c.successfulRequests,
		FailedRequests:     c.failedRequests,
		EnrichFallbacks:    c.enrichFallbacks,
		LastRequestAt:      c.lastRequestAt,
		StartedAt:          c.startedAt,
		Uptime:             time.Since(c.startedAt),
		RecentGenerations:  c.history.Recent(recentSnapshotSize),
	}
	if c.enrichCount > 0 {
		snap.AvgEnrichDuration = c.enrichTotal / time.Duration(c.enrichCount)
	}
	if c.synthCount > 0 {
		snap.AvgSynthDuration = c.synthTotal / time.Duration(c.synthCount)
	}
	return snap
}
