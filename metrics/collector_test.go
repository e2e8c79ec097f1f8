package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCollector_RecordRequest(t *testing.T) {
	c := NewCollector()

	c.RecordRequest(true)
	c.RecordRequest(true)
	c.RecordRequest(false)

	snap := c.Snapshot()
	if snap.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", snap.TotalRequests)
	}
	if snap.SuccessfulRequests != 2 {
		t.Errorf("SuccessfulRequests = %d, want 2", snap.SuccessfulRequests)
	}
	if snap.FailedRequests != 1 {
		t.Errorf("FailedRequests = %d, want 1", snap.FailedRequests)
	}
	if snap.LastRequestAt.IsZero() {
		t.Error("LastRequestAt should be set after a request")
	}
}

func TestCollector_Averages(t *testing.T) {
	c := NewCollector()

	c.RecordEnrichDuration(1 * time.Second)
	c.RecordEnrichDuration(3 * time.Second)
	c.RecordSynthDuration(10 * time.Second)

	snap := c.Snapshot()
	if snap.AvgEnrichDuration != 2*time.Second {
		t.Errorf("AvgEnrichDuration = %v, want 2s", snap.AvgEnrichDuration)
	}
	if snap.AvgSynthDuration != 10*time.Second {
		t.Errorf("AvgSynthDuration = %v, want 10s", snap.AvgSynthDuration)
	}
}

func TestCollector_EmptySnapshot(t *testing.T) {
	c := NewCollector()

	snap := c.Snapshot()
	if snap.AvgEnrichDuration != 0 || snap.AvgSynthDuration != 0 {
		t.Error("averages should be zero with no samples")
	}
	if snap.Uptime < 0 {
		t.Error("Uptime should be non-negative")
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.RecordRequest(n%2 == 0)
			c.RecordEnrichDuration(time.Millisecond)
			if n%10 == 0 {
				c.RecordEnrichFallback()
			}
			c.Snapshot()
		}(i)
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.TotalRequests != 50 {
		t.Errorf("TotalRequests = %d, want 50", snap.TotalRequests)
	}
	if snap.EnrichFallbacks != 5 {
		t.Errorf("EnrichFallbacks = %d, want 5", snap.EnrichFallbacks)
	}
}
