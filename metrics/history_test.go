package metrics

import (
	"fmt"
	"testing"
	"time"
)

func record(id string) GenerationRecord {
	return GenerationRecord{
		CorrelationID: id,
		PromptPreview: "a misty mountain valley",
		Success:       true,
		Seed:          42,
		Duration:      3 * time.Second,
		CompletedAt:   time.Now(),
	}
}

func TestHistory_PushAndRecent(t *testing.T) {
	h := NewHistory(5)

	if h.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", h.Len())
	}
	if got := h.Recent(3); len(got) != 0 {
		t.Fatalf("Recent(3) on empty history returned %d records", len(got))
	}

	h.Push(record("a"))
	h.Push(record("b"))
	h.Push(record("c"))

	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}

	got := h.Recent(10)
	wantOrder := []string{"c", "b", "a"}
	if len(got) != len(wantOrder) {
		t.Fatalf("Recent(10) returned %d records, want %d", len(got), len(wantOrder))
	}
	for i, want := range wantOrder {
		if got[i].CorrelationID != want {
			t.Errorf("Recent(10)[%d].CorrelationID = %q, want %q", i, got[i].CorrelationID, want)
		}
	}
}

func TestHistory_OverwritesOldestAtCapacity(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Push(record(fmt.Sprintf("r%d", i)))
	}

	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}

	got := h.Recent(3)
	wantOrder := []string{"r4", "r3", "r2"}
	for i, want := range wantOrder {
		if got[i].CorrelationID != want {
			t.Errorf("Recent(3)[%d].CorrelationID = %q, want %q", i, got[i].CorrelationID, want)
		}
	}
}

func TestHistory_RecentLimits(t *testing.T) {
	h := NewHistory(4)
	for i := 0; i < 4; i++ {
		h.Push(record(fmt.Sprintf("r%d", i)))
	}

	tests := []struct {
		name string
		n    int
		want int
	}{
		{"zero", 0, 0},
		{"negative", -1, 0},
		{"partial", 2, 2},
		{"exact", 4, 4},
		{"over", 10, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Recent(tt.n); len(got) != tt.want {
				t.Errorf("Recent(%d) returned %d records, want %d", tt.n, len(got), tt.want)
			}
		})
	}
}

func TestNewHistory_PanicsOnZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewHistory(0) did not panic")
		}
	}()
	NewHistory(0)
}

func TestCollector_RecordGeneration(t *testing.T) {
	c := NewCollector()
	c.RecordGeneration(record("gen-1"))
	c.RecordGeneration(record("gen-2"))

	recent := c.Recent(5)
	if len(recent) != 2 {
		t.Fatalf("Recent(5) returned %d records, want 2", len(recent))
	}
	if recent[0].CorrelationID != "gen-2" {
		t.Errorf("newest record = %q, want %q", recent[0].CorrelationID, "gen-2")
	}

	snap := c.Snapshot()
	if len(snap.RecentGenerations) != 2 {
		t.Errorf("Snapshot().RecentGenerations has %d records, want 2", len(snap.RecentGenerations))
	}
}
