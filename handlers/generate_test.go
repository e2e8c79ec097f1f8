package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"pano_backend/enrich"
	"pano_backend/logging"
	"pano_backend/metrics"
	"pano_backend/synth"
)

type fakeEnricher struct {
	response string
	err      error
	calls    int
}

func (f *fakeEnricher) Enrich(ctx context.Context, prompt string, mode enrich.Mode) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if mode == enrich.ModeNone {
		return prompt, nil
	}
	return f.response, nil
}

type fakeEngine struct {
	err        error
	lastPrompt string
	calls      int
}

func (f *fakeEngine) Generate(ctx context.Context, prompt string, steps int, guidance float64) (*synth.GenerationResult, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return &synth.GenerationResult{
		PNG:    []byte("png-bytes"),
		Width:  1024,
		Height: 512,
		Steps:  steps,
		Seed:   777,
	}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	stages []string
}

func (r *recordingNotifier) NotifyProgress(correlationID, stage, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func TestOrchestrator_SuccessfulFlow(t *testing.T) {
	enricher := &fakeEnricher{response: "a vast beach under a golden sky, waves in every direction"}
	engine := &fakeEngine{}
	collector := metrics.NewCollector()
	o := NewOrchestrator(enricher, engine, collector, logging.NewNopLogger())

	result, err := o.HandleRequest(context.Background(), GenerateRequest{
		Prompt:   "a beach",
		Mode:     enrich.ModeStandard,
		Steps:    50,
		Guidance: 7.5,
	})
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}

	if !result.Success {
		t.Errorf("Success = false, status: %s", result.Status)
	}
	if !strings.HasPrefix(result.Status, StatusSuccess) {
		t.Errorf("Status = %q, want %q prefix", result.Status, StatusSuccess)
	}
	if !strings.Contains(result.Status, "1024x512") || !strings.Contains(result.Status, "seed 777") {
		t.Errorf("Status = %q, want composed image details", result.Status)
	}
	if result.EnrichedPrompt != enricher.response {
		t.Errorf("EnrichedPrompt = %q, want enriched text", result.EnrichedPrompt)
	}
	if engine.lastPrompt != enricher.response {
		t.Errorf("engine received %q, want enriched prompt", engine.lastPrompt)
	}
	if len(result.CorrelationID) != 8 {
		t.Errorf("CorrelationID = %q, want 8 characters", result.CorrelationID)
	}
	if result.Seed != 777 {
		t.Errorf("Seed = %d, want 777", result.Seed)
	}

	snap := collector.Snapshot()
	if snap.SuccessfulRequests != 1 {
		t.Errorf("SuccessfulRequests = %d, want 1", snap.SuccessfulRequests)
	}
}

func TestOrchestrator_EmptyPromptRejected(t *testing.T) {
	enricher := &fakeEnricher{response: "unused"}
	engine := &fakeEngine{}
	o := NewOrchestrator(enricher, engine, nil, logging.NewNopLogger())

	_, err := o.HandleRequest(context.Background(), GenerateRequest{
		Prompt: "   ",
		Mode:   enrich.ModeStandard,
	})
	if !errors.Is(err, enrich.ErrEmptyPrompt) {
		t.Errorf("HandleRequest() error = %v, want ErrEmptyPrompt", err)
	}
	if enricher.calls != 0 || engine.calls != 0 {
		t.Error("no stage should run for an empty prompt")
	}
}

func TestOrchestrator_EnrichmentFallback(t *testing.T) {
	enricher := &fakeEnricher{err: enrich.ErrServiceFailed}
	engine := &fakeEngine{}
	collector := metrics.NewCollector()
	o := NewOrchestrator(enricher, engine, collector, logging.NewNopLogger())

	result, err := o.HandleRequest(context.Background(), GenerateRequest{
		Prompt:   "a beach",
		Mode:     enrich.ModeStandard,
		Steps:    50,
		Guidance: 7.5,
	})
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}

	if !result.Success {
		t.Error("fallback request should still succeed")
	}
	if !strings.HasPrefix(result.Status, StatusEnrichFallback) {
		t.Errorf("Status = %q, want %q prefix", result.Status, StatusEnrichFallback)
	}
	if engine.lastPrompt != "a beach" {
		t.Errorf("engine received %q, want raw prompt", engine.lastPrompt)
	}
	if result.EnrichedPrompt != "a beach" {
		t.Errorf("EnrichedPrompt = %q, want raw prompt", result.EnrichedPrompt)
	}

	snap := collector.Snapshot()
	if snap.EnrichFallbacks != 1 {
		t.Errorf("EnrichFallbacks = %d, want 1", snap.EnrichFallbacks)
	}
}

func TestOrchestrator_SynthesisFailureYieldsFailedResult(t *testing.T) {
	enricher := &fakeEnricher{response: "enriched"}
	engine := &fakeEngine{err: synth.ErrOutOfMemory}
	collector := metrics.NewCollector()
	o := NewOrchestrator(enricher, engine, collector, logging.NewNopLogger())

	result, err := o.HandleRequest(context.Background(), GenerateRequest{
		Prompt:   "a beach",
		Mode:     enrich.ModeStandard,
		Steps:    50,
		Guidance: 7.5,
	})
	if err != nil {
		t.Fatalf("HandleRequest() error = %v, synthesis failure must not be an error", err)
	}

	if result.Success {
		t.Error("Success = true, want false")
	}
	if result.Error == "" {
		t.Error("Error should carry the failure message")
	}
	if !strings.Contains(result.Status, "Generation failed") {
		t.Errorf("Status = %q, want failure status", result.Status)
	}
	if len(result.PNG) != 0 {
		t.Error("failed result should carry no image data")
	}

	snap := collector.Snapshot()
	if snap.FailedRequests != 1 {
		t.Errorf("FailedRequests = %d, want 1", snap.FailedRequests)
	}
}

func TestOrchestrator_ModeNonePassesRawPrompt(t *testing.T) {
	enricher := &fakeEnricher{response: "should not be used"}
	engine := &fakeEngine{}
	o := NewOrchestrator(enricher, engine, nil, logging.NewNopLogger())

	result, err := o.HandleRequest(context.Background(), GenerateRequest{
		Prompt:   "a beach",
		Mode:     enrich.ModeNone,
		Steps:    50,
		Guidance: 7.5,
	})
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}
	if result.EnrichedPrompt != "a beach" {
		t.Errorf("EnrichedPrompt = %q, want raw prompt in ModeNone", result.EnrichedPrompt)
	}
}

func TestOrchestrator_ProgressNotifications(t *testing.T) {
	enricher := &fakeEnricher{response: "enriched"}
	engine := &fakeEngine{}
	notifier := &recordingNotifier{}
	o := NewOrchestrator(enricher, engine, nil, logging.NewNopLogger()).WithNotifier(notifier)

	if _, err := o.HandleRequest(context.Background(), GenerateRequest{
		Prompt:   "a beach",
		Mode:     enrich.ModeStandard,
		Steps:    50,
		Guidance: 7.5,
	}); err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}

	want := []string{StageEnrich, StageSynth, StageDone}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.stages) != len(want) {
		t.Fatalf("got %d progress events, want %d", len(notifier.stages), len(want))
	}
	for i, stage := range want {
		if notifier.stages[i] != stage {
			t.Errorf("stage[%d] = %q, want %q", i, notifier.stages[i], stage)
		}
	}
}

func TestGenerateCorrelationID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateCorrelationID()
		if len(id) != 8 {
			t.Fatalf("GenerateCorrelationID() length = %d, want 8", len(id))
		}
		seen[id] = true
	}
	if len(seen) != 100 {
		t.Errorf("got %d unique IDs out of 100", len(seen))
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "shorter unchanged", input: "abc", maxLen: 10, want: "abc"},
		{name: "exact unchanged", input: "abc", maxLen: 3, want: "abc"},
		{name: "longer truncated", input: "abcdef", maxLen: 3, want: "abc"},
		{name: "rune boundary kept", input: "café au lait", maxLen: 4, want: "caf"},
		{name: "multibyte fits", input: "café", maxLen: 5, want: "café"},
		{name: "cjk truncated", input: "全景画", maxLen: 7, want: "全景"},
		{name: "zero length", input: "abc", maxLen: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateText(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("TruncateText(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("TruncateText(%q, %d) = %q is not valid UTF-8", tt.input, tt.maxLen, got)
			}
		})
	}
}
