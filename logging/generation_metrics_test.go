package logging

import (
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestGenerationMetrics_MarshalLogObject(t *testing.T) {
	metrics := GenerationMetrics{
		CorrelationID:  "a1b2c3d4",
		EnrichModel:    "ibm/mpt-7b-instruct2",
		SynthModel:     "runwayml/stable-diffusion-v1-5",
		Steps:          50,
		GuidanceScale:  7.5,
		EnrichDuration: 900 * time.Millisecond,
		SynthDuration:  18 * time.Second,
		ImageBytes:     1843200,
		Success:        true,
	}

	enc := zapcore.NewMapObjectEncoder()
	if err := metrics.MarshalLogObject(enc); err != nil {
		t.Fatalf("MarshalLogObject() error = %v", err)
	}

	if enc.Fields["correlation_id"] != "a1b2c3d4" {
		t.Errorf("correlation_id = %v, want a1b2c3d4", enc.Fields["correlation_id"])
	}
	if enc.Fields["steps"] != 50 {
		t.Errorf("steps = %v, want 50", enc.Fields["steps"])
	}
	if enc.Fields["guidance_scale"] != 7.5 {
		t.Errorf("guidance_scale = %v, want 7.5", enc.Fields["guidance_scale"])
	}
	if enc.Fields["enrich_duration_ms"] != int64(900) {
		t.Errorf("enrich_duration_ms = %v, want 900", enc.Fields["enrich_duration_ms"])
	}
	if enc.Fields["synth_duration_ms"] != int64(18000) {
		t.Errorf("synth_duration_ms = %v, want 18000", enc.Fields["synth_duration_ms"])
	}
	if enc.Fields["success"] != true {
		t.Errorf("success = %v, want true", enc.Fields["success"])
	}
}

func TestStageFields(t *testing.T) {
	start := time.Now()
	end := start.Add(2 * time.Second)

	fields := StageFields("synth", start, end)
	if len(fields) != 3 {
		t.Fatalf("StageFields() returned %d fields, want 3", len(fields))
	}
	if fields[0].Key != "stage" || fields[0].String != "synth" {
		t.Errorf("stage field = %v", fields[0])
	}
	if fields[2].Key != "duration" {
		t.Errorf("duration field key = %q, want duration", fields[2].Key)
	}
}
