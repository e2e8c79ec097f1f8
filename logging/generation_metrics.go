package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GenerationMetrics represents metrics collected for a complete panorama
// generation request, covering both the enrichment and synthesis stages.
// Implements zapcore.ObjectMarshaler for structured logging.
//
// Example:
//
//	metrics := GenerationMetrics{
//		CorrelationID:  "a1b2c3d4",
//		EnrichModel:    "ibm/mpt-7b-instruct2",
//		SynthModel:     "runwayml/stable-diffusion-v1-5",
//		Steps:          50,
//		GuidanceScale:  7.5,
//		EnrichDuration: 900 * time.Millisecond,
//		SynthDuration:  18 * time.Second,
//		ImageBytes:     1843200,
//		Success:        true,
//	}
//	logger.Info("generation complete", zap.Object("generation", metrics))
type GenerationMetrics struct {
	// CorrelationID ties the metrics to a single request's log entries
	CorrelationID string `json:"correlation_id"`

	// EnrichModel is the language model used for prompt enrichment
	EnrichModel string `json:"enrich_model"`

	// SynthModel is the diffusion model used for image synthesis
	SynthModel string `json:"synth_model"`

	// Steps is the number of denoising iterations used
	Steps int `json:"steps"`

	// GuidanceScale is the prompt adherence strength used
	GuidanceScale float64 `json:"guidance_scale"`

	// EnrichDuration is the time spent in the enrichment stage
	EnrichDuration time.Duration `json:"enrich_duration"`

	// SynthDuration is the time spent in the synthesis stage
	SynthDuration time.Duration `json:"synth_duration"`

	// ImageBytes is the size of the encoded output image
	ImageBytes int `json:"image_bytes"`

	// Success indicates whether the request produced an image
	Success bool `json:"success"`
}

// MarshalLogObject implements zapcore.ObjectMarshaler. Durations are encoded
// in milliseconds for readability.
func (m GenerationMetrics) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("correlation_id", m.CorrelationID)
	enc.AddString("enrich_model", m.EnrichModel)
	enc.AddString("synth_model", m.SynthModel)
	enc.AddInt("steps", m.Steps)
	enc.AddFloat64("guidance_scale", m.GuidanceScale)
	enc.AddInt64("enrich_duration_ms", m.EnrichDuration.Milliseconds())
	enc.AddInt64("synth_duration_ms", m.SynthDuration.Milliseconds())
	enc.AddInt("image_bytes", m.ImageBytes)
	enc.AddBool("success", m.Success)
	return nil
}

// GenerationFields creates a structured zap field from generation metrics.
//
// Example:
//
//	logger.Info("generation complete", logging.GenerationFields(metrics))
func GenerationFields(metrics GenerationMetrics) zap.Field {
	return zap.Object("generation", metrics)
}

// StageFields creates a slice of zap fields for a single pipeline stage.
//
// Example:
//
//	logger.Info("stage complete", logging.StageFields("enrich", start, time.Now())...)
func StageFields(stage string, startTime, endTime time.Time) []zap.Field {
	return []zap.Field{
		zap.String("stage", stage),
		zap.Time("start_time", startTime),
		zap.Duration("duration", endTime.Sub(startTime)),
	}
}
