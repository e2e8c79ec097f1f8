package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pano_backend/enrich"
	"pano_backend/logging"
	"pano_backend/metrics"
	"pano_backend/synth"
)

// Stage names used in progress events and logs.
const (
	StageEnrich = "enrich"
	StageSynth  = "synth"
	StageDone   = "done"
)

// Status lines shown to the user alongside the result.
const (
	StatusSuccess        = "Image generated successfully"
	StatusEnrichFallback = "Enrichment unavailable, generated from original prompt"
)

// PromptEnricher is the enrichment stage as the orchestrator sees it.
type PromptEnricher interface {
	Enrich(ctx context.Context, prompt string, mode enrich.Mode) (string, error)
}

// PanoramaEngine is the synthesis stage as the orchestrator sees it.
type PanoramaEngine interface {
	Generate(ctx context.Context, prompt string, steps int, guidance float64) (*synth.GenerationResult, error)
}

// ProgressNotifier receives stage transitions for live progress display.
// Implementations must not block.
type ProgressNotifier interface {
	NotifyProgress(correlationID, stage, message string)
}

// GenerateRequest is a single user request for a panorama.
type GenerateRequest struct {
	Prompt   string
	Mode     enrich.Mode
	Steps    int
	Guidance float64
}

// GenerateResult is the outcome of one orchestrated request. A failed
// synthesis still yields a result, with Success false and Error set, so the
// caller can render the failure without special-casing.
type GenerateResult struct {
	CorrelationID  string
	Prompt         string
	EnrichedPrompt string
	PNG            []byte
	FilePath       string
	Seed           int64
	Status         string
	Success        bool
	Error          string
	EnrichDuration time.Duration
	SynthDuration  time.Duration
}

// Orchestrator runs the two-stage generation flow. Enrichment failures
// degrade to the raw prompt; synthesis failures produce a failed result.
// Only invalid input returns an error.
type Orchestrator struct {
	enricher  PromptEnricher
	engine    PanoramaEngine
	collector *metrics.Collector
	notifier  ProgressNotifier
	logger    *logging.Logger
}

// NewOrchestrator wires the two stages together. collector and notifier may
// be nil.
func NewOrchestrator(enricher PromptEnricher, engine PanoramaEngine, collector *metrics.Collector, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		enricher:  enricher,
		engine:    engine,
		collector: collector,
		logger:    logger.Named("orchestrator"),
	}
}

// WithNotifier attaches a progress notifier.
func (o *Orchestrator) WithNotifier(notifier ProgressNotifier) *Orchestrator {
	o.notifier = notifier
	return o
}

// HandleRequest runs enrichment then synthesis for the request.
//
// Behavior by failure point:
//   - empty prompt: returns enrich.ErrEmptyPrompt, nothing runs
//   - enrichment fails: synthesis proceeds with the raw prompt and the
//     result status notes the fallback
//   - synthesis fails: returns a result with Success false and the failure
//     message, not an error
func (o *Orchestrator) HandleRequest(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if err := enrich.ValidatePrompt(req.Prompt); err != nil {
		return nil, err
	}
	prompt := enrich.SanitizePrompt(req.Prompt)

	correlationID := GenerateCorrelationID()
	reqLogger := o.logger.With(zap.String("correlation_id", correlationID))
	result := &GenerateResult{
		CorrelationID: correlationID,
		Prompt:        prompt,
	}

	reqLogger.Info("generation request received",
		zap.String("prompt_preview", TruncateText(prompt, 80)),
		zap.String("mode", req.Mode.String()),
		zap.Int("steps", req.Steps),
		zap.Float64("guidance", req.Guidance))

	// Stage 1: enrichment. Failure is non-fatal; the raw prompt carries on.
	o.notify(correlationID, StageEnrich, "Enriching prompt")
	finalPrompt := prompt
	status := StatusSuccess

	enrichStart := time.Now()
	enriched, err := o.enricher.Enrich(ctx, prompt, req.Mode)
	result.EnrichDuration = time.Since(enrichStart)
	switch {
	case err == nil:
		finalPrompt = enriched
		if o.collector != nil && req.Mode != enrich.ModeNone {
			o.collector.RecordEnrichDuration(result.EnrichDuration)
		}
	case errors.Is(err, enrich.ErrEmptyPrompt):
		return nil, err
	default:
		reqLogger.Warn("enrichment failed, using raw prompt", zap.Error(err))
		status = StatusEnrichFallback
		if o.collector != nil {
			o.collector.RecordEnrichFallback()
		}
	}
	result.EnrichedPrompt = finalPrompt

	// Stage 2: synthesis. Failure yields a failed result, never a crash.
	o.notify(correlationID, StageSynth, "Generating panorama")
	synthStart := time.Now()
	generated, err := o.engine.Generate(ctx, finalPrompt, req.Steps, req.Guidance)
	result.SynthDuration = time.Since(synthStart)
	if err != nil {
		reqLogger.Error("synthesis failed", zap.Error(err))
		result.Success = false
		result.Error = err.Error()
		result.Status = fmt.Sprintf("Generation failed: %s", err.Error())
		if o.collector != nil {
			o.collector.RecordRequest(false)
			o.recordHistory(result, status == StatusEnrichFallback)
		}
		o.notify(correlationID, StageDone, result.Status)
		return result, nil
	}

	result.Success = true
	result.Status = fmt.Sprintf("%s (%dx%d, %d steps, seed %d)",
		status, generated.Width, generated.Height, generated.Steps, generated.Seed)
	result.PNG = generated.PNG
	result.FilePath = generated.FilePath
	result.Seed = generated.Seed

	if o.collector != nil {
		o.collector.RecordSynthDuration(result.SynthDuration)
		o.collector.RecordRequest(true)
		o.recordHistory(result, status == StatusEnrichFallback)
	}

	reqLogger.Info("generation request complete",
		zap.Bool("fallback", status == StatusEnrichFallback),
		zap.Int("image_bytes", len(result.PNG)),
		zap.Duration("enrich_duration", result.EnrichDuration),
		zap.Duration("synth_duration", result.SynthDuration))

	o.notify(correlationID, StageDone, status)
	return result, nil
}

// recordHistory pushes the finished request into the rolling history.
func (o *Orchestrator) recordHistory(result *GenerateResult, fallback bool) {
	o.collector.RecordGeneration(metrics.GenerationRecord{
		CorrelationID: result.CorrelationID,
		PromptPreview: TruncateText(result.Prompt, 80),
		Success:       result.Success,
		Fallback:      fallback,
		Seed:          result.Seed,
		Duration:      result.EnrichDuration + result.SynthDuration,
		CompletedAt:   time.Now(),
	})
}

// notify forwards a stage transition when a notifier is attached.
func (o *Orchestrator) notify(correlationID, stage, message string) {
	if o.notifier != nil {
		o.notifier.NotifyProgress(correlationID, stage, message)
	}
}
