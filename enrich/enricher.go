package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pano_backend/core"
	"pano_backend/logging"
)

// Enricher expands raw user prompts into panorama-ready scene descriptions.
//
// It composes a Provider (the inference backend) with a PresetStore (the
// instruction templates) and applies the configured generation parameters
// and timeout to every request.
//
// Example:
//
//	enricher, err := NewEnricher(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	enriched, err := enricher.Enrich(ctx, "a misty forest", ModeCinematic)
type Enricher struct {
	provider Provider
	presets  *PresetStore
	params   Params
	timeout  time.Duration
	logger   *logging.Logger
}

// NewEnricher builds an Enricher from the application configuration,
// selecting the backend and loading any preset overrides.
func NewEnricher(cfg *core.Config, logger *logging.Logger) (*Enricher, error) {
	provider, err := NewProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	presets, err := LoadPresetStore(cfg.EnrichPresetsFile)
	if err != nil {
		return nil, err
	}

	params := Params{
		ModelID:      cfg.EnrichModelID,
		MaxNewTokens: cfg.EnrichMaxNewTokens,
		MinNewTokens: cfg.EnrichMinNewTokens,
		Decoding:     cfg.EnrichDecoding,
		Temperature:  cfg.EnrichTemperature,
	}
	if err := ValidateParams(params); err != nil {
		return nil, err
	}

	return &Enricher{
		provider: provider,
		presets:  presets,
		params:   params,
		timeout:  cfg.EnrichTimeout,
		logger:   logger.Named("enrich"),
	}, nil
}

// NewEnricherWithProvider builds an Enricher around an existing provider.
// Used by tests to substitute a fake backend.
func NewEnricherWithProvider(provider Provider, presets *PresetStore, params Params, timeout time.Duration, logger *logging.Logger) *Enricher {
	return &Enricher{
		provider: provider,
		presets:  presets,
		params:   params,
		timeout:  timeout,
		logger:   logger.Named("enrich"),
	}
}

// Provider returns the active backend, for status reporting.
func (e *Enricher) Provider() Provider {
	return e.provider
}

// Modes returns the enrichment modes available for UI listings.
func (e *Enricher) Modes() []Mode {
	return e.presets.Modes()
}

// Enrich expands the prompt in the given mode and returns the enriched text.
//
// ModeNone returns the sanitized prompt without contacting the backend. An
// empty prompt is rejected with ErrEmptyPrompt before any network activity.
// The request is bounded by the configured timeout on top of any deadline
// already present in ctx.
func (e *Enricher) Enrich(ctx context.Context, prompt string, mode Mode) (string, error) {
	if err := ValidatePrompt(prompt); err != nil {
		return "", err
	}
	prompt = SanitizePrompt(prompt)

	if mode == ModeNone {
		return prompt, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	instruction := e.presets.Instruction(mode, prompt)

	start := time.Now()
	text, err := e.provider.Generate(ctx, instruction, e.params)
	if err != nil {
		e.logger.Warn("enrichment failed",
			zap.String("provider", e.provider.Name()),
			zap.String("mode", mode.String()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return "", err
	}

	e.logger.Info("prompt enriched",
		zap.String("provider", e.provider.Name()),
		zap.String("mode", mode.String()),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("enriched_chars", len(text)),
		zap.Duration("duration", time.Since(start)))

	return text, nil
}
