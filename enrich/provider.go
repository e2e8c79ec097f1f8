package enrich

import (
	"context"

	"pano_backend/core"
	"pano_backend/logging"
)

// Provider generates enriched text from an instruction. Implementations wrap
// a specific inference backend (watsonx.ai, or any OpenAI-compatible server).
type Provider interface {
	// Generate sends the instruction to the backend and returns the raw
	// generated text. The context bounds the whole exchange including any
	// authentication round-trips.
	Generate(ctx context.Context, instruction string, params Params) (string, error)

	// Name identifies the backend for logging.
	Name() string
}

// NewProvider selects a Provider from the configuration. When an
// OpenAI-compatible endpoint is configured it takes precedence over watsonx,
// which lets local inference servers stand in during development.
func NewProvider(cfg *core.Config, logger *logging.Logger) (Provider, error) {
	if cfg.UseOpenAIEnrichment() {
		return NewOpenAIProvider(cfg, logger), nil
	}
	if cfg.WatsonXAPIKey == "" || cfg.WatsonXProjectID == "" {
		return nil, ErrMissingCredentials
	}
	return NewWatsonXProvider(cfg, logger), nil
}
