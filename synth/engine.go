package synth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pano_backend/core"
	"pano_backend/logging"
)

// defaultLoraWeight is the strength applied to the panorama LoRA adapter.
const defaultLoraWeight = 1.0

// Engine is the panorama synthesis organism. It owns a lazily constructed
// Pipeline and applies the panorama-specific prompt decoration, parameter
// clamping, and 2:1 frame normalization around every generation.
//
// Construction of the underlying pipeline happens at most once, on the
// first request that needs it, no matter how many goroutines arrive
// concurrently.
//
// Example:
//
//	engine := NewEngine(cfg, logger)
//	result, err := engine.Generate(ctx, prompt, 50, 7.5)
type Engine struct {
	cfg    *core.Config
	logger *logging.Logger

	// factory builds the pipeline on first use. Tests substitute fakes.
	factory func() (Pipeline, error)

	once     sync.Once
	pipeline Pipeline
	initErr  error

	mu     sync.Mutex
	closed bool
}

// NewEngine creates an Engine backed by the HTTP pipeline. The inference
// server is not contacted until the first generation request.
func NewEngine(cfg *core.Config, logger *logging.Logger) *Engine {
	e := &Engine{
		cfg:    cfg,
		logger: logger.Named("synth"),
	}
	e.factory = func() (Pipeline, error) {
		return NewHTTPPipeline(cfg, logger), nil
	}
	return e
}

// NewEngineWithFactory creates an Engine with a custom pipeline factory.
// Used by tests to count constructions and substitute fake pipelines.
func NewEngineWithFactory(cfg *core.Config, logger *logging.Logger, factory func() (Pipeline, error)) *Engine {
	return &Engine{
		cfg:     cfg,
		logger:  logger.Named("synth"),
		factory: factory,
	}
}

// getPipeline returns the shared pipeline, constructing it on first call.
// A failed construction is sticky for the lifetime of the engine.
func (e *Engine) getPipeline() (Pipeline, error) {
	e.once.Do(func() {
		start := time.Now()
		e.pipeline, e.initErr = e.factory()
		if e.initErr != nil {
			e.logger.Error("pipeline construction failed", zap.Error(e.initErr))
			return
		}
		e.logger.Info("pipeline constructed",
			zap.String("server_url", e.cfg.SDServerURL),
			zap.String("model_id", e.cfg.SDModelID),
			zap.Bool("use_lora", e.cfg.SDUseLora),
			zap.Duration("duration", time.Since(start)))
	})
	return e.pipeline, e.initErr
}

// Generate renders a 2:1 panorama for the prompt. Zero or negative steps
// and guidance mean unset and take the configured defaults; out-of-range
// values are clamped to the supported ranges rather than rejected. An
// empty prompt is an error.
func (e *Engine) Generate(ctx context.Context, prompt string, steps int, guidance float64) (*GenerationResult, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	e.mu.Unlock()

	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt cannot be empty", ErrInvalidPrompt)
	}

	// Zero means the caller left the parameter unset; fall back to the
	// configured defaults before clamping.
	if steps <= 0 {
		steps = e.cfg.SDInferenceSteps
	}
	if guidance <= 0 {
		guidance = e.cfg.SDGuidanceScale
	}

	clampedSteps := ClampSteps(steps)
	clampedGuidance := ClampGuidance(guidance)
	if clampedSteps != steps || clampedGuidance != guidance {
		e.logger.Warn("generation parameters clamped",
			zap.Int("requested_steps", steps),
			zap.Int("steps", clampedSteps),
			zap.Float64("requested_guidance", guidance),
			zap.Float64("guidance", clampedGuidance))
	}

	pipeline, err := e.getPipeline()
	if err != nil {
		return nil, err
	}

	finalPrompt := strings.TrimSpace(prompt)
	if e.cfg.SDUseLora {
		finalPrompt = ApplyTriggerWord(finalPrompt, e.cfg.SDTriggerWord)
		finalPrompt = ApplyLoraTag(finalPrompt, e.cfg.SDLoraID, defaultLoraWeight)
	}

	req := GenerationRequest{
		Prompt:         finalPrompt,
		NegativePrompt: e.cfg.SDNegativePrompt,
		Width:          e.cfg.SDImageWidth,
		Height:         e.cfg.SDImageHeight,
		Steps:          clampedSteps,
		GuidanceScale:  clampedGuidance,
		Seed:           -1,
		SamplerName:    e.cfg.SDSamplerName,
	}

	start := time.Now()
	result, err := pipeline.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	// The server can return off-spec dimensions; force the 2:1 frame.
	normalized, err := NormalizeEquirect(result.PNG, req.Width, req.Height)
	if err != nil {
		return nil, err
	}
	result.PNG = normalized
	result.Width = req.Width
	result.Height = req.Height
	result.Duration = time.Since(start)

	if e.cfg.OutputsDir != "" {
		filePath, err := e.saveImage(result.PNG)
		if err != nil {
			// The image is still usable in memory; failing to persist it
			// should not fail the request.
			e.logger.Warn("failed to save image", zap.Error(err))
		} else {
			result.FilePath = filePath
		}
	}

	e.logger.Info("panorama generated",
		zap.Int("width", result.Width),
		zap.Int("height", result.Height),
		zap.Int("steps", clampedSteps),
		zap.Float64("guidance", clampedGuidance),
		zap.Int64("seed", result.Seed),
		zap.Int("image_bytes", len(result.PNG)),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// Ready constructs the pipeline if needed and verifies the inference server
// is answering.
func (e *Engine) Ready(ctx context.Context) error {
	pipeline, err := e.getPipeline()
	if err != nil {
		return err
	}
	return pipeline.Ping(ctx)
}

// Close marks the engine closed. Subsequent generations fail with
// ErrEngineClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

// saveImage persists PNG data under the outputs directory with a unique
// name and returns the file path.
func (e *Engine) saveImage(data []byte) (string, error) {
	if err := os.MkdirAll(e.cfg.OutputsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create outputs directory: %w", err)
	}

	name := fmt.Sprintf("pano_%s_%s.png",
		time.Now().Format("20060102_150405"),
		uuid.New().String()[:8])
	filePath := filepath.Join(e.cfg.OutputsDir, name)

	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return filePath, nil
}
