package synth

import (
	"fmt"
	"strings"
	"time"
)

// GenerationRequest holds parameters for a single panorama generation.
type GenerationRequest struct {
	Prompt         string  // Required: text description of the scene
	NegativePrompt string  // Optional: what to avoid in the image
	Width          int     // Image width in pixels, twice the height
	Height         int     // Image height in pixels
	Steps          int     // Number of denoising iterations (1-150)
	GuidanceScale  float64 // Prompt adherence strength (1.0-30.0)
	Seed           int64   // Random seed for reproducibility (-1 for random)
	SamplerName    string  // Sampler, e.g. "Euler a"
}

// GenerationResult is the outcome of a successful synthesis.
type GenerationResult struct {
	PNG      []byte        // Encoded PNG image data
	Width    int           // Final image width
	Height   int           // Final image height
	Steps    int           // Step count actually used, after clamping
	Seed     int64         // Seed actually used by the server
	Duration time.Duration // Wall time spent generating
	FilePath string        // Path of the saved image, if persisted
}

// Parameter validation constants
const (
	MinImageSize      = 128
	MaxImageSize      = 4096
	ImageSizeMultiple = 8 // Dimensions must be divisible by this

	MinSteps = 1
	MaxSteps = 150

	MinGuidance = 1.0
	MaxGuidance = 30.0

	MaxPromptLength = 2000
)

// ClampSteps forces a step count into the supported range.
// This is a pure function with no side effects.
func ClampSteps(steps int) int {
	if steps < MinSteps {
		return MinSteps
	}
	if steps > MaxSteps {
		return MaxSteps
	}
	return steps
}

// ClampGuidance forces a guidance scale into the supported range.
// This is a pure function with no side effects.
func ClampGuidance(guidance float64) float64 {
	if guidance < MinGuidance {
		return MinGuidance
	}
	if guidance > MaxGuidance {
		return MaxGuidance
	}
	return guidance
}

// ValidateRequest validates a generation request. Steps and guidance are
// expected to be clamped by the caller; out-of-range values here are errors.
// This is a pure function with no side effects.
func ValidateRequest(req GenerationRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return fmt.Errorf("%w: prompt cannot be empty", ErrInvalidPrompt)
	}
	if len(req.Prompt) > MaxPromptLength {
		return fmt.Errorf("%w: prompt length %d exceeds maximum %d",
			ErrInvalidPrompt, len(req.Prompt), MaxPromptLength)
	}

	if req.Width < MinImageSize || req.Width > MaxImageSize {
		return fmt.Errorf("%w: width %d must be between %d and %d",
			ErrInvalidParams, req.Width, MinImageSize, MaxImageSize)
	}
	if req.Width%ImageSizeMultiple != 0 {
		return fmt.Errorf("%w: width %d must be divisible by %d",
			ErrInvalidParams, req.Width, ImageSizeMultiple)
	}

	if req.Height < MinImageSize || req.Height > MaxImageSize {
		return fmt.Errorf("%w: height %d must be between %d and %d",
			ErrInvalidParams, req.Height, MinImageSize, MaxImageSize)
	}
	if req.Height%ImageSizeMultiple != 0 {
		return fmt.Errorf("%w: height %d must be divisible by %d",
			ErrInvalidParams, req.Height, ImageSizeMultiple)
	}

	// Equirectangular projection demands a 2:1 frame
	if req.Width != 2*req.Height {
		return fmt.Errorf("%w: width %d must be exactly twice height %d",
			ErrInvalidParams, req.Width, req.Height)
	}

	if req.Steps < MinSteps || req.Steps > MaxSteps {
		return fmt.Errorf("%w: steps %d must be between %d and %d",
			ErrInvalidParams, req.Steps, MinSteps, MaxSteps)
	}

	if req.GuidanceScale < MinGuidance || req.GuidanceScale > MaxGuidance {
		return fmt.Errorf("%w: guidance scale %.2f must be between %.1f and %.1f",
			ErrInvalidParams, req.GuidanceScale, MinGuidance, MaxGuidance)
	}

	if len(req.NegativePrompt) > MaxPromptLength {
		return fmt.Errorf("%w: negative prompt length %d exceeds maximum %d",
			ErrInvalidParams, len(req.NegativePrompt), MaxPromptLength)
	}

	return nil
}
