// Package synth provides 360-degree panorama image synthesis through a
// Stable Diffusion inference server.
package synth

import "errors"

// Sentinel errors for synthesis operations.
// These are domain-specific errors that provide clear failure modes.
var (
	// Model-related errors
	ErrModelNotFound  = errors.New("synth: model not found on inference server")
	ErrModelLoadFailed = errors.New("synth: failed to load model")

	// Generation errors
	ErrGenerationFailed  = errors.New("synth: image generation failed")
	ErrGenerationTimeout = errors.New("synth: image generation timed out")
	ErrEmptyResult       = errors.New("synth: server returned no images")

	// Input validation errors
	ErrInvalidPrompt = errors.New("synth: invalid prompt")
	ErrInvalidParams = errors.New("synth: invalid generation parameters")

	// Resource errors
	ErrOutOfMemory       = errors.New("synth: inference server out of memory")
	ErrServerUnavailable = errors.New("synth: inference server unavailable")

	// Engine state errors
	ErrEngineClosed = errors.New("synth: engine is closed")
)
