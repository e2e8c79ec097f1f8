package enrich

import (
	"fmt"
	"strings"
)

// Mode selects the enrichment style applied to a raw prompt.
type Mode string

const (
	// ModeStandard expands the prompt into a balanced scene description.
	ModeStandard Mode = "standard"

	// ModeDetailed emphasizes fine-grained visual detail in every direction.
	ModeDetailed Mode = "detailed"

	// ModeCinematic emphasizes dramatic lighting and atmosphere.
	ModeCinematic Mode = "cinematic"

	// ModeNone bypasses enrichment entirely; the raw prompt is used as-is.
	ModeNone Mode = "none"
)

// ParseMode parses a mode string from user input. Case-insensitive.
// An empty string maps to ModeStandard.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return ModeStandard, nil
	case "detailed":
		return ModeDetailed, nil
	case "cinematic":
		return ModeCinematic, nil
	case "none", "off":
		return ModeNone, nil
	default:
		return ModeStandard, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// Params holds text generation parameters for the enrichment model.
type Params struct {
	ModelID      string  // Model identifier, e.g. "ibm/mpt-7b-instruct2"
	MaxNewTokens int     // Maximum tokens to generate (1-1024)
	MinNewTokens int     // Minimum tokens to generate (0-MaxNewTokens)
	Decoding     string  // Decoding method: "sample" or "greedy"
	Temperature  float64 // Sampling temperature (0.0-2.0), ignored for greedy
}

// Parameter validation constants
const (
	MinTokenCount = 1
	MaxTokenCount = 1024

	MinTemperature = 0.0
	MaxTemperature = 2.0

	MaxPromptLength = 1000
)

// DefaultParams returns the generation parameters used when the caller does
// not override them.
func DefaultParams() Params {
	return Params{
		ModelID:      "ibm/mpt-7b-instruct2",
		MaxNewTokens: 250,
		MinNewTokens: 150,
		Decoding:     "sample",
		Temperature:  0.7,
	}
}

// ValidateParams validates generation parameters and returns an error if
// invalid. This is a pure function with no side effects.
func ValidateParams(p Params) error {
	if p.ModelID == "" {
		return fmt.Errorf("%w: model ID cannot be empty", ErrInvalidParams)
	}

	if p.MaxNewTokens < MinTokenCount || p.MaxNewTokens > MaxTokenCount {
		return fmt.Errorf("%w: max_new_tokens %d must be between %d and %d",
			ErrInvalidParams, p.MaxNewTokens, MinTokenCount, MaxTokenCount)
	}

	if p.MinNewTokens < 0 || p.MinNewTokens > p.MaxNewTokens {
		return fmt.Errorf("%w: min_new_tokens %d must be between 0 and max_new_tokens (%d)",
			ErrInvalidParams, p.MinNewTokens, p.MaxNewTokens)
	}

	if p.Decoding != "sample" && p.Decoding != "greedy" {
		return fmt.Errorf("%w: decoding %q must be \"sample\" or \"greedy\"",
			ErrInvalidParams, p.Decoding)
	}

	if p.Temperature < MinTemperature || p.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperature %.2f must be between %.1f and %.1f",
			ErrInvalidParams, p.Temperature, MinTemperature, MaxTemperature)
	}

	return nil
}

// ValidatePrompt validates a raw user prompt before enrichment.
// This is a pure function with no side effects.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if len(prompt) > MaxPromptLength {
		return fmt.Errorf("%w: prompt length %d exceeds maximum %d",
			ErrInvalidParams, len(prompt), MaxPromptLength)
	}
	return nil
}

// SanitizePrompt cleans a prompt by trimming whitespace.
func SanitizePrompt(prompt string) string {
	return strings.TrimSpace(prompt)
}
