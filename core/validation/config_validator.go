package validation

import (
	"fmt"
	"os"

	"pano_backend/core"
)

// ValidationResult is the outcome of a single configuration check.
type ValidationResult struct {
	Valid   bool
	Message string
	Error   error
}

// CheckEnvFile verifies the .env file exists in the working directory.
func CheckEnvFile() ValidationResult {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		cfgErr := core.ErrEnvFileMissing(".env")
		return ValidationResult{
			Valid:   false,
			Message: cfgErr.Message,
			Error:   cfgErr,
		}
	}
	return ValidationResult{Valid: true, Message: ".env file found"}
}

// CheckEnrichmentCredentials verifies that either the watsonx credential
// pair or the OpenAI-compatible override pair is present. The enrichment
// stage can run with either backend, so only one pair is required.
func CheckEnrichmentCredentials(cfg *core.Config) ValidationResult {
	if cfg.UseOpenAIEnrichment() {
		return ValidationResult{
			Valid:   true,
			Message: fmt.Sprintf("OpenAI-compatible enrichment endpoint configured (%s)", cfg.EnrichLLMURL),
		}
	}
	if cfg.WatsonXAPIKey == "" {
		cfgErr := core.ErrMissingCredential("WATSONX_API_KEY")
		return ValidationResult{Valid: false, Message: cfgErr.Message, Error: cfgErr}
	}
	if cfg.WatsonXProjectID == "" {
		cfgErr := core.ErrMissingCredential("WATSONX_PROJECT_ID")
		return ValidationResult{Valid: false, Message: cfgErr.Message, Error: cfgErr}
	}
	return ValidationResult{
		Valid:   true,
		Message: fmt.Sprintf("watsonx credentials present (model %s)", cfg.EnrichModelID),
	}
}

// CheckSynthesisConfig validates the image synthesis settings that must be
// correct before the pipeline is ever constructed.
func CheckSynthesisConfig(cfg *core.Config) ValidationResult {
	if err := ValidateServiceURL(cfg.SDServerURL); err != nil {
		cfgErr := core.ErrInvalidServerURL("SD_SERVER_URL", cfg.SDServerURL, err.Error())
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("SD_SERVER_URL invalid: %v", err),
			Error:   cfgErr,
		}
	}
	if cfg.SDImageWidth != 2*cfg.SDImageHeight {
		cfgErr := core.ErrInvalidValue("SD_IMAGE_WIDTH",
			fmt.Sprintf("%d", cfg.SDImageWidth),
			fmt.Sprintf("must be exactly twice SD_IMAGE_HEIGHT (%d)", cfg.SDImageHeight))
		return ValidationResult{Valid: false, Message: cfgErr.Message, Error: cfgErr}
	}
	return ValidationResult{
		Valid: true,
		Message: fmt.Sprintf("synthesis config valid (%dx%d, %d steps, guidance %.1f)",
			cfg.SDImageWidth, cfg.SDImageHeight, cfg.SDInferenceSteps, cfg.SDGuidanceScale),
	}
}

// CheckOutputsDir verifies the outputs directory exists or can be created.
func CheckOutputsDir(cfg *core.Config) ValidationResult {
	if err := os.MkdirAll(cfg.OutputsDir, 0o755); err != nil {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("cannot create outputs directory %s: %v", cfg.OutputsDir, err),
			Error:   err,
		}
	}
	return ValidationResult{Valid: true, Message: fmt.Sprintf("outputs directory ready (%s)", cfg.OutputsDir)}
}
