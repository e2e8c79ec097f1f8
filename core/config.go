package core

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the 360° image backend.
// It is constructed once at startup by LoadConfig and passed by reference
// into the enrichment and synthesis stages; it is never mutated afterwards.
type Config struct {
	// Enrichment service (IBM watsonx.ai text generation)
	WatsonXAPIKey      string
	WatsonXProjectID   string
	WatsonXURL         string
	EnrichModelID      string
	EnrichMaxNewTokens int
	EnrichMinNewTokens int
	EnrichDecoding     string // "sample" or "greedy"
	EnrichTemperature  float64
	EnrichTimeout      time.Duration

	// Optional OpenAI-compatible enrichment override.
	// When EnrichLLMURL and OpenAIAPIKey are both set, the OpenAI provider
	// is used instead of watsonx and the watsonx credentials become optional.
	OpenAIAPIKey  string
	EnrichLLMURL  string
	OpenAIModelID string

	// Enrichment preset overlay (optional YAML file, see enrich.LoadPresets)
	EnrichPresetsFile string

	// Stable Diffusion synthesis backend
	SDServerURL      string
	SDModelID        string
	SDLoraID         string
	SDTriggerWord    string
	SDUseLora        bool
	SDInferenceSteps int
	SDGuidanceScale  float64
	SDImageWidth     int
	SDImageHeight    int
	SDNegativePrompt string
	SDSamplerName    string
	SDDevice         string
	SDTimeout        time.Duration

	// Web server
	Host                 string
	Port                 int
	WebUIPassword        string // optional; enables session auth when set
	AllowSelfSignedCerts bool
	OutputsDir           string
	DevMode              bool
}

// Default values for the enrichment stage. These mirror the watsonx.ai
// generation parameters the application was tuned with.
const (
	DefaultWatsonXURL    = "https://us-south.ml.cloud.ibm.com"
	DefaultEnrichModelID = "ibm/mpt-7b-instruct2"
	DefaultMaxNewTokens  = 250
	DefaultMinNewTokens  = 150
	DefaultDecoding      = "sample"
	DefaultTemperature   = 0.7
)

// Default values for the synthesis stage. Width/height give the 2:1
// equirectangular frame used for 360° projection.
const (
	DefaultSDServerURL  = "http://127.0.0.1:7860"
	DefaultSDModelID    = "runwayml/stable-diffusion-v1-5"
	DefaultSDLoraID     = "ProGamerGov/360-Diffusion-LoRA-sd-v1-5"
	DefaultTriggerWord  = "qxj"
	DefaultSteps        = 50
	DefaultGuidance     = 7.5
	DefaultImageWidth   = 1024
	DefaultImageHeight  = 512
	DefaultSamplerName  = "Euler a"
	DefaultSDDevice     = "cuda"
	DefaultEnrichTmoSec = 60
	DefaultSDTmoSec     = 120
)

// Helper function to get environment variable with default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Helper function to parse integer environment variable with default value
func parseIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// Helper function to parse float64 environment variable with default value
func parseFloat64Env(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// Helper function to parse boolean environment variable with default value
func parseBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

// LoadConfig loads configuration from environment variables with defaults
// matching the original deployment. Enrichment credentials are required
// unless an OpenAI-compatible override is fully configured; everything else
// has a working default.
//
// Validation is eager: a missing credential or an out-of-range numeric
// parameter fails here, at startup, rather than surfacing mid-request.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		WatsonXAPIKey:      getEnvOrDefault("WATSONX_API_KEY", os.Getenv("API_KEY")),
		WatsonXProjectID:   getEnvOrDefault("WATSONX_PROJECT_ID", os.Getenv("PROJECT_ID")),
		WatsonXURL:         getEnvOrDefault("WATSONX_URL", DefaultWatsonXURL),
		EnrichModelID:      getEnvOrDefault("ENRICH_MODEL_ID", DefaultEnrichModelID),
		EnrichMaxNewTokens: parseIntEnv("ENRICH_MAX_NEW_TOKENS", DefaultMaxNewTokens),
		EnrichMinNewTokens: parseIntEnv("ENRICH_MIN_NEW_TOKENS", DefaultMinNewTokens),
		EnrichDecoding:     getEnvOrDefault("ENRICH_DECODING", DefaultDecoding),
		EnrichTemperature:  parseFloat64Env("ENRICH_TEMPERATURE", DefaultTemperature),
		EnrichTimeout:      time.Duration(parseIntEnv("ENRICH_TIMEOUT", DefaultEnrichTmoSec)) * time.Second,

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		EnrichLLMURL:  os.Getenv("ENRICH_LLM_URL"),
		OpenAIModelID: getEnvOrDefault("OPENAI_MODEL_ID", "gpt-4o-mini"),

		EnrichPresetsFile: os.Getenv("ENRICH_PRESETS_FILE"),

		SDServerURL:      getEnvOrDefault("SD_SERVER_URL", DefaultSDServerURL),
		SDModelID:        getEnvOrDefault("SD_MODEL_ID", DefaultSDModelID),
		SDLoraID:         getEnvOrDefault("SD_LORA_ID", DefaultSDLoraID),
		SDTriggerWord:    getEnvOrDefault("SD_TRIGGER_WORD", DefaultTriggerWord),
		SDUseLora:        parseBoolEnv("SD_USE_LORA", true),
		SDInferenceSteps: parseIntEnv("SD_INFERENCE_STEPS", DefaultSteps),
		SDGuidanceScale:  parseFloat64Env("SD_GUIDANCE_SCALE", DefaultGuidance),
		SDImageWidth:     parseIntEnv("SD_IMAGE_WIDTH", DefaultImageWidth),
		SDImageHeight:    parseIntEnv("SD_IMAGE_HEIGHT", DefaultImageHeight),
		SDNegativePrompt: os.Getenv("SD_NEGATIVE_PROMPT"),
		SDSamplerName:    getEnvOrDefault("SD_SAMPLER_NAME", DefaultSamplerName),
		SDDevice:         getEnvOrDefault("SD_DEVICE", DefaultSDDevice),
		SDTimeout:        time.Duration(parseIntEnv("SD_TIMEOUT", DefaultSDTmoSec)) * time.Second,

		Host:                 getEnvOrDefault("HOST", "localhost"),
		Port:                 parseIntEnv("PORT", 3000),
		WebUIPassword:        os.Getenv("WEBUI_PWD"),
		AllowSelfSignedCerts: parseBoolEnv("ALLOW_SELF_SIGNED_CERTS", false),
		OutputsDir:           getEnvOrDefault("OUTPUTS_DIR", "./outputs"),
		DevMode:              parseBoolEnv("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UseOpenAIEnrichment reports whether the OpenAI-compatible enrichment
// provider should be used instead of watsonx.
func (c *Config) UseOpenAIEnrichment() bool {
	return c.OpenAIAPIKey != "" && c.EnrichLLMURL != ""
}

// Validate checks credential presence and numeric ranges.
// It returns a *ConfigError describing the first problem found.
func (c *Config) Validate() error {
	if !c.UseOpenAIEnrichment() {
		if c.WatsonXAPIKey == "" {
			return ErrMissingCredential("WATSONX_API_KEY")
		}
		if c.WatsonXProjectID == "" {
			return ErrMissingCredential("WATSONX_PROJECT_ID")
		}
	}

	if c.EnrichMaxNewTokens <= 0 {
		return ErrInvalidValue("ENRICH_MAX_NEW_TOKENS", fmt.Sprintf("%d", c.EnrichMaxNewTokens), "must be positive")
	}
	if c.EnrichMinNewTokens < 0 || c.EnrichMinNewTokens > c.EnrichMaxNewTokens {
		return ErrInvalidValue("ENRICH_MIN_NEW_TOKENS", fmt.Sprintf("%d", c.EnrichMinNewTokens),
			"must be between 0 and ENRICH_MAX_NEW_TOKENS")
	}
	if c.EnrichDecoding != "sample" && c.EnrichDecoding != "greedy" {
		return ErrInvalidValue("ENRICH_DECODING", c.EnrichDecoding, "must be 'sample' or 'greedy'")
	}
	if c.EnrichTemperature < 0 || c.EnrichTemperature > 2 {
		return ErrInvalidValue("ENRICH_TEMPERATURE", fmt.Sprintf("%.2f", c.EnrichTemperature),
			"must be between 0.0 and 2.0")
	}

	if c.SDInferenceSteps < 1 || c.SDInferenceSteps > 150 {
		return ErrInvalidValue("SD_INFERENCE_STEPS", fmt.Sprintf("%d", c.SDInferenceSteps),
			"must be between 1 and 150")
	}
	if c.SDGuidanceScale < 1.0 || c.SDGuidanceScale > 30.0 {
		return ErrInvalidValue("SD_GUIDANCE_SCALE", fmt.Sprintf("%.2f", c.SDGuidanceScale),
			"must be between 1.0 and 30.0")
	}
	if c.SDImageWidth%8 != 0 || c.SDImageHeight%8 != 0 {
		return ErrInvalidValue("SD_IMAGE_WIDTH/SD_IMAGE_HEIGHT",
			fmt.Sprintf("%dx%d", c.SDImageWidth, c.SDImageHeight), "dimensions must be divisible by 8")
	}
	if c.SDImageWidth != 2*c.SDImageHeight {
		return ErrInvalidValue("SD_IMAGE_WIDTH/SD_IMAGE_HEIGHT",
			fmt.Sprintf("%dx%d", c.SDImageWidth, c.SDImageHeight),
			"equirectangular output requires a 2:1 aspect ratio")
	}

	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidValue("PORT", fmt.Sprintf("%d", c.Port), "must be a valid TCP port")
	}

	return nil
}

// GetHTTPClient returns an HTTP client configured with TLS settings based on
// AllowSelfSignedCerts. All outbound calls to external services use this so
// the TLS policy is applied consistently.
func GetHTTPClient(cfg *Config, timeout time.Duration) *http.Client {
	client := &http.Client{
		Timeout: timeout,
	}

	if cfg.AllowSelfSignedCerts {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return client
}
