package core

import (
	"errors"
	"testing"
)

// validConfig returns a configuration that passes Validate.
func validConfig() *Config {
	return &Config{
		WatsonXAPIKey:      "key",
		WatsonXProjectID:   "project",
		WatsonXURL:         DefaultWatsonXURL,
		EnrichModelID:      DefaultEnrichModelID,
		EnrichMaxNewTokens: 250,
		EnrichMinNewTokens: 150,
		EnrichDecoding:     "sample",
		EnrichTemperature:  0.7,
		SDServerURL:        "http://localhost:7860",
		SDInferenceSteps:   50,
		SDGuidanceScale:    7.5,
		SDImageWidth:       1024,
		SDImageHeight:      512,
		Port:               3000,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantCode string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing api key", func(c *Config) { c.WatsonXAPIKey = "" }, "MISSING_CREDENTIAL"},
		{"missing project id", func(c *Config) { c.WatsonXProjectID = "" }, "MISSING_CREDENTIAL"},
		{"zero max tokens", func(c *Config) { c.EnrichMaxNewTokens = 0 }, "INVALID_VALUE"},
		{"min above max", func(c *Config) { c.EnrichMinNewTokens = 500 }, "INVALID_VALUE"},
		{"bad decoding", func(c *Config) { c.EnrichDecoding = "beam" }, "INVALID_VALUE"},
		{"temperature too high", func(c *Config) { c.EnrichTemperature = 3.0 }, "INVALID_VALUE"},
		{"steps out of range", func(c *Config) { c.SDInferenceSteps = 200 }, "INVALID_VALUE"},
		{"guidance out of range", func(c *Config) { c.SDGuidanceScale = 0.5 }, "INVALID_VALUE"},
		{"dims not multiple of 8", func(c *Config) { c.SDImageWidth = 1002; c.SDImageHeight = 501 }, "INVALID_VALUE"},
		{"not 2:1 aspect", func(c *Config) { c.SDImageWidth = 512 }, "INVALID_VALUE"},
		{"bad port", func(c *Config) { c.Port = 99999 }, "INVALID_VALUE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil")
			}
			if code := GetErrorCode(err); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestConfigValidate_OpenAIOverrideSkipsWatsonXCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.WatsonXAPIKey = ""
	cfg.WatsonXProjectID = ""
	cfg.OpenAIAPIKey = "sk-test"
	cfg.EnrichLLMURL = "http://localhost:11434/v1"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v with OpenAI override", err)
	}
	if !cfg.UseOpenAIEnrichment() {
		t.Error("UseOpenAIEnrichment() = false with key and URL set")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("WATSONX_API_KEY", "key")
	t.Setenv("WATSONX_PROJECT_ID", "project")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.EnrichModelID != DefaultEnrichModelID {
		t.Errorf("EnrichModelID = %q, want %q", cfg.EnrichModelID, DefaultEnrichModelID)
	}
	if cfg.SDTriggerWord != DefaultTriggerWord {
		t.Errorf("SDTriggerWord = %q, want %q", cfg.SDTriggerWord, DefaultTriggerWord)
	}
	if !cfg.SDUseLora {
		t.Error("SDUseLora default = false, want true")
	}
	if cfg.SDImageWidth != 2*cfg.SDImageHeight {
		t.Errorf("default dimensions %dx%d are not 2:1", cfg.SDImageWidth, cfg.SDImageHeight)
	}
}

func TestLoadConfig_LegacyCredentialNames(t *testing.T) {
	// The original deployment used bare API_KEY / PROJECT_ID names.
	t.Setenv("API_KEY", "legacy-key")
	t.Setenv("PROJECT_ID", "legacy-project")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.WatsonXAPIKey != "legacy-key" {
		t.Errorf("WatsonXAPIKey = %q, want legacy fallback", cfg.WatsonXAPIKey)
	}
}

func TestLoadConfig_MissingCredentials(t *testing.T) {
	t.Setenv("WATSONX_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("WATSONX_PROJECT_ID", "")
	t.Setenv("PROJECT_ID", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ENRICH_LLM_URL", "")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("LoadConfig() error = nil without credentials")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
	if cfgErr.Action == "" {
		t.Error("ConfigError.Action is empty; operators get no remediation hint")
	}
}
