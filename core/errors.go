package core

import (
	"fmt"
)

// ConfigError represents a configuration-related error with actionable instructions.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeEnvFileMissing    = "ENV_FILE_MISSING"
	ErrCodeMissingCredential = "MISSING_CREDENTIAL"
	ErrCodeInvalidValue      = "INVALID_VALUE"
	ErrCodeInvalidServerURL  = "INVALID_SERVER_URL"
	ErrCodeServerUnreachable = "SERVER_UNREACHABLE"
	ErrCodeAuthFailed        = "AUTH_FAILED"
)

// ErrEnvFileMissing returns an error for missing .env file
func ErrEnvFileMissing(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeEnvFileMissing,
		Message: fmt.Sprintf("Configuration file not found: %s", path),
		Action:  "Copy example.env to .env and configure the required values",
	}
}

// ErrMissingCredential returns an error for a missing required credential.
func ErrMissingCredential(varName string) *ConfigError {
	var action string
	switch varName {
	case "WATSONX_API_KEY":
		action = "Set WATSONX_API_KEY to your IBM Cloud API key (or configure OPENAI_API_KEY and ENRICH_LLM_URL)"
	case "WATSONX_PROJECT_ID":
		action = "Set WATSONX_PROJECT_ID to your watsonx.ai project identifier"
	default:
		action = fmt.Sprintf("Set %s in your .env file", varName)
	}
	return &ConfigError{
		Code:    ErrCodeMissingCredential,
		Message: fmt.Sprintf("Missing required credential: %s", varName),
		Action:  action,
	}
}

// ErrInvalidValue returns an error for an out-of-range or malformed setting.
func ErrInvalidValue(varName, value, constraint string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidValue,
		Message: fmt.Sprintf("Invalid value for %s: %q (%s)", varName, value, constraint),
		Action:  fmt.Sprintf("Correct %s in your .env file", varName),
	}
}

// ErrInvalidServerURL returns an error for an invalid service URL.
func ErrInvalidServerURL(varName, url, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidServerURL,
		Message: fmt.Sprintf("Invalid %s URL '%s': %s", varName, url, reason),
		Action:  fmt.Sprintf("Set %s to a valid URL (e.g., https://us-south.ml.cloud.ibm.com)", varName),
	}
}

// ErrServerUnreachable returns an error when a backend cannot be reached.
func ErrServerUnreachable(url string, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeServerUnreachable,
		Message: fmt.Sprintf("Cannot connect to server at %s: %s", url, reason),
		Action:  "Check the URL and that the server is running. For self-signed certificates, set ALLOW_SELF_SIGNED_CERTS=true",
	}
}

// ErrAuthFailed returns an error when authentication against a service fails.
func ErrAuthFailed(service string, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeAuthFailed,
		Message: fmt.Sprintf("Authentication failed for %s: %s", service, reason),
		Action:  "Verify your API key is correct and has not expired",
	}
}

// IsConfigError checks if an error is a ConfigError and returns it if so
func IsConfigError(err error) (*ConfigError, bool) {
	if configErr, ok := err.(*ConfigError); ok {
		return configErr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error if it's a ConfigError
func GetErrorCode(err error) string {
	if configErr, ok := IsConfigError(err); ok {
		return configErr.Code
	}
	return ""
}
