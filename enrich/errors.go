// Package enrich provides prompt enrichment via a large language model.
// A short scene description goes in, an expanded equirectangular-friendly
// description comes out.
package enrich

import "errors"

// Sentinel errors for enrichment operations.
// These are domain-specific errors that provide clear failure modes.
var (
	// Input validation errors
	ErrEmptyPrompt   = errors.New("enrich: prompt cannot be empty")
	ErrInvalidParams = errors.New("enrich: invalid enrichment parameters")
	ErrInvalidMode   = errors.New("enrich: unknown enrichment mode")

	// Credential errors
	ErrMissingCredentials = errors.New("enrich: missing API credentials")

	// Service errors
	ErrServiceFailed  = errors.New("enrich: enrichment service request failed")
	ErrEmptyResponse  = errors.New("enrich: service returned an empty response")
	ErrTokenExchange  = errors.New("enrich: IAM token exchange failed")
	ErrTokenExpired   = errors.New("enrich: access token expired")
	ErrServiceTimeout = errors.New("enrich: enrichment request timed out")
)
