// Package handlers orchestrates the two-stage panorama generation flow:
// prompt enrichment followed by image synthesis.
package handlers

import (
	"unicode/utf8"

	"github.com/google/uuid"
)

// GenerateCorrelationID creates a short ID for request tracing, the first
// 8 characters of a UUID v4.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// TruncateText cuts text down to at most maxLength bytes without splitting
// a multi-byte rune. Shorter text is returned unchanged.
func TruncateText(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	if maxLength < 0 {
		maxLength = 0
	}
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
