package core

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// DefaultSessionDuration is the default lifetime for a web session.
const DefaultSessionDuration = 24 * time.Hour

// SessionIDLength is the number of random bytes in a session ID. 32 bytes
// gives 256 bits of entropy.
const SessionIDLength = 32

// Session represents an authenticated web session with expiry tracking.
// Sessions are created after successful login and stored server-side.
type Session struct {
	// ID is the unique session identifier (base64 URL-encoded random bytes)
	ID string

	// CreatedAt is when the session was created
	CreatedAt time.Time

	// ExpiresAt is when the session becomes invalid
	ExpiresAt time.Time
}

// NewSession creates a Session with the default 24-hour expiration.
func NewSession(id string) Session {
	return NewSessionWithDuration(id, DefaultSessionDuration)
}

// NewSessionWithDuration creates a Session with a custom expiration.
func NewSessionWithDuration(id string, duration time.Duration) Session {
	now := time.Now()
	return Session{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}
}

// IsExpired returns true if the session has passed its expiration time.
func (s Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// TimeRemaining returns the duration until the session expires.
// Negative once expired.
func (s Session) TimeRemaining() time.Duration {
	return time.Until(s.ExpiresAt)
}

// GenerateSessionID generates a cryptographically secure random session ID,
// base64 URL-encoded and safe for cookies without further encoding.
func GenerateSessionID() (string, error) {
	bytes := make([]byte, SessionIDLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(bytes), nil
}
