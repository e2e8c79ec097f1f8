package auth

import (
	"errors"
	"net/http"
	"time"
)

const (
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session_id"

	// DefaultCookieMaxAge matches the default session TTL, in seconds.
	DefaultCookieMaxAge = 24 * 60 * 60

	cookiePath = "/"
)

var (
	// ErrNoCookie is returned when the session cookie is absent from a request.
	ErrNoCookie = errors.New("auth: session cookie not found")

	// ErrEmptySessionID is returned when building a cookie with no session ID.
	ErrEmptySessionID = errors.New("auth: session ID cannot be empty")
)

// CookieConfig holds the attributes applied to session cookies.
type CookieConfig struct {
	Name     string
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// DefaultCookieConfig returns a hardened cookie configuration: HTTPOnly,
// SameSite Strict, site-wide path. Secure is off so plain-HTTP local
// deployments work; enable it behind TLS.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Name:     SessionCookieName,
		MaxAge:   DefaultCookieMaxAge,
		Secure:   false,
		HTTPOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// NewSessionCookie builds the cookie carrying a session ID.
func NewSessionCookie(sessionID string, cfg CookieConfig) (*http.Cookie, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	name := cfg.Name
	if name == "" {
		name = SessionCookieName
	}

	return &http.Cookie{
		Name:     name,
		Value:    sessionID,
		Path:     cookiePath,
		MaxAge:   cfg.MaxAge,
		HttpOnly: cfg.HTTPOnly,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	}, nil
}

// ParseSessionCookie extracts the session ID from the request.
// Returns ErrNoCookie when the cookie is absent.
func ParseSessionCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNoCookie
		}
		return "", err
	}
	return cookie.Value, nil
}

// ClearSessionCookie returns a cookie that deletes the session cookie
// on the client. Used during logout.
func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     cookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// DurationToSeconds converts a session TTL into a cookie MaxAge.
func DurationToSeconds(d time.Duration) int {
	return int(d.Seconds())
}
