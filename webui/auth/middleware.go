package auth

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"pano_backend/core"
	"pano_backend/logging"
	"pano_backend/webui"
)

// Rate limit and session defaults for the login flow.
const (
	DefaultRateLimitAttempts = 5
	DefaultRateLimitWindow   = 1 * time.Minute
	DefaultRateLimitBlock    = 5 * time.Minute
	DefaultSessionTTL        = 24 * time.Hour
)

// AuthMiddleware guards web UI routes behind a single shared password.
// It composes the password hash, the session store, and the per-IP rate
// limiter, and exposes the login and logout handlers built on them.
type AuthMiddleware struct {
	passwordHash string
	sessions     *webui.SessionStore
	rateLimiter  *webui.RateLimiter
	cookieConfig CookieConfig
	logger       *logging.Logger
}

// Config tunes session lifetime, lockout policy, and cookie security.
type Config struct {
	SessionTTL        time.Duration
	RateLimitAttempts int
	RateLimitWindow   time.Duration
	RateLimitBlock    time.Duration
	SecureCookies     bool
}

// DefaultConfig returns the default auth configuration.
func DefaultConfig() Config {
	return Config{
		SessionTTL:        DefaultSessionTTL,
		RateLimitAttempts: DefaultRateLimitAttempts,
		RateLimitWindow:   DefaultRateLimitWindow,
		RateLimitBlock:    DefaultRateLimitBlock,
		SecureCookies:     false,
	}
}

// NewAuthMiddleware hashes the password and assembles the middleware with
// default configuration.
func NewAuthMiddleware(password string, logger *logging.Logger) (*AuthMiddleware, error) {
	return NewAuthMiddlewareWithConfig(password, logger, DefaultConfig())
}

// NewAuthMiddlewareWithConfig assembles the middleware with explicit
// session and rate limit settings.
func NewAuthMiddlewareWithConfig(password string, logger *logging.Logger, cfg Config) (*AuthMiddleware, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	cookieCfg := DefaultCookieConfig()
	cookieCfg.Secure = cfg.SecureCookies
	cookieCfg.MaxAge = DurationToSeconds(cfg.SessionTTL)

	return &AuthMiddleware{
		passwordHash: hash,
		sessions:     webui.NewSessionStore(cfg.SessionTTL),
		rateLimiter:  webui.NewRateLimiter(cfg.RateLimitAttempts, cfg.RateLimitWindow, cfg.RateLimitBlock),
		cookieConfig: cookieCfg,
		logger:       logger.Named("auth"),
	}, nil
}

// Middleware wraps next so that only requests carrying a valid session
// cookie pass through. Everything else gets a 401.
func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := ParseSessionCookie(r)
		if err != nil {
			m.logger.Debug("no session cookie",
				zap.String("path", r.URL.Path),
				zap.String("ip", clientIP(r)),
			)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if _, err := m.sessions.Get(sessionID); err != nil {
			m.logger.Debug("invalid session",
				zap.String("path", r.URL.Path),
				zap.String("ip", clientIP(r)),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuth adapts Middleware for a bare http.HandlerFunc.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return m.Middleware(next).ServeHTTP
}

// CheckRateLimit reports whether ip may attempt a login. When blocked it
// writes a 429 with a Retry-After header and returns false.
func (m *AuthMiddleware) CheckRateLimit(w http.ResponseWriter, ip string) bool {
	allowed, remaining := m.rateLimiter.Allow(ip)
	if !allowed {
		m.logger.Warn("login rate limit exceeded",
			zap.String("ip", ip),
			zap.Duration("blocked_for", remaining),
		)
		w.Header().Set("Retry-After", retryAfterSeconds(remaining))
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return false
	}
	return true
}

// RecordFailedAttempt counts a failed login toward the lockout threshold.
func (m *AuthMiddleware) RecordFailedAttempt(ip string) {
	m.rateLimiter.RecordAttempt(ip)
	m.logger.Info("failed login attempt",
		zap.String("ip", ip),
		zap.Int("attempts", m.rateLimiter.AttemptCount(ip)),
	)
}

// ResetRateLimit clears the attempt counter after a successful login.
func (m *AuthMiddleware) ResetRateLimit(ip string) {
	m.rateLimiter.Reset(ip)
}

// VerifyPassword checks a submitted password against the stored hash.
func (m *AuthMiddleware) VerifyPassword(password string) error {
	return VerifyPassword(password, m.passwordHash)
}

// CreateSession creates a session and the cookie that carries it.
func (m *AuthMiddleware) CreateSession() (core.Session, *http.Cookie, error) {
	session, err := m.sessions.Create()
	if err != nil {
		m.logger.Error("session creation failed", zap.Error(err))
		return core.Session{}, nil, err
	}

	cookie, err := NewSessionCookie(session.ID, m.cookieConfig)
	if err != nil {
		return core.Session{}, nil, err
	}

	m.logger.Info("session created",
		zap.String("session_id", session.ID[:8]+"..."),
		zap.Time("expires_at", session.ExpiresAt),
	)
	return session, cookie, nil
}

// DestroySession deletes a session and returns the clearing cookie.
func (m *AuthMiddleware) DestroySession(sessionID string) *http.Cookie {
	m.sessions.Delete(sessionID)
	return ClearSessionCookie()
}

// GetSession looks up a session by ID.
func (m *AuthMiddleware) GetSession(sessionID string) (core.Session, error) {
	return m.sessions.Get(sessionID)
}

// SessionStore exposes the store so callers can run its cleanup ticker.
func (m *AuthMiddleware) SessionStore() *webui.SessionStore {
	return m.sessions
}

// RateLimiter exposes the limiter so callers can run its cleanup ticker.
func (m *AuthMiddleware) RateLimiter() *webui.RateLimiter {
	return m.rateLimiter
}

// clientIP extracts the client address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
