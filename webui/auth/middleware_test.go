package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"pano_backend/logging"
)

func newTestMiddleware(t *testing.T) *AuthMiddleware {
	t.Helper()
	m, err := NewAuthMiddleware("test-password", logging.NewNopLogger())
	if err != nil {
		t.Fatalf("NewAuthMiddleware() error = %v", err)
	}
	return m
}

func TestMiddleware_RejectsWithoutSession(t *testing.T) {
	m := newTestMiddleware(t)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("protected handler reached without a session")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/generate", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMiddleware_AllowsValidSession(t *testing.T) {
	m := newTestMiddleware(t)

	session, cookie, err := m.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	var reached bool
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/generate", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Error("protected handler not reached with valid session")
	}

	if err := m.Authenticate(req); err != nil {
		t.Errorf("Authenticate() error = %v", err)
	}

	// Destroying the session revokes access.
	m.DestroySession(session.ID)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status after DestroySession = %d, want 401", rec.Code)
	}
}

func TestMiddleware_VerifyPassword(t *testing.T) {
	m := newTestMiddleware(t)

	if err := m.VerifyPassword("test-password"); err != nil {
		t.Errorf("VerifyPassword(correct) error = %v", err)
	}
	if err := m.VerifyPassword("wrong"); err == nil {
		t.Error("VerifyPassword(wrong) error = nil")
	}
}

func TestMiddleware_RateLimitBlocks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitAttempts = 2
	m, err := NewAuthMiddlewareWithConfig("test-password", logging.NewNopLogger(), cfg)
	if err != nil {
		t.Fatalf("NewAuthMiddlewareWithConfig() error = %v", err)
	}

	m.RecordFailedAttempt("10.0.0.9")
	m.RecordFailedAttempt("10.0.0.9")

	rec := httptest.NewRecorder()
	if m.CheckRateLimit(rec, "10.0.0.9") {
		t.Fatal("CheckRateLimit() = true after hitting the limit")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header not set")
	}

	m.ResetRateLimit("10.0.0.9")
	if !m.CheckRateLimit(httptest.NewRecorder(), "10.0.0.9") {
		t.Error("CheckRateLimit() = false after reset")
	}
}

func TestLoginFlow(t *testing.T) {
	m := newTestMiddleware(t)
	handler := LoginHandler(m)

	// Wrong password redirects back to the login page with an error.
	form := url.Values{"password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	start := time.Now()
	handler(rec, req)
	if time.Since(start) < FailedLoginDelay {
		t.Error("failed login returned before the delay elapsed")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("failed login status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, LoginPath+"?error=") {
		t.Errorf("Location = %q, want error redirect", loc)
	}

	// Correct password sets a session cookie and redirects to the UI.
	form = url.Values{"password": {"test-password"}}
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != SuccessRedirect {
		t.Errorf("Location = %q, want %q", loc, SuccessRedirect)
	}

	cookies := rec.Result().Cookies()
	var sessionCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == SessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("no session cookie set on successful login")
	}
	if _, err := m.GetSession(sessionCookie.Value); err != nil {
		t.Errorf("GetSession(cookie value) error = %v", err)
	}
}

func TestLogoutFlow(t *testing.T) {
	m := newTestMiddleware(t)

	session, cookie, err := m.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	LogoutHandler(m)(rec, req)

	if rec.Code != http.StatusFound {
		t.Errorf("logout status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != LoginPath {
		t.Errorf("Location = %q, want %q", loc, LoginPath)
	}
	if _, err := m.GetSession(session.ID); err == nil {
		t.Error("session still valid after logout")
	}

	// Clearing cookie instructs deletion.
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName && c.MaxAge == -1 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie not cleared on logout")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		forwarded  string
		realIP     string
		want       string
	}{
		{"remote addr", "192.168.1.5:4821", "", "", "192.168.1.5"},
		{"x-forwarded-for single", "10.0.0.1:1", "203.0.113.7", "", "203.0.113.7"},
		{"x-forwarded-for chain", "10.0.0.1:1", "203.0.113.7, 10.0.0.2", "", "203.0.113.7"},
		{"x-real-ip", "10.0.0.1:1", "", "203.0.113.9", "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}

			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
