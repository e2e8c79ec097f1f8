package webui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"pano_backend/logging"
)

// denyAllAuth rejects every request, standing in for a real session check.
type denyAllAuth struct{}

func (denyAllAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}
func (denyAllAuth) Authenticate(r *http.Request) error { return ErrSessionNotFound }
func (denyAllAuth) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("login page")) }
}
func (denyAllAuth) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	}
}

func newTestServer(auth AuthProvider) *Server {
	logger := logging.NewNopLogger()
	api := newTestAPI(&fakeOrchestrator{}, nil)
	return NewServer(DefaultServerConfig(), api, NewBroadcaster(logger), auth, logger)
}

func TestServer_HealthIsOpen(t *testing.T) {
	server := newTestServer(denyAllAuth{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", rec.Code)
	}
}

func TestServer_GenerateRequiresAuth(t *testing.T) {
	server := newTestServer(denyAllAuth{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("POST /api/generate status = %d, want 401", rec.Code)
	}
}

func TestServer_IndexRedirectsToLogin(t *testing.T) {
	server := newTestServer(denyAllAuth{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("GET / status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestServer_NoAuthServesEverything(t *testing.T) {
	server := newTestServer(nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET / status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /login without auth status = %d, want 404", rec.Code)
	}
}

func TestServer_UnknownPathIs404(t *testing.T) {
	server := newTestServer(nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope status = %d, want 404", rec.Code)
	}
}
