package auth

import (
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"pano_backend/webui"
)

const (
	// FailedLoginDelay is added after every failed login to slow down
	// brute force attempts and mask verification timing.
	FailedLoginDelay = 1 * time.Second

	// SuccessRedirect is where a successful login lands.
	SuccessRedirect = "/"

	// LoginPath is the login page path.
	LoginPath = "/login"
)

// LoginHandler serves the /login endpoint. GET renders the form; POST
// verifies the password, creates a session, and redirects to the UI.
func LoginHandler(m *AuthMiddleware) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handleLoginGET(w, r, m)
		case http.MethodPost:
			handleLoginPOST(w, r, m)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	}
}

func handleLoginGET(w http.ResponseWriter, r *http.Request, m *AuthMiddleware) {
	if sessionID, err := ParseSessionCookie(r); err == nil {
		if _, err := m.GetSession(sessionID); err == nil {
			http.Redirect(w, r, SuccessRedirect, http.StatusFound)
			return
		}
	}
	webui.HandleLoginPage(w, r)
}

func handleLoginPOST(w http.ResponseWriter, r *http.Request, m *AuthMiddleware) {
	ip := clientIP(r)

	if !m.CheckRateLimit(w, ip) {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	password := r.FormValue("password")
	if password == "" {
		time.Sleep(FailedLoginDelay)
		redirectWithError(w, r, "Password is required")
		return
	}

	if err := m.VerifyPassword(password); err != nil {
		m.RecordFailedAttempt(ip)
		time.Sleep(FailedLoginDelay)
		redirectWithError(w, r, "Invalid password")
		return
	}

	_, cookie, err := m.CreateSession()
	if err != nil {
		m.logger.Error("login failed to create session",
			zap.String("ip", ip),
			zap.Error(err),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	m.ResetRateLimit(ip)
	http.SetCookie(w, cookie)

	m.logger.Info("login successful", zap.String("ip", ip))

	// 303 so a refresh does not resubmit the form.
	http.Redirect(w, r, SuccessRedirect, http.StatusSeeOther)
}

func redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, LoginPath+"?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

// LoginHandler satisfies webui.AuthProvider.
func (m *AuthMiddleware) LoginHandler() http.HandlerFunc {
	return LoginHandler(m)
}

// Authenticate reports whether the request carries a valid session.
// Page handlers use this to redirect to the login form instead of
// returning a bare 401.
func (m *AuthMiddleware) Authenticate(r *http.Request) error {
	sessionID, err := ParseSessionCookie(r)
	if err != nil {
		return err
	}
	_, err = m.sessions.Get(sessionID)
	return err
}
