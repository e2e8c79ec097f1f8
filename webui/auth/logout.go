package auth

import (
	"net/http"

	"go.uber.org/zap"
)

// LogoutHandler serves /logout. It destroys the session if one exists,
// clears the cookie, and redirects to the login page. Calling it without
// a session is not an error.
func LogoutHandler(m *AuthMiddleware) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		if sessionID, err := ParseSessionCookie(r); err == nil {
			m.DestroySession(sessionID)
			m.logger.Info("logout",
				zap.String("session_id", sessionID[:min(8, len(sessionID))]+"..."),
				zap.String("ip", clientIP(r)),
			)
		}

		http.SetCookie(w, ClearSessionCookie())

		// 303 for POST so the browser does not resubmit.
		code := http.StatusFound
		if r.Method == http.MethodPost {
			code = http.StatusSeeOther
		}
		http.Redirect(w, r, LoginPath, code)
	}
}

// LogoutHandler satisfies webui.AuthProvider.
func (m *AuthMiddleware) LogoutHandler() http.HandlerFunc {
	return LogoutHandler(m)
}
