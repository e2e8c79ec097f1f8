package webui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pano_backend/logging"
	"pano_backend/webui/static"
)

// AuthProvider is implemented by auth.AuthMiddleware. The interface keeps
// the server decoupled from the auth package, which imports this one.
type AuthProvider interface {
	// Middleware wraps an http.Handler, rejecting requests without a
	// valid session with a 401.
	Middleware(next http.Handler) http.Handler
	// Authenticate reports whether the request carries a valid session.
	Authenticate(r *http.Request) error
	// LoginHandler serves the /login endpoint.
	LoginHandler() http.HandlerFunc
	// LogoutHandler serves the /logout endpoint.
	LogoutHandler() http.HandlerFunc
}

// Server wires the generation API, the WebSocket broadcaster, the embedded
// UI, and optional authentication into one HTTP server.
type Server struct {
	httpServer  *http.Server
	mux         *http.ServeMux
	config      ServerConfig
	logger      *logging.Logger
	auth        AuthProvider
	loggingMw   *LoggingMiddleware
	api         *API
	broadcaster *Broadcaster
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// OutputsDir, when set, is served read-only under /outputs/ so saved
	// panoramas can be fetched after the fact.
	OutputsDir string

	// LogSkipPaths are exempt from request logging. The WebSocket path
	// must stay in this list: the logging wrapper does not support
	// connection hijacking.
	LogSkipPaths []string
}

// DefaultServerConfig returns the default server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8000,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    5 * time.Minute,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		LogSkipPaths:    []string{"/health", "/api/status", "/ws"},
	}
}

// NewServer assembles the server. auth may be nil for an open instance.
func NewServer(config ServerConfig, api *API, broadcaster *Broadcaster, auth AuthProvider, logger *logging.Logger) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		config:      config,
		logger:      logger.Named("webui"),
		auth:        auth,
		loggingMw:   NewLoggingMiddleware(logger, config.LogSkipPaths),
		api:         api,
		broadcaster: broadcaster,
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.loggingMw.Wrap(s.mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	s.logger.Info("server configured",
		zap.String("addr", addr),
		zap.Bool("auth_enabled", auth != nil),
	)
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.api.HandleHealth)
	s.mux.HandleFunc("/api/status", s.api.HandleStatus)
	s.mux.HandleFunc("/api/modes", s.api.HandleModes)
	s.mux.HandleFunc("/api/generate", s.protect(s.api.HandleGenerate))
	s.mux.HandleFunc("/ws", s.broadcaster.HandleWS)
	s.mux.HandleFunc("/", s.handleIndex)

	if s.config.OutputsDir != "" {
		files := http.StripPrefix("/outputs/", http.FileServer(http.Dir(s.config.OutputsDir)))
		s.mux.Handle("/outputs/", s.protectHandler(files))
	}

	if s.auth != nil {
		s.mux.HandleFunc("/login", s.auth.LoginHandler())
		s.mux.HandleFunc("/logout", s.auth.LogoutHandler())
	}
}

// protect applies auth to an API handler when auth is enabled.
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	if s.auth == nil {
		return next
	}
	return s.auth.Middleware(next).ServeHTTP
}

func (s *Server) protectHandler(next http.Handler) http.Handler {
	if s.auth == nil {
		return next
	}
	return s.auth.Middleware(next)
}

// handleIndex serves the embedded UI. Unauthenticated browsers are sent
// to the login form rather than handed a 401.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.auth != nil && s.auth.Authenticate(r) != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	page, err := static.ReadFile("index.html")
	if err != nil {
		s.logger.Error("embedded index missing", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// Start listens for requests and blocks until Shutdown is called or the
// listener fails.
func (s *Server) Start() error {
	s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and closes WebSocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if s.broadcaster != nil {
		s.broadcaster.Close()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown error: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
