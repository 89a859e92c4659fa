package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playlister/internal/auth"
	"github.com/desertthunder/playlister/internal/services"
	"github.com/desertthunder/playlister/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, metrics, and rate limiting.
type Middleware func(http.Handler) http.Handler

// Route is one method and path pattern served by a [Handler].
type Route struct {
	Method  string
	Path    string // gorilla/mux pattern, e.g. /playlists/{id}
	Handler http.Handler
}

// Handler groups the routes of one resource.
type Handler interface {
	Routes() []Route // Routes returns the method/path pairs this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers every route of a [Handler]
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Deps are the collaborators the HTTP surface calls into.
type Deps struct {
	Accounts  services.Accounts
	Playlists services.Playlists
	Songs     services.Songs
	Issuer    *auth.Issuer
	Logger    *log.Logger
}

// Server is the REST API.
type Server struct {
	cfg    shared.ServerConfig
	router *MuxRouter
	logger *log.Logger
}

// New builds the router, middleware stack, and every route.
func New(cfg shared.ServerConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("http")

	router := NewMuxRouter()
	router.Use(
		Recover(logger),
		Logging(logger),
		Metrics(DefaultMetricsConfig()),
		RateLimit(cfg.RateLimit, cfg.RateBurst, cfg.TrustProxy),
		Authenticate(deps.Issuer),
	)

	router.Handler(&HealthHandler{})
	router.Handler(NewAuthHandler(deps.Accounts, logger))
	router.Handler(NewPlaylistHandler(deps.Playlists, logger))
	router.Handler(NewSongHandler(deps.Songs, logger))
	router.Mount("/metrics", MetricsHandler())

	return &Server{cfg: cfg, router: router, logger: logger}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
