package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/movies"
)

// Server exposes the movie service over HTTP.
type Server struct {
	bind   string
	debug  bool
	logger *slog.Logger
	svc    *movies.Service

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New builds a server around the movie service.
func New(cfg *config.Config, svc *movies.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if svc == nil {
		return nil, errors.New("movie service is nil")
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil, errors.New("server bind address required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	srv := &Server{
		bind:   bind,
		debug:  cfg.Server.Debug,
		logger: logging.NewComponentLogger(logger, "http"),
		svc:    svc,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", srv.handleHealth)
	mux.HandleFunc("GET /api/movies", srv.handleListMovies)
	mux.HandleFunc("GET /api/movies/search", srv.handleSearch)
	mux.HandleFunc("GET /api/movies/quick-search", srv.handleQuickSearch)
	mux.HandleFunc("GET /api/movies/trending", srv.handleTrending)
	mux.HandleFunc("GET /api/movies/filter", srv.handleFilter)
	mux.HandleFunc("GET /api/movies/{id}", srv.handleMovieDetails)
	mux.HandleFunc("GET /api/movies/{id}/enhanced", srv.handleMovieEnhanced)
	mux.HandleFunc("GET /api/genres", srv.handleGenres)
	mux.HandleFunc("GET /api/genres/{id}/movies", srv.handleGenreMovies)
	mux.HandleFunc("GET /api/stats", srv.handleStats)
	mux.HandleFunc("POST /api/cache/clear", srv.handleCacheClear)

	srv.handler = srv.withRequestLogging(mux)
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler returns the request handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving and shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down immediately.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}
