// package server contains the HTTP backend the matcher talks to: streaming search, playlist creation and
// catalog health, with middleware for CORS, logging and throttling.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ndx/internal/services"
	"github.com/desertthunder/ndx/internal/shared"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Server serves the ndx API over a [services.Catalog].
type Server struct {
	catalog  services.Catalog
	limiter  *rate.Limiter
	logger   *log.Logger
	origins  []string
	webDir   string
	version  string
	info     Info
	shutdown time.Duration
}

// Info is reported by GET /api/info.
type Info struct {
	Version   string `json:"version"`
	Catalog   string `json:"catalog"`
	ServerURL string `json:"serverUrl,omitempty"`
	User      string `json:"user,omitempty"`
}

// Options configures a [Server]. Zero values get defaults: no rate limit, all origins, no static files.
type Options struct {
	Catalog        services.Catalog
	Logger         *log.Logger
	AllowedOrigins []string
	WebDir         string
	Version        string
	// RateLimit is the number of catalog searches per second; zero disables throttling.
	RateLimit float64
	// CatalogURL and CatalogUser are reported by /api/info.
	CatalogURL  string
	CatalogUser string
}

// New creates a server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	name := ""
	if opts.Catalog != nil {
		name = opts.Catalog.Name()
	}

	return &Server{
		catalog:  opts.Catalog,
		limiter:  limiter,
		logger:   opts.Logger,
		origins:  opts.AllowedOrigins,
		webDir:   opts.WebDir,
		version:  opts.Version,
		shutdown: 5 * time.Second,
		info: Info{
			Version:   opts.Version,
			Catalog:   name,
			ServerURL: opts.CatalogURL,
			User:      opts.CatalogUser,
		},
	}
}

// Routes builds the router: the API under /api and, when a web directory exists, static files at /.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.logger))
	r.Use(CORS(s.origins))

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/generate", s.handleGenerate)
		r.Get("/ping", s.handlePing)
		r.Get("/info", s.handleInfo)
	})

	if s.webDir != "" {
		if info, err := os.Stat(s.webDir); err == nil && info.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(s.webDir)))
		} else {
			s.logger.Warn("web directory not found, static files disabled", "dir", s.webDir)
		}
	}
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr, "catalog", s.info.Catalog, "version", s.version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		s.logger.Info("shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}
