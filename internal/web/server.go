// Package web provides the HTTP API of the catalog import service.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/catalog-import/internal/config"
	"github.com/JonMunkholm/catalog-import/internal/importer"
	"github.com/JonMunkholm/catalog-import/internal/web/middleware"
)

// visitorIdle is how long a rate limiter bucket survives without traffic.
const visitorIdle = 10 * time.Minute

// ImportRunner runs spreadsheet imports. *importer.Importer implements it.
type ImportRunner interface {
	Run(ctx context.Context, up importer.Upload, opts importer.Options) (*importer.Report, error)
	Limiter() *importer.ImportLimiter
}

// Server is the HTTP server for the import API.
type Server struct {
	imports ImportRunner
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	apiLimiter    *middleware.RateLimiter
	importLimiter *middleware.RateLimiter
	stopPruning   context.CancelFunc
}

// NewServer creates a Server with middleware and routes installed.
func NewServer(imports ImportRunner, cfg *config.Config) *Server {
	s := &Server{
		imports: imports,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.apiLimiter = middleware.NewRateLimiter(cfg.Rate.RequestsPerMinute)
		s.importLimiter = middleware.NewRateLimiter(cfg.Rate.ImportLimit)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))
		if s.apiLimiter != nil {
			r.Use(s.apiLimiter.Handler)
		}

		r.Route("/products/import", func(r chi.Router) {
			r.Get("/template", s.handleTemplate)
			r.Get("/fields", s.handleFields)
			r.Get("/status", s.handleStatus)

			r.Group(func(r chi.Router) {
				if s.importLimiter != nil {
					r.Use(s.importLimiter.Handler)
				}
				r.Post("/validate", s.handleValidate)
				r.Post("/", s.handleImport)
			})
		})
	})
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopPruning = cancel
	for _, rl := range []*middleware.RateLimiter{s.apiLimiter, s.importLimiter} {
		if rl != nil {
			go rl.PruneEvery(ctx, time.Minute, visitorIdle)
		}
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopPruning != nil {
		s.stopPruning()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds hardening headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status. Encoding errors are
// only logged since the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
