// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the paper set and the ingestion admin operations
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/arxiv-radar/internal/arxiv"
	"github.com/pdiddy/arxiv-radar/internal/httputil"
	"github.com/pdiddy/arxiv-radar/internal/ingest"
	"github.com/pdiddy/arxiv-radar/internal/observability"
	"github.com/pdiddy/arxiv-radar/internal/store"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// Rebuilder runs window rebuilds.
type Rebuilder interface {
	RebuildRecentNDays(ctx context.Context, opts ingest.RebuildOptions) (ingest.RebuildResult, error)
	DefaultOptions() ingest.RebuildOptions
}

// PaperStore serves the persisted paper set.
type PaperStore interface {
	ReadPaperSet(ctx context.Context) ([]types.Paper, error)
	ReadRunMetadata(ctx context.Context) (types.RunMetadata, error)
	FindPaper(ctx context.Context, id string) (types.Paper, error)
	Repair(ctx context.Context) (store.RepairReport, error)
}

// Diagnostics probes the upstream for the admin routes.
type Diagnostics interface {
	CompareClock(ctx context.Context) arxiv.ClockDrift
	PingAPI(ctx context.Context, category string, policy httputil.RetryPolicy) (arxiv.PingReport, error)
	PingHTML(ctx context.Context, policy httputil.RetryPolicy) (arxiv.PingReport, error)
	FetchListingIDs(ctx context.Context) (arxiv.Listing, error)
}

// Deps are the components the server routes to. Gatherer may be nil, in
// which case /metrics is not mounted.
type Deps struct {
	Rebuilder   Rebuilder
	Papers      PaperStore
	Diagnostics Diagnostics
	Gatherer    prometheus.Gatherer

	// PingPolicy is the 429 schedule for /api/admin/ping.
	PingPolicy httputil.RetryPolicy
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	deps       Deps
	log        zerolog.Logger
	now        func() time.Time

	// rebuildMu serializes rebuilds; a second trigger is refused, not queued.
	rebuildMu sync.Mutex
}

// New creates a server listening on cfg.Addr.
func New(cfg types.ServerConfig, deps Deps, log zerolog.Logger) *Server {
	s := &Server{
		deps: deps,
		log:  observability.Component(log, "http"),
		now:  time.Now,
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	if s.deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/meta", s.getMeta)
		r.Get("/papers", s.listPapers)
		r.Get("/papers/*", s.getPaper)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/rebuild", s.rebuild)
			r.Post("/rebuild", s.rebuild)
			r.Post("/repair", s.repair)
			r.Get("/clock", s.clock)
			r.Get("/ping", s.ping)
			r.Get("/debug-html", s.debugHTML)
		})
	})

	return r
}

// Start listens and serves until Shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": message})
}
