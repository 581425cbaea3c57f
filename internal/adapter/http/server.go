package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/german-heritage-map/internal/domain"
	"github.com/couchcryptid/german-heritage-map/internal/observability"
	"github.com/couchcryptid/german-heritage-map/internal/store"
)

// MarkerSource is the live marker store and its loader.
type MarkerSource interface {
	sharedobs.ReadinessChecker
	Current() *store.Store
	Reload(ctx context.Context) (*store.Store, error)
}

// QueryDefaults apply when a request omits a filter or sends one that does
// not parse.
type QueryDefaults struct {
	Years domain.YearRange
	Limit int
}

// Server exposes the marker API alongside health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	markers    MarkerSource
	defaults   QueryDefaults
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /api marker routes.
func NewServer(addr string, markers MarkerSource, defaults QueryDefaults, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		markers:  markers,
		defaults: defaults,
		metrics:  metrics,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(markers))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/markers", s.withStore(s.handleMarkers))
	mux.HandleFunc("GET /api/markers.geojson", s.withStore(s.handleMarkersGeoJSON))
	mux.HandleFunc("GET /api/categories", s.withStore(s.handleCategories))
	mux.HandleFunc("GET /api/stats", s.withStore(s.handleStats))
	mux.HandleFunc("POST /api/reload", s.handleReload)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
