package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/german-heritage-map/internal/adapter/geojson"
	"github.com/couchcryptid/german-heritage-map/internal/domain"
	"github.com/couchcryptid/german-heritage-map/internal/source"
	"github.com/couchcryptid/german-heritage-map/internal/store"
)

const contentTypeGeoJSON = "application/geo+json"

type storeHandler func(w http.ResponseWriter, r *http.Request, st *store.Store)

type markersResponse struct {
	Total     int             `json:"total"`
	Count     int             `json:"count"`
	TopCounty string          `json:"top_county"`
	Markers   []domain.Marker `json:"markers"`
}

type statsResponse struct {
	Markers  int               `json:"markers"`
	Digest   string            `json:"digest"`
	LoadedAt time.Time         `json:"loaded_at"`
	Report   domain.LoadReport `json:"report"`
	View     domain.MapView    `json:"default_view"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// withStore rejects requests with 503 until a store has been published.
func (s *Server) withStore(next storeHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := s.markers.Current()
		if st == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "markers not loaded"})
			return
		}
		next(w, r, st)
	}
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request, st *store.Store) {
	res := s.query(r, st)
	writeJSON(w, http.StatusOK, markersResponse{
		Total:     res.Total,
		Count:     len(res.Markers),
		TopCounty: res.TopCounty,
		Markers:   res.Markers,
	})
}

func (s *Server) handleMarkersGeoJSON(w http.ResponseWriter, r *http.Request, st *store.Store) {
	data, err := geojson.Marshal(s.query(r, st).Markers)
	if err != nil {
		s.logger.Error("encode geojson", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "encode geojson"})
		return
	}
	w.Header().Set("Content-Type", contentTypeGeoJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request, _ *store.Store) {
	categories := make([]string, 0, len(domain.Categories)+1)
	categories = append(categories, domain.CategoryAll)
	categories = append(categories, domain.Categories...)
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request, st *store.Store) {
	writeJSON(w, http.StatusOK, statsResponse{
		Markers:  st.Count(),
		Digest:   st.Digest(),
		LoadedAt: st.LoadedAt(),
		Report:   st.Report(),
		View:     domain.DefaultView,
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	st, err := s.markers.Reload(r.Context())
	if err != nil {
		s.logger.Warn("reload failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, source.ErrSourceUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	s.handleStats(w, r, st)
}

func (s *Server) query(r *http.Request, st *store.Store) domain.Result {
	q := parseQuery(r.URL.Query(), s.defaults)
	res := st.Select(q)
	s.metrics.Queries.Inc()
	s.metrics.QueryResults.Observe(float64(len(res.Markers)))
	return res
}

// parseQuery builds a marker query from request parameters. Absent or
// malformed values fall back to the defaults; a request is never rejected.
// A requested limit never exceeds the configured one.
func parseQuery(v url.Values, defaults QueryDefaults) domain.Query {
	return domain.Query{
		Years: domain.YearRange{
			Min: intParam(v, "min_year", defaults.Years.Min),
			Max: intParam(v, "max_year", defaults.Years.Max),
		},
		Category: v.Get("category"),
		Search:   v.Get("q"),
		Limit:    clampLimit(positiveIntParam(v, "limit", defaults.Limit), defaults.Limit),
	}
}

func clampLimit(requested, limit int) int {
	if limit > 0 && requested > limit {
		return limit
	}
	return requested
}

func intParam(v url.Values, key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v.Get(key)))
	if err != nil {
		return def
	}
	return n
}

func positiveIntParam(v url.Values, key string, def int) int {
	if n := intParam(v, key, def); n > 0 {
		return n
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
