package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "heritage"

// Metrics holds the Prometheus counters, histograms, and gauges for loading
// and querying markers.
type Metrics struct {
	Loads            *prometheus.CounterVec // labels: outcome={fresh,cached,error}
	LoadDuration     prometheus.Histogram
	SourceRows       prometheus.Gauge
	MarkersLoaded    prometheus.Gauge
	RecordsExcluded  *prometheus.GaugeVec // labels: reason
	YearsUnknown     prometheus.Gauge
	OverridesApplied prometheus.Gauge

	Queries      prometheus.Counter
	QueryResults prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	SnapshotsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Source load attempts by outcome.",
		}, []string{"outcome"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a full read-normalize-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SourceRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_rows",
			Help:      "Rows read from the source by the last fresh load.",
		}),
		MarkersLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "markers_loaded",
			Help:      "Markers in the published store.",
		}),
		RecordsExcluded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_excluded",
			Help:      "Rows excluded by the last fresh load, by reason.",
		}, []string{"reason"}),
		YearsUnknown: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "years_unknown",
			Help:      "Published markers without a usable establishment year.",
		}),
		OverridesApplied: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overrides_applied",
			Help:      "Published markers positioned by a manual override.",
		}),
		Queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Marker queries served.",
		}),
		QueryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_results",
			Help:      "Markers returned per query after the result cap.",
			Buckets:   []float64{0, 1, 10, 50, 100, 250, 500, 1000, 2000},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when the geocoding fallback is enabled, 0 otherwise.",
		}),
		SnapshotsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Store snapshots written to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Loads,
		m.LoadDuration,
		m.SourceRows,
		m.MarkersLoaded,
		m.RecordsExcluded,
		m.YearsUnknown,
		m.OverridesApplied,
		m.Queries,
		m.QueryResults,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.SnapshotsPublished,
	}
}
