package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analysis service.
type Metrics struct {
	AnalysesCompleted prometheus.Counter
	AnalysisFailures  prometheus.Counter
	AnalysisDuration  prometheus.Histogram
	SnapshotEvents    prometheus.Gauge
	SnapshotSkipped   prometheus.Counter
	AnalysesPublished prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests  *prometheus.CounterVec // labels: provider, outcome={success,error,no_result,unavailable}
	GeocodeFallbacks prometheus.Histogram   // providers tried before a lookup resolved
	GeocodeCache     *prometheus.CounterVec // labels: result={hit,miss}

	// Enrichment metrics.
	EnrichmentRequests *prometheus.CounterVec // labels: provider, outcome={success,error}
	NarrativeRequests  *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AnalysesCompleted,
		m.AnalysisFailures,
		m.AnalysisDuration,
		m.SnapshotEvents,
		m.SnapshotSkipped,
		m.AnalysesPublished,
		m.GeocodeRequests,
		m.GeocodeFallbacks,
		m.GeocodeCache,
		m.EnrichmentRequests,
		m.NarrativeRequests,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AnalysesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hailrisk",
			Name:      "analyses_completed_total",
			Help:      "Total zipcode analyses produced.",
		}),
		AnalysisFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hailrisk",
			Name:      "analysis_failures_total",
			Help:      "Total zipcode analyses that failed and were marked in batch output.",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hailrisk",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a single zipcode analysis.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SnapshotEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hailrisk",
			Name:      "snapshot_events",
			Help:      "Hail events loaded from the current snapshot.",
		}),
		SnapshotSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hailrisk",
			Name:      "snapshot_records_skipped_total",
			Help:      "Malformed snapshot records skipped during load.",
		}),
		AnalysesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hailrisk",
			Name:      "analyses_published_total",
			Help:      "Analyses published to the report sink topic.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hailrisk",
			Name:      "geocode_requests_total",
			Help:      "Reverse-geocode provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeocodeFallbacks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hailrisk",
			Name:      "geocode_fallback_depth",
			Help:      "Number of providers tried before a lookup resolved.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hailrisk",
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		EnrichmentRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hailrisk",
			Name:      "enrichment_requests_total",
			Help:      "Supplementary lookup calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		NarrativeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hailrisk",
			Name:      "narrative_requests_total",
			Help:      "Delegated narrative calls by outcome.",
		}, []string{"outcome"}),
	}
}
