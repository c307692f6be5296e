package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// exposure dashboard engine.
type Metrics struct {
	// Dataset loading metrics.
	DatasetLoadDuration *prometheus.HistogramVec // labels: source={countries,plants,boundaries}
	RecordsLoaded       *prometheus.CounterVec   // labels: source={countries,plants,boundaries}
	BoundaryFeatures    *prometheus.CounterVec   // labels: result={resolved,unresolved}

	// View and playback metrics.
	StateTransitions       *prometheus.CounterVec // labels: field={year,buffer,entity,overlay,mode}
	FrameRecomputeDuration prometheus.Histogram
	PlaybackTicks          prometheus.Counter
	PlaybackRunning        prometheus.Gauge

	// Query metrics.
	QueryRequests *prometheus.CounterVec // labels: op
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DatasetLoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "exposure",
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of a single source fetch-decode-parse cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		RecordsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exposure",
			Name:      "records_loaded_total",
			Help:      "Records accepted from each source during load.",
		}, []string{"source"}),
		BoundaryFeatures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exposure",
			Name:      "boundary_features_total",
			Help:      "Boundary features by identifier resolution result.",
		}, []string{"result"}),
		StateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exposure",
			Name:      "state_transitions_total",
			Help:      "Accepted view state changes by field.",
		}, []string{"field"}),
		FrameRecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "exposure",
			Name:      "frame_recompute_duration_seconds",
			Help:      "Duration of a full render frame recomputation.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		PlaybackTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exposure",
			Name:      "playback_ticks_total",
			Help:      "Year advances driven by the playback timer.",
		}),
		PlaybackRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "exposure",
			Name:      "playback_running",
			Help:      "1 when playback is active, 0 when stopped.",
		}),
		QueryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exposure",
			Name:      "query_requests_total",
			Help:      "Read queries served, by operation.",
		}, []string{"op"}),
	}

	prometheus.MustRegister(
		m.DatasetLoadDuration,
		m.RecordsLoaded,
		m.BoundaryFeatures,
		m.StateTransitions,
		m.FrameRecomputeDuration,
		m.PlaybackTicks,
		m.PlaybackRunning,
		m.QueryRequests,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DatasetLoadDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "exposure", Name: "dataset_load_duration_seconds"}, []string{"source"}),
		RecordsLoaded:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "exposure", Name: "records_loaded_total"}, []string{"source"}),
		BoundaryFeatures:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "exposure", Name: "boundary_features_total"}, []string{"result"}),
		StateTransitions:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "exposure", Name: "state_transitions_total"}, []string{"field"}),
		FrameRecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "exposure", Name: "frame_recompute_duration_seconds"}),
		PlaybackTicks:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "exposure", Name: "playback_ticks_total"}),
		PlaybackRunning:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "exposure", Name: "playback_running"}),
		QueryRequests:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "exposure", Name: "query_requests_total"}, []string{"op"}),
	}
}
