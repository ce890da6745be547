package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// MetricsRegistry holds all Prometheus metrics for the evaluation service.
// It owns a private registry so tests can build as many as they like
// without duplicate-registration panics.
type MetricsRegistry struct {
	registry *prometheus.Registry

	EvalDuration *prometheus.HistogramVec
	Evaluations  *prometheus.CounterVec
	EvalErrors   *prometheus.CounterVec

	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	CacheHitRatio prometheus.Gauge

	ActiveStreams prometheus.Gauge
	HTTPRequests  *prometheus.CounterVec
}

// NewMetricsRegistry creates and registers all service metrics.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		registry: prometheus.NewRegistry(),

		EvalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookrun_eval_duration_seconds",
				Help:    "Duration of one full book evaluation in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"decision"},
		),

		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookrun_evaluations_total",
				Help: "Total evaluations completed by decision and score label",
			},
			[]string{"decision", "label"},
		),

		EvalErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookrun_eval_errors_total",
				Help: "Total evaluation failures by error type",
			},
			[]string{"error_type"},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookrun_cache_hits_total",
				Help: "Total evaluation cache hits by cache type",
			},
			[]string{"cache_type"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookrun_cache_misses_total",
				Help: "Total evaluation cache misses by cache type",
			},
			[]string{"cache_type"},
		),

		CacheHitRatio: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bookrun_cache_hit_ratio",
				Help: "Current evaluation cache hit ratio (0.0 to 1.0)",
			},
		),

		ActiveStreams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bookrun_active_streams",
				Help: "Number of connected evaluation stream clients",
			},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookrun_http_requests_total",
				Help: "Total HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),
	}

	m.registry.MustRegister(
		m.EvalDuration,
		m.Evaluations,
		m.EvalErrors,
		m.CacheHits,
		m.CacheMisses,
		m.CacheHitRatio,
		m.ActiveStreams,
		m.HTTPRequests,
	)

	return m
}

const evalCacheType = "evaluation"

// RecordCacheHit counts a hit and refreshes the ratio gauge.
func (m *MetricsRegistry) RecordCacheHit() {
	m.CacheHits.WithLabelValues(evalCacheType).Inc()
	m.updateCacheHitRatio()
}

// RecordCacheMiss counts a miss and refreshes the ratio gauge.
func (m *MetricsRegistry) RecordCacheMiss() {
	m.CacheMisses.WithLabelValues(evalCacheType).Inc()
	m.updateCacheHitRatio()
}

func (m *MetricsRegistry) updateCacheHitRatio() {
	var hits, misses float64

	sample := &dto.Metric{}
	if c, err := m.CacheHits.GetMetricWithLabelValues(evalCacheType); err == nil {
		if err := c.Write(sample); err == nil {
			hits = sample.GetCounter().GetValue()
		}
	}
	if c, err := m.CacheMisses.GetMetricWithLabelValues(evalCacheType); err == nil {
		if err := c.Write(sample); err == nil {
			misses = sample.GetCounter().GetValue()
		}
	}

	if total := hits + misses; total > 0 {
		m.CacheHitRatio.Set(hits / total)
	}
}

// RecordEvaluation counts a finished evaluation and its latency.
func (m *MetricsRegistry) RecordEvaluation(decision, label string, seconds float64) {
	m.Evaluations.WithLabelValues(decision, label).Inc()
	m.EvalDuration.WithLabelValues(decision).Observe(seconds)
}

// Handler serves the registry in Prometheus exposition format.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
