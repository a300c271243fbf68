// Package metrics holds the prometheus collectors for FinAlpha.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Analyses         *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	FetchErrors      *prometheus.CounterVec
	CacheRequests    *prometheus.CounterVec
	BreakerState     *prometheus.GaugeVec
	ScreenRuns       prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finalpha_analyses_total",
				Help: "Risk analyses by result (ok, no_data, insufficient_data, analysis)",
			},
			[]string{"result"},
		),
		AnalysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finalpha_analysis_duration_seconds",
				Help:    "Wall time of one analysis including the price fetch",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		FetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finalpha_fetch_errors_total",
				Help: "Price fetch failures by source",
			},
			[]string{"source"},
		),
		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finalpha_cache_requests_total",
				Help: "Price cache lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finalpha_breaker_state",
				Help: "Circuit breaker state per source (0 closed, 1 half-open, 2 open)",
			},
			[]string{"source"},
		),
		ScreenRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "finalpha_screen_runs_total",
				Help: "Completed low-risk screens",
			},
		),
	}

	m.registry.MustRegister(
		m.Analyses,
		m.AnalysisDuration,
		m.FetchErrors,
		m.CacheRequests,
		m.BreakerState,
		m.ScreenRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis records one analysis outcome. kind is "" on success.
func (m *Metrics) ObserveAnalysis(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "ok"
	}
	m.Analyses.WithLabelValues(kind).Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())
}

// FetchError counts a failed fetch from source.
func (m *Metrics) FetchError(source string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(source).Inc()
}

// CacheResult counts a cache hit or miss.
func (m *Metrics) CacheResult(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// SetBreakerState publishes the numeric breaker state for source.
func (m *Metrics) SetBreakerState(source string, state float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(source).Set(state)
}

// ScreenCompleted counts a finished screen.
func (m *Metrics) ScreenCompleted() {
	if m == nil {
		return
	}
	m.ScreenRuns.Inc()
}
