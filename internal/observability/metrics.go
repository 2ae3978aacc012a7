// Package observability exposes Prometheus metrics for the generation pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Generation outcomes.
const (
	OutcomeDirect   = "direct"
	OutcomeEnhanced = "enhanced"
	OutcomeCached   = "cached"
	OutcomeFallback = "fallback"
)

// Metrics groups the pipeline collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	generations     *prometheus.CounterVec
	attempts        *prometheus.CounterVec
	retries         *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sp1assist",
			Name:      "generations_total",
			Help:      "Generation requests by scenario and outcome.",
		}, []string{"scenario", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sp1assist",
			Name:      "enhancement_attempts_total",
			Help:      "Upstream completion attempts by provider and result error type.",
		}, []string{"provider", "result"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sp1assist",
			Name:      "enhancement_retries_total",
			Help:      "Retries scheduled after an overloaded upstream.",
		}, []string{"provider"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sp1assist",
			Name:      "upstream_duration_seconds",
			Help:      "Latency of single upstream completion calls.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"provider"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sp1assist",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by result (hit or miss).",
		}, []string{"result"}),
	}

	reg.MustRegister(m.generations, m.attempts, m.retries, m.upstreamLatency, m.cacheLookups)
	return m
}

// Generation records one finished generation request.
func (m *Metrics) Generation(scenario, outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(scenario, outcome).Inc()
}

// Attempt records one upstream call; result is "success" or the error type.
func (m *Metrics) Attempt(provider, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(provider, result).Inc()
	m.upstreamLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// Retry records a scheduled retry.
func (m *Metrics) Retry(provider string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(provider).Inc()
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
