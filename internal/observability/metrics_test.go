package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Generation("game-score", OutcomeEnhanced)
	m.Generation("game-score", OutcomeEnhanced)
	m.Generation("data-processing", OutcomeFallback)
	m.Attempt("anthropic", "overloaded_error", time.Second)
	m.Attempt("anthropic", "success", 2*time.Second)
	m.Retry("anthropic")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.generations.WithLabelValues("game-score", OutcomeEnhanced)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("data-processing", OutcomeFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("anthropic", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries.WithLabelValues("anthropic")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.upstreamLatency))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Generation("game-score", OutcomeDirect)
		m.Attempt("openai", "success", time.Second)
		m.Retry("openai")
		m.CacheLookup(true)
	})
}
