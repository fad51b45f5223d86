package verifier

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/specverify/solver"
)

func TestNewMetricsNilRegisterer(t *testing.T) {
	m := NewMetrics(nil)
	assert.Nil(t, m)

	// The nil receiver must stay safe; the verifier calls these without
	// checking whether instrumentation is attached.
	m.observeVerdict("proved")
	m.observeSkip("quantifier depth exceeded")
	m.observeSolve(solver.Metrics{Elapsed: time.Second, TimedOut: true})
}

func TestMetricsObserveVerdict(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)

	m.observeVerdict("proved")
	m.observeVerdict("proved")
	m.observeVerdict("refuted")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.goalsTotal.WithLabelValues("proved")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.goalsTotal.WithLabelValues("refuted")))
}

func TestMetricsObserveSkip(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.observeSkip("quantifier depth exceeded")
	m.observeSkip("estimated node count exceeded")
	m.observeSkip("quantifier depth exceeded")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.skipsTotal.WithLabelValues("quantifier depth exceeded")))
}

func TestMetricsObserveSolveCountsTimeouts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.observeSolve(solver.Metrics{Elapsed: 10 * time.Millisecond, NodeCount: 40})
	assert.Equal(t, float64(0), testutil.ToFloat64(m.solverTimeouts))

	m.observeSolve(solver.Metrics{Elapsed: 30 * time.Second, NodeCount: 9000, TimedOut: true})
	assert.Equal(t, float64(1), testutil.ToFloat64(m.solverTimeouts))
}

func TestMetricsDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
