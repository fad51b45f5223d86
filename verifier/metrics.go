package verifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/c360studio/specverify/solver"
)

// Metrics instruments a verifier. Registration happens against an injected
// registerer so tests can use a private registry instead of the global one.
type Metrics struct {
	// goalsTotal counts terminal verdicts.
	// Labels: verdict (proved, refuted, unknown, skipped, errored, encoding_failed)
	goalsTotal *prometheus.CounterVec

	// solveDuration measures wall-clock solver time per query.
	solveDuration prometheus.Histogram

	// queryNodes tracks serialized formula sizes.
	queryNodes prometheus.Histogram

	// skipsTotal counts pre-flight skips by reason.
	skipsTotal *prometheus.CounterVec

	// solverTimeouts counts watchdog kills.
	solverTimeouts prometheus.Counter
}

// NewMetrics registers the verifier's metrics on reg. A nil registerer
// disables instrumentation entirely.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)
	return &Metrics{
		goalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "specverify",
			Subsystem: "verifier",
			Name:      "goals_total",
			Help:      "Terminal goal verdicts",
		}, []string{"verdict"}),
		solveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "specverify",
			Subsystem: "solver",
			Name:      "duration_seconds",
			Help:      "Wall-clock solver time per query",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 300},
		}),
		queryNodes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "specverify",
			Subsystem: "solver",
			Name:      "query_nodes",
			Help:      "Serialized formula node count per query",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000, 100000},
		}),
		skipsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "specverify",
			Subsystem: "verifier",
			Name:      "skips_total",
			Help:      "Goals skipped by the complexity gate",
		}, []string{"reason"}),
		solverTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "specverify",
			Subsystem: "solver",
			Name:      "timeouts_total",
			Help:      "Solver processes killed by the watchdog",
		}),
	}
}

func (m *Metrics) observeVerdict(verdict string) {
	if m == nil {
		return
	}
	m.goalsTotal.WithLabelValues(verdict).Inc()
}

func (m *Metrics) observeSkip(reason string) {
	if m == nil {
		return
	}
	m.skipsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeSolve(qm solver.Metrics) {
	if m == nil {
		return
	}
	m.solveDuration.Observe(qm.Elapsed.Seconds())
	m.queryNodes.Observe(float64(qm.NodeCount))
	if qm.TimedOut {
		m.solverTimeouts.Inc()
	}
}
