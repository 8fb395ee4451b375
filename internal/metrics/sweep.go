package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_sweep_runs_total",
		Help: "Expiration sweeps executed",
	})

	SweepExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_sweep_expired_total",
		Help: "Bookings expired by the sweeper",
	})

	SweepFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_sweep_failures_total",
		Help: "Sweep failures by scope (batch or booking)",
	}, []string{"scope"})

	SweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reservation_sweep_duration_seconds",
		Help:    "Wall time of a single expiration sweep",
		Buckets: prometheus.DefBuckets,
	})
)

func ObserveSweep(expired int, d time.Duration) {
	SweepRunsTotal.Inc()
	SweepExpiredTotal.Add(float64(expired))
	SweepDurationSeconds.Observe(d.Seconds())
}

// IncSweepFailure records a failed sweep. scope is "batch" when the whole
// run degraded to zero and "booking" for an isolated per-booking failure.
func IncSweepFailure(scope string) {
	SweepFailuresTotal.WithLabelValues(scope).Inc()
}
