package automation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"autoblog/internal/core"
)

// Metrics records run outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	RunsTotal     *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	RunInProgress prometheus.Gauge
}

// NewMetrics creates the run collectors and registers them with reg when it
// is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoblog_runs_total",
			Help: "Automation runs by final status.",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "autoblog_run_duration_seconds",
			Help:    "Wall time of automation runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		RunInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autoblog_run_in_progress",
			Help: "1 while an automation run is executing.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RunsTotal, m.RunDuration, m.RunInProgress)
	}
	return m
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(status core.RunStatus, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(string(status)).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}

// SetInProgress flips the in-progress gauge.
func (m *Metrics) SetInProgress(active bool) {
	if m == nil {
		return
	}
	if active {
		m.RunInProgress.Set(1)
		return
	}
	m.RunInProgress.Set(0)
}
