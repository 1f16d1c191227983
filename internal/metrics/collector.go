// Package metrics provides Prometheus metrics for go-cmd-watchdog.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector owns the watchdog metric families. One instance serves all
// sessions; series are labeled by job id.
type Collector struct {
	attempts        *prometheus.CounterVec
	retries         *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	started         *prometheus.GaugeVec
	externalRunning *prometheus.GaugeVec
	externalChanges *prometheus.CounterVec
}

// NewCollector creates and registers the metric families with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmd_watchdog_attempts_total",
				Help: "Spawn attempts by outcome",
			},
			[]string{"job", "outcome"},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmd_watchdog_retries_total",
				Help: "Retry backoffs scheduled",
			},
			[]string{"job"},
		),
		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cmd_watchdog_attempt_duration_seconds",
				Help:    "Wall time per spawn attempt",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"job"},
		),
		started: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cmd_watchdog_session_started",
				Help: "Whether the session has dispatched workers (1) or is stopped (0)",
			},
			[]string{"job"},
		),
		externalRunning: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cmd_watchdog_external_running",
				Help: "Last observed liveness of the external process",
			},
			[]string{"job"},
		),
		externalChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmd_watchdog_external_transitions_total",
				Help: "External liveness transitions observed",
			},
			[]string{"job"},
		),
	}
}

// AttemptDone records one finished spawn attempt.
func (c *Collector) AttemptDone(job string, success bool, uptime time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	c.attempts.WithLabelValues(job, outcome).Inc()
	c.attemptDuration.WithLabelValues(job).Observe(uptime.Seconds())
}

// RetryScheduled records one retry backoff.
func (c *Collector) RetryScheduled(job string) {
	c.retries.WithLabelValues(job).Inc()
}

// SetStarted records the session's dispatch state.
func (c *Collector) SetStarted(job string, started bool) {
	c.started.WithLabelValues(job).Set(boolGauge(started))
}

// ExternalTransition records an external liveness change.
func (c *Collector) ExternalTransition(job string, running bool) {
	c.externalRunning.WithLabelValues(job).Set(boolGauge(running))
	c.externalChanges.WithLabelValues(job).Inc()
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
