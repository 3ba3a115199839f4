// Package metrics holds the Prometheus collectors of the fulfillment service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fulfillment"

// Outcome labels for transition counters.
const (
	OutcomeCommitted = "committed"
	OutcomeReplayed  = "replayed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Metrics records coordinator, estimator and job activity. A nil *Metrics
// or one built without a registerer is a no-op.
type Metrics struct {
	transitions *prometheus.CounterVec
	warnings    *prometheus.CounterVec
	fallbacks   prometheus.Counter
	retries     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	jobRuns     *prometheus.CounterVec
	feedClients prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}

	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order lifecycle operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_warnings_total",
			Help:      "Post-commit side effects that failed, by kind.",
		}, []string{"kind"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimate_fallbacks_total",
			Help:      "Delivery estimates computed without the routing provider.",
		}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_retries_total",
			Help:      "Store transactions retried after a transient failure.",
		}, []string{"operation"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of cron jobs in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Cron job executions by result.",
		}, []string{"job", "result"}),
		feedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_clients",
			Help:      "Connected order feed websocket clients.",
		}),
	}

	reg.MustRegister(m.transitions, m.warnings, m.fallbacks, m.retries, m.jobDuration, m.jobRuns, m.feedClients)
	return m
}

func (m *Metrics) Transition(operation, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

func (m *Metrics) Warning(kind string) {
	if m == nil || m.warnings == nil {
		return
	}
	m.warnings.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) EstimateFallback() {
	if m == nil || m.fallbacks == nil {
		return
	}
	m.fallbacks.Inc()
}

func (m *Metrics) Retry(operation string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}

// JobRun records one execution of a cron job.
func (m *Metrics) JobRun(job string, duration time.Duration, err error) {
	if m == nil || m.jobRuns == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.jobDuration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
	m.jobRuns.WithLabelValues(normalizeLabel(job), result).Inc()
}

func (m *Metrics) FeedClients(delta int) {
	if m == nil || m.feedClients == nil {
		return
	}
	m.feedClients.Add(float64(delta))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
