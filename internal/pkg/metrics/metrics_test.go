package metrics_test

import (
	"errors"
	"testing"
	"time"

	"fulfillment/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.Transition("AcceptOrder", metrics.OutcomeCommitted)
	m.Transition("AcceptOrder", metrics.OutcomeRejected)
	m.Transition("AcceptOrder", metrics.OutcomeRejected)
	m.Warning("payment_gateway_failure")
	m.EstimateFallback()
	m.Retry("")
	m.JobRun("reconcile_payments", time.Second, errors.New("boom"))
	m.FeedClients(2)
	m.FeedClients(-1)

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]int{}
	var feedClients float64
	for _, f := range families {
		byName[f.GetName()] = len(f.GetMetric())
		if f.GetName() == "fulfillment_feed_clients" {
			feedClients = f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, 2, byName["fulfillment_order_transitions_total"])
	assert.Equal(t, 1, byName["fulfillment_side_effect_warnings_total"])
	assert.Equal(t, 1, byName["fulfillment_store_retries_total"])
	assert.Equal(t, 1, byName["fulfillment_job_runs_total"])

	assert.InDelta(t, 1.0, feedClients, 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.Transition("MarkReady", metrics.OutcomeCommitted)
		m.Warning("insufficient_stock")
		m.EstimateFallback()
		m.JobRun("job", time.Second, nil)
		m.FeedClients(1)
	})

	unregistered := metrics.New(nil)
	assert.NotPanics(t, func() { unregistered.Retry("AcceptOrder") })
}
