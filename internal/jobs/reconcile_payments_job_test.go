package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/jobs"
	"fulfillment/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReconcileHandler struct {
	mock.Mock
}

func (m *MockReconcileHandler) Handle(ctx context.Context, cmd commands.ReconcilePaymentsCommand) (commands.ReconcileReport, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.ReconcileReport), args.Error(1)
}

func jobRuns(t *testing.T, reg *prometheus.Registry, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "fulfillment_job_runs_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestReconcilePaymentsJob_RunOnce(t *testing.T) {
	handler := new(MockReconcileHandler)
	reg := prometheus.NewRegistry()
	job := jobs.NewReconcilePaymentsJob(handler, "", 25, nil, metrics.New(reg))

	want := commands.ReconcileReport{Scanned: 3, Recovered: 1, Failed: 1, Skipped: 1}
	handler.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.ReconcilePaymentsCommand) bool {
		return cmd.Limit() == 25
	})).Return(want, nil).Once()

	report, err := job.RunOnce(t.Context())

	require.NoError(t, err)
	assert.Equal(t, want, report)
	assert.InDelta(t, 1.0, jobRuns(t, reg, "success"), 0)
	handler.AssertExpectations(t)
}

func TestReconcilePaymentsJob_RunOnceFailure(t *testing.T) {
	handler := new(MockReconcileHandler)
	reg := prometheus.NewRegistry()
	job := jobs.NewReconcilePaymentsJob(handler, "", 0, nil, metrics.New(reg))

	handler.On("Handle", mock.Anything, mock.Anything).
		Return(commands.ReconcileReport{}, errors.New("db down")).Once()

	_, err := job.RunOnce(t.Context())

	require.EqualError(t, err, "db down")
	assert.InDelta(t, 1.0, jobRuns(t, reg, "failure"), 0)
}

func TestReconcilePaymentsJob_RunsOnSchedule(t *testing.T) {
	handler := new(MockReconcileHandler)
	ran := make(chan struct{}, 1)
	handler.On("Handle", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case ran <- struct{}{}:
			default:
			}
		}).
		Return(commands.ReconcileReport{}, nil)

	job := jobs.NewReconcilePaymentsJob(handler, "* * * * * *", 10, nil, nil)
	require.NoError(t, job.Start())
	defer job.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestReconcilePaymentsJob_InvalidSchedule(t *testing.T) {
	job := jobs.NewReconcilePaymentsJob(new(MockReconcileHandler), "every minute", 10, nil, nil)

	require.Error(t, job.Start())
}
