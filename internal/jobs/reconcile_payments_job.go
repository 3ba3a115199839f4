package jobs

import (
	"context"
	"fmt"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
)

const (
	ReconcilePaymentsJobName = "reconcile_payments"

	// DefaultReconcileSchedule runs the reconciliation every minute.
	DefaultReconcileSchedule = "0 * * * * *"

	runTimeout = 50 * time.Second
)

type ReconcileHandler interface {
	Handle(ctx context.Context, cmd commands.ReconcilePaymentsCommand) (commands.ReconcileReport, error)
}

// ReconcilePaymentsJob periodically re-drives orders whose payment marker
// is failed or unknown.
type ReconcilePaymentsJob struct {
	handler  ReconcileHandler
	schedule string
	batch    int
	cron     *cron.Cron
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewReconcilePaymentsJob takes a six-field cron schedule (with seconds).
// An overlapping run is skipped rather than queued.
func NewReconcilePaymentsJob(
	handler ReconcileHandler,
	schedule string,
	batch int,
	log *logger.Logger,
	m *metrics.Metrics,
) *ReconcilePaymentsJob {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}
	if log == nil {
		log = logger.Nop()
	}
	cl := cronLogger{log: log, ctx: log.WithField(context.Background(), "component", ReconcilePaymentsJobName)}

	return &ReconcilePaymentsJob{
		handler:  handler,
		schedule: schedule,
		batch:    batch,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:     log,
		metrics: m,
	}
}

func (j *ReconcilePaymentsJob) Name() string {
	return ReconcilePaymentsJobName
}

func (j *ReconcilePaymentsJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { _, _ = j.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("schedule %q: %w", j.schedule, err)
	}

	j.cron.Start()
	j.log.Info(context.Background(), fmt.Sprintf("reconcile payments job started (%s)", j.schedule))
	return nil
}

// Stop waits for a running reconciliation to finish.
func (j *ReconcilePaymentsJob) Stop() {
	<-j.cron.Stop().Done()
	j.log.Info(context.Background(), "reconcile payments job stopped")
}

// RunOnce performs a single reconciliation pass.
func (j *ReconcilePaymentsJob) RunOnce(ctx context.Context) (commands.ReconcileReport, error) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()
	ctx = j.log.WithField(ctx, "job", ReconcilePaymentsJobName)

	started := time.Now()
	report, err := j.run(ctx)
	j.metrics.JobRun(ReconcilePaymentsJobName, time.Since(started), err)

	if err != nil {
		j.log.Error(ctx, "reconcile payments failed", err)
		return report, err
	}
	if report.Scanned > 0 {
		ctx = j.log.WithFields(ctx, map[string]any{
			"scanned":   report.Scanned,
			"recovered": report.Recovered,
			"failed":    report.Failed,
			"skipped":   report.Skipped,
		})
		j.log.Info(ctx, "reconcile payments finished")
	}
	return report, nil
}

func (j *ReconcilePaymentsJob) run(ctx context.Context) (commands.ReconcileReport, error) {
	cmd, err := commands.NewReconcilePaymentsCommand(j.batch)
	if err != nil {
		return commands.ReconcileReport{}, err
	}
	return j.handler.Handle(ctx, cmd)
}

// cronLogger routes cron's own messages through the service logger.
type cronLogger struct {
	log *logger.Logger
	ctx context.Context
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(l.fields(keysAndValues), "cron: "+msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(l.fields(keysAndValues), "cron: "+msg, err)
}

func (l cronLogger) fields(keysAndValues []any) context.Context {
	if len(keysAndValues) < 2 {
		return l.ctx
	}
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.log.WithFields(l.ctx, fields)
}
