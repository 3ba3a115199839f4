// Package jobs provides scheduled background tasks for the fulfillment service.
//
// Jobs are cron-based (github.com/robfig/cron/v3, six-field schedules with
// seconds) and are managed through JobManager:
//
//	jobManager := jobs.NewJobManager(
//		jobs.NewReconcilePaymentsJob(handler, cfg.ReconcileSchedule, cfg.ReconcileBatch, log, m),
//	)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Available Jobs
//
// ReconcilePaymentsJob re-drives the payment side effects of orders whose
// payment marker is failed or unknown. Gateway calls go through the same
// idempotency guard as the lifecycle commands, so a side effect that already
// reached the processor is never repeated. Overlapping runs are skipped.
//
// # Error Handling
//
// A failed run is logged and counted in fulfillment_job_runs_total; the next
// tick tries again. Panics inside a run are recovered by the cron chain.
package jobs
