package commands

import (
	"context"

	"fulfillment/internal/pkg/errs"
)

const defaultReconcileBatch = 100

type ReconcilePaymentsCommand struct {
	limit int
}

// NewReconcilePaymentsCommand builds a run over at most limit orders;
// limit <= 0 means the default batch.
func NewReconcilePaymentsCommand(limit int) (ReconcilePaymentsCommand, error) {
	if limit < 0 {
		return ReconcilePaymentsCommand{}, errs.NewValueIsOutOfRangeError("limit", limit, 0, "inf")
	}
	if limit == 0 {
		limit = defaultReconcileBatch
	}
	return ReconcilePaymentsCommand{limit: limit}, nil
}

func (c ReconcilePaymentsCommand) Limit() int {
	return c.limit
}

// ReconcileReport counts what one reconciliation run did.
type ReconcileReport struct {
	Scanned   int
	Recovered int
	Failed    int
	Skipped   int
}

// ReconcilePaymentsCommandHandler re-drives the payment side effects of
// orders whose marker is failed or unknown. Fulfillment state is never
// touched.
type ReconcilePaymentsCommandHandler struct {
	uowFactory OrderUoWFactory
	payments   *PaymentRunner
	env        Env
}

// NewReconcilePaymentsCommandHandler creates the handler run by the
// reconciliation job.
func NewReconcilePaymentsCommandHandler(uowFactory OrderUoWFactory, payments *PaymentRunner, env Env) ReconcilePaymentsCommandHandler {
	return ReconcilePaymentsCommandHandler{
		uowFactory: uowFactory,
		payments:   payments,
		env:        env.withDefaults(),
	}
}

// Handle replays the owed payment operations of up to cmd.Limit() orders.
// Per-order failures are counted in the report; only a failed listing is
// returned as an error.
func (h *ReconcilePaymentsCommandHandler) Handle(ctx context.Context, cmd ReconcilePaymentsCommand) (ReconcileReport, error) {
	limit := cmd.Limit()
	if limit <= 0 {
		limit = defaultReconcileBatch
	}

	orders, err := h.uowFactory.Create().OrderRepository().ListPaymentsToReconcile(ctx, limit)
	if err != nil {
		return ReconcileReport{}, err
	}

	report := ReconcileReport{Scanned: len(orders)}
	for _, o := range orders {
		octx := h.env.Log.WithOrderID(ctx, o.ID().String())

		ops := PaymentOpsFor(o.Status())
		if len(ops) == 0 {
			report.Skipped++
			h.env.Log.Info(h.env.Log.WithField(octx, "status", o.Status().String()), "no payment operation owed")
			continue
		}

		if w := h.payments.Run(octx, o, ops...); w != nil {
			report.Failed++
			h.env.Metrics.Warning(string(w.Kind))
			h.env.Log.Info(h.env.Log.WithField(octx, "reason", w.Message), "payment still unreconciled")
			continue
		}
		report.Recovered++
	}

	return report, nil
}
