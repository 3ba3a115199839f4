package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// MarkDeliveredCommandHandler completes an order. The ledger entry is
// finalized and the driver's totals incremented in the same transaction;
// the driver's earnings are transferred after commit.
type MarkDeliveredCommandHandler struct {
	uowFactory UoWFactory
	payments   *PaymentRunner
	env        Env
}

// NewMarkDeliveredCommandHandler creates the handler for delivery
// confirmation by the assigned driver.
func NewMarkDeliveredCommandHandler(uowFactory UoWFactory, payments *PaymentRunner, env Env) MarkDeliveredCommandHandler {
	return MarkDeliveredCommandHandler{
		uowFactory: uowFactory,
		payments:   payments,
		env:        env.withDefaults(),
	}
}

// Handle completes the order, finalizes its ledger entry and increments the
// driver's totals. A replayed call changes nothing and pays nothing.
func (h *MarkDeliveredCommandHandler) Handle(ctx context.Context, cmd MarkDeliveredCommand) (TransitionResult, error) {
	if err := cmd.Validate(); err != nil {
		return TransitionResult{}, err
	}
	ctx = h.env.scoped(ctx, cmd.orderCommand)

	var (
		committed *order.Order
		replayed  bool
	)
	err := transact(ctx, h.env, order.OpMarkDelivered, h.uowFactory.Create, func(ctx context.Context, uow UoW) error {
		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}

		replayed, err = o.MarkDelivered(cmd.Caller(), h.env.now())
		if err != nil {
			return err
		}
		if replayed {
			committed = o
			return nil
		}

		driverID := cmd.Caller().ID
		pre := ports.Precondition{Status: order.DriverDelivering, Driver: &driverID}
		if err := uow.OrderRepository().Transition(ctx, o, pre); err != nil {
			return err
		}

		deliveredAt := *o.Timeline().DeliveredAt
		entry, err := uow.SettlementRepository().GetByOrder(ctx, o.ID())
		if err != nil {
			return err
		}
		if err := entry.AmendDelivery(deliveredAt, o.EarnedByDriver()); err != nil {
			return err
		}
		if err := uow.SettlementRepository().Update(ctx, entry); err != nil {
			return err
		}

		inc, err := driver.IncrementFor(o)
		if err != nil {
			return err
		}
		if err := uow.DriverStatsRepository().Increment(ctx, driverID, inc, deliveredAt); err != nil {
			return err
		}

		if err := uow.Commit(ctx); err != nil {
			return err
		}
		committed = o
		return nil
	})
	if err != nil {
		h.env.observe(ctx, order.OpMarkDelivered, TransitionResult{}, err)
		return TransitionResult{}, err
	}

	var warnings []Warning
	if !replayed {
		if w := h.payments.Run(ctx, committed, ports.PaymentOpTransfer); w != nil {
			warnings = append(warnings, *w)
		}
	}

	result := newTransitionResult(committed, replayed, warnings)
	h.env.observe(ctx, order.OpMarkDelivered, result, nil)
	return result, nil
}
