package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// CancelOrderCommandHandler cancels an order that is still preparing and
// releases the payment hold after commit. A failed release marks the payment
// unknown; the cancellation stands.
type CancelOrderCommandHandler struct {
	uowFactory UoWFactory
	payments   *PaymentRunner
	env        Env
}

// NewCancelOrderCommandHandler creates the handler for vendor cancellations.
// The PaymentRunner releases the hold once the cancellation is committed.
func NewCancelOrderCommandHandler(uowFactory UoWFactory, payments *PaymentRunner, env Env) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory: uowFactory,
		payments:   payments,
		env:        env.withDefaults(),
	}
}

// Handle cancels the order with the command's reason. A release failure
// comes back as a warning on the result, not as an error.
func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (TransitionResult, error) {
	if err := cmd.Validate(); err != nil {
		return TransitionResult{}, err
	}
	ctx = h.env.scoped(ctx, cmd.orderCommand)

	var committed *order.Order
	err := transact(ctx, h.env, order.OpCancelOrder, h.uowFactory.Create, func(ctx context.Context, uow UoW) error {
		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}
		if err := o.Cancel(cmd.Caller(), cmd.Reason(), h.env.now()); err != nil {
			return err
		}
		if err := uow.OrderRepository().Transition(ctx, o, ports.Precondition{Status: order.Preparing}); err != nil {
			return err
		}
		if err := uow.Commit(ctx); err != nil {
			return err
		}
		committed = o
		return nil
	})
	if err != nil {
		h.env.observe(ctx, order.OpCancelOrder, TransitionResult{}, err)
		return TransitionResult{}, err
	}

	var warnings []Warning
	if w := h.payments.Run(ctx, committed, ports.PaymentOpRelease); w != nil {
		warnings = append(warnings, *w)
	}

	result := newTransitionResult(committed, false, warnings)
	h.env.observe(ctx, order.OpCancelOrder, result, nil)
	return result, nil
}
