package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// MarkReadyCommandHandler moves an order from preparing to awaiting_driver.
type MarkReadyCommandHandler struct {
	uowFactory OrderUoWFactory
	env        Env
}

// NewMarkReadyCommandHandler creates the handler for the vendor's ready
// signal. It only touches orders.
func NewMarkReadyCommandHandler(uowFactory OrderUoWFactory, env Env) MarkReadyCommandHandler {
	return MarkReadyCommandHandler{
		uowFactory: uowFactory,
		env:        env.withDefaults(),
	}
}

// Handle marks the order ready for drivers. Only the owning vendor may
// call it, and only while the order is preparing.
func (h *MarkReadyCommandHandler) Handle(ctx context.Context, cmd MarkReadyCommand) (TransitionResult, error) {
	if err := cmd.Validate(); err != nil {
		return TransitionResult{}, err
	}
	ctx = h.env.scoped(ctx, cmd.orderCommand)

	var committed *order.Order
	err := transact(ctx, h.env, order.OpMarkReady, h.uowFactory.Create, func(ctx context.Context, uow OrderUoW) error {
		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}
		if err := o.MarkReady(cmd.Caller(), h.env.now()); err != nil {
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

	var result TransitionResult
	if err == nil {
		result = newTransitionResult(committed, false, nil)
	}
	h.env.observe(ctx, order.OpMarkReady, result, err)
	return result, err
}
