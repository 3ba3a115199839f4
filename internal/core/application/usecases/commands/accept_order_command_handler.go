package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/settlement"
	"fulfillment/internal/core/ports"
)

// AcceptOrderCommandHandler assigns a driver to an order awaiting one and
// opens the driver's ledger entry in the same transaction.
//
// Any number of drivers may race on the same order. The conditional write
// only matches while no driver is set, so exactly one commits; the others
// re-read the order on retry and get AlreadyAssigned. The winner repeating
// the call gets a replayed success.
type AcceptOrderCommandHandler struct {
	uowFactory UoWFactory
	env        Env
}

// NewAcceptOrderCommandHandler creates the handler for driver acceptance.
// The UoWFactory must hand out units covering orders and the ledger.
func NewAcceptOrderCommandHandler(uowFactory UoWFactory, env Env) AcceptOrderCommandHandler {
	return AcceptOrderCommandHandler{
		uowFactory: uowFactory,
		env:        env.withDefaults(),
	}
}

// Handle assigns the calling driver and opens the ledger entry.
// Returns errs.ErrAlreadyAssigned when another driver won the order and
// errs.ErrInvalidTransition when the order is not awaiting a driver.
func (h *AcceptOrderCommandHandler) Handle(ctx context.Context, cmd AcceptOrderCommand) (TransitionResult, error) {
	if err := cmd.Validate(); err != nil {
		return TransitionResult{}, err
	}
	ctx = h.env.scoped(ctx, cmd.orderCommand)

	var (
		committed *order.Order
		replayed  bool
	)
	err := transact(ctx, h.env, order.OpAcceptOrder, h.uowFactory.Create, func(ctx context.Context, uow UoW) error {
		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}

		replayed, err = o.Accept(cmd.Caller(), h.env.now())
		if err != nil {
			return err
		}
		if replayed {
			committed = o
			return nil
		}

		pre := ports.Precondition{Status: order.AwaitingDriver, DriverUnset: true}
		if err := uow.OrderRepository().Transition(ctx, o, pre); err != nil {
			return err
		}

		entry, err := settlement.NewEntry(kernel.NewUUID(), o)
		if err != nil {
			return err
		}
		if err := uow.SettlementRepository().Add(ctx, entry); err != nil {
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
		result = newTransitionResult(committed, replayed, nil)
	}
	h.env.observe(ctx, order.OpAcceptOrder, result, err)
	return result, err
}
