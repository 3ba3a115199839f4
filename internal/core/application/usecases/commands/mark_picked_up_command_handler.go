package commands

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// MarkPickedUpCommandHandler moves an order to driver_delivering. In the
// same transaction it amends the ledger entry and takes the line items off
// the vendor's stock. After commit the payment is captured and the vendor's
// share routed to the vendor.
type MarkPickedUpCommandHandler struct {
	uowFactory UoWFactory
	payments   *PaymentRunner
	env        Env
}

// NewMarkPickedUpCommandHandler creates the handler for pickup by the
// assigned driver.
func NewMarkPickedUpCommandHandler(uowFactory UoWFactory, payments *PaymentRunner, env Env) MarkPickedUpCommandHandler {
	return MarkPickedUpCommandHandler{
		uowFactory: uowFactory,
		payments:   payments,
		env:        env.withDefaults(),
	}
}

// Handle records the pickup, deducts the vendor's stock and captures the
// payment. Short or missing stock and payment failures are returned as
// warnings. A replayed call deducts nothing.
func (h *MarkPickedUpCommandHandler) Handle(ctx context.Context, cmd MarkPickedUpCommand) (TransitionResult, error) {
	if err := cmd.Validate(); err != nil {
		return TransitionResult{}, err
	}
	ctx = h.env.scoped(ctx, cmd.orderCommand)

	var (
		committed *order.Order
		replayed  bool
		warnings  []Warning
	)
	err := transact(ctx, h.env, order.OpMarkPickedUp, h.uowFactory.Create, func(ctx context.Context, uow UoW) error {
		warnings = nil

		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}

		replayed, err = o.MarkPickedUp(cmd.Caller(), h.env.now())
		if err != nil {
			return err
		}
		if replayed {
			committed = o
			return nil
		}

		driver := cmd.Caller().ID
		pre := ports.Precondition{Status: order.DriverToPickup, Driver: &driver}
		if err := uow.OrderRepository().Transition(ctx, o, pre); err != nil {
			return err
		}

		entry, err := uow.SettlementRepository().GetByOrder(ctx, o.ID())
		if err != nil {
			return err
		}
		if err := entry.AmendPickup(*o.Timeline().PickedUpAt); err != nil {
			return err
		}
		if err := uow.SettlementRepository().Update(ctx, entry); err != nil {
			return err
		}

		for _, adj := range inventory.AdjustmentsFor(o.Items()) {
			outcome, err := uow.InventoryRepository().Deduct(ctx, o.Vendor().ID(), adj)
			if err != nil {
				return err
			}
			if w := stockWarning(outcome); w != nil {
				warnings = append(warnings, *w)
			}
		}

		if err := uow.Commit(ctx); err != nil {
			return err
		}
		committed = o
		return nil
	})
	if err != nil {
		h.env.observe(ctx, order.OpMarkPickedUp, TransitionResult{}, err)
		return TransitionResult{}, err
	}

	if !replayed {
		if w := h.payments.Run(ctx, committed, ports.PaymentOpCaptureAndTransfer); w != nil {
			warnings = append(warnings, *w)
		}
	}

	result := newTransitionResult(committed, replayed, warnings)
	h.env.observe(ctx, order.OpMarkPickedUp, result, nil)
	return result, nil
}

// stockWarning turns a short or missing item into a warning; pickup goes ahead.
func stockWarning(outcome inventory.Outcome) *Warning {
	err := outcome.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errs.ErrObjectNotFound):
		return &Warning{Kind: WarningInventoryItemMissing, Message: err.Error()}
	default:
		return &Warning{Kind: WarningInsufficientStock, Message: err.Error()}
	}
}
