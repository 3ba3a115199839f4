package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
)

// DeliveryEstimator quotes the delivery fee and route of a new order.
type DeliveryEstimator interface {
	Estimate(ctx context.Context, origin, destination kernel.Location, baseFee kernel.Money) (services.Estimate, error)
}

// CreateOrderCommandHandler is the intake seam of the external ordering
// flow: it prices the delivery and stores the order in preparing.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	estimator  DeliveryEstimator
	env        Env
}

// NewCreateOrderCommandHandler creates the intake handler. The estimator
// quotes the delivery fee and ETA stored on the new order.
func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory, estimator DeliveryEstimator, env Env) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		estimator:  estimator,
		env:        env.withDefaults(),
	}
}

// Handle prices the delivery, builds the order and stores it.
// Estimator errors are returned unchanged and nothing is stored.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	ctx = h.env.Log.WithOrderID(ctx, cmd.OrderID().String())

	estimate, err := h.estimator.Estimate(ctx, cmd.Vendor().Location(), cmd.Customer().Location(), cmd.BaseFee())
	if err != nil {
		return nil, err
	}

	charges := cmd.Charges()
	charges.DeliveryFee = estimate.Fee

	o, err := order.NewOrder(
		cmd.OrderID(),
		cmd.Customer(),
		cmd.Vendor(),
		cmd.Items(),
		charges,
		estimate.DeliveryEstimate(),
		cmd.PaymentRef(),
		h.env.now(),
	)
	if err != nil {
		return nil, err
	}

	err = transact(ctx, h.env, "CreateOrder", h.uowFactory.Create, func(ctx context.Context, uow OrderUoW) error {
		if err := uow.OrderRepository().Add(ctx, o); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
	if err != nil {
		h.env.Log.Error(ctx, "CreateOrder failed", err)
		return nil, err
	}

	h.env.Log.Info(h.env.Log.WithFields(ctx, map[string]any{
		"delivery_fee": estimate.Fee.String(),
		"fallback":     estimate.Fallback,
	}), "order created")
	return o, nil
}
