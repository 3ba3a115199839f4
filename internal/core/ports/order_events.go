package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// OrderEvent is published for every committed write of an order.
type OrderEvent struct {
	OrderID       kernel.UUID
	VendorID      kernel.UUID
	CustomerID    kernel.UUID
	DriverID      *kernel.UUID
	Status        order.Status
	PaymentStatus order.PaymentStatus
	OccurredAt    time.Time
}

// OrderEventFromOrder describes the current state of o.
func OrderEventFromOrder(o *order.Order, at time.Time) OrderEvent {
	return OrderEvent{
		OrderID:       o.ID(),
		VendorID:      o.Vendor().ID(),
		CustomerID:    o.Customer().ID(),
		DriverID:      o.Driver(),
		Status:        o.Status(),
		PaymentStatus: o.PaymentStatus(),
		OccurredAt:    at.UTC(),
	}
}

// OrderEventSource streams committed order events until ctx is done.
type OrderEventSource interface {
	Run(ctx context.Context, sink func(OrderEvent)) error
}

// Clock issues the timestamps recorded on orders and ledger entries.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
