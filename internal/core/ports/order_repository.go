// Package ports defines the contracts between the fulfillment core and its
// adapters: persistence, payments, routing, idempotency and the change feed.
package ports

import (
	"context"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// Precondition is the compare part of a conditional order write.
type Precondition struct {
	// Status the stored order must still be in.
	Status order.Status
	// DriverUnset requires that no driver is assigned yet.
	DriverUnset bool
	// Driver requires this driver to be the assigned one.
	Driver *kernel.UUID
}

func (p Precondition) String() string {
	var b strings.Builder
	b.WriteString("status ")
	b.WriteString(p.Status.String())
	switch {
	case p.DriverUnset:
		b.WriteString(" and no driver")
	case p.Driver != nil:
		b.WriteString(" and driver ")
		b.WriteString(p.Driver.String())
	}
	return b.String()
}

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by its identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// Transition writes the aggregate's new state only if the stored row
	// still satisfies pre. A lost compare returns errs.StaleWriteError and
	// writes nothing.
	Transition(ctx context.Context, aggregate *order.Order, pre Precondition) error

	// UpdatePaymentStatus sets the payment marker without touching the lifecycle.
	UpdatePaymentStatus(ctx context.Context, id kernel.UUID, status order.PaymentStatus) error

	// ListPaymentsToReconcile returns orders whose payment marker is failed or
	// unknown, oldest first.
	ListPaymentsToReconcile(ctx context.Context, limit int) ([]*order.Order, error)
}
