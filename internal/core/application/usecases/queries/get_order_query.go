// Package queries contains the read side of the fulfillment service.
// Query handlers read the tables directly with SQL and return read models;
// they never load or mutate aggregates.
package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery reads one order with its line items.
//
// Example:
//
//	query, err := NewGetOrderQuery(orderID)
//	if err != nil {
//	    return err
//	}
//	view, err := handler.Handle(ctx, query)
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    // unknown order
//	}
type GetOrderQuery struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

// Party is the contact card of a vendor or customer as stored on the order.
type Party struct {
	ID      kernel.UUID
	Name    string
	Phone   string
	Address string
	Lat     float64
	Lng     float64
}

type OrderItem struct {
	ItemID    kernel.UUID
	Name      string
	Quantity  int
	UnitPrice kernel.Money
}

type Estimate struct {
	DistanceMeters int
	DriveSeconds   int
	ETAMinutes     int
	Fallback       bool
}

type Timeline struct {
	CreatedAt        time.Time
	VendorReadyAt    *time.Time
	DriverAssignedAt *time.Time
	PickedUpAt       *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
}

// OrderView is the read model of an order. Items are only filled by
// GetOrderQueryHandler; list views leave them nil.
type OrderView struct {
	ID            kernel.UUID
	Status        string
	DriverID      *kernel.UUID
	Vendor        Party
	Customer      Party
	Items         []OrderItem
	Subtotal      kernel.Money
	DeliveryFee   kernel.Money
	Tax           kernel.Money
	ServiceFee    kernel.Money
	Tip           kernel.Money
	Total         kernel.Money
	Estimate      Estimate
	PaymentStatus string
	CancelReason  string
	Timeline      Timeline
}
