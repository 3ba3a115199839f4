// Package changefeed carries committed order events over PostgreSQL
// LISTEN/NOTIFY. Writers notify inside the committing transaction, so an
// event is delivered only if its write became durable.
package changefeed

import (
	"encoding/json"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// Channel is the NOTIFY channel order events are published on.
const Channel = "order_events"

type payload struct {
	OrderID       string    `json:"order_id"`
	VendorID      string    `json:"vendor_id"`
	CustomerID    string    `json:"customer_id"`
	DriverID      string    `json:"driver_id,omitempty"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Encode renders e as a NOTIFY payload.
func Encode(e ports.OrderEvent) ([]byte, error) {
	p := payload{
		OrderID:       e.OrderID.String(),
		VendorID:      e.VendorID.String(),
		CustomerID:    e.CustomerID.String(),
		Status:        e.Status.String(),
		PaymentStatus: string(e.PaymentStatus),
		OccurredAt:    e.OccurredAt.UTC(),
	}
	if e.DriverID != nil {
		p.DriverID = e.DriverID.String()
	}
	return json.Marshal(p)
}

// Decode parses a NOTIFY payload produced by Encode.
func Decode(raw []byte) (ports.OrderEvent, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ports.OrderEvent{}, err
	}

	orderID, err := kernel.UUIDFromString(p.OrderID)
	if err != nil {
		return ports.OrderEvent{}, err
	}
	vendorID, err := kernel.UUIDFromString(p.VendorID)
	if err != nil {
		return ports.OrderEvent{}, err
	}
	customerID, err := kernel.UUIDFromString(p.CustomerID)
	if err != nil {
		return ports.OrderEvent{}, err
	}
	status, err := order.ParseStatus(p.Status)
	if err != nil {
		return ports.OrderEvent{}, err
	}

	e := ports.OrderEvent{
		OrderID:       orderID,
		VendorID:      vendorID,
		CustomerID:    customerID,
		Status:        status,
		PaymentStatus: order.PaymentStatus(p.PaymentStatus),
		OccurredAt:    p.OccurredAt,
	}
	if p.DriverID != "" {
		driverID, err := kernel.UUIDFromString(p.DriverID)
		if err != nil {
			return ports.OrderEvent{}, err
		}
		e.DriverID = &driverID
	}
	return e, nil
}
