package queries

import (
	"database/sql"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const orderColumns = `
	id,
	status,
	driver_id,
	vendor_id, vendor_name, vendor_phone, vendor_address, vendor_lat, vendor_lng,
	customer_id, customer_name, customer_phone, customer_address, customer_lat, customer_lng,
	subtotal, delivery_fee, tax, service_fee, tip, total,
	estimate_distance_meters, estimate_drive_seconds, estimate_eta_minutes, estimate_fallback,
	payment_status,
	cancel_reason,
	created_at, vendor_ready_at, driver_assigned_at, picked_up_at, delivered_at, cancelled_at`

// converter collects conversion failures so that a row is decoded in one pass.
type converter struct {
	errList []error
}

func (c *converter) id(raw uuid.UUID) kernel.UUID {
	id, err := kernel.UUIDFromBytes(raw[:])
	c.errList = append(c.errList, err)
	return id
}

func (c *converter) optionalID(raw uuid.NullUUID) *kernel.UUID {
	if !raw.Valid {
		return nil
	}
	id := c.id(raw.UUID)
	return &id
}

func (c *converter) money(raw decimal.Decimal) kernel.Money {
	m, err := kernel.NewMoney(raw)
	c.errList = append(c.errList, err)
	return m
}

func (c *converter) err() error {
	return errors.Join(c.errList...)
}

type partyRow struct {
	id uuid.UUID
	p  Party
}

func (r *partyRow) dest() []any {
	return []any{&r.id, &r.p.Name, &r.p.Phone, &r.p.Address, &r.p.Lat, &r.p.Lng}
}

func (r *partyRow) party(c *converter) Party {
	r.p.ID = c.id(r.id)
	return r.p
}

func scanOrder(row rowScanner) (OrderView, error) {
	var (
		v                                          OrderView
		id                                         uuid.UUID
		driverID                                   uuid.NullUUID
		vendor, customer                           partyRow
		subtotal, fee, tax, serviceFee, tip, total decimal.Decimal
		cancelReason                               sql.NullString
	)

	dest := []any{&id, &v.Status, &driverID}
	dest = append(dest, vendor.dest()...)
	dest = append(dest, customer.dest()...)
	dest = append(dest,
		&subtotal, &fee, &tax, &serviceFee, &tip, &total,
		&v.Estimate.DistanceMeters, &v.Estimate.DriveSeconds, &v.Estimate.ETAMinutes, &v.Estimate.Fallback,
		&v.PaymentStatus,
		&cancelReason,
		&v.Timeline.CreatedAt, &v.Timeline.VendorReadyAt, &v.Timeline.DriverAssignedAt,
		&v.Timeline.PickedUpAt, &v.Timeline.DeliveredAt, &v.Timeline.CancelledAt,
	)
	if err := row.Scan(dest...); err != nil {
		return OrderView{}, err
	}

	var c converter
	v.ID = c.id(id)
	v.DriverID = c.optionalID(driverID)
	v.Vendor = vendor.party(&c)
	v.Customer = customer.party(&c)
	v.Subtotal = c.money(subtotal)
	v.DeliveryFee = c.money(fee)
	v.Tax = c.money(tax)
	v.ServiceFee = c.money(serviceFee)
	v.Tip = c.money(tip)
	v.Total = c.money(total)
	v.CancelReason = cancelReason.String
	return v, c.err()
}

func scanItems(rows *sql.Rows) ([]OrderItem, error) {
	items := make([]OrderItem, 0)
	for rows.Next() {
		var (
			item   OrderItem
			itemID uuid.UUID
			price  decimal.Decimal
		)
		if err := rows.Scan(&itemID, &item.Name, &item.Quantity, &price); err != nil {
			return nil, err
		}

		var c converter
		item.ItemID = c.id(itemID)
		item.UnitPrice = c.money(price)
		if err := c.err(); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
