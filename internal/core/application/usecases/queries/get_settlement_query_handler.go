package queries

import (
	"context"
	"database/sql"
	"errors"

	"fulfillment/internal/core/domain/model/settlement"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const settlementColumns = `
	id,
	order_id,
	driver_id,
	status,
	vendor_id, vendor_name, vendor_phone, vendor_address, vendor_lat, vendor_lng,
	customer_id, customer_name, customer_phone, customer_address, customer_lat, customer_lng,
	estimate_distance_meters, estimate_drive_seconds, estimate_eta_minutes, estimate_fallback,
	subtotal, total, earned,
	payment_status,
	accepted_at, picked_up_at, delivered_at, finalized_at,
	pickup_seconds, delivery_seconds, total_seconds,
	pickup_efficiency, delivery_efficiency, overall_efficiency`

type GetSettlementQueryHandler struct {
	db *gorm.DB
}

func NewGetSettlementQueryHandler(db *gorm.DB) GetSettlementQueryHandler {
	return GetSettlementQueryHandler{db: db}
}

// Handle returns errs.ObjectNotFoundError when the order has no entry,
// which is the case until a driver accepted it.
func (h GetSettlementQueryHandler) Handle(ctx context.Context, query GetSettlementQuery) (SettlementView, error) {
	if err := query.Validate(); err != nil {
		return SettlementView{}, err
	}

	db := h.db.WithContext(ctx)
	row := db.Raw(`SELECT `+settlementColumns+` FROM settlements WHERE order_id = ?`, query.OrderID().Bytes()).Row()
	view, err := scanSettlement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SettlementView{}, errs.NewObjectNotFoundError("settlement", query.OrderID().String())
	}
	if err != nil {
		return SettlementView{}, err
	}

	rows, err := db.Raw(`
		SELECT
			item_id,
			name,
			quantity,
			unit_price
		FROM settlement_items
		WHERE settlement_id = ?
		ORDER BY position
	`, view.ID.Bytes()).Rows()
	if err != nil {
		return SettlementView{}, err
	}
	defer rows.Close()

	view.Items, err = scanItems(rows)
	if err != nil {
		return SettlementView{}, err
	}
	return view, nil
}

type ListDriverSettlementsQueryHandler struct {
	db *gorm.DB
}

func NewListDriverSettlementsQueryHandler(db *gorm.DB) ListDriverSettlementsQueryHandler {
	return ListDriverSettlementsQueryHandler{db: db}
}

// Handle lists entries without line items, most recently accepted first.
func (h ListDriverSettlementsQueryHandler) Handle(
	ctx context.Context,
	query ListDriverSettlementsQuery,
) ([]SettlementView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	stmt := h.db.WithContext(ctx).
		Table("settlements").
		Select(settlementColumns).
		Where("driver_id = ?", query.DriverID().Bytes())
	if f := query.Filter(); f != settlement.FilterAll {
		stmt = stmt.Where("status = ?", string(f))
	}

	rows, err := stmt.Order("accepted_at DESC, id").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]SettlementView, 0)
	for rows.Next() {
		view, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, view)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanSettlement(row rowScanner) (SettlementView, error) {
	var (
		v                       SettlementView
		id, orderID, driverID   uuid.UUID
		vendor, customer        partyRow
		subtotal, total, earned decimal.Decimal
	)

	dest := []any{&id, &orderID, &driverID, &v.Status}
	dest = append(dest, vendor.dest()...)
	dest = append(dest, customer.dest()...)
	dest = append(dest,
		&v.Estimate.DistanceMeters, &v.Estimate.DriveSeconds, &v.Estimate.ETAMinutes, &v.Estimate.Fallback,
		&subtotal, &total, &earned,
		&v.PaymentStatus,
		&v.AcceptedAt, &v.PickedUpAt, &v.DeliveredAt, &v.FinalizedAt,
		&v.PickupSeconds, &v.DeliverySeconds, &v.TotalSeconds,
		&v.PickupEfficiency, &v.DeliveryEfficiency, &v.OverallEfficiency,
	)
	if err := row.Scan(dest...); err != nil {
		return SettlementView{}, err
	}

	var c converter
	v.ID = c.id(id)
	v.OrderID = c.id(orderID)
	v.DriverID = c.id(driverID)
	v.Vendor = vendor.party(&c)
	v.Customer = customer.party(&c)
	v.Subtotal = c.money(subtotal)
	v.Total = c.money(total)
	v.Earned = c.money(earned)
	return v, c.err()
}
