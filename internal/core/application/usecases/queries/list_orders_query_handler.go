package queries

import (
	"context"

	"gorm.io/gorm"
)

type ListOrdersQueryHandler struct {
	db *gorm.DB
}

func NewListOrdersQueryHandler(db *gorm.DB) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{db: db}
}

// Handle returns matching orders without their line items, oldest first.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]OrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	stmt := h.db.WithContext(ctx).Table("orders").Select(orderColumns)
	if status := query.Status(); status != nil {
		stmt = stmt.Where("status = ?", status.String())
	}
	if driverID := query.DriverID(); driverID != nil {
		stmt = stmt.Where("driver_id = ?", driverID.Bytes())
	}
	if vendorID := query.VendorID(); vendorID != nil {
		stmt = stmt.Where("vendor_id = ?", vendorID.Bytes())
	}

	rows, err := stmt.Order("created_at, id").Limit(query.Limit()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]OrderView, 0)
	for rows.Next() {
		view, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, view)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
