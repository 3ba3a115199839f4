package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrGetDriverStatsQueryIsNotConstructed = errors.New(
	"GetDriverStatsQuery must be created via NewGetDriverStatsQuery constructor",
)

// GetDriverStatsQuery reads the running totals of a driver. The totals are
// maintained by MarkDelivered, so reading them never scans the ledger.
type GetDriverStatsQuery struct {
	driverID kernel.UUID
	guard    guard.ConstructorGuard
}

func NewGetDriverStatsQuery(driverID kernel.UUID) (GetDriverStatsQuery, error) {
	if err := driverID.Validate(); err != nil {
		return GetDriverStatsQuery{}, err
	}
	return GetDriverStatsQuery{driverID: driverID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetDriverStatsQuery) Validate() error {
	return q.guard.Validate(ErrGetDriverStatsQueryIsNotConstructed)
}

func (q GetDriverStatsQuery) DriverID() kernel.UUID {
	return q.driverID
}

// DriverStatsView is all zero with a nil UpdatedAt for a driver without
// deliveries.
type DriverStatsView struct {
	DriverID       kernel.UUID
	Deliveries     int
	Earnings       kernel.Money
	DistanceMeters int64
	Items          int
	Miles          float64
	UpdatedAt      *time.Time
}

type GetDriverStatsQueryHandler struct {
	db *gorm.DB
}

func NewGetDriverStatsQueryHandler(db *gorm.DB) GetDriverStatsQueryHandler {
	return GetDriverStatsQueryHandler{db: db}
}

func (h GetDriverStatsQueryHandler) Handle(ctx context.Context, query GetDriverStatsQuery) (DriverStatsView, error) {
	if err := query.Validate(); err != nil {
		return DriverStatsView{}, err
	}

	view := DriverStatsView{DriverID: query.DriverID()}
	var (
		earnings  decimal.Decimal
		updatedAt time.Time
	)
	err := h.db.WithContext(ctx).Raw(`
		SELECT
			deliveries,
			earnings,
			distance_meters,
			items,
			miles,
			updated_at
		FROM driver_stats
		WHERE driver_id = ?
	`, query.DriverID().Bytes()).Row().Scan(
		&view.Deliveries,
		&earnings,
		&view.DistanceMeters,
		&view.Items,
		&view.Miles,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return view, nil
	}
	if err != nil {
		return DriverStatsView{}, err
	}

	var c converter
	view.Earnings = c.money(earnings)
	view.UpdatedAt = &updatedAt
	return view, c.err()
}
