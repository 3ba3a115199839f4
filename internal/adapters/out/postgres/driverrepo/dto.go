// Package driverrepo keeps the running totals of every driver.
package driverrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StatsDTO struct {
	DriverID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Deliveries     int             `gorm:"not null;default:0"`
	Earnings       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	DistanceMeters int64           `gorm:"not null;default:0"`
	Items          int             `gorm:"not null;default:0"`
	Miles          float64         `gorm:"type:double precision;not null;default:0"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

func (StatsDTO) TableName() string {
	return "driver_stats"
}

func incrementRow(driverID kernel.UUID, inc driver.Increment, at time.Time) StatsDTO {
	return StatsDTO{
		DriverID:       driverID.Bytes(),
		Deliveries:     inc.Deliveries,
		Earnings:       inc.Earnings.Decimal(),
		DistanceMeters: inc.DistanceMeters,
		Items:          inc.Items,
		Miles:          inc.Miles,
		UpdatedAt:      at.UTC(),
	}
}

func toDomain(dto StatsDTO) (*driver.Stats, error) {
	id, err := kernel.UUIDFromBytes(dto.DriverID[:])
	if err != nil {
		return nil, errs.NewSchemaMismatchError("driver stats", dto.DriverID.String(), err)
	}
	earnings, err := kernel.NewMoney(dto.Earnings)
	if err != nil {
		return nil, errs.NewSchemaMismatchError("driver stats", dto.DriverID.String(), err)
	}

	s, err := driver.RestoreStats(id, dto.Deliveries, earnings, dto.DistanceMeters, dto.Items, dto.Miles, dto.UpdatedAt)
	if err != nil {
		return nil, errs.NewSchemaMismatchError("driver stats", dto.DriverID.String(), err)
	}
	return s, nil
}
