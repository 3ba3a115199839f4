package driverrepo

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/kernel"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormDriverStatsRepository struct {
	db *gorm.DB
}

func NewGormDriverStatsRepository(db *gorm.DB) *GormDriverStatsRepository {
	return &GormDriverStatsRepository{db: db}
}

// Increment upserts the row and adds inc to the stored counters, so
// concurrent deliveries of one driver never lose an update.
func (r *GormDriverStatsRepository) Increment(ctx context.Context, driverID kernel.UUID, inc driver.Increment, at time.Time) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	row := incrementRow(driverID, inc, at)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "driver_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"deliveries":      gorm.Expr("driver_stats.deliveries + EXCLUDED.deliveries"),
				"earnings":        gorm.Expr("driver_stats.earnings + EXCLUDED.earnings"),
				"distance_meters": gorm.Expr("driver_stats.distance_meters + EXCLUDED.distance_meters"),
				"items":           gorm.Expr("driver_stats.items + EXCLUDED.items"),
				"miles":           gorm.Expr("driver_stats.miles + EXCLUDED.miles"),
				"updated_at":      gorm.Expr("EXCLUDED.updated_at"),
			}),
		}).
		Create(&row).Error
}

// Get returns the driver's totals; a driver without deliveries gets zeros.
func (r *GormDriverStatsRepository) Get(ctx context.Context, driverID kernel.UUID) (*driver.Stats, error) {
	if err := driverID.Validate(); err != nil {
		return nil, err
	}

	var dto StatsDTO
	err := r.db.WithContext(ctx).First(&dto, "driver_id = ?", driverID.Bytes()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return driver.NewStats(driverID)
	}
	if err != nil {
		return nil, err
	}
	return toDomain(dto)
}
