package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/kernel"
)

// DriverStatsRepository maintains driver totals with atomic counter updates.
type DriverStatsRepository interface {
	// Increment adds inc to the driver's totals, creating the row on the
	// first delivery.
	Increment(ctx context.Context, driverID kernel.UUID, inc driver.Increment, at time.Time) error

	Get(ctx context.Context, driverID kernel.UUID) (*driver.Stats, error)
}
