package driver

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	// ErrStatsAreNotConstructed is returned when using Stats not built by NewStats or RestoreStats.
	ErrStatsAreNotConstructed = errors.New("Stats must be created via NewStats constructor")
	// ErrOrderNotDelivered is returned when an increment is requested for an order still in flight.
	ErrOrderNotDelivered = errors.New("order is not delivered")
)

// Increment is what a single delivered order adds to its driver's totals.
type Increment struct {
	Deliveries     int
	Earnings       kernel.Money
	DistanceMeters int64
	Items          int
	Miles          float64
}

// IncrementFor derives the contribution of a delivered order.
// Earnings are the delivery fee plus tip; miles are derived from the
// estimated distance.
func IncrementFor(o *order.Order) (Increment, error) {
	if err := o.Validate(); err != nil {
		return Increment{}, err
	}
	if o.Status() != order.Delivered {
		return Increment{}, fmt.Errorf("%w: order %s is %s", ErrOrderNotDelivered, o.ID(), o.Status())
	}

	estimate := o.Estimate()
	return Increment{
		Deliveries:     1,
		Earnings:       o.EarnedByDriver(),
		DistanceMeters: int64(estimate.DistanceMeters),
		Items:          o.TotalQuantity(),
		Miles:          estimate.Miles(),
	}, nil
}

// Stats is the running total of a driver's completed work.
//
// Stats is never recomputed by scanning the ledger; repositories apply an
// Increment with database counters and Stats is only read back.
type Stats struct {
	driverID       kernel.UUID
	deliveries     int
	earnings       kernel.Money
	distanceMeters int64
	items          int
	miles          float64
	updatedAt      time.Time
	guard          guard.ConstructorGuard
}

// NewStats returns empty totals for a driver without deliveries.
func NewStats(driverID kernel.UUID) (*Stats, error) {
	if err := driverID.Validate(); err != nil {
		return nil, err
	}
	return &Stats{driverID: driverID, guard: guard.NewConstructorGuard()}, nil
}

// RestoreStats rebuilds totals read from storage.
func RestoreStats(
	driverID kernel.UUID,
	deliveries int,
	earnings kernel.Money,
	distanceMeters int64,
	items int,
	miles float64,
	updatedAt time.Time,
) (*Stats, error) {
	var countErr error
	if deliveries < 0 || distanceMeters < 0 || items < 0 || miles < 0 {
		countErr = errs.NewValueIsOutOfRangeError("driver totals", fmt.Sprintf("%d/%d/%d/%.2f", deliveries, distanceMeters, items, miles), 0, "inf")
	}
	if err := errors.Join(driverID.Validate(), countErr); err != nil {
		return nil, err
	}

	return &Stats{
		driverID:       driverID,
		deliveries:     deliveries,
		earnings:       earnings,
		distanceMeters: distanceMeters,
		items:          items,
		miles:          miles,
		updatedAt:      updatedAt.UTC(),
		guard:          guard.NewConstructorGuard(),
	}, nil
}

func (s *Stats) Validate() error {
	if s == nil {
		return ErrStatsAreNotConstructed
	}
	return s.guard.Validate(ErrStatsAreNotConstructed)
}

// Apply adds inc to the totals.
func (s *Stats) Apply(inc Increment, at time.Time) {
	s.deliveries += inc.Deliveries
	s.earnings = s.earnings.Add(inc.Earnings)
	s.distanceMeters += inc.DistanceMeters
	s.items += inc.Items
	s.miles += inc.Miles
	s.updatedAt = at.UTC()
}

func (s *Stats) DriverID() kernel.UUID { return s.driverID }
func (s *Stats) Deliveries() int { return s.deliveries }
func (s *Stats) Earnings() kernel.Money { return s.earnings }
func (s *Stats) DistanceMeters() int64 { return s.distanceMeters }
func (s *Stats) Items() int { return s.items }
func (s *Stats) Miles() float64 { return s.miles }
func (s *Stats) UpdatedAt() time.Time { return s.updatedAt }
