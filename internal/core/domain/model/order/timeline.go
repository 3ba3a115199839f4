package order

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/pkg/errs"
)

// Timeline holds the lifecycle timestamps. All of them are issued by the
// coordinator's clock; a nil pointer means the step has not happened.
type Timeline struct {
	CreatedAt        time.Time
	VendorReadyAt    *time.Time
	DriverAssignedAt *time.Time
	PickedUpAt       *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
}

// validateFor checks that every step reached by status carries its timestamp.
func (t Timeline) validateFor(status Status) error {
	var errList []error
	if t.CreatedAt.IsZero() {
		errList = append(errList, errs.NewValueIsRequiredError("created at"))
	}

	require := func(reached Status, ts *time.Time, name string) {
		if status.Reached(reached) && ts == nil {
			errList = append(errList, errs.NewValueIsRequiredErrorWithCause(name,
				fmt.Errorf("status %s without %s", status, name)))
		}
	}
	require(AwaitingDriver, t.VendorReadyAt, "vendor ready at")
	require(DriverToPickup, t.DriverAssignedAt, "driver assigned at")
	require(DriverDelivering, t.PickedUpAt, "picked up at")
	require(Delivered, t.DeliveredAt, "delivered at")
	require(Cancelled, t.CancelledAt, "cancelled at")

	return errors.Join(errList...)
}

func stamp(at time.Time) *time.Time {
	t := at.UTC()
	return &t
}
