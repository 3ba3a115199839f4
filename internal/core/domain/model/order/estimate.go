package order

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// DeliveryEstimate is the route estimate captured when the order was placed.
// DriveSeconds is the basis for efficiency ratios.
type DeliveryEstimate struct {
	DistanceMeters int
	DriveSeconds   int
	ETAMinutes     int
	Fallback       bool
}

func (e DeliveryEstimate) Validate() error {
	var errList []error
	if e.DistanceMeters < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("distance meters", e.DistanceMeters, 0, "inf"))
	}
	if e.DriveSeconds < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("drive seconds", e.DriveSeconds, 0, "inf"))
	}
	if e.ETAMinutes < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("eta minutes", e.ETAMinutes, 0, "inf"))
	}
	return errors.Join(errList...)
}

func (e DeliveryEstimate) Miles() float64 {
	return kernel.MetersToMiles(float64(e.DistanceMeters))
}
