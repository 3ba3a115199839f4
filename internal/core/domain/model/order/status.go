package order

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
// State transitions:
//
//	Preparing ──> AwaitingDriver ──> DriverToPickup ──> DriverDelivering ──> Delivered
//	    │
//	    └──> Cancelled
//
// Delivered and Cancelled are terminal. Any other move is rejected with
// errs.InvalidTransitionError and leaves the status untouched.
type Status int

const (
	// Unknown catches uninitialized values.
	Unknown Status = iota
	Preparing
	AwaitingDriver
	DriverToPickup
	DriverDelivering
	Delivered
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:          "unknown",
		Preparing:        "preparing",
		AwaitingDriver:   "awaiting_driver",
		DriverToPickup:   "driver_to_pickup",
		DriverDelivering: "driver_delivering",
		Delivered:        "delivered",
		Cancelled:        "cancelled",
	}
}

// ParseStatus maps the wire name back to a Status.
func ParseStatus(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if status != Unknown && name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no further transitions exist.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// Reached reports whether s is at or beyond other on the fulfillment path.
// Cancelled has not reached any fulfillment state past Preparing.
func (s Status) Reached(other Status) bool {
	if s == Cancelled || other == Cancelled {
		return s == other
	}
	return s >= other
}

// HasDriver reports whether an order in this status must carry a driver.
func (s Status) HasDriver() bool {
	return s == DriverToPickup || s == DriverDelivering || s == Delivered
}

// ValidateCanHaveDriver checks that driver assignment matches the status.
func (s Status) ValidateCanHaveDriver(driver bool) error {
	if driver && !s.HasDriver() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have a driver", s),
		)
	}

	if !driver && s.HasDriver() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have no driver", s),
		)
	}

	return nil
}

// MarkReady moves Preparing to AwaitingDriver.
func (s Status) MarkReady() (Status, error) {
	return s.advance(OpMarkReady, Preparing, AwaitingDriver)
}

// Accept moves AwaitingDriver to DriverToPickup.
func (s Status) Accept() (Status, error) {
	return s.advance(OpAcceptOrder, AwaitingDriver, DriverToPickup)
}

// PickUp moves DriverToPickup to DriverDelivering.
func (s Status) PickUp() (Status, error) {
	return s.advance(OpMarkPickedUp, DriverToPickup, DriverDelivering)
}

// Deliver moves DriverDelivering to Delivered.
func (s Status) Deliver() (Status, error) {
	return s.advance(OpMarkDelivered, DriverDelivering, Delivered)
}

// Cancel moves Preparing to Cancelled. No other status can be cancelled.
func (s Status) Cancel() (Status, error) {
	return s.advance(OpCancelOrder, Preparing, Cancelled)
}

func (s Status) advance(op string, from, to Status) (Status, error) {
	if s != from {
		return s, errs.NewInvalidTransitionError(op, "status "+from.String(), s.String())
	}
	return to, nil
}
