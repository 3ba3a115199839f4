package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// Operation names used in transition errors and results.
const (
	OpMarkReady     = "MarkReady"
	OpAcceptOrder   = "AcceptOrder"
	OpMarkPickedUp  = "MarkPickedUp"
	OpMarkDelivered = "MarkDelivered"
	OpCancelOrder   = "CancelOrder"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created
	// through NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is the aggregate root of the fulfillment lifecycle.
//
// Order follows these invariants:
//   - status only moves along the path described by Status
//   - the driver is unset until AcceptOrder succeeds and immutable afterwards
//   - the amount breakdown is consistent with the line items
//   - every reached step carries its timestamp
//
// Transition methods validate the caller and the current status before
// mutating anything, so a rejected call leaves the aggregate untouched.
type Order struct {
	id            kernel.UUID
	customer      Party
	vendor        Party
	driverID      *kernel.UUID
	status        Status
	items         []LineItem
	amounts       Amounts
	estimate      DeliveryEstimate
	paymentRef    string
	paymentStatus PaymentStatus
	timeline      Timeline
	cancelReason  string

	isConstructed bool
}

// NewOrder places an order in Preparing. The subtotal and total are derived
// from the line items and charges.
func NewOrder(
	id kernel.UUID,
	customer Party,
	vendor Party,
	items []LineItem,
	charges Charges,
	estimate DeliveryEstimate,
	paymentRef string,
	createdAt time.Time,
) (*Order, error) {
	paymentStatus := PaymentNone
	if paymentRef != "" {
		paymentStatus = PaymentAuthorized
	}

	return RestoreOrder(Snapshot{
		ID:            id,
		Customer:      customer,
		Vendor:        vendor,
		Status:        Preparing,
		Items:         items,
		Amounts:       newAmounts(Subtotal(items), charges),
		Estimate:      estimate,
		PaymentRef:    paymentRef,
		PaymentStatus: paymentStatus,
		Timeline:      Timeline{CreatedAt: createdAt.UTC()},
	})
}

// Snapshot is the complete state of an order. It is the only shape in which
// an order crosses the persistence boundary.
type Snapshot struct {
	ID            kernel.UUID
	Customer      Party
	Vendor        Party
	DriverID      *kernel.UUID
	Status        Status
	Items         []LineItem
	Amounts       Amounts
	Estimate      DeliveryEstimate
	PaymentRef    string
	PaymentStatus PaymentStatus
	Timeline      Timeline
	CancelReason  string
}

// RestoreOrder rebuilds an aggregate from persisted state, rejecting any
// combination the lifecycle could not have produced.
func RestoreOrder(s Snapshot) (*Order, error) {
	var itemsErr error
	if len(s.Items) == 0 {
		itemsErr = errs.NewValueIsRequiredError("line items")
	}

	var driverErr error
	if s.DriverID != nil {
		driverErr = s.DriverID.Validate()
	}

	if err := errors.Join(
		s.ID.Validate(),
		s.Customer.Validate(),
		s.Vendor.Validate(),
		itemsErr,
		driverErr,
		s.Status.Validate(),
		s.Estimate.Validate(),
		s.PaymentStatus.Validate(),
	); err != nil {
		return nil, err
	}

	if err := errors.Join(
		s.Status.ValidateCanHaveDriver(s.DriverID != nil),
		s.Amounts.validate(s.Items),
		s.Timeline.validateFor(s.Status),
	); err != nil {
		return nil, err
	}

	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)

	var driverID *kernel.UUID
	if s.DriverID != nil {
		d := *s.DriverID
		driverID = &d
	}

	return &Order{
		id:            s.ID,
		customer:      s.Customer,
		vendor:        s.Vendor,
		driverID:      driverID,
		status:        s.Status,
		items:         items,
		amounts:       s.Amounts,
		estimate:      s.Estimate,
		paymentRef:    s.PaymentRef,
		paymentStatus: s.PaymentStatus,
		timeline:      s.Timeline,
		cancelReason:  s.CancelReason,
		isConstructed: true,
	}, nil
}

// Validate ensures the Order was created through a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}

	return nil
}

// Snapshot returns a copy of the order's state.
func (o *Order) Snapshot() Snapshot {
	items := make([]LineItem, len(o.items))
	copy(items, o.items)

	return Snapshot{
		ID:            o.id,
		Customer:      o.customer,
		Vendor:        o.vendor,
		DriverID:      o.Driver(),
		Status:        o.status,
		Items:         items,
		Amounts:       o.amounts,
		Estimate:      o.estimate,
		PaymentRef:    o.paymentRef,
		PaymentStatus: o.paymentStatus,
		Timeline:      o.timeline,
		CancelReason:  o.cancelReason,
	}
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID { return o.id }
func (o *Order) Customer() Party { return o.customer }
func (o *Order) Vendor() Party { return o.vendor }
func (o *Order) Status() Status { return o.status }
func (o *Order) Amounts() Amounts { return o.amounts }
func (o *Order) Estimate() DeliveryEstimate { return o.estimate }
func (o *Order) PaymentRef() string { return o.paymentRef }
func (o *Order) PaymentStatus() PaymentStatus { return o.paymentStatus }
func (o *Order) Timeline() Timeline { return o.timeline }
func (o *Order) CancelReason() string { return o.cancelReason }
func (o *Order) Items() []LineItem { return append([]LineItem(nil), o.items...) }
func (o *Order) EarnedByDriver() kernel.Money { return o.amounts.DriverEarnings() }
func (o *Order) TotalQuantity() int { return TotalQuantity(o.items) }
func (o *Order) IsAssignedTo(driver kernel.UUID) bool {
	return o.driverID != nil && o.driverID.IsEqual(driver)
}

// Driver returns the assigned driver, nil while unassigned.
func (o *Order) Driver() *kernel.UUID {
	if o.driverID == nil {
		return nil
	}
	d := *o.driverID
	return &d
}

// MarkReady is issued by the owning vendor once the food is ready.
func (o *Order) MarkReady(caller kernel.Caller, at time.Time) error {
	if err := o.requireVendor(OpMarkReady, caller); err != nil {
		return err
	}

	next, err := o.status.MarkReady()
	if err != nil {
		return err
	}

	o.status = next
	o.timeline.VendorReadyAt = stamp(at)
	return nil
}

// Accept assigns the calling driver. It reports replayed=true without
// changes when the same driver already holds the order.
func (o *Order) Accept(caller kernel.Caller, at time.Time) (bool, error) {
	if caller.Role != kernel.RoleDriver {
		return false, errs.NewInvalidTransitionError(OpAcceptOrder, "caller with role driver", o.status.String())
	}

	if o.driverID != nil {
		if o.driverID.IsEqual(caller.ID) {
			return true, nil
		}
		return false, errs.NewAlreadyAssignedError(o.id.String())
	}

	next, err := o.status.Accept()
	if err != nil {
		return false, err
	}

	driver := caller.ID
	o.status = next
	o.driverID = &driver
	o.timeline.DriverAssignedAt = stamp(at)
	return false, nil
}

// MarkPickedUp is issued by the assigned driver at the vendor. A repeat call
// after the order moved on reports replayed=true.
func (o *Order) MarkPickedUp(caller kernel.Caller, at time.Time) (bool, error) {
	if err := o.requireAssignedDriver(OpMarkPickedUp, caller); err != nil {
		return false, err
	}

	if o.status.Reached(DriverDelivering) {
		return true, nil
	}

	next, err := o.status.PickUp()
	if err != nil {
		return false, err
	}

	o.status = next
	o.timeline.PickedUpAt = stamp(at)
	return false, nil
}

// MarkDelivered is issued by the assigned driver at the customer. A repeat
// call on a delivered order reports replayed=true.
func (o *Order) MarkDelivered(caller kernel.Caller, at time.Time) (bool, error) {
	if err := o.requireAssignedDriver(OpMarkDelivered, caller); err != nil {
		return false, err
	}

	if o.status == Delivered {
		return true, nil
	}

	next, err := o.status.Deliver()
	if err != nil {
		return false, err
	}

	o.status = next
	o.timeline.DeliveredAt = stamp(at)
	return false, nil
}

// Cancel is issued by the owning vendor while the order is still Preparing.
func (o *Order) Cancel(caller kernel.Caller, reason string, at time.Time) error {
	if err := o.requireVendor(OpCancelOrder, caller); err != nil {
		return err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errs.NewValueIsRequiredError("cancellation reason")
	}

	next, err := o.status.Cancel()
	if err != nil {
		return err
	}

	o.status = next
	o.cancelReason = reason
	o.timeline.CancelledAt = stamp(at)
	return nil
}

// SetPaymentStatus records the outcome of a gateway call.
func (o *Order) SetPaymentStatus(status PaymentStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.paymentStatus = status
	return nil
}

func (o *Order) requireVendor(op string, caller kernel.Caller) error {
	if !caller.Is(kernel.RoleVendor, o.vendor.ID()) {
		return errs.NewInvalidTransitionError(op, "caller to be the owning vendor", o.status.String())
	}
	return nil
}

func (o *Order) requireAssignedDriver(op string, caller kernel.Caller) error {
	if caller.Role != kernel.RoleDriver || !o.IsAssignedTo(caller.ID) {
		return errs.NewInvalidTransitionError(op,
			fmt.Sprintf("order assigned to driver %s", caller.ID), o.status.String())
	}
	return nil
}
