package settlement

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
)

var (
	ErrEntryIsNotConstructed = errors.New("Entry must be created via NewEntry constructor")

	// ErrEntryFinalized is returned when amending an entry whose delivery is recorded.
	ErrEntryFinalized = errors.New("settlement entry is finalized")
)

// Status is the ledger view of an entry's progress.
type Status string

const (
	InProgress Status = "in_progress"
	PickedUp   Status = "picked_up"
	Delivered  Status = "delivered"
)

// Filter selects entries by Status; FilterAll matches every entry.
type Filter string

const (
	FilterInProgress Filter = Filter(InProgress)
	FilterPickedUp   Filter = Filter(PickedUp)
	FilterDelivered  Filter = Filter(Delivered)
	FilterAll        Filter = "all"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case FilterInProgress, FilterPickedUp, FilterDelivered, FilterAll:
		return f, nil
	case "":
		return FilterAll, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("status filter", fmt.Errorf("%q is not a valid filter", s))
	}
}

// Durations are elapsed seconds per phase; nil means undefined.
type Durations struct {
	Pickup   *int
	Delivery *int
	Total    *int
}

// Efficiencies are actual over estimated time in percent; nil means unknown, never 0%.
type Efficiencies struct {
	Pickup   *int
	Delivery *int
	Overall  *int
}

// Entry is the settlement record of one order for its driver. It is created
// at acceptance, amended at pickup and finalized at delivery.
type Entry struct {
	id            kernel.UUID
	orderID       kernel.UUID
	driverID      kernel.UUID
	vendor        order.Party
	customer      order.Party
	estimate      order.DeliveryEstimate
	items         []order.LineItem
	subtotal      kernel.Money
	total         kernel.Money
	earned        kernel.Money
	paymentRef    string
	paymentStatus order.PaymentStatus
	acceptedAt    time.Time
	pickedUpAt    *time.Time
	deliveredAt   *time.Time
	finalizedAt   *time.Time
	durations     Durations
	efficiencies  Efficiencies

	isConstructed bool
}

// NewEntry snapshots an order that has just been accepted.
func NewEntry(id kernel.UUID, o *order.Order) (*Entry, error) {
	if err := errors.Join(id.Validate(), o.Validate()); err != nil {
		return nil, err
	}

	driver := o.Driver()
	assignedAt := o.Timeline().DriverAssignedAt
	if driver == nil || assignedAt == nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("order",
			fmt.Errorf("order %s has no accepted driver", o.ID()))
	}

	return &Entry{
		id:            id,
		orderID:       o.ID(),
		driverID:      *driver,
		vendor:        o.Vendor(),
		customer:      o.Customer(),
		estimate:      o.Estimate(),
		items:         o.Items(),
		subtotal:      o.Amounts().Subtotal,
		total:         o.Amounts().Total,
		paymentRef:    o.PaymentRef(),
		paymentStatus: o.PaymentStatus(),
		acceptedAt:    *assignedAt,
		isConstructed: true,
	}, nil
}

// Snapshot is the persisted shape of an entry.
type Snapshot struct {
	ID            kernel.UUID
	OrderID       kernel.UUID
	DriverID      kernel.UUID
	Vendor        order.Party
	Customer      order.Party
	Estimate      order.DeliveryEstimate
	Items         []order.LineItem
	Subtotal      kernel.Money
	Total         kernel.Money
	Earned        kernel.Money
	PaymentRef    string
	PaymentStatus order.PaymentStatus
	AcceptedAt    time.Time
	PickedUpAt    *time.Time
	DeliveredAt   *time.Time
	FinalizedAt   *time.Time
	Durations     Durations
	Efficiencies  Efficiencies
}

// RestoreEntry rebuilds an entry. Missing pickup or delivery fields are
// accepted since the order may still be in flight.
func RestoreEntry(s Snapshot) (*Entry, error) {
	var acceptedErr, chainErr error
	if s.AcceptedAt.IsZero() {
		acceptedErr = errs.NewValueIsRequiredError("accepted at")
	}
	if (s.DeliveredAt == nil) != (s.FinalizedAt == nil) {
		chainErr = errs.NewValueIsInvalidErrorWithCause("finalized at",
			errors.New("finalization must accompany delivery"))
	}

	if err := errors.Join(
		s.ID.Validate(),
		s.OrderID.Validate(),
		s.DriverID.Validate(),
		s.Vendor.Validate(),
		s.Customer.Validate(),
		s.Estimate.Validate(),
		s.PaymentStatus.Validate(),
		acceptedErr,
		chainErr,
	); err != nil {
		return nil, err
	}

	return &Entry{
		id:            s.ID,
		orderID:       s.OrderID,
		driverID:      s.DriverID,
		vendor:        s.Vendor,
		customer:      s.Customer,
		estimate:      s.Estimate,
		items:         append([]order.LineItem(nil), s.Items...),
		subtotal:      s.Subtotal,
		total:         s.Total,
		earned:        s.Earned,
		paymentRef:    s.PaymentRef,
		paymentStatus: s.PaymentStatus,
		acceptedAt:    s.AcceptedAt,
		pickedUpAt:    s.PickedUpAt,
		deliveredAt:   s.DeliveredAt,
		finalizedAt:   s.FinalizedAt,
		durations:     s.Durations,
		efficiencies:  s.Efficiencies,
		isConstructed: true,
	}, nil
}

func (e *Entry) Validate() error {
	if e == nil || !e.isConstructed {
		return ErrEntryIsNotConstructed
	}
	return nil
}

func (e *Entry) Snapshot() Snapshot {
	return Snapshot{
		ID:            e.id,
		OrderID:       e.orderID,
		DriverID:      e.driverID,
		Vendor:        e.vendor,
		Customer:      e.customer,
		Estimate:      e.estimate,
		Items:         append([]order.LineItem(nil), e.items...),
		Subtotal:      e.subtotal,
		Total:         e.total,
		Earned:        e.earned,
		PaymentRef:    e.paymentRef,
		PaymentStatus: e.paymentStatus,
		AcceptedAt:    e.acceptedAt,
		PickedUpAt:    e.pickedUpAt,
		DeliveredAt:   e.deliveredAt,
		FinalizedAt:   e.finalizedAt,
		Durations:     e.durations,
		Efficiencies:  e.efficiencies,
	}
}

func (e *Entry) ID() kernel.UUID { return e.id }
func (e *Entry) OrderID() kernel.UUID { return e.orderID }
func (e *Entry) DriverID() kernel.UUID { return e.driverID }
func (e *Entry) Earned() kernel.Money { return e.earned }
func (e *Entry) Estimate() order.DeliveryEstimate { return e.estimate }
func (e *Entry) Durations() Durations { return e.durations }
func (e *Entry) Efficiencies() Efficiencies { return e.efficiencies }
func (e *Entry) PaymentStatus() order.PaymentStatus { return e.paymentStatus }
func (e *Entry) IsFinalized() bool { return e.finalizedAt != nil }

func (e *Entry) Status() Status {
	switch {
	case e.deliveredAt != nil:
		return Delivered
	case e.pickedUpAt != nil:
		return PickedUp
	default:
		return InProgress
	}
}

// AmendPickup records the pickup time and the pickup metrics.
// Recording the same pickup twice is a no-op.
func (e *Entry) AmendPickup(at time.Time) error {
	if e.IsFinalized() {
		return ErrEntryFinalized
	}
	if e.pickedUpAt != nil {
		return nil
	}

	pickedUp := at.UTC()
	e.pickedUpAt = &pickedUp
	e.durations.Pickup = DurationSeconds(&e.acceptedAt, e.pickedUpAt)
	e.efficiencies.Pickup = Efficiency(e.durations.Pickup, e.estimate.DriveSeconds)
	return nil
}

// AmendDelivery records delivery, computes the remaining metrics and the
// earned amount, and finalizes the entry. After this no field can change
// except the payment marker.
func (e *Entry) AmendDelivery(at time.Time, earned kernel.Money) error {
	if e.IsFinalized() {
		return ErrEntryFinalized
	}

	delivered := at.UTC()
	e.deliveredAt = &delivered
	e.finalizedAt = &delivered
	e.earned = earned

	e.durations.Delivery = DurationSeconds(e.pickedUpAt, e.deliveredAt)
	e.durations.Total = DurationSeconds(&e.acceptedAt, e.deliveredAt)
	e.efficiencies.Delivery = Efficiency(e.durations.Delivery, e.estimate.DriveSeconds)
	e.efficiencies.Overall = Efficiency(e.durations.Total, 2*e.estimate.DriveSeconds)
	return nil
}

// SetPaymentStatus mirrors the order's payment marker onto the entry.
func (e *Entry) SetPaymentStatus(status order.PaymentStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}
	e.paymentStatus = status
	return nil
}

// Timestamps returns accepted, picked-up, delivered and finalized times.
func (e *Entry) Timestamps() (time.Time, *time.Time, *time.Time, *time.Time) {
	return e.acceptedAt, e.pickedUpAt, e.deliveredAt, e.finalizedAt
}
