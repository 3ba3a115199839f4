package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/settlement"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrGetSettlementQueryIsNotConstructed = errors.New(
		"GetSettlementQuery must be created via NewGetSettlementQuery constructor",
	)
	ErrListDriverSettlementsQueryIsNotConstructed = errors.New(
		"ListDriverSettlementsQuery must be created via NewListDriverSettlementsQuery constructor",
	)
)

// GetSettlementQuery reads the ledger entry of one order.
type GetSettlementQuery struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewGetSettlementQuery(orderID kernel.UUID) (GetSettlementQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetSettlementQuery{}, err
	}
	return GetSettlementQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetSettlementQuery) Validate() error {
	return q.guard.Validate(ErrGetSettlementQueryIsNotConstructed)
}

func (q GetSettlementQuery) OrderID() kernel.UUID {
	return q.orderID
}

// ListDriverSettlementsQuery lists a driver's ledger entries, newest first.
type ListDriverSettlementsQuery struct {
	driverID kernel.UUID
	filter   settlement.Filter
	guard    guard.ConstructorGuard
}

// NewListDriverSettlementsQuery accepts in_progress, picked_up, delivered,
// all or an empty filter, which means all.
func NewListDriverSettlementsQuery(driverID kernel.UUID, filter string) (ListDriverSettlementsQuery, error) {
	f, err := settlement.ParseFilter(filter)
	if err = errors.Join(driverID.Validate(), err); err != nil {
		return ListDriverSettlementsQuery{}, err
	}
	return ListDriverSettlementsQuery{driverID: driverID, filter: f, guard: guard.NewConstructorGuard()}, nil
}

func (q ListDriverSettlementsQuery) Validate() error {
	return q.guard.Validate(ErrListDriverSettlementsQueryIsNotConstructed)
}

func (q ListDriverSettlementsQuery) DriverID() kernel.UUID { return q.driverID }
func (q ListDriverSettlementsQuery) Filter() settlement.Filter { return q.filter }

// SettlementView is the read model of a ledger entry. Pickup and delivery
// fields stay nil while the delivery is in flight, and efficiencies are nil
// when they cannot be computed.
type SettlementView struct {
	ID            kernel.UUID
	OrderID       kernel.UUID
	DriverID      kernel.UUID
	Status        string
	Vendor        Party
	Customer      Party
	Estimate      Estimate
	Items         []OrderItem
	Subtotal      kernel.Money
	Total         kernel.Money
	Earned        kernel.Money
	PaymentStatus string

	AcceptedAt  time.Time
	PickedUpAt  *time.Time
	DeliveredAt *time.Time
	FinalizedAt *time.Time

	PickupSeconds      *int
	DeliverySeconds    *int
	TotalSeconds       *int
	PickupEfficiency   *int
	DeliveryEfficiency *int
	OverallEfficiency  *int
}
