package inventory

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrItemIsNotConstructed = errors.New("Item must be created via NewItem constructor")

// Item is a vendor's stock keeping unit. UnitsOnHand never drops below zero;
// pickup deductions are applied by storage as one guarded counter update and
// reported back as an Outcome.
type Item struct {
	id          kernel.UUID
	vendorID    kernel.UUID
	name        string
	price       kernel.Money
	cost        kernel.Money
	unitsOnHand int
	unitsSold   int
	tags        []string
	guard       guard.ConstructorGuard
}

func NewItem(id, vendorID kernel.UUID, name string, price, cost kernel.Money, unitsOnHand int, tags []string) (*Item, error) {
	return RestoreItem(id, vendorID, name, price, cost, unitsOnHand, 0, tags)
}

func RestoreItem(
	id, vendorID kernel.UUID,
	name string,
	price, cost kernel.Money,
	unitsOnHand, unitsSold int,
	tags []string,
) (*Item, error) {
	name = strings.TrimSpace(name)

	var nameErr, onHandErr, soldErr error
	if name == "" {
		nameErr = errs.NewValueIsRequiredError("name")
	}
	if unitsOnHand < 0 {
		onHandErr = errs.NewValueIsOutOfRangeError("units on hand", unitsOnHand, 0, "inf")
	}
	if unitsSold < 0 {
		soldErr = errs.NewValueIsOutOfRangeError("units sold", unitsSold, 0, "inf")
	}

	if err := errors.Join(id.Validate(), vendorID.Validate(), nameErr, onHandErr, soldErr); err != nil {
		return nil, err
	}

	return &Item{
		id:          id,
		vendorID:    vendorID,
		name:        name,
		price:       price,
		cost:        cost,
		unitsOnHand: unitsOnHand,
		unitsSold:   unitsSold,
		tags:        append([]string(nil), tags...),
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (i *Item) Validate() error {
	if i == nil {
		return ErrItemIsNotConstructed
	}
	return i.guard.Validate(ErrItemIsNotConstructed)
}

func (i *Item) ID() kernel.UUID { return i.id }
func (i *Item) VendorID() kernel.UUID { return i.vendorID }
func (i *Item) Name() string { return i.name }
func (i *Item) Price() kernel.Money { return i.price }
func (i *Item) Cost() kernel.Money { return i.cost }
func (i *Item) UnitsOnHand() int { return i.unitsOnHand }
func (i *Item) UnitsSold() int { return i.unitsSold }
func (i *Item) Tags() []string { return append([]string(nil), i.tags...) }

// Adjustment is the quantity of one item leaving stock at pickup.
type Adjustment struct {
	ItemID   kernel.UUID
	Quantity int
}

// AdjustmentsFor merges line items referring to the same inventory item,
// keeping the first-seen order.
func AdjustmentsFor(items []order.LineItem) []Adjustment {
	index := make(map[kernel.UUID]int, len(items))
	out := make([]Adjustment, 0, len(items))
	for _, li := range items {
		if pos, ok := index[li.ItemID()]; ok {
			out[pos].Quantity += li.Quantity()
			continue
		}
		index[li.ItemID()] = len(out)
		out = append(out, Adjustment{ItemID: li.ItemID(), Quantity: li.Quantity()})
	}
	return out
}

// Outcome is the result of applying one Adjustment in storage.
type Outcome struct {
	Adjustment
	Found     bool
	Available int
}

// Shortfall is the number of units that could not be taken from stock.
func (o Outcome) Shortfall() int {
	if !o.Found || o.Available >= o.Quantity {
		return 0
	}
	return o.Quantity - o.Available
}

// Err classifies the outcome: nil, an InsufficientStockError or an ObjectNotFoundError.
func (o Outcome) Err() error {
	switch {
	case !o.Found:
		return errs.NewObjectNotFoundError("inventory item", o.ItemID.String())
	case o.Shortfall() > 0:
		return errs.NewInsufficientStockError(o.ItemID.String(), o.Quantity, o.Available)
	default:
		return nil
	}
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s x%d (available %d)", o.ItemID, o.Quantity, o.Available)
}
