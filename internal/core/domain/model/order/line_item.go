package order

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// LineItem is one ordered inventory item at the price charged.
type LineItem struct {
	itemID    kernel.UUID
	name      string
	quantity  int
	unitPrice kernel.Money
}

func NewLineItem(itemID kernel.UUID, name string, quantity int, unitPrice kernel.Money) (LineItem, error) {
	var qtyErr error
	if quantity <= 0 {
		qtyErr = errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}

	if err := errors.Join(itemID.Validate(), qtyErr); err != nil {
		return LineItem{}, err
	}

	return LineItem{
		itemID:    itemID,
		name:      name,
		quantity:  quantity,
		unitPrice: unitPrice,
	}, nil
}

func (l LineItem) ItemID() kernel.UUID { return l.itemID }
func (l LineItem) Name() string { return l.name }
func (l LineItem) Quantity() int { return l.quantity }
func (l LineItem) UnitPrice() kernel.Money { return l.unitPrice }

// Total is quantity times unit price.
func (l LineItem) Total() kernel.Money {
	return l.unitPrice.Mul(l.quantity)
}

// Subtotal sums the line totals.
func Subtotal(items []LineItem) kernel.Money {
	total := kernel.Zero
	for _, item := range items {
		total = total.Add(item.Total())
	}
	return total
}

// TotalQuantity sums the quantities of all items.
func TotalQuantity(items []LineItem) int {
	n := 0
	for _, item := range items {
		n += item.quantity
	}
	return n
}
