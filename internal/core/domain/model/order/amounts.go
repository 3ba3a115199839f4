package order

import (
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// Charges are the amounts added on top of the item subtotal.
type Charges struct {
	DeliveryFee kernel.Money
	Tax         kernel.Money
	ServiceFee  kernel.Money
	Tip         kernel.Money
}

// Amounts is the full price breakdown of an order.
type Amounts struct {
	Subtotal    kernel.Money
	DeliveryFee kernel.Money
	Tax         kernel.Money
	ServiceFee  kernel.Money
	Tip         kernel.Money
	Total       kernel.Money
}

func newAmounts(subtotal kernel.Money, c Charges) Amounts {
	return Amounts{
		Subtotal:    subtotal,
		DeliveryFee: c.DeliveryFee,
		Tax:         c.Tax,
		ServiceFee:  c.ServiceFee,
		Tip:         c.Tip,
		Total:       subtotal.Add(c.DeliveryFee).Add(c.Tax).Add(c.ServiceFee).Add(c.Tip),
	}
}

// DriverEarnings is what the assigned driver is owed: delivery fee plus tip.
func (a Amounts) DriverEarnings() kernel.Money {
	return a.DeliveryFee.Add(a.Tip)
}

// validate checks that the stored breakdown is internally consistent.
func (a Amounts) validate(items []LineItem) error {
	if expected := Subtotal(items); !a.Subtotal.Equal(expected) {
		return errs.NewValueIsInvalidErrorWithCause("subtotal",
			fmt.Errorf("%s does not match line items %s", a.Subtotal, expected))
	}

	expected := newAmounts(a.Subtotal, Charges{
		DeliveryFee: a.DeliveryFee,
		Tax:         a.Tax,
		ServiceFee:  a.ServiceFee,
		Tip:         a.Tip,
	}).Total
	if !a.Total.Equal(expected) {
		return errs.NewValueIsInvalidErrorWithCause("total",
			fmt.Errorf("%s does not match breakdown %s", a.Total, expected))
	}
	return nil
}
