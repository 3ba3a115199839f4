package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrItemsAreRequired = errs.NewValueIsRequiredError("line items")
)

// CreateOrderCommand places a paid order with a vendor. The delivery fee is
// not part of the request; it is quoted from the route between the parties.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), customer, vendor, items,
//	    order.Charges{Tax: tax, Tip: tip}, baseFee, "pi_3Nx...")
//	result, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID    kernel.UUID
	customer   order.Party
	vendor     order.Party
	items      []order.LineItem
	charges    order.Charges
	baseFee    kernel.Money
	paymentRef string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the parties and items. charges.DeliveryFee
// is ignored.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	customer, vendor order.Party,
	items []order.LineItem,
	charges order.Charges,
	baseFee kernel.Money,
	paymentRef string,
) (CreateOrderCommand, error) {
	c := CreateOrderCommand{
		charges:    charges,
		baseFee:    baseFee,
		paymentRef: paymentRef,
		guard:      guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setOrderID(orderID),
		c.setParties(customer, vendor),
		c.setItems(items),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return c, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID { return c.orderID }
func (c CreateOrderCommand) Customer() order.Party { return c.customer }
func (c CreateOrderCommand) Vendor() order.Party { return c.vendor }
func (c CreateOrderCommand) Items() []order.LineItem { return append([]order.LineItem(nil), c.items...) }
func (c CreateOrderCommand) Charges() order.Charges { return c.charges }
func (c CreateOrderCommand) BaseFee() kernel.Money { return c.baseFee }
func (c CreateOrderCommand) PaymentRef() string { return c.paymentRef }

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setParties(customer, vendor order.Party) error {
	if err := errors.Join(customer.Validate(), vendor.Validate()); err != nil {
		return err
	}
	c.customer = customer
	c.vendor = vendor
	return nil
}

func (c *CreateOrderCommand) setItems(items []order.LineItem) error {
	if len(items) == 0 {
		return ErrItemsAreRequired
	}
	c.items = append([]order.LineItem(nil), items...)
	return nil
}
