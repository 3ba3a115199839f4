package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrOrderCommandIsNotConstructed = errors.New(
	"lifecycle command must be created via its New...Command constructor",
)

// orderCommand is the payload shared by the lifecycle commands: who is
// calling and which order they act on.
type orderCommand struct { //nolint:recvcheck //using for validation
	caller  kernel.Caller
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func newOrderCommand(caller kernel.Caller, orderID kernel.UUID) (orderCommand, error) {
	c := orderCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		c.setCaller(caller),
		c.setOrderID(orderID),
	); err != nil {
		return orderCommand{}, err
	}

	return c, nil
}

func (c orderCommand) Validate() error {
	return c.guard.Validate(ErrOrderCommandIsNotConstructed)
}

func (c orderCommand) Caller() kernel.Caller {
	return c.caller
}

func (c orderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c *orderCommand) setCaller(caller kernel.Caller) error {
	if err := caller.Validate(); err != nil {
		return err
	}
	c.caller = caller
	return nil
}

func (c *orderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

// MarkReadyCommand is issued by the vendor when the food is ready.
type MarkReadyCommand struct{ orderCommand }

func NewMarkReadyCommand(caller kernel.Caller, orderID kernel.UUID) (MarkReadyCommand, error) {
	c, err := newOrderCommand(caller, orderID)
	return MarkReadyCommand{c}, err
}

// AcceptOrderCommand is issued by a driver claiming an order.
type AcceptOrderCommand struct{ orderCommand }

func NewAcceptOrderCommand(caller kernel.Caller, orderID kernel.UUID) (AcceptOrderCommand, error) {
	c, err := newOrderCommand(caller, orderID)
	return AcceptOrderCommand{c}, err
}

type MarkPickedUpCommand struct{ orderCommand }

func NewMarkPickedUpCommand(caller kernel.Caller, orderID kernel.UUID) (MarkPickedUpCommand, error) {
	c, err := newOrderCommand(caller, orderID)
	return MarkPickedUpCommand{c}, err
}

type MarkDeliveredCommand struct{ orderCommand }

func NewMarkDeliveredCommand(caller kernel.Caller, orderID kernel.UUID) (MarkDeliveredCommand, error) {
	c, err := newOrderCommand(caller, orderID)
	return MarkDeliveredCommand{c}, err
}

// CancelOrderCommand carries the vendor's reason for cancelling.
type CancelOrderCommand struct {
	orderCommand
	reason string
}

func NewCancelOrderCommand(caller kernel.Caller, orderID kernel.UUID, reason string) (CancelOrderCommand, error) {
	c, err := newOrderCommand(caller, orderID)
	if err != nil {
		return CancelOrderCommand{}, err
	}
	return CancelOrderCommand{orderCommand: c, reason: reason}, nil
}

func (c CancelOrderCommand) Reason() string {
	return c.reason
}
