package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrAlreadyAssigned    = errors.New("order already assigned")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrPaymentGateway     = errors.New("payment gateway failure")
	ErrRoutingUnavailable = errors.New("routing unavailable")
	ErrSchemaMismatch     = errors.New("schema mismatch")
	ErrStaleWrite         = errors.New("conditional write matched no row")
)

// InvalidTransitionError names the precondition an operation required and
// the state the aggregate was actually found in.
type InvalidTransitionError struct {
	Operation    string
	Precondition string
	Current      string
}

func NewInvalidTransitionError(operation, precondition, current string) *InvalidTransitionError {
	return &InvalidTransitionError{
		Operation:    operation,
		Precondition: precondition,
		Current:      current,
	}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s requires %s, current status is %s",
		ErrInvalidTransition, e.Operation, e.Precondition, e.Current)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// AlreadyAssignedError is returned to every driver that lost the accept race.
type AlreadyAssignedError struct {
	OrderID any
}

func NewAlreadyAssignedError(orderID any) *AlreadyAssignedError {
	return &AlreadyAssignedError{OrderID: orderID}
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("%s: %v", ErrAlreadyAssigned, e.OrderID)
}

func (e *AlreadyAssignedError) Unwrap() error {
	return ErrAlreadyAssigned
}

type InsufficientStockError struct {
	ItemID    any
	Requested int
	Available int
}

func NewInsufficientStockError(itemID any, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		ItemID:    itemID,
		Requested: requested,
		Available: available,
	}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: item %v requested %d, available %d",
		ErrInsufficientStock, e.ItemID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// PaymentGatewayError wraps a processor failure. Indeterminate is set when
// the processor may have applied the operation (timeouts, 5xx).
type PaymentGatewayError struct {
	Operation     string
	PaymentRef    string
	Indeterminate bool
	Cause         error
}

func NewPaymentGatewayError(operation, paymentRef string, indeterminate bool, cause error) *PaymentGatewayError {
	return &PaymentGatewayError{
		Operation:     operation,
		PaymentRef:    paymentRef,
		Indeterminate: indeterminate,
		Cause:         cause,
	}
}

func (e *PaymentGatewayError) Error() string {
	return withCause(fmt.Sprintf("%s: %s %s", ErrPaymentGateway, e.Operation, e.PaymentRef), e.Cause)
}

func (e *PaymentGatewayError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrPaymentGateway}
	}
	return []error{ErrPaymentGateway, e.Cause}
}

type RoutingUnavailableError struct {
	Cause error
}

func NewRoutingUnavailableError(cause error) *RoutingUnavailableError {
	return &RoutingUnavailableError{Cause: cause}
}

func (e *RoutingUnavailableError) Error() string {
	return withCause(ErrRoutingUnavailable.Error(), e.Cause)
}

func (e *RoutingUnavailableError) Unwrap() error {
	return ErrRoutingUnavailable
}

// SchemaMismatchError is produced when a persisted record cannot be turned
// back into a valid aggregate.
type SchemaMismatchError struct {
	Entity string
	ID     any
	Cause  error
}

func NewSchemaMismatchError(entity string, id any, cause error) *SchemaMismatchError {
	return &SchemaMismatchError{
		Entity: entity,
		ID:     id,
		Cause:  cause,
	}
}

func (e *SchemaMismatchError) Error() string {
	return withCause(fmt.Sprintf("%s: %s %v", ErrSchemaMismatch, e.Entity, e.ID), e.Cause)
}

func (e *SchemaMismatchError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrSchemaMismatch}
	}
	return []error{ErrSchemaMismatch, e.Cause}
}

// StaleWriteError reports a compare-and-set that lost against a concurrent
// writer. The caller re-reads and re-evaluates the operation.
type StaleWriteError struct {
	Entity   string
	ID       any
	Expected string
}

func NewStaleWriteError(entity string, id any, expected string) *StaleWriteError {
	return &StaleWriteError{
		Entity:   entity,
		ID:       id,
		Expected: expected,
	}
}

func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("%s: %s %v expected %s", ErrStaleWrite, e.Entity, e.ID, e.Expected)
}

func (e *StaleWriteError) Unwrap() error {
	return ErrStaleWrite
}
