package commands

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// PaymentOpsFor returns the gateway operations an order in status owes.
// Reconciliation replays all of them; completed ones are skipped by the
// gateway's idempotency guard.
func PaymentOpsFor(status order.Status) []string {
	switch status {
	case order.Cancelled:
		return []string{ports.PaymentOpRelease}
	case order.DriverDelivering:
		return []string{ports.PaymentOpCaptureAndTransfer}
	case order.Delivered:
		return []string{ports.PaymentOpCaptureAndTransfer, ports.PaymentOpTransfer}
	default:
		return nil
	}
}

// PaymentRunner performs the payment side effects of committed transitions
// and records the resulting payment marker. It never changes fulfillment state.
type PaymentRunner struct {
	gateway    ports.PaymentGateway
	accounts   ports.AccountDirectory
	uowFactory UoWFactory
	env        Env
}

// NewPaymentRunner creates a runner. Accounts resolves the vendor and driver
// payout accounts; uowFactory is used to store the payment marker.
func NewPaymentRunner(gateway ports.PaymentGateway, accounts ports.AccountDirectory, uowFactory UoWFactory, env Env) *PaymentRunner {
	return &PaymentRunner{
		gateway:    gateway,
		accounts:   accounts,
		uowFactory: uowFactory,
		env:        env.withDefaults(),
	}
}

// Run executes ops in order for o and stores the marker on the order and its
// ledger entry. The first failing operation stops the run and is returned as
// a warning. Orders without a payment reference are skipped.
func (p *PaymentRunner) Run(ctx context.Context, o *order.Order, ops ...string) *Warning {
	if o.PaymentRef() == "" || len(ops) == 0 {
		return nil
	}

	status := o.PaymentStatus()
	var warning *Warning
	for _, op := range ops {
		next, err := p.execute(ctx, o, op)
		if err != nil {
			status = failureStatus(op, err)
			warning = &Warning{Kind: WarningPaymentGatewayFailure, Message: err.Error()}
			break
		}
		status = next
	}

	if status != o.PaymentStatus() {
		if err := p.mark(ctx, o.ID(), status); err != nil {
			p.env.Log.Error(ctx, "recording payment status failed", err)
		}
		_ = o.SetPaymentStatus(status)
	}
	return warning
}

func (p *PaymentRunner) execute(ctx context.Context, o *order.Order, op string) (order.PaymentStatus, error) {
	switch op {
	case ports.PaymentOpCaptureAndTransfer:
		account, err := p.account(ctx, op, o, o.Vendor().ID(), kernel.RoleVendor)
		if err != nil {
			return "", err
		}
		return order.PaymentCaptured, p.gateway.CaptureAndTransfer(ctx, o.PaymentRef(), account, o.Amounts().Subtotal)

	case ports.PaymentOpTransfer:
		driver := o.Driver()
		if driver == nil {
			return "", errs.NewPaymentGatewayError(op, o.PaymentRef(), false, errors.New("order has no driver"))
		}
		account, err := p.account(ctx, op, o, *driver, kernel.RoleDriver)
		if err != nil {
			return "", err
		}
		return order.PaymentSettled, p.gateway.Transfer(ctx, o.PaymentRef(), account, o.EarnedByDriver())

	case ports.PaymentOpRelease:
		return order.PaymentReleased, p.gateway.Release(ctx, o.PaymentRef())

	default:
		return "", fmt.Errorf("unknown payment operation %q", op)
	}
}

func (p *PaymentRunner) account(ctx context.Context, op string, o *order.Order, owner kernel.UUID, role kernel.Role) (string, error) {
	account, err := p.accounts.PayoutAccount(ctx, owner, role)
	if err != nil {
		return "", errs.NewPaymentGatewayError(op, o.PaymentRef(), false, err)
	}
	return account, nil
}

// failureStatus is unknown when the processor may have applied the call.
// A failed release is always unknown since the hold may lapse on its own.
func failureStatus(op string, err error) order.PaymentStatus {
	if op == ports.PaymentOpRelease {
		return order.PaymentUnknown
	}
	var gwErr *errs.PaymentGatewayError
	if errors.As(err, &gwErr) && !gwErr.Indeterminate {
		return order.PaymentFailed
	}
	return order.PaymentUnknown
}

func (p *PaymentRunner) mark(ctx context.Context, orderID kernel.UUID, status order.PaymentStatus) error {
	return transact(ctx, p.env, "RecordPaymentStatus", p.uowFactory.Create, func(ctx context.Context, uow UoW) error {
		if err := uow.OrderRepository().UpdatePaymentStatus(ctx, orderID, status); err != nil {
			return err
		}
		if err := uow.SettlementRepository().UpdatePaymentStatus(ctx, orderID, status); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}
