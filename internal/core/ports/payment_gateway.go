package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
)

// Payment operation names. They also suffix idempotency keys.
const (
	PaymentOpCaptureAndTransfer = "capture_and_transfer"
	PaymentOpTransfer           = "transfer"
	PaymentOpRelease            = "release"
)

// PaymentGateway moves money for an order. Every call carries the order's
// payment reference so the processor can deduplicate retries. Failures are
// errs.PaymentGatewayError.
type PaymentGateway interface {
	// CaptureAndTransfer captures the authorized payment and routes the
	// vendor's share to the vendor account.
	CaptureAndTransfer(ctx context.Context, paymentRef, vendorAccount string, vendorAmount kernel.Money) error

	// Transfer pays the driver's earnings out of the captured payment.
	Transfer(ctx context.Context, paymentRef, driverAccount string, driverAmount kernel.Money) error

	// Release voids the authorization.
	Release(ctx context.Context, paymentRef string) error
}

// AccountDirectory resolves payout accounts at the payment processor.
type AccountDirectory interface {
	PayoutAccount(ctx context.Context, ownerID kernel.UUID, role kernel.Role) (string, error)
}
