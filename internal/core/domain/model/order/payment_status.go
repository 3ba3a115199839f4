package order

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// PaymentStatus is the payment marker recorded next to the fulfillment state.
// It never gates a transition.
type PaymentStatus string

const (
	PaymentNone       PaymentStatus = "none"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentCaptured   PaymentStatus = "captured"
	PaymentSettled    PaymentStatus = "settled"
	PaymentReleased   PaymentStatus = "released"
	// PaymentFailed means the processor rejected the call.
	PaymentFailed PaymentStatus = "failed"
	// PaymentUnknown means the outcome could not be determined.
	PaymentUnknown PaymentStatus = "unknown"
)

func (p PaymentStatus) Validate() error {
	switch p {
	case PaymentNone, PaymentAuthorized, PaymentCaptured, PaymentSettled,
		PaymentReleased, PaymentFailed, PaymentUnknown:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("payment status", fmt.Errorf("%q is not a valid payment status", string(p)))
	}
}

// NeedsReconciliation reports whether a background retry should re-drive the gateway.
func (p PaymentStatus) NeedsReconciliation() bool {
	return p == PaymentFailed || p == PaymentUnknown
}
