package errs_test

import (
	"errors"
	"testing"

	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidTransitionError(t *testing.T) {
	err := errs.NewInvalidTransitionError("CancelOrder", "status preparing", "driver_delivering")

	assert.Equal(t,
		"invalid transition: CancelOrder requires status preparing, current status is driver_delivering",
		err.Error())
	require.ErrorIs(t, err, errs.ErrInvalidTransition)

	var target *errs.InvalidTransitionError
	require.ErrorAs(t, error(err), &target)
	assert.Equal(t, "driver_delivering", target.Current)
}

func TestAlreadyAssignedError(t *testing.T) {
	err := errs.NewAlreadyAssignedError("order-1")

	assert.Equal(t, "order already assigned: order-1", err.Error())
	require.ErrorIs(t, err, errs.ErrAlreadyAssigned)
	assert.NotErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestInsufficientStockError(t *testing.T) {
	err := errs.NewInsufficientStockError("sku-1", 5, 2)

	assert.Equal(t, "insufficient stock: item sku-1 requested 5, available 2", err.Error())
	require.ErrorIs(t, err, errs.ErrInsufficientStock)
}

func TestPaymentGatewayError(t *testing.T) {
	t.Run("unwraps sentinel and cause", func(t *testing.T) {
		cause := errors.New("card_declined")
		err := errs.NewPaymentGatewayError("capture", "pi_123", false, cause)

		assert.Equal(t, "payment gateway failure: capture pi_123 (cause: card_declined)", err.Error())
		require.ErrorIs(t, err, errs.ErrPaymentGateway)
		require.ErrorIs(t, err, cause)
		assert.False(t, err.Indeterminate)
	})

	t.Run("without cause", func(t *testing.T) {
		err := errs.NewPaymentGatewayError("release", "pi_9", true, nil)

		assert.Equal(t, "payment gateway failure: release pi_9", err.Error())
		require.ErrorIs(t, err, errs.ErrPaymentGateway)
	})
}

func TestRoutingUnavailableError(t *testing.T) {
	err := errs.NewRoutingUnavailableError(errors.New("503"))

	assert.Equal(t, "routing unavailable (cause: 503)", err.Error())
	require.ErrorIs(t, err, errs.ErrRoutingUnavailable)
}

func TestSchemaMismatchError(t *testing.T) {
	cause := errs.NewValueIsRequiredError("vendor")
	err := errs.NewSchemaMismatchError("order", "42", cause)

	assert.Equal(t, "schema mismatch: order 42 (cause: value is required: vendor)", err.Error())
	require.ErrorIs(t, err, errs.ErrSchemaMismatch)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestStaleWriteError(t *testing.T) {
	err := errs.NewStaleWriteError("order", "order-1", "status awaiting_driver")

	assert.Equal(t, "conditional write matched no row: order order-1 expected status awaiting_driver", err.Error())
	require.ErrorIs(t, err, errs.ErrStaleWrite)
	assert.False(t, errors.Is(err, errs.ErrInvalidTransition))
}
