package commands_test

import (
	"errors"
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/order/ordertest"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func withPayment(t *testing.T, o *order.Order, status order.PaymentStatus) *order.Order {
	t.Helper()
	require.NoError(t, o.SetPaymentStatus(status))
	return o
}

func TestReconcilePaymentsCommandHandler(t *testing.T) {
	driverA := kernel.NewUUID()
	delivered := ordertest.Default()
	cancelled := ordertest.Default()
	waiting := ordertest.Default()

	uow := newMockUoW().expectTx(nil)
	uow.orders.On("ListPaymentsToReconcile", mock.Anything, 50).Return([]*order.Order{
		withPayment(t, delivered.At(order.Delivered, driverA), order.PaymentFailed),
		withPayment(t, cancelled.At(order.Cancelled, kernel.UUID{}), order.PaymentUnknown),
		withPayment(t, waiting.At(order.AwaitingDriver, kernel.UUID{}), order.PaymentUnknown),
	}, nil).Once()

	pay := newPaymentDeps(uow)
	pay.accounts.On("PayoutAccount", mock.Anything, delivered.Vendor.ID(), kernel.RoleVendor).Return("acct_vendor", nil).Once()
	pay.accounts.On("PayoutAccount", mock.Anything, driverA, kernel.RoleDriver).Return("acct_driver", nil).Once()
	pay.gateway.On("CaptureAndTransfer", mock.Anything, "pi_test_123", "acct_vendor", "20.00").Return(nil).Once()
	pay.gateway.On("Transfer", mock.Anything, "pi_test_123", "acct_driver", "17.50").Return(nil).Once()
	pay.gateway.On("Release", mock.Anything, "pi_test_123").
		Return(errs.NewPaymentGatewayError(ports.PaymentOpRelease, "pi_test_123", true, errors.New("timeout"))).Once()

	expectMarker(uow, delivered.ID, order.PaymentSettled)

	cmd, err := commands.NewReconcilePaymentsCommand(50)
	require.NoError(t, err)
	h := commands.NewReconcilePaymentsCommandHandler(orderUoWFactory{uow}, pay.runner, testEnv())

	report, err := h.Handle(t.Context(), cmd)

	require.NoError(t, err)
	assert.Equal(t, commands.ReconcileReport{Scanned: 3, Recovered: 1, Failed: 1, Skipped: 1}, report)
	// the cancelled order stays unknown, so no marker is written for it
	uow.orders.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, cancelled.ID, mock.Anything)
	uow.assertAll(t)
	pay.assertAll(t)
}

func TestReconcilePaymentsCommandHandler_ListFailure(t *testing.T) {
	uow := newMockUoW()
	uow.orders.On("ListPaymentsToReconcile", mock.Anything, 100).Return(nil, errors.New("db down")).Once()

	cmd, _ := commands.NewReconcilePaymentsCommand(0)
	h := commands.NewReconcilePaymentsCommandHandler(orderUoWFactory{uow}, newPaymentDeps(uow).runner, testEnv())

	_, err := h.Handle(t.Context(), cmd)

	require.EqualError(t, err, "db down")
}

func TestPaymentOpsFor(t *testing.T) {
	assert.Equal(t, []string{ports.PaymentOpRelease}, commands.PaymentOpsFor(order.Cancelled))
	assert.Equal(t, []string{ports.PaymentOpCaptureAndTransfer}, commands.PaymentOpsFor(order.DriverDelivering))
	assert.Equal(t, []string{ports.PaymentOpCaptureAndTransfer, ports.PaymentOpTransfer}, commands.PaymentOpsFor(order.Delivered))
	assert.Empty(t, commands.PaymentOpsFor(order.Preparing))
	assert.Empty(t, commands.PaymentOpsFor(order.DriverToPickup))
}
