package commands_test

import (
	"context"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/settlement"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/retry"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) Transition(ctx context.Context, o *order.Order, pre ports.Precondition) error {
	return m.Called(ctx, o, pre).Error(0)
}

func (m *MockOrderRepository) UpdatePaymentStatus(ctx context.Context, id kernel.UUID, status order.PaymentStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockOrderRepository) ListPaymentsToReconcile(ctx context.Context, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, limit)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

type MockSettlementRepository struct{ mock.Mock }

func (m *MockSettlementRepository) Add(ctx context.Context, e *settlement.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockSettlementRepository) Update(ctx context.Context, e *settlement.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockSettlementRepository) GetByOrder(ctx context.Context, orderID kernel.UUID) (*settlement.Entry, error) {
	args := m.Called(ctx, orderID)
	e, _ := args.Get(0).(*settlement.Entry)
	return e, args.Error(1)
}

func (m *MockSettlementRepository) ListByDriver(ctx context.Context, driverID kernel.UUID, f settlement.Filter) ([]*settlement.Entry, error) {
	args := m.Called(ctx, driverID, f)
	entries, _ := args.Get(0).([]*settlement.Entry)
	return entries, args.Error(1)
}

func (m *MockSettlementRepository) UpdatePaymentStatus(ctx context.Context, orderID kernel.UUID, status order.PaymentStatus) error {
	return m.Called(ctx, orderID, status).Error(0)
}

type MockInventoryRepository struct{ mock.Mock }

func (m *MockInventoryRepository) Add(ctx context.Context, item *inventory.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockInventoryRepository) Get(ctx context.Context, id kernel.UUID) (*inventory.Item, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*inventory.Item)
	return item, args.Error(1)
}

func (m *MockInventoryRepository) Deduct(ctx context.Context, vendorID kernel.UUID, adj inventory.Adjustment) (inventory.Outcome, error) {
	args := m.Called(ctx, vendorID, adj)
	return args.Get(0).(inventory.Outcome), args.Error(1)
}

type MockDriverStatsRepository struct{ mock.Mock }

func (m *MockDriverStatsRepository) Increment(ctx context.Context, driverID kernel.UUID, inc driver.Increment, at time.Time) error {
	return m.Called(ctx, driverID, inc, at).Error(0)
}

func (m *MockDriverStatsRepository) Get(ctx context.Context, driverID kernel.UUID) (*driver.Stats, error) {
	args := m.Called(ctx, driverID)
	s, _ := args.Get(0).(*driver.Stats)
	return s, args.Error(1)
}

// MockUoW satisfies both commands.UoW and commands.OrderUoW.
type MockUoW struct {
	mock.Mock
	orders      *MockOrderRepository
	settlements *MockSettlementRepository
	inventory   *MockInventoryRepository
	stats       *MockDriverStatsRepository
}

func newMockUoW() *MockUoW {
	return &MockUoW{
		orders:      new(MockOrderRepository),
		settlements: new(MockSettlementRepository),
		inventory:   new(MockInventoryRepository),
		stats:       new(MockDriverStatsRepository),
	}
}

func (m *MockUoW) Begin(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockUoW) Commit(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockUoW) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockUoW) OrderRepository() ports.OrderRepository { return m.orders }
func (m *MockUoW) SettlementRepository() ports.SettlementRepository { return m.settlements }
func (m *MockUoW) InventoryRepository() ports.InventoryRepository { return m.inventory }
func (m *MockUoW) DriverStatsRepository() ports.DriverStatsRepository { return m.stats }

// expectTx accepts any number of transactions, each committing with commitErr.
func (m *MockUoW) expectTx(commitErr error) *MockUoW {
	m.On("Begin", mock.Anything).Return(nil).Maybe()
	m.On("Commit", mock.Anything).Return(commitErr).Maybe()
	m.On("Rollback", mock.Anything).Return(nil).Maybe()
	return m
}

func (m *MockUoW) assertAll(t mock.TestingT) {
	m.AssertExpectations(t)
	m.orders.AssertExpectations(t)
	m.settlements.AssertExpectations(t)
	m.inventory.AssertExpectations(t)
	m.stats.AssertExpectations(t)
}

type uowFactory struct{ uow *MockUoW }

func (f uowFactory) Create() commands.UoW { return f.uow }

type orderUoWFactory struct{ uow *MockUoW }

func (f orderUoWFactory) Create() commands.OrderUoW { return f.uow }

type MockPaymentGateway struct{ mock.Mock }

func (m *MockPaymentGateway) CaptureAndTransfer(ctx context.Context, ref, account string, amount kernel.Money) error {
	return m.Called(ctx, ref, account, amount.String()).Error(0)
}

func (m *MockPaymentGateway) Transfer(ctx context.Context, ref, account string, amount kernel.Money) error {
	return m.Called(ctx, ref, account, amount.String()).Error(0)
}

func (m *MockPaymentGateway) Release(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

type MockAccountDirectory struct{ mock.Mock }

func (m *MockAccountDirectory) PayoutAccount(ctx context.Context, owner kernel.UUID, role kernel.Role) (string, error) {
	args := m.Called(ctx, owner, role)
	return args.String(0), args.Error(1)
}

type MockEstimator struct{ mock.Mock }

func (m *MockEstimator) Estimate(ctx context.Context, origin, dest kernel.Location, baseFee kernel.Money) (services.Estimate, error) {
	args := m.Called(ctx, origin, dest, baseFee)
	return args.Get(0).(services.Estimate), args.Error(1)
}

var testNow = time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)

// testEnv has a fixed clock and a retry policy without waits.
func testEnv() commands.Env {
	return commands.Env{
		Clock: ports.ClockFunc(func() time.Time { return testNow }),
		Retry: retry.Policy{MaxAttempts: 3, InitialInterval: time.Microsecond, MaxInterval: time.Microsecond},
	}
}
