package orderrepo_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/pgtest"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/order/ordertest"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	pg         *pgtest.Database
	repository *orderrepo.GormOrderRepository
	tracker    *MockAggregateTracker
}

func TestOrderRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.pg = pg
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.pg.Truncate())

	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	suite.repository = orderrepo.NewGormOrderRepository(suite.pg.DB, suite.tracker)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.pg.Terminate(context.Background()))
}

func (suite *OrderRepositoryIntegrationTestSuite) add(o *order.Order) {
	suite.Require().NoError(suite.repository.Add(context.Background(), o))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAddAndGet_RoundTripsTheAggregate() {
	ctx := context.Background()
	original := ordertest.Default().At(order.DriverToPickup, kernel.NewUUID())

	tracker := new(MockAggregateTracker)
	tracker.On("TrackAggregate", original.ID(), original).Once()
	repo := orderrepo.NewGormOrderRepository(suite.pg.DB, tracker)

	suite.Require().NoError(repo.Add(ctx, original))

	restored, err := repo.Get(ctx, original.ID())
	suite.Require().NoError(err)

	want, got := original.Snapshot(), restored.Snapshot()
	suite.Equal(want.Status, got.Status)
	suite.Equal(*want.DriverID, *got.DriverID)
	suite.Equal(want.Estimate, got.Estimate)
	suite.Equal(want.PaymentRef, got.PaymentRef)
	suite.Equal(want.PaymentStatus, got.PaymentStatus)
	suite.Equal("40.10", got.Amounts.Total.String())
	suite.Require().Len(got.Items, 2)
	suite.Equal("Burger", got.Items[0].Name())
	suite.Equal(2, got.Items[1].Quantity())
	suite.True(want.Timeline.DriverAssignedAt.Equal(*got.Timeline.DriverAssignedAt))
	suite.Equal("Luigi's Kitchen", got.Vendor.Name())

	tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_NonExistentOrder_ReturnsNotFoundError() {
	o, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.Nil(o)
	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_CorruptRow_ReturnsSchemaMismatch() {
	o := ordertest.Default().New()
	suite.add(o)

	suite.Require().NoError(suite.pg.DB.Exec(
		"UPDATE orders SET status = 'teleported' WHERE id = ?", o.ID().Bytes()).Error)

	_, err := suite.repository.Get(context.Background(), o.ID())

	suite.Require().ErrorIs(err, errs.ErrSchemaMismatch)
	var mismatch *errs.SchemaMismatchError
	suite.Require().ErrorAs(err, &mismatch)
	suite.Equal("order", mismatch.Entity)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestTransition_AppliesWhenPreconditionHolds() {
	ctx := context.Background()
	f := ordertest.Default()
	o := f.New()
	suite.add(o)

	suite.Require().NoError(o.MarkReady(f.VendorCaller(), time.Now()))
	suite.Require().NoError(suite.repository.Transition(ctx, o, ports.Precondition{Status: order.Preparing}))

	stored, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.AwaitingDriver, stored.Status())
	suite.NotNil(stored.Timeline().VendorReadyAt)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestTransition_StalePreconditionWritesNothing() {
	ctx := context.Background()
	f := ordertest.Default()
	o := f.At(order.AwaitingDriver, kernel.UUID{})
	suite.add(o)

	_, err := o.Accept(ordertest.DriverCaller(kernel.NewUUID()), time.Now())
	suite.Require().NoError(err)

	err = suite.repository.Transition(ctx, o, ports.Precondition{Status: order.Preparing})
	suite.Require().ErrorIs(err, errs.ErrStaleWrite)

	stored, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.AwaitingDriver, stored.Status())
	suite.Nil(stored.Driver())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestTransition_DriverPrecondition() {
	ctx := context.Background()
	f := ordertest.Default()
	driver := kernel.NewUUID()
	o := f.At(order.DriverToPickup, driver)
	suite.add(o)

	_, err := o.MarkPickedUp(ordertest.DriverCaller(driver), time.Now())
	suite.Require().NoError(err)

	other := kernel.NewUUID()
	err = suite.repository.Transition(ctx, o, ports.Precondition{Status: order.DriverToPickup, Driver: &other})
	suite.Require().ErrorIs(err, errs.ErrStaleWrite)

	err = suite.repository.Transition(ctx, o, ports.Precondition{Status: order.DriverToPickup, Driver: &driver})
	suite.Require().NoError(err)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestTransition_ConcurrentAcceptHasExactlyOneWinner() {
	ctx := context.Background()
	f := ordertest.Default()
	suite.add(f.At(order.AwaitingDriver, kernel.UUID{}))

	const drivers = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []kernel.UUID
		stale   int
	)

	start := make(chan struct{})
	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			driver := kernel.NewUUID()

			o, err := suite.repository.Get(ctx, f.ID)
			if err != nil {
				return
			}
			if _, err := o.Accept(ordertest.DriverCaller(driver), time.Now()); err != nil {
				return
			}

			<-start
			err = suite.repository.Transition(ctx, o, ports.Precondition{Status: order.AwaitingDriver, DriverUnset: true})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, driver)
			case errors.Is(err, errs.ErrStaleWrite):
				stale++
			}
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(start)
	wg.Wait()

	suite.Require().Len(winners, 1)
	suite.Equal(drivers-1, stale)

	stored, err := suite.repository.Get(ctx, f.ID)
	suite.Require().NoError(err)
	suite.Equal(order.DriverToPickup, stored.Status())
	suite.True(stored.IsAssignedTo(winners[0]))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdatePaymentStatus_AndListPaymentsToReconcile() {
	ctx := context.Background()

	settled := ordertest.Default().New()
	failed := ordertest.Default().New()
	unknown := ordertest.Default().New()
	suite.add(settled)
	suite.add(failed)
	suite.add(unknown)

	suite.Require().NoError(suite.repository.UpdatePaymentStatus(ctx, failed.ID(), order.PaymentFailed))
	suite.Require().NoError(suite.repository.UpdatePaymentStatus(ctx, unknown.ID(), order.PaymentUnknown))

	pending, err := suite.repository.ListPaymentsToReconcile(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(pending, 2)
	suite.True(pending[0].IsEqual(failed))
	suite.True(pending[1].IsEqual(unknown))

	err = suite.repository.UpdatePaymentStatus(ctx, kernel.NewUUID(), order.PaymentFailed)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestTransition_KeepsPaymentMarkerWrittenMeanwhile() {
	ctx := context.Background()
	driver := kernel.NewUUID()
	o := ordertest.Default().At(order.DriverDelivering, driver)
	suite.add(o)
	suite.Require().Equal(order.PaymentAuthorized, o.PaymentStatus())

	// the capture of the pickup fails after this aggregate was read
	suite.Require().NoError(suite.repository.UpdatePaymentStatus(ctx, o.ID(), order.PaymentFailed))

	_, err := o.MarkDelivered(ordertest.DriverCaller(driver), time.Now())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Transition(ctx, o, ports.Precondition{Status: order.DriverDelivering, Driver: &driver}))

	stored, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Delivered, stored.Status())
	suite.Equal(order.PaymentFailed, stored.PaymentStatus())

	pending, err := suite.repository.ListPaymentsToReconcile(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(pending, 1)
	suite.True(pending[0].IsEqual(o))
}
