package queries_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/driverrepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/pgtest"
	"fulfillment/internal/adapters/out/postgres/settlementrepo"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/order/ordertest"
	"fulfillment/internal/core/domain/model/settlement"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
)

type noopTracker struct{}

func (noopTracker) TrackAggregate(kernel.UUID, any) {}

type QueryHandlersIntegrationTestSuite struct {
	suite.Suite
	pg          *pgtest.Database
	orders      *orderrepo.GormOrderRepository
	settlements *settlementrepo.GormSettlementRepository
	stats       *driverrepo.GormDriverStatsRepository
}

func TestQueryHandlersIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(QueryHandlersIntegrationTestSuite))
}

func (suite *QueryHandlersIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.pg = pg
	suite.orders = orderrepo.NewGormOrderRepository(pg.DB, noopTracker{})
	suite.settlements = settlementrepo.NewGormSettlementRepository(pg.DB)
	suite.stats = driverrepo.NewGormDriverStatsRepository(pg.DB)
}

func (suite *QueryHandlersIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.pg.Terminate(context.Background()))
}

func (suite *QueryHandlersIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.pg.Truncate())
}

func (suite *QueryHandlersIntegrationTestSuite) addOrder(o *order.Order) *order.Order {
	suite.Require().NoError(suite.orders.Add(context.Background(), o))
	return o
}

func (suite *QueryHandlersIntegrationTestSuite) TestGetOrder_ReturnsOrderWithItems() {
	f := ordertest.Default()
	driverID := kernel.NewUUID()
	suite.addOrder(f.At(order.DriverDelivering, driverID))

	query, err := queries.NewGetOrderQuery(f.ID)
	suite.Require().NoError(err)

	view, err := queries.NewGetOrderQueryHandler(suite.pg.DB).Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Equal(f.ID, view.ID)
	suite.Equal("driver_delivering", view.Status)
	suite.Require().NotNil(view.DriverID)
	suite.Equal(driverID, *view.DriverID)
	suite.Equal("Luigi's Kitchen", view.Vendor.Name)
	suite.Equal(f.Vendor.ID(), view.Vendor.ID)
	suite.Equal("40.10", view.Total.String())
	suite.Equal(1800, view.Estimate.DriveSeconds)
	suite.Equal("authorized", view.PaymentStatus)
	suite.NotNil(view.Timeline.PickedUpAt)
	suite.Nil(view.Timeline.DeliveredAt)
	suite.Require().Len(view.Items, 2)
	suite.Equal("Burger", view.Items[0].Name)
	suite.Equal(2, view.Items[1].Quantity)
	suite.Equal("4.00", view.Items[1].UnitPrice.String())
}

func (suite *QueryHandlersIntegrationTestSuite) TestGetOrder_Unknown() {
	query, _ := queries.NewGetOrderQuery(kernel.NewUUID())

	_, err := queries.NewGetOrderQueryHandler(suite.pg.DB).Handle(context.Background(), query)

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *QueryHandlersIntegrationTestSuite) TestListOrders_Filters() {
	driverA := kernel.NewUUID()

	older := ordertest.Default()
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	waitingOld := suite.addOrder(older.At(order.AwaitingDriver, kernel.UUID{}))
	waitingNew := suite.addOrder(ordertest.Default().At(order.AwaitingDriver, kernel.UUID{}))
	assigned := suite.addOrder(ordertest.Default().At(order.DriverToPickup, driverA))
	preparing := suite.addOrder(ordertest.Default().New())

	handler := queries.NewListOrdersQueryHandler(suite.pg.DB)

	query, err := queries.NewListOrdersQuery(queries.OrderFilter{Status: "awaiting_driver"})
	suite.Require().NoError(err)
	views, err := handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	suite.Require().Len(views, 2)
	suite.Equal(waitingOld.ID(), views[0].ID)
	suite.Equal(waitingNew.ID(), views[1].ID)
	suite.Nil(views[0].Items)

	query, _ = queries.NewListOrdersQuery(queries.OrderFilter{DriverID: &driverA})
	views, err = handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	suite.Require().Len(views, 1)
	suite.Equal(assigned.ID(), views[0].ID)

	vendorID := preparing.Vendor().ID()
	query, _ = queries.NewListOrdersQuery(queries.OrderFilter{VendorID: &vendorID})
	views, err = handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	suite.Require().Len(views, 1)
	suite.Equal("preparing", views[0].Status)

	query, _ = queries.NewListOrdersQuery(queries.OrderFilter{Limit: 3})
	views, err = handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	suite.Len(views, 3)
}

func (suite *QueryHandlersIntegrationTestSuite) TestSettlementQueries() {
	ctx := context.Background()
	driverID := kernel.NewUUID()

	inFlight := ordertest.Default().At(order.DriverToPickup, driverID)
	inFlightEntry, err := settlement.NewEntry(kernel.NewUUID(), inFlight)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.settlements.Add(ctx, inFlightEntry))

	f := ordertest.Default()
	done := f.At(order.DriverToPickup, driverID)
	doneEntry, err := settlement.NewEntry(kernel.NewUUID(), done)
	suite.Require().NoError(err)
	accepted, _, _, _ := doneEntry.Timestamps()
	suite.Require().NoError(doneEntry.AmendPickup(accepted.Add(15 * time.Minute)))
	suite.Require().NoError(doneEntry.AmendDelivery(accepted.Add(45*time.Minute), done.EarnedByDriver()))
	suite.Require().NoError(suite.settlements.Add(ctx, doneEntry))

	getQuery, _ := queries.NewGetSettlementQuery(f.ID)
	view, err := queries.NewGetSettlementQueryHandler(suite.pg.DB).Handle(ctx, getQuery)
	suite.Require().NoError(err)
	suite.Equal("delivered", view.Status)
	suite.Equal("17.50", view.Earned.String())
	suite.Equal(2700, *view.TotalSeconds)
	suite.Equal(75, *view.OverallEfficiency)
	suite.NotNil(view.FinalizedAt)
	suite.Len(view.Items, 2)

	list := queries.NewListDriverSettlementsQueryHandler(suite.pg.DB)

	allQuery, _ := queries.NewListDriverSettlementsQuery(driverID, "all")
	views, err := list.Handle(ctx, allQuery)
	suite.Require().NoError(err)
	suite.Len(views, 2)

	progressQuery, _ := queries.NewListDriverSettlementsQuery(driverID, "in_progress")
	views, err = list.Handle(ctx, progressQuery)
	suite.Require().NoError(err)
	suite.Require().Len(views, 1)
	suite.Equal(inFlight.ID(), views[0].OrderID)
	suite.Nil(views[0].PickedUpAt)
	suite.Nil(views[0].PickupSeconds)
	suite.Nil(views[0].OverallEfficiency)
	suite.True(views[0].Earned.IsZero())

	missing, _ := queries.NewGetSettlementQuery(kernel.NewUUID())
	_, err = queries.NewGetSettlementQueryHandler(suite.pg.DB).Handle(ctx, missing)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *QueryHandlersIntegrationTestSuite) TestGetDriverStats() {
	ctx := context.Background()
	driverID := kernel.NewUUID()
	handler := queries.NewGetDriverStatsQueryHandler(suite.pg.DB)

	query, _ := queries.NewGetDriverStatsQuery(driverID)
	view, err := handler.Handle(ctx, query)
	suite.Require().NoError(err)
	suite.Equal(0, view.Deliveries)
	suite.True(view.Earnings.IsZero())
	suite.Nil(view.UpdatedAt)

	delivered := ordertest.Default().At(order.Delivered, driverID)
	inc, err := driver.IncrementFor(delivered)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.stats.Increment(ctx, driverID, inc, time.Now()))
	suite.Require().NoError(suite.stats.Increment(ctx, driverID, inc, time.Now()))

	view, err = handler.Handle(ctx, query)
	suite.Require().NoError(err)
	suite.Equal(2, view.Deliveries)
	suite.Equal("35.00", view.Earnings.String())
	suite.Equal(int64(32186), view.DistanceMeters)
	suite.Equal(6, view.Items)
	suite.InDelta(20.0, view.Miles, 0.01)
	suite.NotNil(view.UpdatedAt)
}
