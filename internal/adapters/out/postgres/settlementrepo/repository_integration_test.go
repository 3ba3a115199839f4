package settlementrepo_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/pgtest"
	"fulfillment/internal/adapters/out/postgres/settlementrepo"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/order/ordertest"
	"fulfillment/internal/core/domain/model/settlement"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
)

type SettlementRepositoryIntegrationTestSuite struct {
	suite.Suite
	pg         *pgtest.Database
	repository *settlementrepo.GormSettlementRepository
}

func TestSettlementRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(SettlementRepositoryIntegrationTestSuite))
}

func (suite *SettlementRepositoryIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.pg = pg
}

func (suite *SettlementRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.pg.Truncate())
	suite.repository = settlementrepo.NewGormSettlementRepository(suite.pg.DB)
}

func (suite *SettlementRepositoryIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.pg.Terminate(context.Background()))
}

func (suite *SettlementRepositoryIntegrationTestSuite) newEntry(driver kernel.UUID) (*settlement.Entry, time.Time) {
	o := ordertest.Default().At(order.DriverToPickup, driver)
	e, err := settlement.NewEntry(kernel.NewUUID(), o)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Add(context.Background(), e))
	return e, *o.Timeline().DriverAssignedAt
}

func (suite *SettlementRepositoryIntegrationTestSuite) TestAddAndGetByOrder() {
	driver := kernel.NewUUID()
	e, _ := suite.newEntry(driver)

	got, err := suite.repository.GetByOrder(context.Background(), e.OrderID())
	suite.Require().NoError(err)

	suite.True(got.ID().IsEqual(e.ID()))
	suite.True(got.DriverID().IsEqual(driver))
	suite.Equal(settlement.InProgress, got.Status())
	suite.Equal(e.Estimate(), got.Estimate())
	suite.Len(got.Snapshot().Items, 2)
	suite.Nil(got.Efficiencies().Pickup)
}

func (suite *SettlementRepositoryIntegrationTestSuite) TestAdd_SecondEntryForOrder_IsAlreadyAssigned() {
	o := ordertest.Default().At(order.DriverToPickup, kernel.NewUUID())
	first, err := settlement.NewEntry(kernel.NewUUID(), o)
	suite.Require().NoError(err)
	second, err := settlement.NewEntry(kernel.NewUUID(), o)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.repository.Add(context.Background(), first))
	err = suite.repository.Add(context.Background(), second)

	suite.Require().ErrorIs(err, errs.ErrAlreadyAssigned)
}

func (suite *SettlementRepositoryIntegrationTestSuite) TestUpdate_PersistsAmendmentsAndFreezesFinalized() {
	ctx := context.Background()
	e, accepted := suite.newEntry(kernel.NewUUID())

	suite.Require().NoError(e.AmendPickup(accepted.Add(15 * time.Minute)))
	suite.Require().NoError(suite.repository.Update(ctx, e))

	earned, err := kernel.MoneyFromString("17.50")
	suite.Require().NoError(err)
	suite.Require().NoError(e.AmendDelivery(accepted.Add(45*time.Minute), earned))
	suite.Require().NoError(suite.repository.Update(ctx, e))

	got, err := suite.repository.GetByOrder(ctx, e.OrderID())
	suite.Require().NoError(err)
	suite.Equal(settlement.Delivered, got.Status())
	suite.True(got.IsFinalized())
	suite.Equal("17.50", got.Earned().String())
	suite.Equal(900, *got.Durations().Pickup)
	suite.Equal(75, *got.Efficiencies().Overall)

	// a stale copy that was never finalized cannot overwrite the final row
	stale, err := settlement.RestoreEntry(func() settlement.Snapshot {
		s := got.Snapshot()
		s.DeliveredAt, s.FinalizedAt = nil, nil
		return s
	}())
	suite.Require().NoError(err)
	suite.Require().ErrorIs(suite.repository.Update(ctx, stale), settlement.ErrEntryFinalized)
}

func (suite *SettlementRepositoryIntegrationTestSuite) TestListByDriver_FiltersByStatus() {
	ctx := context.Background()
	driver := kernel.NewUUID()

	inProgress, _ := suite.newEntry(driver)
	pickedUp, accepted := suite.newEntry(driver)
	suite.Require().NoError(pickedUp.AmendPickup(accepted.Add(5 * time.Minute)))
	suite.Require().NoError(suite.repository.Update(ctx, pickedUp))
	suite.newEntry(kernel.NewUUID())

	all, err := suite.repository.ListByDriver(ctx, driver, settlement.FilterAll)
	suite.Require().NoError(err)
	suite.Len(all, 2)

	only, err := suite.repository.ListByDriver(ctx, driver, settlement.FilterInProgress)
	suite.Require().NoError(err)
	suite.Require().Len(only, 1)
	suite.True(only[0].ID().IsEqual(inProgress.ID()))

	delivered, err := suite.repository.ListByDriver(ctx, driver, settlement.FilterDelivered)
	suite.Require().NoError(err)
	suite.Empty(delivered)
}

func (suite *SettlementRepositoryIntegrationTestSuite) TestUpdatePaymentStatus() {
	ctx := context.Background()
	e, _ := suite.newEntry(kernel.NewUUID())

	suite.Require().NoError(suite.repository.UpdatePaymentStatus(ctx, e.OrderID(), order.PaymentUnknown))

	got, err := suite.repository.GetByOrder(ctx, e.OrderID())
	suite.Require().NoError(err)
	suite.Equal(order.PaymentUnknown, got.PaymentStatus())
}

func (suite *SettlementRepositoryIntegrationTestSuite) TestGetByOrder_Missing() {
	_, err := suite.repository.GetByOrder(context.Background(), kernel.NewUUID())

	var notFound *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFound)
}

func (suite *SettlementRepositoryIntegrationTestSuite) TestUpdate_KeepsPaymentMarkerWrittenMeanwhile() {
	ctx := context.Background()
	e, accepted := suite.newEntry(kernel.NewUUID())
	suite.Require().Equal(order.PaymentAuthorized, e.PaymentStatus())

	suite.Require().NoError(suite.repository.UpdatePaymentStatus(ctx, e.OrderID(), order.PaymentFailed))

	suite.Require().NoError(e.AmendPickup(accepted.Add(10 * time.Minute)))
	suite.Require().NoError(suite.repository.Update(ctx, e))

	got, err := suite.repository.GetByOrder(ctx, e.OrderID())
	suite.Require().NoError(err)
	suite.Equal(settlement.PickedUp, got.Status())
	suite.Equal(order.PaymentFailed, got.PaymentStatus())
}
