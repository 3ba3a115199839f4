package driverrepo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/driverrepo"
	"fulfillment/internal/adapters/out/postgres/pgtest"
	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/suite"
)

type DriverStatsRepositoryIntegrationTestSuite struct {
	suite.Suite
	pg         *pgtest.Database
	repository *driverrepo.GormDriverStatsRepository
}

func TestDriverStatsRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(DriverStatsRepositoryIntegrationTestSuite))
}

func (suite *DriverStatsRepositoryIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.pg = pg
}

func (suite *DriverStatsRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.pg.Truncate())
	suite.repository = driverrepo.NewGormDriverStatsRepository(suite.pg.DB)
}

func (suite *DriverStatsRepositoryIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.pg.Terminate(context.Background()))
}

func (suite *DriverStatsRepositoryIntegrationTestSuite) increment() driver.Increment {
	earnings, err := kernel.MoneyFromString("17.50")
	suite.Require().NoError(err)
	return driver.Increment{Deliveries: 1, Earnings: earnings, DistanceMeters: 16093, Items: 3, Miles: 10}
}

func (suite *DriverStatsRepositoryIntegrationTestSuite) TestGet_UnknownDriverHasZeroTotals() {
	id := kernel.NewUUID()

	stats, err := suite.repository.Get(context.Background(), id)

	suite.Require().NoError(err)
	suite.True(stats.DriverID().IsEqual(id))
	suite.Equal(0, stats.Deliveries())
	suite.True(stats.Earnings().IsZero())
}

func (suite *DriverStatsRepositoryIntegrationTestSuite) TestIncrement_AccumulatesUnderConcurrency() {
	ctx := context.Background()
	id := kernel.NewUUID()
	at := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			suite.NoError(suite.repository.Increment(ctx, id, suite.increment(), at))
		}()
	}
	wg.Wait()

	stats, err := suite.repository.Get(ctx, id)
	suite.Require().NoError(err)
	suite.Equal(8, stats.Deliveries())
	suite.Equal("140.00", stats.Earnings().String())
	suite.Equal(int64(8*16093), stats.DistanceMeters())
	suite.Equal(24, stats.Items())
	suite.InDelta(80.0, stats.Miles(), 1e-9)
	suite.True(at.Equal(stats.UpdatedAt()))
}
