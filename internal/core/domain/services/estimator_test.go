package services_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRoutingProvider struct {
	mock.Mock
}

func (m *MockRoutingProvider) Route(ctx context.Context, origin, destination kernel.Location) (ports.Route, error) {
	args := m.Called(ctx, origin, destination)
	return args.Get(0).(ports.Route), args.Error(1)
}

func locations(t *testing.T) (kernel.Location, kernel.Location) {
	t.Helper()
	origin, err := kernel.NewLocation(0, 0)
	require.NoError(t, err)
	destination, err := kernel.NewLocation(0, 0.1)
	require.NoError(t, err)
	return origin, destination
}

func TestEstimator_Estimate(t *testing.T) {
	ctx := context.Background()
	origin, destination := locations(t)
	base := money(t, "5.00")

	t.Run("uses the provider route", func(t *testing.T) {
		router := &MockRoutingProvider{}
		router.On("Route", ctx, origin, destination).
			Return(ports.Route{DistanceMeters: 16093, DurationSeconds: 1800, Polyline: "abc"}, nil).Once()

		est, err := services.NewEstimator(router, services.DefaultFeeSchedule()).Estimate(ctx, origin, destination, base)

		require.NoError(t, err)
		assert.False(t, est.Fallback)
		assert.Equal(t, 16093, est.DistanceMeters)
		assert.Equal(t, 1800, est.DurationSeconds)
		assert.Equal(t, "14.50", est.Fee.String())
		assert.Equal(t, 50, est.ETAMinutes)
		assert.Equal(t, "abc", est.Polyline)

		de := est.DeliveryEstimate()
		assert.Equal(t, 1800, de.DriveSeconds)
		assert.False(t, de.Fallback)
		router.AssertExpectations(t)
	})

	t.Run("falls back to haversine when the provider is unavailable", func(t *testing.T) {
		router := &MockRoutingProvider{}
		router.On("Route", ctx, origin, destination).
			Return(ports.Route{}, errs.NewRoutingUnavailableError(errors.New("503"))).Once()

		var observed error
		estimator := services.NewEstimator(router, services.DefaultFeeSchedule(),
			services.WithFallbackHook(func(_ context.Context, cause error) { observed = cause }))

		est, err := estimator.Estimate(ctx, origin, destination, base)

		require.NoError(t, err)
		assert.True(t, est.Fallback)
		assert.True(t, est.DeliveryEstimate().Fallback)
		require.ErrorIs(t, observed, errs.ErrRoutingUnavailable)

		meters, _ := origin.DistanceMeters(destination)
		assert.Equal(t, int(math.Round(meters)), est.DistanceMeters)

		metersPerSecond := services.DefaultUrbanSpeedMPH * kernel.MetersPerMile / 3600
		assert.Equal(t, int(math.Ceil(meters/metersPerSecond)), est.DurationSeconds)

		miles := kernel.MetersToMiles(float64(est.DistanceMeters))
		assert.True(t, services.DefaultFeeSchedule().Fee(miles, base).Equal(est.Fee))
		assert.Empty(t, est.Polyline)
	})

	t.Run("any provider error becomes a fallback", func(t *testing.T) {
		router := &MockRoutingProvider{}
		router.On("Route", ctx, origin, destination).
			Return(ports.Route{}, context.DeadlineExceeded).Once()

		est, err := services.NewEstimator(router, services.DefaultFeeSchedule()).Estimate(ctx, origin, destination, base)

		require.NoError(t, err)
		assert.True(t, est.Fallback)
		assert.Positive(t, est.DistanceMeters)
	})

	t.Run("negative provider route is ignored", func(t *testing.T) {
		router := &MockRoutingProvider{}
		router.On("Route", ctx, origin, destination).
			Return(ports.Route{DistanceMeters: -1}, nil).Once()

		est, err := services.NewEstimator(router, services.DefaultFeeSchedule()).Estimate(ctx, origin, destination, base)

		require.NoError(t, err)
		assert.True(t, est.Fallback)
	})

	t.Run("no provider configured", func(t *testing.T) {
		est, err := services.NewEstimator(nil, services.DefaultFeeSchedule(), services.WithUrbanSpeed(50)).
			Estimate(ctx, origin, destination, base)

		require.NoError(t, err)
		assert.True(t, est.Fallback)

		meters, _ := origin.DistanceMeters(destination)
		assert.Equal(t, int(math.Ceil(meters/(50*kernel.MetersPerMile/3600))), est.DurationSeconds)
	})

	t.Run("invalid location", func(t *testing.T) {
		_, err := services.NewEstimator(nil, services.DefaultFeeSchedule()).
			Estimate(ctx, kernel.Location{}, destination, base)

		require.ErrorIs(t, err, kernel.ErrLocationIsNotConstructed)
	})
}
