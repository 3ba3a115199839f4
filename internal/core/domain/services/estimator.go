package services

import (
	"context"
	"errors"
	"math"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// DefaultUrbanSpeedMPH is the average speed assumed by fallback estimates.
const DefaultUrbanSpeedMPH = 25.0

// Estimate is a delivery quote between two points.
type Estimate struct {
	DistanceMeters  int
	DurationSeconds int
	Fee             kernel.Money
	ETAMinutes      int
	Polyline        string
	Fallback        bool
}

// DeliveryEstimate is the part of the quote stored on the order.
func (e Estimate) DeliveryEstimate() order.DeliveryEstimate {
	return order.DeliveryEstimate{
		DistanceMeters: e.DistanceMeters,
		DriveSeconds:   e.DurationSeconds,
		ETAMinutes:     e.ETAMinutes,
		Fallback:       e.Fallback,
	}
}

// FallbackHook observes routing failures that were replaced by a fallback estimate.
type FallbackHook func(ctx context.Context, cause error)

// Estimator quotes deliveries from a routing provider and a FeeSchedule.
type Estimator struct {
	router     ports.RoutingProvider
	schedule   FeeSchedule
	speedMPH   float64
	onFallback FallbackHook
}

type EstimatorOption func(*Estimator)

// WithUrbanSpeed overrides the speed used for fallback estimates.
func WithUrbanSpeed(mph float64) EstimatorOption {
	return func(e *Estimator) {
		if mph > 0 {
			e.speedMPH = mph
		}
	}
}

func WithFallbackHook(hook FallbackHook) EstimatorOption {
	return func(e *Estimator) { e.onFallback = hook }
}

// NewEstimator builds an Estimator. A nil router makes every quote a fallback.
func NewEstimator(router ports.RoutingProvider, schedule FeeSchedule, opts ...EstimatorOption) *Estimator {
	e := &Estimator{
		router:   router,
		schedule: schedule,
		speedMPH: DefaultUrbanSpeedMPH,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate quotes a delivery from origin to destination. Routing failures
// never surface: the quote falls back to the great-circle distance at the
// urban speed and is flagged Fallback. Only invalid input is an error.
func (e *Estimator) Estimate(ctx context.Context, origin, destination kernel.Location, baseFee kernel.Money) (Estimate, error) {
	if err := errors.Join(origin.Validate(), destination.Validate()); err != nil {
		return Estimate{}, err
	}

	route, err := e.route(ctx, origin, destination)
	if err != nil {
		if e.onFallback != nil {
			e.onFallback(ctx, err)
		}
		if route, err = e.fallback(origin, destination); err != nil {
			return Estimate{}, err
		}
	}

	miles := kernel.MetersToMiles(float64(route.DistanceMeters))
	return Estimate{
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Fee:             e.schedule.Fee(miles, baseFee),
		ETAMinutes:      e.schedule.ETAMinutes(route.DurationSeconds),
		Polyline:        route.Polyline,
		Fallback:        route.Fallback,
	}, nil
}

func (e *Estimator) route(ctx context.Context, origin, destination kernel.Location) (ports.Route, error) {
	if e.router == nil {
		return ports.Route{}, errs.NewRoutingUnavailableError(errors.New("no routing provider configured"))
	}

	route, err := e.router.Route(ctx, origin, destination)
	if err != nil {
		if !errors.Is(err, errs.ErrRoutingUnavailable) {
			err = errs.NewRoutingUnavailableError(err)
		}
		return ports.Route{}, err
	}
	if route.DistanceMeters < 0 || route.DurationSeconds < 0 {
		return ports.Route{}, errs.NewRoutingUnavailableError(errors.New("provider returned a negative route"))
	}
	return route, nil
}

func (e *Estimator) fallback(origin, destination kernel.Location) (ports.Route, error) {
	meters, err := origin.DistanceMeters(destination)
	if err != nil {
		return ports.Route{}, err
	}

	metersPerSecond := e.speedMPH * kernel.MetersPerMile / 3600
	return ports.Route{
		DistanceMeters:  int(math.Round(meters)),
		DurationSeconds: int(math.Ceil(meters / metersPerSecond)),
		Fallback:        true,
	}, nil
}
