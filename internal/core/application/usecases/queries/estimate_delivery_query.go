package queries

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/guard"
)

var ErrEstimateDeliveryQueryIsNotConstructed = errors.New(
	"EstimateDeliveryQuery must be created via NewEstimateDeliveryQuery constructor",
)

// EstimateDeliveryQuery quotes a delivery before an order exists.
type EstimateDeliveryQuery struct {
	origin      kernel.Location
	destination kernel.Location
	baseFee     kernel.Money
	guard       guard.ConstructorGuard
}

func NewEstimateDeliveryQuery(origin, destination kernel.Location, baseFee kernel.Money) (EstimateDeliveryQuery, error) {
	if err := errors.Join(origin.Validate(), destination.Validate()); err != nil {
		return EstimateDeliveryQuery{}, err
	}
	return EstimateDeliveryQuery{
		origin:      origin,
		destination: destination,
		baseFee:     baseFee,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (q EstimateDeliveryQuery) Validate() error {
	return q.guard.Validate(ErrEstimateDeliveryQueryIsNotConstructed)
}

func (q EstimateDeliveryQuery) Origin() kernel.Location { return q.origin }
func (q EstimateDeliveryQuery) Destination() kernel.Location { return q.destination }
func (q EstimateDeliveryQuery) BaseFee() kernel.Money { return q.baseFee }

type DeliveryEstimator interface {
	Estimate(ctx context.Context, origin, destination kernel.Location, baseFee kernel.Money) (services.Estimate, error)
}

// EstimateDeliveryQueryHandler prices a route. Routing outages fall back to
// a straight-line estimate inside the estimator, so the quote is always served.
type EstimateDeliveryQueryHandler struct {
	estimator DeliveryEstimator
}

func NewEstimateDeliveryQueryHandler(estimator DeliveryEstimator) EstimateDeliveryQueryHandler {
	return EstimateDeliveryQueryHandler{estimator: estimator}
}

func (h EstimateDeliveryQueryHandler) Handle(ctx context.Context, query EstimateDeliveryQuery) (services.Estimate, error) {
	if err := query.Validate(); err != nil {
		return services.Estimate{}, err
	}
	return h.estimator.Estimate(ctx, query.Origin(), query.Destination(), query.BaseFee())
}
