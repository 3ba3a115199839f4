package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
)

// Route is a driving route between two points.
type Route struct {
	DistanceMeters  int
	DurationSeconds int
	Polyline        string
	// Fallback marks routes synthesized without the provider.
	Fallback bool
}

// RoutingProvider computes driving routes. Unavailability is reported as
// errs.RoutingUnavailableError.
type RoutingProvider interface {
	Route(ctx context.Context, origin, destination kernel.Location) (Route, error)
}
