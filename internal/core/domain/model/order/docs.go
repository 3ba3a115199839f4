// Package order provides the Order aggregate and the lifecycle state machine
// driven by vendors and drivers.
//
// The package includes:
//   - Order: the aggregate root holding parties, line items, amounts,
//     the delivery estimate, the payment marker and the timeline
//   - Status: the forward-only state machine
//     preparing -> awaiting_driver -> driver_to_pickup -> driver_delivering -> delivered,
//     with cancelled reachable only from preparing
//   - Snapshot and RestoreOrder: the validating boundary used by repositories
//
// Key business rules:
//   - only the owning vendor can mark an order ready or cancel it
//   - only the assigned driver can pick up and deliver it
//   - a driver, once assigned, never changes
//   - replays of accept, pickup and delivery by the same driver are no-ops
package order
