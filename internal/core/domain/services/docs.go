// Package services provides domain services that do not belong to a single
// aggregate.
//
// The package includes:
//   - FeeSchedule: the pure tiered delivery fee and ETA rules
//   - Estimator: a route based quote that degrades to a great-circle
//     estimate when the routing provider is unavailable
//
// Key business rules:
//   - the base fee covers the first three miles exactly
//   - the fee never decreases as distance grows
//   - a routing failure never fails a quote; it yields a fallback estimate
package services
