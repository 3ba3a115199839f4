// Package driver provides the driver aggregate statistics maintained by the
// delivered transition.
//
// The package includes:
//   - Stats: running totals of deliveries, earnings, distance, items and miles
//   - Increment: the delta one delivered order contributes to Stats
//
// Key business rules:
//   - totals only grow, and only through Increment
//   - one delivered order contributes exactly one Increment
//   - storage applies an Increment as an atomic counter update, never as a
//     read-modify-write of the totals
package driver
