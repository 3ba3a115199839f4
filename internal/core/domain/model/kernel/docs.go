// Package kernel provides the value objects shared by every aggregate of the
// fulfillment domain.
//
// The package includes:
//   - UUID: identifiers for orders, parties, ledger entries and inventory items
//   - Location: a WGS84 coordinate with haversine distance
//   - Money: a non-negative decimal amount
//   - Caller: the explicit identity and role an operation is invoked with
//
// Values are immutable and safe for concurrent use. Constructors validate their
// inputs; zero values of UUID and Location fail validation.
package kernel
