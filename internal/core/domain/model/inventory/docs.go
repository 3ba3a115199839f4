// Package inventory models vendor stock and the deduction applied when a
// driver picks an order up.
package inventory
