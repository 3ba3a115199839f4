package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
)

type InventoryRepository interface {
	Add(ctx context.Context, item *inventory.Item) error
	Get(ctx context.Context, id kernel.UUID) (*inventory.Item, error)

	// Deduct atomically takes adj.Quantity units of a vendor's item off stock
	// and adds them to units sold. Stock is clamped at zero. A missing item is
	// reported through Outcome.Found, not as an error.
	Deduct(ctx context.Context, vendorID kernel.UUID, adj inventory.Adjustment) (inventory.Outcome, error)
}
