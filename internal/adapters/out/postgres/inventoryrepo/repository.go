package inventoryrepo

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

// deductSQL locks the row, reads the stock before the change and applies
// the clamped decrement in one statement. No row means the item does not
// belong to the vendor or does not exist.
const deductSQL = `
WITH before AS (
	SELECT id, units_on_hand
	FROM inventory_items
	WHERE id = ? AND vendor_id = ?
	FOR UPDATE
)
UPDATE inventory_items AS i
SET units_on_hand = GREATEST(i.units_on_hand - ?, 0),
    units_sold    = i.units_sold + ?,
    updated_at    = ?
FROM before
WHERE i.id = before.id
RETURNING before.units_on_hand`

type GormInventoryRepository struct {
	db *gorm.DB
}

func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

func (r *GormInventoryRepository) Add(ctx context.Context, item *inventory.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	dto := fromDomain(item)
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormInventoryRepository) Get(ctx context.Context, id kernel.UUID) (*inventory.Item, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ItemDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("inventory item", id.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormInventoryRepository) Deduct(
	ctx context.Context,
	vendorID kernel.UUID,
	adj inventory.Adjustment,
) (inventory.Outcome, error) {
	outcome := inventory.Outcome{Adjustment: adj}
	if err := errors.Join(vendorID.Validate(), adj.ItemID.Validate()); err != nil {
		return outcome, err
	}
	if adj.Quantity <= 0 {
		return outcome, errs.NewValueIsOutOfRangeError("quantity", adj.Quantity, 1, "inf")
	}

	var before []int
	err := r.db.WithContext(ctx).
		Raw(deductSQL, adj.ItemID.Bytes(), vendorID.Bytes(), adj.Quantity, adj.Quantity, time.Now().UTC()).
		Scan(&before).Error
	if err != nil {
		return outcome, err
	}
	if len(before) == 0 {
		return outcome, nil
	}

	outcome.Found = true
	outcome.Available = before[0]
	return outcome, nil
}
