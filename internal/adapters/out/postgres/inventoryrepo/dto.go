// Package inventoryrepo stores vendor stock and applies pickup deductions
// with guarded counter updates.
package inventoryrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type ItemDTO struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VendorID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Cost        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	UnitsOnHand int             `gorm:"not null;check:units_on_hand >= 0"`
	UnitsSold   int             `gorm:"not null;default:0"`
	Tags        pq.StringArray  `gorm:"column:tags;type:text[]"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ItemDTO) TableName() string {
	return "inventory_items"
}

func fromDomain(i *inventory.Item) ItemDTO {
	return ItemDTO{
		ID:          i.ID().Bytes(),
		VendorID:    i.VendorID().Bytes(),
		Name:        i.Name(),
		Price:       i.Price().Decimal(),
		Cost:        i.Cost().Decimal(),
		UnitsOnHand: i.UnitsOnHand(),
		UnitsSold:   i.UnitsSold(),
		Tags:        pq.StringArray(i.Tags()),
	}
}

func toDomain(dto ItemDTO) (*inventory.Item, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, errs.NewSchemaMismatchError("inventory item", dto.ID.String(), err)
	}
	vendorID, err := kernel.UUIDFromBytes(dto.VendorID[:])
	if err != nil {
		return nil, errs.NewSchemaMismatchError("inventory item", dto.ID.String(), err)
	}
	price, err := kernel.NewMoney(dto.Price)
	if err != nil {
		return nil, errs.NewSchemaMismatchError("inventory item", dto.ID.String(), err)
	}
	cost, err := kernel.NewMoney(dto.Cost)
	if err != nil {
		return nil, errs.NewSchemaMismatchError("inventory item", dto.ID.String(), err)
	}

	item, err := inventory.RestoreItem(id, vendorID, dto.Name, price, cost, dto.UnitsOnHand, dto.UnitsSold, dto.Tags)
	if err != nil {
		return nil, errs.NewSchemaMismatchError("inventory item", dto.ID.String(), err)
	}
	return item, nil
}
