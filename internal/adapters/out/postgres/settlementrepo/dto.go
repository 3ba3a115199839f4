// Package settlementrepo persists the driver settlement ledger.
package settlementrepo

import (
	"errors"
	"time"

	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/settlement"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementDTO is the row of the settlements table. The unique index on
// order_id backs the one-entry-per-order rule.
type SettlementDTO struct {
	ID            uuid.UUID             `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex"`
	DriverID      uuid.UUID             `gorm:"type:uuid;not null;index:idx_settlements_driver_status,priority:1"`
	Status        string                `gorm:"type:varchar(32);not null;index:idx_settlements_driver_status,priority:2"`
	Vendor        orderrepo.PartyDTO    `gorm:"embedded;embeddedPrefix:vendor_"`
	Customer      orderrepo.PartyDTO    `gorm:"embedded;embeddedPrefix:customer_"`
	Estimate      orderrepo.EstimateDTO `gorm:"embedded;embeddedPrefix:estimate_"`
	Items         []SettlementItemDTO   `gorm:"foreignKey:SettlementID;constraint:OnDelete:CASCADE"`
	Subtotal      decimal.Decimal       `gorm:"type:numeric(12,2);not null"`
	Total         decimal.Decimal       `gorm:"type:numeric(12,2);not null"`
	Earned        decimal.Decimal       `gorm:"type:numeric(12,2);not null"`
	PaymentRef    string                `gorm:"type:varchar(255)"`
	PaymentStatus string                `gorm:"type:varchar(32);not null"`

	AcceptedAt  time.Time `gorm:"not null"`
	PickedUpAt  *time.Time
	DeliveredAt *time.Time
	FinalizedAt *time.Time

	PickupSeconds      *int
	DeliverySeconds    *int
	TotalSeconds       *int
	PickupEfficiency   *int
	DeliveryEfficiency *int
	OverallEfficiency  *int
}

func (SettlementDTO) TableName() string {
	return "settlements"
}

type SettlementItemDTO struct {
	SettlementID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Position     int             `gorm:"primaryKey"`
	ItemID       uuid.UUID       `gorm:"type:uuid"`
	Name         string          `gorm:"type:varchar(255)"`
	Quantity     int             `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (SettlementItemDTO) TableName() string {
	return "settlement_items"
}

func fromDomain(e *settlement.Entry) SettlementDTO {
	s := e.Snapshot()

	items := make([]SettlementItemDTO, 0, len(s.Items))
	for i, li := range s.Items {
		items = append(items, SettlementItemDTO{
			SettlementID: s.ID.Bytes(),
			Position:     i,
			ItemID:       li.ItemID().Bytes(),
			Name:         li.Name(),
			Quantity:     li.Quantity(),
			UnitPrice:    li.UnitPrice().Decimal(),
		})
	}

	return SettlementDTO{
		ID:            s.ID.Bytes(),
		OrderID:       s.OrderID.Bytes(),
		DriverID:      s.DriverID.Bytes(),
		Status:        string(e.Status()),
		Vendor:        orderrepo.PartyFromDomain(s.Vendor),
		Customer:      orderrepo.PartyFromDomain(s.Customer),
		Estimate:      orderrepo.EstimateDTO(s.Estimate),
		Items:         items,
		Subtotal:      s.Subtotal.Decimal(),
		Total:         s.Total.Decimal(),
		Earned:        s.Earned.Decimal(),
		PaymentRef:    s.PaymentRef,
		PaymentStatus: string(s.PaymentStatus),

		AcceptedAt:  s.AcceptedAt,
		PickedUpAt:  s.PickedUpAt,
		DeliveredAt: s.DeliveredAt,
		FinalizedAt: s.FinalizedAt,

		PickupSeconds:      s.Durations.Pickup,
		DeliverySeconds:    s.Durations.Delivery,
		TotalSeconds:       s.Durations.Total,
		PickupEfficiency:   s.Efficiencies.Pickup,
		DeliveryEfficiency: s.Efficiencies.Delivery,
		OverallEfficiency:  s.Efficiencies.Overall,
	}
}

// amendColumns are the columns pickup and delivery amendments change. The
// payment marker is left to UpdatePaymentStatus.
func amendColumns(dto SettlementDTO) map[string]any {
	return map[string]any{
		"status":              dto.Status,
		"earned":              dto.Earned,
		"picked_up_at":        dto.PickedUpAt,
		"delivered_at":        dto.DeliveredAt,
		"finalized_at":        dto.FinalizedAt,
		"pickup_seconds":      dto.PickupSeconds,
		"delivery_seconds":    dto.DeliverySeconds,
		"total_seconds":       dto.TotalSeconds,
		"pickup_efficiency":   dto.PickupEfficiency,
		"delivery_efficiency": dto.DeliveryEfficiency,
		"overall_efficiency":  dto.OverallEfficiency,
	}
}

func toDomain(dto SettlementDTO) (*settlement.Entry, error) {
	e, err := decode(dto)
	if err != nil {
		return nil, errs.NewSchemaMismatchError("settlement", dto.ID.String(), err)
	}
	return e, nil
}

func decode(dto SettlementDTO) (*settlement.Entry, error) {
	id, idErr := kernel.UUIDFromBytes(dto.ID[:])
	orderID, orderErr := kernel.UUIDFromBytes(dto.OrderID[:])
	driverID, driverErr := kernel.UUIDFromBytes(dto.DriverID[:])
	vendor, vendorErr := orderrepo.PartyToDomain(dto.Vendor)
	customer, customerErr := orderrepo.PartyToDomain(dto.Customer)
	subtotal, subtotalErr := kernel.NewMoney(dto.Subtotal)
	total, totalErr := kernel.NewMoney(dto.Total)
	earned, earnedErr := kernel.NewMoney(dto.Earned)

	items := make([]order.LineItem, 0, len(dto.Items))
	var itemErrs []error
	for _, it := range dto.Items {
		li, err := lineItem(it)
		if err != nil {
			itemErrs = append(itemErrs, err)
			continue
		}
		items = append(items, li)
	}

	if err := errors.Join(
		idErr, orderErr, driverErr, vendorErr, customerErr,
		subtotalErr, totalErr, earnedErr, errors.Join(itemErrs...),
	); err != nil {
		return nil, err
	}

	return settlement.RestoreEntry(settlement.Snapshot{
		ID:            id,
		OrderID:       orderID,
		DriverID:      driverID,
		Vendor:        vendor,
		Customer:      customer,
		Estimate:      order.DeliveryEstimate(dto.Estimate),
		Items:         items,
		Subtotal:      subtotal,
		Total:         total,
		Earned:        earned,
		PaymentRef:    dto.PaymentRef,
		PaymentStatus: order.PaymentStatus(dto.PaymentStatus),
		AcceptedAt:    dto.AcceptedAt.UTC(),
		PickedUpAt:    utc(dto.PickedUpAt),
		DeliveredAt:   utc(dto.DeliveredAt),
		FinalizedAt:   utc(dto.FinalizedAt),
		Durations: settlement.Durations{
			Pickup:   dto.PickupSeconds,
			Delivery: dto.DeliverySeconds,
			Total:    dto.TotalSeconds,
		},
		Efficiencies: settlement.Efficiencies{
			Pickup:   dto.PickupEfficiency,
			Delivery: dto.DeliveryEfficiency,
			Overall:  dto.OverallEfficiency,
		},
	})
}

func lineItem(it SettlementItemDTO) (order.LineItem, error) {
	itemID, err := kernel.UUIDFromBytes(it.ItemID[:])
	if err != nil {
		return order.LineItem{}, err
	}
	price, err := kernel.NewMoney(it.UnitPrice)
	if err != nil {
		return order.LineItem{}, err
	}
	return order.NewLineItem(itemID, it.Name, it.Quantity, price)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
