// Package orderrepo persists order aggregates in the orders and order_items
// tables and implements the conditional write every lifecycle transition
// goes through.
package orderrepo

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO is the row of the orders table. Status is stored by name so that
// the table stays readable from SQL and from the change feed.
type OrderDTO struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Vendor        PartyDTO        `gorm:"embedded;embeddedPrefix:vendor_"`
	Customer      PartyDTO        `gorm:"embedded;embeddedPrefix:customer_"`
	DriverID      *uuid.UUID      `gorm:"type:uuid;index"`
	Status        string          `gorm:"type:varchar(32);not null;index"`
	Items         []OrderItemDTO  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DeliveryFee   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Tax           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ServiceFee    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Tip           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Estimate      EstimateDTO     `gorm:"embedded;embeddedPrefix:estimate_"`
	PaymentRef    string          `gorm:"type:varchar(255)"`
	PaymentStatus string          `gorm:"type:varchar(32);not null;index"`
	CancelReason  string          `gorm:"type:text"`

	CreatedAt        time.Time `gorm:"not null"`
	VendorReadyAt    *time.Time
	DriverAssignedAt *time.Time
	PickedUpAt       *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	UpdatedAt        time.Time
	Version          int `gorm:"not null;default:0"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// PartyDTO is a vendor or customer contact card embedded in the order row.
type PartyDTO struct {
	ID      uuid.UUID `gorm:"type:uuid;index"`
	Name    string    `gorm:"type:varchar(255)"`
	Phone   string    `gorm:"type:varchar(64)"`
	Address string    `gorm:"type:text"`
	Lat     float64   `gorm:"type:double precision"`
	Lng     float64   `gorm:"type:double precision"`
}

type EstimateDTO struct {
	DistanceMeters int
	DriveSeconds   int
	ETAMinutes     int `gorm:"column:eta_minutes"`
	Fallback       bool
}

// OrderItemDTO is one line item; Position keeps the order of the lines.
type OrderItemDTO struct {
	OrderID   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Position  int             `gorm:"primaryKey"`
	ItemID    uuid.UUID       `gorm:"type:uuid;index"`
	Name      string          `gorm:"type:varchar(255)"`
	Quantity  int             `gorm:"not null;check:quantity > 0"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (OrderItemDTO) TableName() string {
	return "order_items"
}

// PartyFromDomain is shared with the ledger repository, which stores the same snapshot.
func PartyFromDomain(p order.Party) PartyDTO {
	return PartyDTO{
		ID:      p.ID().Bytes(),
		Name:    p.Name(),
		Phone:   p.Phone(),
		Address: p.Address(),
		Lat:     p.Location().Lat(),
		Lng:     p.Location().Lng(),
	}
}

func PartyToDomain(dto PartyDTO) (order.Party, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return order.Party{}, err
	}
	loc, err := kernel.NewLocation(dto.Lat, dto.Lng)
	if err != nil {
		return order.Party{}, err
	}
	return order.NewParty(id, dto.Name, dto.Phone, dto.Address, loc)
}

func uuidPtr(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	items := make([]OrderItemDTO, 0, len(s.Items))
	for i, li := range s.Items {
		items = append(items, OrderItemDTO{
			OrderID:   s.ID.Bytes(),
			Position:  i,
			ItemID:    li.ItemID().Bytes(),
			Name:      li.Name(),
			Quantity:  li.Quantity(),
			UnitPrice: li.UnitPrice().Decimal(),
		})
	}

	return OrderDTO{
		ID:            s.ID.Bytes(),
		Vendor:        PartyFromDomain(s.Vendor),
		Customer:      PartyFromDomain(s.Customer),
		DriverID:      uuidPtr(s.DriverID),
		Status:        s.Status.String(),
		Items:         items,
		Subtotal:      s.Amounts.Subtotal.Decimal(),
		DeliveryFee:   s.Amounts.DeliveryFee.Decimal(),
		Tax:           s.Amounts.Tax.Decimal(),
		ServiceFee:    s.Amounts.ServiceFee.Decimal(),
		Tip:           s.Amounts.Tip.Decimal(),
		Total:         s.Amounts.Total.Decimal(),
		Estimate:      EstimateDTO(s.Estimate),
		PaymentRef:    s.PaymentRef,
		PaymentStatus: string(s.PaymentStatus),
		CancelReason:  s.CancelReason,

		CreatedAt:        s.Timeline.CreatedAt,
		VendorReadyAt:    s.Timeline.VendorReadyAt,
		DriverAssignedAt: s.Timeline.DriverAssignedAt,
		PickedUpAt:       s.Timeline.PickedUpAt,
		DeliveredAt:      s.Timeline.DeliveredAt,
		CancelledAt:      s.Timeline.CancelledAt,
	}
}

// transitionColumns are the columns a lifecycle transition may change. The
// payment marker is not among them: only UpdatePaymentStatus writes it.
func transitionColumns(o *order.Order, now time.Time) map[string]any {
	dto := fromDomain(o)
	return map[string]any{
		"status":             dto.Status,
		"driver_id":          dto.DriverID,
		"cancel_reason":      dto.CancelReason,
		"vendor_ready_at":    dto.VendorReadyAt,
		"driver_assigned_at": dto.DriverAssignedAt,
		"picked_up_at":       dto.PickedUpAt,
		"delivered_at":       dto.DeliveredAt,
		"cancelled_at":       dto.CancelledAt,
		"updated_at":         now,
	}
}

func money(field string, d decimal.Decimal) (kernel.Money, error) {
	m, err := kernel.NewMoney(d)
	if err != nil {
		return kernel.Money{}, errs.NewValueIsInvalidErrorWithCause(field, err)
	}
	return m, nil
}

// toDomain is the validating boundary between rows and aggregates. Any row
// the lifecycle could not have produced becomes a SchemaMismatchError.
func toDomain(dto OrderDTO) (*order.Order, error) {
	o, err := decode(dto)
	if err != nil {
		return nil, errs.NewSchemaMismatchError("order", dto.ID.String(), err)
	}
	return o, nil
}

func decode(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	vendor, vendorErr := PartyToDomain(dto.Vendor)
	customer, customerErr := PartyToDomain(dto.Customer)
	status, statusErr := order.ParseStatus(dto.Status)

	var driverID *kernel.UUID
	var driverErr error
	if dto.DriverID != nil {
		d, err := kernel.UUIDFromBytes(dto.DriverID[:])
		driverID, driverErr = &d, err
	}

	items := make([]order.LineItem, 0, len(dto.Items))
	var itemErrs []error
	for _, it := range dto.Items {
		itemID, err := kernel.UUIDFromBytes(it.ItemID[:])
		if err != nil {
			itemErrs = append(itemErrs, err)
			continue
		}
		price, err := money("unit price", it.UnitPrice)
		if err != nil {
			itemErrs = append(itemErrs, err)
			continue
		}
		li, err := order.NewLineItem(itemID, it.Name, it.Quantity, price)
		if err != nil {
			itemErrs = append(itemErrs, err)
			continue
		}
		items = append(items, li)
	}

	subtotal, subtotalErr := money("subtotal", dto.Subtotal)
	fee, feeErr := money("delivery fee", dto.DeliveryFee)
	tax, taxErr := money("tax", dto.Tax)
	service, serviceErr := money("service fee", dto.ServiceFee)
	tip, tipErr := money("tip", dto.Tip)
	total, totalErr := money("total", dto.Total)

	if err := errors.Join(
		vendorErr, customerErr, statusErr, driverErr, errors.Join(itemErrs...),
		subtotalErr, feeErr, taxErr, serviceErr, tipErr, totalErr,
	); err != nil {
		return nil, err
	}

	return order.RestoreOrder(order.Snapshot{
		ID:       id,
		Customer: customer,
		Vendor:   vendor,
		DriverID: driverID,
		Status:   status,
		Items:    items,
		Amounts: order.Amounts{
			Subtotal:    subtotal,
			DeliveryFee: fee,
			Tax:         tax,
			ServiceFee:  service,
			Tip:         tip,
			Total:       total,
		},
		Estimate:      order.DeliveryEstimate(dto.Estimate),
		PaymentRef:    dto.PaymentRef,
		PaymentStatus: order.PaymentStatus(dto.PaymentStatus),
		CancelReason:  dto.CancelReason,
		Timeline: order.Timeline{
			CreatedAt:        dto.CreatedAt.UTC(),
			VendorReadyAt:    utc(dto.VendorReadyAt),
			DriverAssignedAt: utc(dto.DriverAssignedAt),
			PickedUpAt:       utc(dto.PickedUpAt),
			DeliveredAt:      utc(dto.DeliveredAt),
			CancelledAt:      utc(dto.CancelledAt),
		},
	})
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
