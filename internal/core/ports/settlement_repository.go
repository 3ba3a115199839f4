package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/settlement"
)

// SettlementRepository stores ledger entries. At most one entry exists per order.
type SettlementRepository interface {
	Add(ctx context.Context, entry *settlement.Entry) error
	Update(ctx context.Context, entry *settlement.Entry) error
	GetByOrder(ctx context.Context, orderID kernel.UUID) (*settlement.Entry, error)
	ListByDriver(ctx context.Context, driverID kernel.UUID, filter settlement.Filter) ([]*settlement.Entry, error)
	UpdatePaymentStatus(ctx context.Context, orderID kernel.UUID, status order.PaymentStatus) error
}
