package postgres

import (
	"fulfillment/internal/adapters/out/postgres/accountrepo"
	"fulfillment/internal/adapters/out/postgres/driverrepo"
	"fulfillment/internal/adapters/out/postgres/inventoryrepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/settlementrepo"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.OrderItemDTO{},
		&settlementrepo.SettlementDTO{},
		&settlementrepo.SettlementItemDTO{},
		&inventoryrepo.ItemDTO{},
		&driverrepo.StatsDTO{},
		&accountrepo.PayoutAccountDTO{},
	)
}
