package ports

import (
	"context"
)

// UnitOfWorkFactory creates a UnitOfWork per command invocation.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is one database transaction spanning every repository.
// Committing it also publishes the change events of the orders it wrote.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() OrderRepository
	SettlementRepository() SettlementRepository
	InventoryRepository() InventoryRepository
	DriverStatsRepository() DriverStatsRepository
}
