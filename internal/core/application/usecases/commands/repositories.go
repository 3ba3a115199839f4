// Package commands contains the operations that change order state: the
// lifecycle transitions, order intake and payment reconciliation.
// Every command follows the same pattern: validation, one unit of work per
// attempt under the retry policy, and side effects after commit.
package commands

import (
	"context"

	"fulfillment/internal/core/ports"
)

// Unit of Work interfaces give each handler the repositories it needs and
// nothing more.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	SettlementRepoFactory interface {
		SettlementRepository() ports.SettlementRepository
	}

	InventoryRepoFactory interface {
		InventoryRepository() ports.InventoryRepository
	}

	DriverStatsRepoFactory interface {
		DriverStatsRepository() ports.DriverStatsRepository
	}

	// OrderUoW is used by commands that only touch the order row.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// UoW spans the order, the ledger, inventory and driver totals. A
	// transition and all of its store side effects commit together.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   err = uow.OrderRepository().Transition(ctx, o, pre)
	//   err = uow.SettlementRepository().Update(ctx, entry)
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		SettlementRepoFactory
		InventoryRepoFactory
		DriverStatsRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)
