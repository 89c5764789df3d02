package application

import (
	"context"

	"gamerit/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	PlayerRepository() interfaces.PlayerRepository
	BalanceHistoryRepository() interfaces.BalanceHistoryRepository
	RoundRepository() interfaces.RoundRepository
	WagerRepository() interfaces.WagerRepository
	HotPotatoRepository() interfaces.HotPotatoRepository
	HotPotatoWagerRepository() interfaces.HotPotatoWagerRepository
	MemeStockRepository() interfaces.MemeStockRepository
	PositionRepository() interfaces.PositionRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create returns a fresh UnitOfWork; one per request or scheduler pass
	Create() UnitOfWork
}
