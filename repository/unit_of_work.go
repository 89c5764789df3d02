package repository

import (
	"context"
	"errors"
	"fmt"

	"gamerit/application"
	"gamerit/database"
	"gamerit/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements application.UnitOfWork over a single pgx transaction
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	playerRepo             interfaces.PlayerRepository
	balanceHistoryRepo     interfaces.BalanceHistoryRepository
	roundRepo              interfaces.RoundRepository
	wagerRepo              interfaces.WagerRepository
	hotPotatoRepo          interfaces.HotPotatoRepository
	hotPotatoWagerRepo     interfaces.HotPotatoWagerRepository
	memeStockRepo          interfaces.MemeStockRepository
	positionRepo           interfaces.PositionRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db}
}

// UnitOfWorkFactory creates repository units of work bound to a publisher
type UnitOfWorkFactory struct {
	db *database.DB
}

// CreateWithPublisher creates a new UnitOfWork whose events go through transactionalPublisher
func (f *UnitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.playerRepo = NewPlayerRepositoryWithTx(tx)
	u.balanceHistoryRepo = NewBalanceHistoryRepositoryWithTx(tx)
	u.roundRepo = NewRoundRepositoryWithTx(tx)
	u.wagerRepo = NewWagerRepositoryWithTx(tx)
	u.hotPotatoRepo = NewHotPotatoRepositoryWithTx(tx)
	u.hotPotatoWagerRepo = NewHotPotatoWagerRepositoryWithTx(tx)
	u.memeStockRepo = NewMemeStockRepositoryWithTx(tx)
	u.positionRepo = NewPositionRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction, then flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	if u.transactionalPublisher != nil {
		// Events are best effort once the data is committed
		_ = u.transactionalPublisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events. Safe to
// call after Commit.
func (u *unitOfWork) Rollback() error {
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func (u *unitOfWork) mustBegin() {
	if u.tx == nil {
		panic("unit of work not started - call Begin() first")
	}
}

// PlayerRepository returns the transaction-scoped player repository
func (u *unitOfWork) PlayerRepository() interfaces.PlayerRepository {
	u.mustBegin()
	return u.playerRepo
}

// BalanceHistoryRepository returns the transaction-scoped balance history repository
func (u *unitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	u.mustBegin()
	return u.balanceHistoryRepo
}

// RoundRepository returns the transaction-scoped round repository
func (u *unitOfWork) RoundRepository() interfaces.RoundRepository {
	u.mustBegin()
	return u.roundRepo
}

// WagerRepository returns the transaction-scoped wager repository
func (u *unitOfWork) WagerRepository() interfaces.WagerRepository {
	u.mustBegin()
	return u.wagerRepo
}

// HotPotatoRepository returns the transaction-scoped hot potato repository
func (u *unitOfWork) HotPotatoRepository() interfaces.HotPotatoRepository {
	u.mustBegin()
	return u.hotPotatoRepo
}

// HotPotatoWagerRepository returns the transaction-scoped prediction repository
func (u *unitOfWork) HotPotatoWagerRepository() interfaces.HotPotatoWagerRepository {
	u.mustBegin()
	return u.hotPotatoWagerRepo
}

// MemeStockRepository returns the transaction-scoped meme stock repository
func (u *unitOfWork) MemeStockRepository() interfaces.MemeStockRepository {
	u.mustBegin()
	return u.memeStockRepo
}

// PositionRepository returns the transaction-scoped position repository
func (u *unitOfWork) PositionRepository() interfaces.PositionRepository {
	u.mustBegin()
	return u.positionRepo
}

// EventBus returns the transactional event publisher
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("transactional publisher not configured")
	}
	return u.transactionalPublisher
}
