package interfaces

import (
	"context"
	"time"

	"gamerit/domain/entities"

	"github.com/google/uuid"
)

// PlayerRepository defines the interface for player data access
type PlayerRepository interface {
	// GetByID retrieves a player by internal ID, nil if absent
	GetByID(ctx context.Context, id int64) (*entities.Player, error)

	// GetByExternalID retrieves a player by external account ID, nil if absent
	GetByExternalID(ctx context.Context, externalID string) (*entities.Player, error)

	// GetByExternalIDForUpdate retrieves and row-locks a player for the rest of the transaction
	GetByExternalIDForUpdate(ctx context.Context, externalID string) (*entities.Player, error)

	// Create inserts a player with the initial balance. Returns nil if the
	// external ID already exists.
	Create(ctx context.Context, externalID, username string, initialBalance int64) (*entities.Player, error)

	// Debit removes amount from the balance only if the balance covers it and
	// returns the new balance. Returns domain.ErrInsufficientBalance otherwise.
	Debit(ctx context.Context, playerID, amount int64) (int64, error)

	// Credit adds amount to the balance and returns the new balance
	Credit(ctx context.Context, playerID, amount int64) (int64, error)

	// Leaderboard returns players ordered by balance descending
	Leaderboard(ctx context.Context, limit int) ([]*entities.Player, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByPlayer returns the most recent balance history for a player
	GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.BalanceHistory, error)
}

// RoundRepository defines the interface for classic round data access
type RoundRepository interface {
	// Create inserts an active round. Returns domain.ErrActiveRoundExists if
	// another active round won the race.
	Create(ctx context.Context, round *entities.Round) error

	// GetByID retrieves a round, nil if absent
	GetByID(ctx context.Context, id int64) (*entities.Round, error)

	// GetByIDForShare retrieves a round and holds a share lock so that a
	// concurrent status flip waits for the caller's transaction
	GetByIDForShare(ctx context.Context, id int64) (*entities.Round, error)

	// GetActive returns the active round, nil if none
	GetActive(ctx context.Context) (*entities.Round, error)

	// GetLatest returns the most recently created round, nil if none
	GetLatest(ctx context.Context) (*entities.Round, error)

	// ListDue returns active rounds whose deadline is at or before now
	ListDue(ctx context.Context, now time.Time) ([]*entities.Round, error)

	// ListPendingPayout returns rounds fenced at or before settledBefore that never finished
	ListPendingPayout(ctx context.Context, settledBefore time.Time) ([]*entities.Round, error)

	// ListRecent returns the most recent rounds in any status
	ListRecent(ctx context.Context, limit int) ([]*entities.Round, error)

	// RecentPostIDs returns post IDs used by the last limit rounds
	RecentPostIDs(ctx context.Context, limit int) ([]string, error)

	// MarkPendingPayout atomically moves an active round to pending_payout,
	// recording final scores and winner. Returns false if the round was not active.
	MarkPendingPayout(ctx context.Context, id int64, outcome *entities.RoundOutcome, at time.Time) (bool, error)

	// MarkFinished moves a pending_payout round to finished. Returns false if
	// the round was not pending_payout.
	MarkFinished(ctx context.Context, id int64, at time.Time) (bool, error)
}

// WagerRepository defines the interface for classic round wager data access
type WagerRepository interface {
	// Create inserts a wager. Returns domain.ErrDuplicateWager when the player
	// already has a wager on the round.
	Create(ctx context.Context, wager *entities.Wager) error

	// GetByID retrieves a wager, nil if absent
	GetByID(ctx context.Context, id int64) (*entities.Wager, error)

	// GetByRoundAndPlayer retrieves a player's wager on a round, nil if absent
	GetByRoundAndPlayer(ctx context.Context, roundID, playerID int64) (*entities.Wager, error)

	// ListByRound returns all wagers on a round
	ListByRound(ctx context.Context, roundID int64) ([]*entities.Wager, error)

	// ListUnpaidByRound returns wagers on a round that have not been paid
	ListUnpaidByRound(ctx context.Context, roundID int64) ([]*entities.Wager, error)

	// ListByPlayer returns a player's most recent wagers
	ListByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.Wager, error)

	// MarkPaid records a payout for an unpaid wager. Returns false if the
	// wager had already been paid.
	MarkPaid(ctx context.Context, wagerID, payout int64, key uuid.UUID, at time.Time) (bool, error)

	// GetPot sums stakes on a round by side
	GetPot(ctx context.Context, roundID int64) (*entities.Pot, error)
}

// HotPotatoRepository defines the interface for hot potato round data access
type HotPotatoRepository interface {
	// Create inserts an active hot potato round
	Create(ctx context.Context, round *entities.HotPotatoRound) error

	// GetByID retrieves a round, nil if absent
	GetByID(ctx context.Context, id int64) (*entities.HotPotatoRound, error)

	// GetByIDForShare retrieves a round holding a share lock
	GetByIDForShare(ctx context.Context, id int64) (*entities.HotPotatoRound, error)

	// ListActive returns all active rounds
	ListActive(ctx context.Context) ([]*entities.HotPotatoRound, error)

	// LockAdmission serializes round creation until the transaction ends
	LockAdmission(ctx context.Context) error

	// CountActive returns the number of active rounds
	CountActive(ctx context.Context) (int, error)

	// RecentContentIDs returns content IDs used by the last limit rounds
	RecentContentIDs(ctx context.Context, limit int) ([]string, error)

	// Resolve atomically moves an active round to a terminal status. Returns
	// false if the round was no longer active.
	Resolve(ctx context.Context, id int64, status entities.HotPotatoStatus, deletionTime *time.Time, at time.Time) (bool, error)
}

// HotPotatoWagerRepository defines the interface for hot potato prediction data access
type HotPotatoWagerRepository interface {
	// Create inserts a prediction. Returns domain.ErrDuplicateWager when the
	// player already predicted on the round.
	Create(ctx context.Context, wager *entities.HotPotatoWager) error

	// ListByRound returns all predictions on a round
	ListByRound(ctx context.Context, roundID int64) ([]*entities.HotPotatoWager, error)

	// MarkPaid records a payout for an unpaid prediction. Returns false if already paid.
	MarkPaid(ctx context.Context, wagerID, payout int64, at time.Time) (bool, error)
}

// MemeStockRepository defines the interface for meme stock data access
type MemeStockRepository interface {
	// Create lists a new stock. Returns domain.ErrDuplicateStock on symbol collision.
	Create(ctx context.Context, stock *entities.MemeStock) error

	// GetBySymbol retrieves a stock, nil if absent
	GetBySymbol(ctx context.Context, symbol string) (*entities.MemeStock, error)

	// GetBySymbolForUpdate retrieves and row-locks a stock, nil if absent
	GetBySymbolForUpdate(ctx context.Context, symbol string) (*entities.MemeStock, error)

	// GetByID retrieves a stock, nil if absent
	GetByID(ctx context.Context, id int64) (*entities.MemeStock, error)

	// List returns stocks ordered by symbol
	List(ctx context.Context, activeOnly bool) ([]*entities.MemeStock, error)

	// UpdatePrice stores the current value and pruned history
	UpdatePrice(ctx context.Context, stock *entities.MemeStock) error

	// SetActive toggles whether the stock is still trending
	SetActive(ctx context.Context, stockID int64, active bool) error
}

// PositionRepository defines the interface for portfolio data access
type PositionRepository interface {
	// GetForUpdate retrieves and row-locks a position, nil if none is held
	GetForUpdate(ctx context.Context, playerID, stockID int64) (*entities.Position, error)

	// Save inserts or replaces a position
	Save(ctx context.Context, position *entities.Position) error

	// Delete removes a position once no shares remain
	Delete(ctx context.Context, playerID, stockID int64) error

	// ListByPlayer returns all positions a player holds
	ListByPlayer(ctx context.Context, playerID int64) ([]*entities.Position, error)
}
