package interfaces

import (
	"context"
	"time"

	"gamerit/domain/entities"

	"github.com/shopspring/decimal"
)

// PlayerService defines the interface for player accounts
type PlayerService interface {
	// GetOrCreatePlayer retrieves an existing player or creates one with the starting balance
	GetOrCreatePlayer(ctx context.Context, externalID, username string) (*entities.Player, error)

	// GetPlayer retrieves a player by external ID
	GetPlayer(ctx context.Context, externalID string) (*entities.Player, error)

	// Leaderboard returns the richest players
	Leaderboard(ctx context.Context, limit int) ([]*entities.Player, error)

	// History returns a player's recent balance changes
	History(ctx context.Context, externalID string, limit int) ([]*entities.BalanceHistory, error)
}

// RoundService defines the interface for classic round admission and reads
type RoundService interface {
	// CheckAdmission reports whether a new round is due. Reason is
	// AdmissionDue when the caller should select content and create one.
	CheckAdmission(ctx context.Context, now time.Time) (*entities.RoundAdmission, error)

	// RecentPostIDs returns post IDs that must not seed the next round
	RecentPostIDs(ctx context.Context) ([]string, error)

	// CreateRound opens a round for the two posts, re-checking that no active round exists
	CreateRound(ctx context.Context, postA, postB *entities.ContentItem, now time.Time) (*entities.Round, error)

	// GetRound retrieves a round by ID
	GetRound(ctx context.Context, id int64) (*entities.Round, error)

	// GetActiveRound returns the round accepting wagers, nil if none
	GetActiveRound(ctx context.Context) (*entities.Round, error)

	// ListRecentRounds returns the latest rounds in any status
	ListRecentRounds(ctx context.Context, limit int) ([]*entities.Round, error)

	// GetPot returns the stakes placed on a round
	GetPot(ctx context.Context, id int64) (*entities.Pot, error)
}

// WagerService defines the interface for placing wagers
type WagerService interface {
	// PlaceWager debits the stake and records the wager as one unit
	PlaceWager(ctx context.Context, externalID string, roundID int64, side entities.Side, amount int64, now time.Time) (*entities.Wager, error)

	// PlaceHotPotatoWager debits the stake and records the prediction as one unit
	PlaceHotPotatoWager(ctx context.Context, externalID string, roundID int64, predictedHours decimal.Decimal, amount int64, now time.Time) (*entities.HotPotatoWager, error)

	// ListPlayerWagers returns a player's recent classic wagers
	ListPlayerWagers(ctx context.Context, externalID string, limit int) ([]*entities.Wager, error)
}

// OutcomeResolver reads round outcomes from the content source. It never
// touches persisted state.
type OutcomeResolver interface {
	// DetermineOutcome fetches final scores, falling back to initial scores
	// for any side the content source could not report
	DetermineOutcome(ctx context.Context, round *entities.Round) *entities.RoundOutcome

	// ObserveHotPotato returns the terminal status a round should move to, or
	// nil if it should stay active until the next pass
	ObserveHotPotato(ctx context.Context, round *entities.HotPotatoRound, now time.Time) (*entities.HotPotatoObservation, error)
}

// SettlementService defines the interface for settling classic rounds
type SettlementService interface {
	// FenceRound moves an active round to pending_payout with its outcome.
	// Returns false if another caller already fenced it.
	FenceRound(ctx context.Context, roundID int64, outcome *entities.RoundOutcome, now time.Time) (bool, error)

	// OutstandingPayouts returns wagers on a pending_payout round that are owed and unpaid
	OutstandingPayouts(ctx context.Context, roundID int64) ([]*entities.Wager, error)

	// PayWager credits one owed wager exactly once and returns the amount credited
	PayWager(ctx context.Context, roundID, wagerID int64, now time.Time) (int64, error)

	// FinalizeRound moves a fully paid pending_payout round to finished.
	// Returns false if payouts are outstanding or the round is not pending_payout.
	FinalizeRound(ctx context.Context, roundID int64, now time.Time) (bool, error)
}

// HotPotatoService defines the interface for hot potato rounds
type HotPotatoService interface {
	// CheckAdmission reports whether another hot potato round may be opened
	CheckAdmission(ctx context.Context, now time.Time) (*entities.RoundAdmission, error)

	// RecentContentIDs returns content IDs that must not be reused
	RecentContentIDs(ctx context.Context) ([]string, error)

	// CreateRound opens a round for item. It takes the admission lock, then
	// re-checks the active cap and the recent content window.
	CreateRound(ctx context.Context, item *entities.ContentItem, now time.Time) (*entities.HotPotatoRound, error)

	// ListActive returns all active rounds
	ListActive(ctx context.Context) ([]*entities.HotPotatoRound, error)

	// GetRound retrieves a round by ID
	GetRound(ctx context.Context, id int64) (*entities.HotPotatoRound, error)

	// Resolve applies a terminal status and pays the closest predictions.
	// Returns nil if the round had already been resolved.
	Resolve(ctx context.Context, roundID int64, observation *entities.HotPotatoObservation) (*entities.HotPotatoResolution, error)
}

// PositionService defines the interface for meme stock trading
type PositionService interface {
	// Buy spends up to chips on whole shares at the current value
	Buy(ctx context.Context, externalID, symbol string, chips int64) (*entities.TradeResult, error)

	// Sell sells shares at the current value and realizes profit or loss
	Sell(ctx context.Context, externalID, symbol string, shares int64) (*entities.TradeResult, error)

	// Portfolio returns a player's positions valued at current prices
	Portfolio(ctx context.Context, externalID string) ([]*entities.PortfolioEntry, error)
}

// MarketService defines the interface for the price feed side of the meme market
type MarketService interface {
	// ListStock creates a stock whose symbol is derived from title
	ListStock(ctx context.Context, title string, initialValue int64, now time.Time) (*entities.MemeStock, error)

	// RecordPrice stores a new price sample
	RecordPrice(ctx context.Context, symbol string, value int64, now time.Time) (*entities.MemeStock, error)

	// SetActive marks a stock as trending or not
	SetActive(ctx context.Context, symbol string, active bool) (*entities.MemeStock, error)

	// ListStocks returns listed stocks
	ListStocks(ctx context.Context, activeOnly bool) ([]*entities.MemeStock, error)
}
