package application

import (
	"context"
	"time"

	"gamerit/domain/entities"

	"github.com/shopspring/decimal"
)

// RoundLifecycleHandler drives rounds through their lifecycle. Every method is
// safe to call repeatedly and from more than one process at once; the store
// fences make extra calls no-ops.
type RoundLifecycleHandler interface {
	// CheckAndCreateRound opens a classic round when none is active and the last one is stale
	CheckAndCreateRound(ctx context.Context, now time.Time) (*entities.RoundAdmission, error)

	// SettleDueRounds settles every round past its deadline and retries stuck payouts
	SettleDueRounds(ctx context.Context, now time.Time) (*entities.SettlementReport, error)

	// CheckAndCreateHotPotato opens a hot potato round when the active cap allows it
	CheckAndCreateHotPotato(ctx context.Context, now time.Time) (*entities.RoundAdmission, error)

	// ResolveHotPotatoRounds moves active hot potato rounds to a terminal status when one is observed
	ResolveHotPotatoRounds(ctx context.Context, now time.Time) (*entities.HotPotatoReport, error)
}

// PlayerHandler manages player accounts
type PlayerHandler interface {
	// StartSession returns the caller's player, creating it on first sight
	StartSession(ctx context.Context, externalID, username string) (*entities.Player, error)
}

// WagerHandler places wagers, each in its own transaction.
//
// A caller seen for the first time is registered with the starting balance
// inside the wager's transaction, so these methods never return
// domain.ErrPlayerNotFound. When the wager is rejected the registration rolls
// back with it.
type WagerHandler interface {
	// PlaceWager stakes amount on one side of a classic round
	PlaceWager(ctx context.Context, externalID, username string, roundID int64, side entities.Side, amount int64) (*entities.Wager, error)

	// PlaceHotPotatoWager stakes amount on a deletion-time prediction
	PlaceHotPotatoWager(ctx context.Context, externalID, username string, roundID int64, predictedHours decimal.Decimal, amount int64) (*entities.HotPotatoWager, error)
}

// TradingHandler executes meme stock trades for players. Like WagerHandler it
// registers an unseen caller inside the trade's transaction.
type TradingHandler interface {
	// Buy spends up to chips on whole shares
	Buy(ctx context.Context, externalID, username, symbol string, chips int64) (*entities.TradeResult, error)

	// Sell sells shares at the current value
	Sell(ctx context.Context, externalID, username, symbol string, shares int64) (*entities.TradeResult, error)
}

// MarketHandler is the price feed side of the meme market, driven by the
// external market-scan job
type MarketHandler interface {
	ListStock(ctx context.Context, title string, initialValue int64) (*entities.MemeStock, error)
	RecordPrice(ctx context.Context, symbol string, value int64) (*entities.MemeStock, error)
	SetActive(ctx context.Context, symbol string, active bool) (*entities.MemeStock, error)
}

// QueryHandler serves read-only views. Results may be served from a cache and
// be slightly stale.
type QueryHandler interface {
	GetPlayer(ctx context.Context, externalID string) (*entities.Player, error)
	Leaderboard(ctx context.Context, limit int) ([]*entities.Player, error)
	BalanceHistory(ctx context.Context, externalID string, limit int) ([]*entities.BalanceHistory, error)
	PlayerWagers(ctx context.Context, externalID string, limit int) ([]*entities.Wager, error)

	ActiveRound(ctx context.Context) (*entities.Round, error)
	GetRound(ctx context.Context, id int64) (*entities.Round, error)
	RecentRounds(ctx context.Context, limit int) ([]*entities.Round, error)
	RoundPot(ctx context.Context, id int64) (*entities.Pot, error)

	ActiveHotPotatoRounds(ctx context.Context) ([]*entities.HotPotatoRound, error)
	GetHotPotatoRound(ctx context.Context, id int64) (*entities.HotPotatoRound, error)

	ListStocks(ctx context.Context, activeOnly bool) ([]*entities.MemeStock, error)
	Portfolio(ctx context.Context, externalID string) ([]*entities.PortfolioEntry, error)
}
