package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a player's holding in one meme stock. Rows only exist while
// SharesOwned is positive.
type Position struct {
	PlayerID        int64           `db:"player_id" json:"player_id"`
	StockID         int64           `db:"stock_id" json:"stock_id"`
	SharesOwned     int64           `db:"shares_owned" json:"shares_owned"`
	AverageBuyPrice decimal.Decimal `db:"average_buy_price" json:"average_buy_price"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// ApplyBuy adds shares bought at price and recomputes the weighted-average cost basis
func (p *Position) ApplyBuy(shares, price int64) {
	p.AverageBuyPrice = WeightedAverage(p.SharesOwned, p.AverageBuyPrice, shares, price)
	p.SharesOwned += shares
}

// CostBasis returns the total cost of the shares currently held
func (p *Position) CostBasis() decimal.Decimal {
	return p.AverageBuyPrice.Mul(decimal.NewFromInt(p.SharesOwned))
}

// RealizedPL returns the profit or loss of selling shares at price
func (p *Position) RealizedPL(shares, price int64) decimal.Decimal {
	proceeds := decimal.NewFromInt(shares * price)
	return proceeds.Sub(p.AverageBuyPrice.Mul(decimal.NewFromInt(shares)))
}

// WeightedAverage computes (oldShares*oldAvg + newShares*price) / (oldShares+newShares)
func WeightedAverage(oldShares int64, oldAvg decimal.Decimal, newShares, price int64) decimal.Decimal {
	total := oldShares + newShares
	if total <= 0 {
		return decimal.Zero
	}
	held := oldAvg.Mul(decimal.NewFromInt(oldShares))
	bought := decimal.NewFromInt(newShares * price)
	return held.Add(bought).DivRound(decimal.NewFromInt(total), AveragePriceScale)
}

// AveragePriceScale matches the scale of portfolio.average_buy_price
const AveragePriceScale = 12

// PortfolioEntry is a position valued at the stock's latest price
type PortfolioEntry struct {
	Symbol          string          `json:"symbol"`
	Title           string          `json:"title"`
	SharesOwned     int64           `json:"shares_owned"`
	AverageBuyPrice decimal.Decimal `json:"average_buy_price"`
	CurrentValue    int64           `json:"current_value"`
	MarketValue     int64           `json:"market_value"`
	UnrealizedPL    decimal.Decimal `json:"unrealized_pl"`
	IsActive        bool            `json:"is_active"`
}

// NewPortfolioEntry values position at stock's current price
func NewPortfolioEntry(stock *MemeStock, position *Position) *PortfolioEntry {
	marketValue := position.SharesOwned * stock.CurrentValue
	return &PortfolioEntry{
		Symbol:          stock.Symbol,
		Title:           stock.Title,
		SharesOwned:     position.SharesOwned,
		AverageBuyPrice: position.AverageBuyPrice,
		CurrentValue:    stock.CurrentValue,
		MarketValue:     marketValue,
		UnrealizedPL:    decimal.NewFromInt(marketValue).Sub(position.CostBasis()),
		IsActive:        stock.IsActive,
	}
}

// TradeSide distinguishes buys from sells
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// TradeResult is returned to the player after a buy or sell
type TradeResult struct {
	Side            TradeSide       `json:"side"`
	Symbol          string          `json:"symbol"`
	Shares          int64           `json:"shares"`
	Price           int64           `json:"price"`
	Amount          int64           `json:"amount"`
	Unspent         int64           `json:"unspent,omitempty"`
	SharesOwned     int64           `json:"shares_owned"`
	AverageBuyPrice decimal.Decimal `json:"average_buy_price"`
	RealizedPL      decimal.Decimal `json:"realized_pl"`
	NewBalance      int64           `json:"new_balance"`
}
