package entities

// TransactionType represents the type of balance change
type TransactionType string

// All transaction types supported by the system
const (
	// Classic round transactions
	TransactionTypeWagerStake  TransactionType = "wager_stake"
	TransactionTypeRoundPayout TransactionType = "round_payout"
	TransactionTypeRoundRefund TransactionType = "round_refund"

	// Hot potato transactions
	TransactionTypeHotPotatoStake  TransactionType = "hot_potato_stake"
	TransactionTypeHotPotatoPayout TransactionType = "hot_potato_payout"

	// Meme market transactions
	TransactionTypeStockBuy  TransactionType = "stock_buy"
	TransactionTypeStockSell TransactionType = "stock_sell"

	// System transactions
	TransactionTypeInitial TransactionType = "initial"
)

// IsStakeType returns true if chips were put at risk on a round
func (tt TransactionType) IsStakeType() bool {
	return tt == TransactionTypeWagerStake ||
		tt == TransactionTypeHotPotatoStake
}

// IsPayoutType returns true if chips were credited by settlement
func (tt TransactionType) IsPayoutType() bool {
	return tt == TransactionTypeRoundPayout ||
		tt == TransactionTypeRoundRefund ||
		tt == TransactionTypeHotPotatoPayout
}

// IsTradeType returns true for meme market trades
func (tt TransactionType) IsTradeType() bool {
	return tt == TransactionTypeStockBuy ||
		tt == TransactionTypeStockSell
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}
