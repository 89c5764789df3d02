package entities

import (
	"time"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeWager          RelatedType = "wager"
	RelatedTypeHotPotatoWager RelatedType = "hot_potato_wager"
	RelatedTypeMemeStock      RelatedType = "meme_stock"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id" json:"id"`
	PlayerID            int64           `db:"player_id" json:"player_id"`
	BalanceBefore       int64           `db:"balance_before" json:"balance_before"`
	BalanceAfter        int64           `db:"balance_after" json:"balance_after"`
	ChangeAmount        int64           `db:"change_amount" json:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type" json:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata" json:"transaction_metadata,omitempty"`
	RelatedID           *int64          `db:"related_id" json:"related_id,omitempty"`
	RelatedType         *RelatedType    `db:"related_type" json:"related_type,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}

// IsPositiveChange returns true if the change amount is positive
func (bh *BalanceHistory) IsPositiveChange() bool {
	return bh.ChangeAmount > 0
}

// GetTransactionDescription returns a human-readable description of the transaction
func (bh *BalanceHistory) GetTransactionDescription() string {
	switch bh.TransactionType {
	case TransactionTypeWagerStake:
		return "Round wager"
	case TransactionTypeRoundPayout:
		return "Round win"
	case TransactionTypeRoundRefund:
		return "Round refund"
	case TransactionTypeHotPotatoStake:
		return "Hot potato prediction"
	case TransactionTypeHotPotatoPayout:
		return "Hot potato win"
	case TransactionTypeStockBuy:
		return "Stock purchase"
	case TransactionTypeStockSell:
		return "Stock sale"
	case TransactionTypeInitial:
		return "Initial balance"
	default:
		return string(bh.TransactionType)
	}
}

// NewBalanceChange builds a history entry for a change from before to after
func NewBalanceChange(playerID, before, after int64, txType TransactionType, relatedID int64, relatedType RelatedType, metadata map[string]any) *BalanceHistory {
	return &BalanceHistory{
		PlayerID:            playerID,
		BalanceBefore:       before,
		BalanceAfter:        after,
		ChangeAmount:        after - before,
		TransactionType:     txType,
		TransactionMetadata: metadata,
		RelatedID:           &relatedID,
		RelatedType:         &relatedType,
	}
}
