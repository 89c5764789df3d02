package entities

import (
	"time"

	"github.com/google/uuid"
)

// Wager is a player's stake on one side of a classic round. The stake is
// debited when the wager is placed; Payout and PaidAt are set once at settlement.
type Wager struct {
	ID        int64      `db:"id" json:"id"`
	RoundID   int64      `db:"round_id" json:"round_id"`
	PlayerID  int64      `db:"player_id" json:"player_id"`
	Side      Side       `db:"side" json:"side"`
	Amount    int64      `db:"amount" json:"amount"`
	Payout    *int64     `db:"payout" json:"payout,omitempty"`
	PayoutKey *uuid.UUID `db:"payout_key" json:"-"`
	PaidAt    *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// IsPaid returns true once a payout has been applied for this wager
func (w *Wager) IsPaid() bool {
	return w.PaidAt != nil
}
