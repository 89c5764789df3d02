package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// HotPotatoStatus represents the lifecycle state of a hot potato round
type HotPotatoStatus string

const (
	HotPotatoStatusActive   HotPotatoStatus = "active"
	HotPotatoStatusDeleted  HotPotatoStatus = "deleted"
	HotPotatoStatusSurvived HotPotatoStatus = "survived"
	HotPotatoStatusExpired  HotPotatoStatus = "expired"
)

// IsTerminal returns true for every status a round can never leave
func (s HotPotatoStatus) IsTerminal() bool {
	return s == HotPotatoStatusDeleted || s == HotPotatoStatusSurvived || s == HotPotatoStatusExpired
}

// HotPotatoRound asks players to predict how many hours a controversial post
// survives before it is deleted
type HotPotatoRound struct {
	ID                 int64           `db:"id" json:"id"`
	ContentID          string          `db:"content_id" json:"content_id"`
	Title              string          `db:"title" json:"title"`
	Author             string          `db:"author" json:"author"`
	Subreddit          string          `db:"subreddit" json:"subreddit"`
	ControversyScore   decimal.Decimal `db:"controversy_score" json:"controversy_score"`
	Status             HotPotatoStatus `db:"status" json:"status"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	ExpiresAt          time.Time       `db:"expires_at" json:"expires_at"`
	ActualDeletionTime *time.Time      `db:"actual_deletion_time" json:"actual_deletion_time,omitempty"`
	ResolvedAt         *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
}

// AcceptsWagers returns true while the round is active and not yet expired
func (r *HotPotatoRound) AcceptsWagers(now time.Time) bool {
	return r.Status == HotPotatoStatusActive && now.Before(r.ExpiresAt)
}

// IsExpired returns true once the round reached its expiry
func (r *HotPotatoRound) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// MaxHours is the round's full lifetime in hours
func (r *HotPotatoRound) MaxHours() decimal.Decimal {
	return HoursBetween(r.CreatedAt, r.ExpiresAt)
}

// HoursBetween returns the elapsed time between from and to in fractional hours
func HoursBetween(from, to time.Time) decimal.Decimal {
	elapsed := to.Sub(from)
	if elapsed < 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(elapsed)).Div(decimal.NewFromInt(int64(time.Hour)))
}

// HotPotatoWager is a player's predicted deletion time for a hot potato round
type HotPotatoWager struct {
	ID             int64           `db:"id" json:"id"`
	RoundID        int64           `db:"round_id" json:"round_id"`
	PlayerID       int64           `db:"player_id" json:"player_id"`
	PredictedHours decimal.Decimal `db:"predicted_hours" json:"predicted_hours"`
	Amount         int64           `db:"amount" json:"amount"`
	Payout         *int64          `db:"payout" json:"payout,omitempty"`
	PaidAt         *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// ClosestPredictions returns every wager whose prediction has the smallest
// absolute distance to target
func ClosestPredictions(wagers []*HotPotatoWager, target decimal.Decimal) []*HotPotatoWager {
	var winners []*HotPotatoWager
	var best decimal.Decimal
	for _, w := range wagers {
		distance := w.PredictedHours.Sub(target).Abs()
		switch {
		case len(winners) == 0 || distance.LessThan(best):
			best = distance
			winners = []*HotPotatoWager{w}
		case distance.Equal(best):
			winners = append(winners, w)
		}
	}
	return winners
}

// SplitPot divides pot evenly between winners. The remainder is not paid out.
func SplitPot(pot int64, winners int) int64 {
	if winners <= 0 {
		return 0
	}
	return pot / int64(winners)
}

// HotPotatoObservation is what the content source reported about a round's post
type HotPotatoObservation struct {
	Status     HotPotatoStatus
	ObservedAt time.Time
}

// HotPotatoResolution summarizes a terminal transition and its payouts
type HotPotatoResolution struct {
	RoundID      int64             `json:"round_id"`
	Status       HotPotatoStatus   `json:"status"`
	TargetHours  decimal.Decimal   `json:"target_hours"`
	Pot          int64             `json:"pot"`
	ShareEach    int64             `json:"share_each"`
	Winners      []*HotPotatoWager `json:"winners"`
	RoundingLoss int64             `json:"rounding_loss"`
}
