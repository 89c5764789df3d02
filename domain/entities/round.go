package entities

import (
	"strings"
	"time"
)

// RoundStatus represents the lifecycle state of a classic round
type RoundStatus string

const (
	RoundStatusActive        RoundStatus = "active"
	RoundStatusPendingPayout RoundStatus = "pending_payout"
	RoundStatusFinished      RoundStatus = "finished"
)

// Side identifies one of the two posts in a classic round
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// ParseSide normalizes user input into a Side
func ParseSide(value string) (Side, bool) {
	switch Side(strings.ToUpper(strings.TrimSpace(value))) {
	case SideA:
		return SideA, true
	case SideB:
		return SideB, true
	default:
		return "", false
	}
}

// PostSnapshot is a post as captured when the round was created, plus its
// score at settlement
type PostSnapshot struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Subreddit    string `json:"subreddit"`
	InitialScore int64  `json:"initial_score"`
	FinalScore   *int64 `json:"final_score,omitempty"`
}

// Round is a timed contest between two posts
type Round struct {
	ID         int64        `db:"id" json:"id"`
	Status     RoundStatus  `db:"status" json:"status"`
	Winner     *Side        `db:"winner" json:"winner,omitempty"`
	PostA      PostSnapshot `json:"post_a"`
	PostB      PostSnapshot `json:"post_b"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	EndsAt     time.Time    `db:"ends_at" json:"ends_at"`
	SettledAt  *time.Time   `db:"settled_at" json:"settled_at,omitempty"`
	FinishedAt *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
}

// AcceptsWagers returns true if the round is active and its deadline has not passed
func (r *Round) AcceptsWagers(now time.Time) bool {
	return r.Status == RoundStatusActive && now.Before(r.EndsAt)
}

// IsDue returns true if the round is still active past its deadline
func (r *Round) IsDue(now time.Time) bool {
	return r.Status == RoundStatusActive && !now.Before(r.EndsAt)
}

// IsSettled returns true once the fence has been taken
func (r *Round) IsSettled() bool {
	return r.Status == RoundStatusPendingPayout || r.Status == RoundStatusFinished
}

// Post returns the snapshot for the given side
func (r *Round) Post(side Side) *PostSnapshot {
	if side == SideB {
		return &r.PostB
	}
	return &r.PostA
}

// PayoutFor returns the amount owed to a wager on this round and whether it is
// owed at all. Winners get twice their stake; a round without a winner refunds.
func (r *Round) PayoutFor(w *Wager) (int64, bool) {
	if r.Winner == nil {
		return w.Amount, true
	}
	if w.Side == *r.Winner {
		return 2 * w.Amount, true
	}
	return 0, false
}

// RoundOutcome is the resolved result of a classic round prior to fencing
type RoundOutcome struct {
	FinalScoreA   int64
	FinalScoreB   int64
	Winner        *Side
	UsedFallbackA bool
	UsedFallbackB bool
	TieBroken     bool
}

// Pot summarizes the stakes placed on a classic round
type Pot struct {
	RoundID    int64 `json:"round_id"`
	Total      int64 `json:"total"`
	SideATotal int64 `json:"side_a_total"`
	SideBTotal int64 `json:"side_b_total"`
	SideACount int   `json:"side_a_count"`
	SideBCount int   `json:"side_b_count"`
}
