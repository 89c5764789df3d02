package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContentItem is a post as reported by the content source
type ContentItem struct {
	ID          string
	Title       string
	Author      string
	Subreddit   string
	Score       int64
	UpvoteRatio float64
	NumComments int64
	CreatedAt   time.Time
}

// Snapshot captures the item as a round post
func (c *ContentItem) Snapshot() PostSnapshot {
	return PostSnapshot{
		ID:           c.ID,
		Title:        c.Title,
		Author:       c.Author,
		Subreddit:    c.Subreddit,
		InitialScore: c.Score,
	}
}

// ControversyScore is 1 for a post with an even split of up and down votes
// and 0 for a unanimous one
func (c *ContentItem) ControversyScore() decimal.Decimal {
	skew := decimal.NewFromFloat(c.UpvoteRatio).Sub(decimal.NewFromFloat(0.5)).Abs()
	score := decimal.NewFromInt(1).Sub(skew.Mul(decimal.NewFromInt(2)))
	if score.IsNegative() {
		return decimal.Zero
	}
	return score.Round(4)
}
