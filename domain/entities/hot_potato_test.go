package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func hotPotatoWager(id int64, hours string, amount int64) *HotPotatoWager {
	return &HotPotatoWager{ID: id, PredictedHours: decimal.RequireFromString(hours), Amount: amount}
}

func TestClosestPredictions(t *testing.T) {
	wagers := []*HotPotatoWager{
		hotPotatoWager(1, "2", 100),
		hotPotatoWager(2, "5.5", 100),
		hotPotatoWager(3, "6.5", 100),
		hotPotatoWager(4, "30", 100),
	}

	winners := ClosestPredictions(wagers, decimal.NewFromInt(6))

	assert.Len(t, winners, 2)
	assert.Equal(t, int64(2), winners[0].ID)
	assert.Equal(t, int64(3), winners[1].ID)
}

func TestClosestPredictions_SingleWinner(t *testing.T) {
	wagers := []*HotPotatoWager{
		hotPotatoWager(1, "47", 50),
		hotPotatoWager(2, "12", 50),
	}

	winners := ClosestPredictions(wagers, decimal.NewFromInt(48))

	assert.Len(t, winners, 1)
	assert.Equal(t, int64(1), winners[0].ID)
}

func TestClosestPredictions_NoWagers(t *testing.T) {
	assert.Empty(t, ClosestPredictions(nil, decimal.NewFromInt(1)))
}

func TestSplitPot(t *testing.T) {
	assert.Equal(t, int64(100), SplitPot(300, 3))
	assert.Equal(t, int64(33), SplitPot(100, 3))
	assert.Equal(t, int64(0), SplitPot(100, 0))
}

func TestHoursBetween(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, HoursBetween(start, start.Add(90*time.Minute)).Equal(decimal.RequireFromString("1.5")))
	assert.True(t, HoursBetween(start, start.Add(-time.Hour)).IsZero())
}

func TestHotPotatoRound_MaxHours(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	round := &HotPotatoRound{CreatedAt: created, ExpiresAt: created.Add(48 * time.Hour), Status: HotPotatoStatusActive}

	assert.True(t, round.MaxHours().Equal(decimal.NewFromInt(48)))
	assert.True(t, round.AcceptsWagers(created.Add(time.Hour)))
	assert.False(t, round.AcceptsWagers(created.Add(48*time.Hour)))
	assert.True(t, round.IsExpired(created.Add(48*time.Hour)))
}

func TestHotPotatoStatus_IsTerminal(t *testing.T) {
	assert.False(t, HotPotatoStatusActive.IsTerminal())
	assert.True(t, HotPotatoStatusDeleted.IsTerminal())
	assert.True(t, HotPotatoStatusSurvived.IsTerminal())
	assert.True(t, HotPotatoStatusExpired.IsTerminal())
}
