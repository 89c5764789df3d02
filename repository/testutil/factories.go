package testutil

import (
	"fmt"
	"time"

	"gamerit/domain/entities"

	"github.com/shopspring/decimal"
)

// DefaultBalance is the starting balance repository tests give players
const DefaultBalance int64 = 1000

// CreateTestRound builds an active round that opened at createdAt and runs for duration
func CreateTestRound(createdAt time.Time, duration time.Duration) *entities.Round {
	suffix := createdAt.UnixNano()
	return &entities.Round{
		Status: entities.RoundStatusActive,
		PostA: entities.PostSnapshot{
			ID:           fmt.Sprintf("a_%d", suffix),
			Title:        "Post A",
			Author:       "alice",
			Subreddit:    "pics",
			InitialScore: 100,
		},
		PostB: entities.PostSnapshot{
			ID:           fmt.Sprintf("b_%d", suffix),
			Title:        "Post B",
			Author:       "bob",
			Subreddit:    "funny",
			InitialScore: 110,
		},
		CreatedAt: createdAt,
		EndsAt:    createdAt.Add(duration),
	}
}

// CreateTestHotPotatoRound builds an active hot potato round on contentID
func CreateTestHotPotatoRound(contentID string, createdAt time.Time, duration time.Duration) *entities.HotPotatoRound {
	return &entities.HotPotatoRound{
		ContentID:        contentID,
		Title:            "Hot take",
		Author:           "carol",
		Subreddit:        "unpopularopinion",
		ControversyScore: decimal.RequireFromString("0.9000"),
		Status:           entities.HotPotatoStatusActive,
		CreatedAt:        createdAt,
		ExpiresAt:        createdAt.Add(duration),
	}
}

// CreateTestStock builds an active meme stock priced at value
func CreateTestStock(symbol string, value int64, at time.Time) *entities.MemeStock {
	return &entities.MemeStock{
		Symbol:       symbol,
		Title:        symbol + " to the moon",
		CurrentValue: value,
		History:      []entities.PricePoint{{At: at, Value: value}},
		IsActive:     true,
	}
}

// CreateTestBalanceHistory builds a history entry for playerID
func CreateTestBalanceHistory(playerID int64, txType entities.TransactionType, before, after int64) *entities.BalanceHistory {
	return &entities.BalanceHistory{
		PlayerID:            playerID,
		BalanceBefore:       before,
		BalanceAfter:        after,
		ChangeAmount:        after - before,
		TransactionType:     txType,
		TransactionMetadata: map[string]any{"source": "test"},
	}
}
