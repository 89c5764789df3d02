package repository

import (
	"context"
	"testing"

	"gamerit/domain/entities"
	"gamerit/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceHistoryRepository_RecordAndList(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	player, err := NewPlayerRepository(testDB.DB).Create(ctx, "t2_history", "history", testutil.DefaultBalance)
	require.NoError(t, err)

	repo := NewBalanceHistoryRepository(testDB.DB)

	t.Run("record keeps metadata and relation", func(t *testing.T) {
		entry := entities.NewBalanceChange(player.ID, 1000, 900, entities.TransactionTypeWagerStake, 42, entities.RelatedTypeWager,
			map[string]any{"round_id": 7, "side": "A"})
		require.NoError(t, repo.Record(ctx, entry))
		assert.NotZero(t, entry.ID)

		history, err := repo.GetByPlayer(ctx, player.ID, 10)
		require.NoError(t, err)
		require.Len(t, history, 1)

		got := history[0]
		assert.Equal(t, int64(-100), got.ChangeAmount)
		assert.Equal(t, entities.TransactionTypeWagerStake, got.TransactionType)
		require.NotNil(t, got.RelatedID)
		assert.Equal(t, int64(42), *got.RelatedID)
		require.NotNil(t, got.RelatedType)
		assert.Equal(t, entities.RelatedTypeWager, *got.RelatedType)
		assert.Equal(t, "A", got.TransactionMetadata["side"])
		assert.EqualValues(t, 7, got.TransactionMetadata["round_id"])
	})

	t.Run("newest first and limited", func(t *testing.T) {
		require.NoError(t, repo.Record(ctx, testutil.CreateTestBalanceHistory(player.ID, entities.TransactionTypeRoundPayout, 900, 1100)))
		require.NoError(t, repo.Record(ctx, testutil.CreateTestBalanceHistory(player.ID, entities.TransactionTypeStockBuy, 1100, 1000)))

		history, err := repo.GetByPlayer(ctx, player.ID, 2)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, entities.TransactionTypeStockBuy, history[0].TransactionType)
		assert.Equal(t, entities.TransactionTypeRoundPayout, history[1].TransactionType)
		assert.Nil(t, history[0].RelatedID)
	})
}
