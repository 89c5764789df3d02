package repository

import (
	"context"
	"testing"
	"time"

	"gamerit/domain/entities"
	"gamerit/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	player, err := NewPlayerRepository(testDB.DB).Create(ctx, "t2_trader", "trader", testutil.DefaultBalance)
	require.NoError(t, err)
	stock := testutil.CreateTestStock("$DOGE", 50, now)
	require.NoError(t, NewMemeStockRepository(testDB.DB).Create(ctx, stock))

	repo := NewPositionRepository(testDB.DB)

	t.Run("no position", func(t *testing.T) {
		got, err := repo.GetForUpdate(ctx, player.ID, stock.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("save then accumulate", func(t *testing.T) {
		position := &entities.Position{PlayerID: player.ID, StockID: stock.ID}
		position.ApplyBuy(4, 50)
		require.NoError(t, repo.Save(ctx, position))

		position.ApplyBuy(2, 5)
		require.NoError(t, repo.Save(ctx, position))

		got, err := repo.GetForUpdate(ctx, player.ID, stock.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(6), got.SharesOwned)
		assert.True(t, decimal.NewFromInt(35).Equal(got.AverageBuyPrice), got.AverageBuyPrice.String())

		positions, err := repo.ListByPlayer(ctx, player.ID)
		require.NoError(t, err)
		assert.Len(t, positions, 1)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, player.ID, stock.ID))

		positions, err := repo.ListByPlayer(ctx, player.ID)
		require.NoError(t, err)
		assert.Empty(t, positions)
	})
}
