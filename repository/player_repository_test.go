package repository

import (
	"context"
	"testing"

	"gamerit/domain"
	"gamerit/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerRepository_Create(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPlayerRepository(testDB.DB)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		player, err := repo.Create(ctx, "t2_alpha", "alpha", testutil.DefaultBalance)
		require.NoError(t, err)
		require.NotNil(t, player)

		assert.NotZero(t, player.ID)
		assert.Equal(t, "t2_alpha", player.ExternalID)
		assert.Equal(t, testutil.DefaultBalance, player.Points)
		assert.Equal(t, testutil.DefaultBalance, player.MinBalance)
		assert.Equal(t, testutil.DefaultBalance, player.MaxBalance)
		assert.Equal(t, 1, player.Level)
		assert.False(t, player.CreatedAt.IsZero())
	})

	t.Run("duplicate external ID returns nil", func(t *testing.T) {
		_, err := repo.Create(ctx, "t2_dup", "first", testutil.DefaultBalance)
		require.NoError(t, err)

		player, err := repo.Create(ctx, "t2_dup", "second", 5)
		require.NoError(t, err)
		assert.Nil(t, player)

		existing, err := repo.GetByExternalID(ctx, "t2_dup")
		require.NoError(t, err)
		assert.Equal(t, "first", existing.Username)
		assert.Equal(t, testutil.DefaultBalance, existing.Points)
	})

	t.Run("not found", func(t *testing.T) {
		player, err := repo.GetByExternalID(ctx, "t2_missing")
		require.NoError(t, err)
		assert.Nil(t, player)

		player, err = repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, player)
	})
}

func TestPlayerRepository_DebitCredit(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPlayerRepository(testDB.DB)
	ctx := context.Background()

	player, err := repo.Create(ctx, "t2_ledger", "ledger", testutil.DefaultBalance)
	require.NoError(t, err)

	t.Run("debit lowers balance and min tracker", func(t *testing.T) {
		balance, err := repo.Debit(ctx, player.ID, 400)
		require.NoError(t, err)
		assert.Equal(t, int64(600), balance)

		stored, err := repo.GetByID(ctx, player.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(600), stored.Points)
		assert.Equal(t, int64(600), stored.MinBalance)
	})

	t.Run("debit never overdraws", func(t *testing.T) {
		_, err := repo.Debit(ctx, player.ID, 601)
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

		stored, err := repo.GetByID(ctx, player.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(600), stored.Points)
	})

	t.Run("debit of whole balance reaches zero", func(t *testing.T) {
		balance, err := repo.Debit(ctx, player.ID, 600)
		require.NoError(t, err)
		assert.Zero(t, balance)
	})

	t.Run("credit raises balance and max tracker", func(t *testing.T) {
		balance, err := repo.Credit(ctx, player.ID, 1500)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), balance)

		stored, err := repo.GetByID(ctx, player.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), stored.MaxBalance)
		assert.Zero(t, stored.MinBalance)
	})

	t.Run("unknown player", func(t *testing.T) {
		_, err := repo.Debit(ctx, 999999, 10)
		assert.ErrorIs(t, err, domain.ErrPlayerNotFound)

		_, err = repo.Credit(ctx, 999999, 10)
		assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})
}

func TestPlayerRepository_Leaderboard(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPlayerRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "t2_low", "low", 100)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "t2_high", "high", 3000)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "t2_mid", "mid", 1000)
	require.NoError(t, err)

	players, err := repo.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "high", players[0].Username)
	assert.Equal(t, "mid", players[1].Username)
}
