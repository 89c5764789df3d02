package repository

import (
	"context"
	"testing"
	"time"

	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWagerRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	players := NewPlayerRepository(testDB.DB)
	alpha, err := players.Create(ctx, "t2_alpha", "alpha", testutil.DefaultBalance)
	require.NoError(t, err)
	bravo, err := players.Create(ctx, "t2_bravo", "bravo", testutil.DefaultBalance)
	require.NoError(t, err)

	round := testutil.CreateTestRound(now, 24*time.Hour)
	require.NoError(t, NewRoundRepository(testDB.DB).Create(ctx, round))

	repo := NewWagerRepository(testDB.DB)

	wagerA := &entities.Wager{RoundID: round.ID, PlayerID: alpha.ID, Side: entities.SideA, Amount: 100}
	wagerB := &entities.Wager{RoundID: round.ID, PlayerID: bravo.ID, Side: entities.SideB, Amount: 200}

	t.Run("create", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, wagerA))
		require.NoError(t, repo.Create(ctx, wagerB))
		assert.NotZero(t, wagerA.ID)
		assert.False(t, wagerA.CreatedAt.IsZero())
	})

	t.Run("one wager per player per round", func(t *testing.T) {
		err := repo.Create(ctx, &entities.Wager{RoundID: round.ID, PlayerID: alpha.ID, Side: entities.SideB, Amount: 50})
		assert.ErrorIs(t, err, domain.ErrDuplicateWager)
	})

	t.Run("lookup", func(t *testing.T) {
		got, err := repo.GetByRoundAndPlayer(ctx, round.ID, alpha.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, entities.SideA, got.Side)
		assert.False(t, got.IsPaid())

		missing, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, missing)

		mine, err := repo.ListByPlayer(ctx, bravo.ID, 10)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, wagerB.ID, mine[0].ID)
	})

	t.Run("pot", func(t *testing.T) {
		pot, err := repo.GetPot(ctx, round.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(300), pot.Total)
		assert.Equal(t, int64(100), pot.SideATotal)
		assert.Equal(t, int64(200), pot.SideBTotal)
		assert.Equal(t, 1, pot.SideACount)
		assert.Equal(t, 1, pot.SideBCount)
	})

	t.Run("mark paid once", func(t *testing.T) {
		key := uuid.New()
		ok, err := repo.MarkPaid(ctx, wagerA.ID, 200, key, now)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.MarkPaid(ctx, wagerA.ID, 200, uuid.New(), now)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.GetByID(ctx, wagerA.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Payout)
		assert.Equal(t, int64(200), *got.Payout)
		require.NotNil(t, got.PayoutKey)
		assert.Equal(t, key, *got.PayoutKey)

		unpaid, err := repo.ListUnpaidByRound(ctx, round.ID)
		require.NoError(t, err)
		require.Len(t, unpaid, 1)
		assert.Equal(t, wagerB.ID, unpaid[0].ID)

		all, err := repo.ListByRound(ctx, round.ID)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}
