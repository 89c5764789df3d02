package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRepository_SingleActiveRound(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRoundRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	first := testutil.CreateTestRound(now, 24*time.Hour)
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)
	assert.Equal(t, entities.RoundStatusActive, first.Status)

	second := testutil.CreateTestRound(now.Add(time.Second), 24*time.Hour)
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, domain.ErrActiveRoundExists)

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, first.ID, active.ID)
	assert.Equal(t, first.PostA.ID, active.PostA.ID)
	assert.Equal(t, int64(110), active.PostB.InitialScore)
	assert.Nil(t, active.PostA.FinalScore)
	assert.Nil(t, active.Winner)
}

func TestRoundRepository_FenceAndFinish(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRoundRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	round := testutil.CreateTestRound(now.Add(-25*time.Hour), 24*time.Hour)
	require.NoError(t, repo.Create(ctx, round))

	due, err := repo.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, round.ID, due[0].ID)

	t.Run("finish before fence is refused", func(t *testing.T) {
		ok, err := repo.MarkFinished(ctx, round.ID, now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("only one concurrent fence wins", func(t *testing.T) {
		winner := entities.SideA
		outcome := &entities.RoundOutcome{FinalScoreA: 150, FinalScoreB: 120, Winner: &winner}

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.MarkPendingPayout(ctx, round.ID, outcome, now)
				assert.NoError(t, err)
				if ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())

		stored, err := repo.GetByID(ctx, round.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.RoundStatusPendingPayout, stored.Status)
		require.NotNil(t, stored.Winner)
		assert.Equal(t, entities.SideA, *stored.Winner)
		require.NotNil(t, stored.PostA.FinalScore)
		assert.Equal(t, int64(150), *stored.PostA.FinalScore)
		require.NotNil(t, stored.SettledAt)
	})

	t.Run("stuck rounds are listed for recovery", func(t *testing.T) {
		pending, err := repo.ListPendingPayout(ctx, now)
		require.NoError(t, err)
		require.Len(t, pending, 1)

		pending, err = repo.ListPendingPayout(ctx, now.Add(-time.Minute))
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("finish once", func(t *testing.T) {
		ok, err := repo.MarkFinished(ctx, round.ID, now)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.MarkFinished(ctx, round.ID, now)
		require.NoError(t, err)
		assert.False(t, ok)

		stored, err := repo.GetByID(ctx, round.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.RoundStatusFinished, stored.Status)
		assert.NotNil(t, stored.FinishedAt)
	})

	t.Run("a finished round frees the active slot", func(t *testing.T) {
		next := testutil.CreateTestRound(now, 24*time.Hour)
		require.NoError(t, repo.Create(ctx, next))
	})
}

func TestRoundRepository_RecentPosts(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRoundRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	outcome := &entities.RoundOutcome{FinalScoreA: 1, FinalScoreB: 2}

	var created []*entities.Round
	for i := 3; i > 0; i-- {
		round := testutil.CreateTestRound(now.Add(-time.Duration(i)*time.Hour), 30*time.Minute)
		require.NoError(t, repo.Create(ctx, round))
		_, err := repo.MarkPendingPayout(ctx, round.ID, outcome, now)
		require.NoError(t, err)
		created = append(created, round)
	}

	latest, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, created[2].ID, latest.ID)

	ids, err := repo.RecentPostIDs(ctx, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		created[2].PostA.ID, created[2].PostB.ID,
		created[1].PostA.ID, created[1].PostB.ID,
	}, ids)

	recent, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}
