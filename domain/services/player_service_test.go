package services

import (
	"context"
	"errors"
	"testing"

	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPlayerService_GetOrCreatePlayer_New(t *testing.T) {
	SetupTestConfig(t)
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewPlayerService(mocks.PlayerRepo, mocks.BalanceHistoryRepo, mocks.EventPublisher)

	created := newTestPlayer(TestPlayerAID, TestPlayerAExtID, TestInitialBalance)
	mocks.PlayerRepo.On("GetByExternalID", ctx, TestPlayerAExtID).Return(nil, nil).Once()
	mocks.PlayerRepo.On("Create", ctx, TestPlayerAExtID, "alpha", TestInitialBalance).Return(created, nil)
	mocks.BalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.PlayerID == TestPlayerAID &&
			h.BalanceBefore == 0 &&
			h.BalanceAfter == TestInitialBalance &&
			h.TransactionType == entities.TransactionTypeInitial
	})).Return(nil)
	mocks.ExpectEventPublish(events.EventTypeBalanceChange)
	mocks.ExpectEventPublish(events.EventTypePlayerCreated)

	player, err := service.GetOrCreatePlayer(ctx, TestPlayerAExtID, "alpha")

	require.NoError(t, err)
	assert.Equal(t, TestInitialBalance, player.Points)
	mocks.AssertAllExpectations(t)
}

func TestPlayerService_GetOrCreatePlayer_Existing(t *testing.T) {
	SetupTestConfig(t)
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewPlayerService(mocks.PlayerRepo, mocks.BalanceHistoryRepo, mocks.EventPublisher)

	existing := newTestPlayer(TestPlayerAID, TestPlayerAExtID, 4321)
	mocks.PlayerRepo.On("GetByExternalID", ctx, TestPlayerAExtID).Return(existing, nil)

	player, err := service.GetOrCreatePlayer(ctx, TestPlayerAExtID, "alpha")

	require.NoError(t, err)
	assert.Equal(t, int64(4321), player.Points)
	mocks.PlayerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mocks.EventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestPlayerService_GetOrCreatePlayer_LostCreateRace(t *testing.T) {
	SetupTestConfig(t)
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewPlayerService(mocks.PlayerRepo, mocks.BalanceHistoryRepo, mocks.EventPublisher)

	winner := newTestPlayer(TestPlayerAID, TestPlayerAExtID, TestInitialBalance)
	mocks.PlayerRepo.On("GetByExternalID", ctx, TestPlayerAExtID).Return(nil, nil).Once()
	mocks.PlayerRepo.On("Create", ctx, TestPlayerAExtID, "alpha", TestInitialBalance).Return(nil, nil)
	mocks.PlayerRepo.On("GetByExternalID", ctx, TestPlayerAExtID).Return(winner, nil).Once()

	player, err := service.GetOrCreatePlayer(ctx, TestPlayerAExtID, "alpha")

	require.NoError(t, err)
	assert.Equal(t, TestPlayerAID, player.ID)
	mocks.BalanceHistoryRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestPlayerService_GetOrCreatePlayer_RequiresExternalID(t *testing.T) {
	SetupTestConfig(t)
	mocks := NewTestMocks()
	service := NewPlayerService(mocks.PlayerRepo, mocks.BalanceHistoryRepo, mocks.EventPublisher)

	_, err := service.GetOrCreatePlayer(context.Background(), "  ", "ghost")

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestPlayerService_GetPlayer_NotFound(t *testing.T) {
	SetupTestConfig(t)
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewPlayerService(mocks.PlayerRepo, mocks.BalanceHistoryRepo, mocks.EventPublisher)

	mocks.PlayerRepo.On("GetByExternalID", ctx, "t2_missing").Return(nil, nil)

	_, err := service.GetPlayer(ctx, "t2_missing")

	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestPlayerService_Leaderboard_ClampsLimit(t *testing.T) {
	SetupTestConfig(t)
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewPlayerService(mocks.PlayerRepo, mocks.BalanceHistoryRepo, mocks.EventPublisher)

	mocks.PlayerRepo.On("Leaderboard", ctx, 10).Return([]*entities.Player{}, nil).Once()
	mocks.PlayerRepo.On("Leaderboard", ctx, 100).Return([]*entities.Player{}, nil).Once()

	_, err := service.Leaderboard(ctx, 0)
	require.NoError(t, err)
	_, err = service.Leaderboard(ctx, 5000)
	require.NoError(t, err)

	mocks.PlayerRepo.AssertExpectations(t)
}
