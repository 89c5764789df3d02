package services

import (
	"context"
	"testing"
	"time"

	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/events"
	"gamerit/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newWagerServiceUnderTest(t *testing.T) (interfaces.WagerService, *TestMocks) {
	SetupTestConfig(t)
	mocks := NewTestMocks()
	service := NewWagerService(
		mocks.PlayerRepo,
		mocks.RoundRepo,
		mocks.WagerRepo,
		mocks.HotPotatoRepo,
		mocks.HotPotatoWagerRepo,
		mocks.BalanceHistoryRepo,
		mocks.EventPublisher,
	)
	return service, mocks
}

func openTestRound() *entities.Round {
	round := newTestRound(TestRoundID)
	round.CreatedAt = testNow.Add(-time.Hour)
	round.EndsAt = round.CreatedAt.Add(24 * time.Hour)
	return round
}

func TestWagerService_PlaceWager_Success(t *testing.T) {
	service, mocks := newWagerServiceUnderTest(t)
	ctx := context.Background()

	player := newTestPlayer(TestPlayerAID, TestPlayerAExtID, 500)
	mocks.PlayerRepo.On("GetByExternalIDForUpdate", ctx, TestPlayerAExtID).Return(player, nil)
	mocks.RoundRepo.On("GetByIDForShare", ctx, TestRoundID).Return(openTestRound(), nil)
	mocks.WagerRepo.On("GetByRoundAndPlayer", ctx, TestRoundID, TestPlayerAID).Return(nil, nil)
	mocks.PlayerRepo.On("Debit", ctx, TestPlayerAID, int64(100)).Return(int64(400), nil)
	mocks.WagerRepo.On("Create", ctx, mock.MatchedBy(func(w *entities.Wager) bool {
		return w.RoundID == TestRoundID && w.PlayerID == TestPlayerAID && w.Side == entities.SideA && w.Amount == 100
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.Wager).ID = 11
	}).Return(nil)
	mocks.BalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.PlayerID == TestPlayerAID &&
			h.BalanceBefore == 500 &&
			h.BalanceAfter == 400 &&
			h.ChangeAmount == -100 &&
			h.TransactionType == entities.TransactionTypeWagerStake &&
			*h.RelatedID == 11
	})).Return(nil)
	mocks.ExpectEventPublish(events.EventTypeBalanceChange)
	mocks.ExpectEventPublish(events.EventTypeWagerPlaced)

	wager, err := service.PlaceWager(ctx, TestPlayerAExtID, TestRoundID, entities.SideA, 100, testNow)

	require.NoError(t, err)
	assert.Equal(t, int64(11), wager.ID)
	mocks.AssertAllExpectations(t)
}

func TestWagerService_PlaceWager_RejectedBeforeMutation(t *testing.T) {
	tests := []struct {
		name    string
		side    entities.Side
		amount  int64
		balance int64
		round   func() *entities.Round
		prior   *entities.Wager
		wantErr *domain.Error
	}{
		{
			name:    "stake below minimum",
			side:    entities.SideA,
			amount:  9,
			balance: 500,
			wantErr: domain.ErrStakeBelowMinimum,
		},
		{
			name:    "invalid side",
			side:    entities.Side("C"),
			amount:  50,
			balance: 500,
			wantErr: domain.ErrInvalidSide,
		},
		{
			name:    "round already fenced",
			side:    entities.SideA,
			amount:  50,
			balance: 500,
			round: func() *entities.Round {
				r := openTestRound()
				r.Status = entities.RoundStatusPendingPayout
				return r
			},
			wantErr: domain.ErrRoundNotActive,
		},
		{
			name:    "deadline passed before settlement",
			side:    entities.SideA,
			amount:  50,
			balance: 500,
			round: func() *entities.Round {
				return newTestRound(TestRoundID)
			},
			wantErr: domain.ErrRoundNotActive,
		},
		{
			name:    "duplicate wager on other side",
			side:    entities.SideB,
			amount:  50,
			balance: 500,
			round:   openTestRound,
			prior:   &entities.Wager{ID: 3, RoundID: TestRoundID, PlayerID: TestPlayerAID, Side: entities.SideA, Amount: 10},
			wantErr: domain.ErrDuplicateWager,
		},
		{
			name:    "stake above balance",
			side:    entities.SideA,
			amount:  501,
			balance: 500,
			round:   openTestRound,
			wantErr: domain.ErrInsufficientBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mocks := newWagerServiceUnderTest(t)
			ctx := context.Background()

			player := newTestPlayer(TestPlayerAID, TestPlayerAExtID, tt.balance)
			mocks.PlayerRepo.On("GetByExternalIDForUpdate", ctx, TestPlayerAExtID).Return(player, nil).Maybe()
			if tt.round != nil {
				mocks.RoundRepo.On("GetByIDForShare", ctx, TestRoundID).Return(tt.round(), nil)
			}
			mocks.WagerRepo.On("GetByRoundAndPlayer", ctx, TestRoundID, TestPlayerAID).Return(tt.prior, nil).Maybe()

			_, err := service.PlaceWager(ctx, TestPlayerAExtID, TestRoundID, tt.side, tt.amount, testNow)

			assert.ErrorIs(t, err, tt.wantErr)
			mocks.PlayerRepo.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything)
			mocks.WagerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			mocks.BalanceHistoryRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
		})
	}
}

func TestWagerService_PlaceWager_PlayerNotFound(t *testing.T) {
	service, mocks := newWagerServiceUnderTest(t)
	ctx := context.Background()

	mocks.PlayerRepo.On("GetByExternalIDForUpdate", ctx, "t2_nobody").Return(nil, nil)

	_, err := service.PlaceWager(ctx, "t2_nobody", TestRoundID, entities.SideA, 50, testNow)

	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestWagerService_PlaceWager_DuplicateFromStore(t *testing.T) {
	service, mocks := newWagerServiceUnderTest(t)
	ctx := context.Background()

	player := newTestPlayer(TestPlayerAID, TestPlayerAExtID, 500)
	mocks.PlayerRepo.On("GetByExternalIDForUpdate", ctx, TestPlayerAExtID).Return(player, nil)
	mocks.RoundRepo.On("GetByIDForShare", ctx, TestRoundID).Return(openTestRound(), nil)
	mocks.WagerRepo.On("GetByRoundAndPlayer", ctx, TestRoundID, TestPlayerAID).Return(nil, nil)
	mocks.PlayerRepo.On("Debit", ctx, TestPlayerAID, int64(50)).Return(int64(450), nil)
	mocks.WagerRepo.On("Create", ctx, mock.Anything).Return(domain.ErrDuplicateWager)

	_, err := service.PlaceWager(ctx, TestPlayerAExtID, TestRoundID, entities.SideA, 50, testNow)

	// The caller's transaction rolls the debit back
	assert.ErrorIs(t, err, domain.ErrDuplicateWager)
	mocks.BalanceHistoryRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func newHotPotatoTestRound() *entities.HotPotatoRound {
	created := testNow.Add(-2 * time.Hour)
	return &entities.HotPotatoRound{
		ID:        5,
		ContentID: "hp1",
		Status:    entities.HotPotatoStatusActive,
		CreatedAt: created,
		ExpiresAt: created.Add(48 * time.Hour),
	}
}

func TestWagerService_PlaceHotPotatoWager(t *testing.T) {
	service, mocks := newWagerServiceUnderTest(t)
	ctx := context.Background()

	player := newTestPlayer(TestPlayerAID, TestPlayerAExtID, 300)
	mocks.PlayerRepo.On("GetByExternalIDForUpdate", ctx, TestPlayerAExtID).Return(player, nil)
	mocks.HotPotatoRepo.On("GetByIDForShare", ctx, int64(5)).Return(newHotPotatoTestRound(), nil)
	mocks.PlayerRepo.On("Debit", ctx, TestPlayerAID, int64(25)).Return(int64(275), nil)
	mocks.HotPotatoWagerRepo.On("Create", ctx, mock.MatchedBy(func(w *entities.HotPotatoWager) bool {
		return w.PredictedHours.Equal(decimal.RequireFromString("12.5")) && w.Amount == 25
	})).Return(nil)
	mocks.ExpectBalanceHistoryRecord(TestPlayerAID, 275, entities.TransactionTypeHotPotatoStake)
	mocks.ExpectAnyPublish()

	wager, err := service.PlaceHotPotatoWager(ctx, TestPlayerAExtID, 5, decimal.RequireFromString("12.5"), 25, testNow)

	require.NoError(t, err)
	assert.Equal(t, int64(25), wager.Amount)
	mocks.AssertAllExpectations(t)
}

func TestWagerService_PlaceHotPotatoWager_PredictionRange(t *testing.T) {
	for _, hours := range []string{"0", "-1", "48.01", "100"} {
		t.Run(hours, func(t *testing.T) {
			service, mocks := newWagerServiceUnderTest(t)
			ctx := context.Background()

			mocks.PlayerRepo.On("GetByExternalIDForUpdate", ctx, TestPlayerAExtID).Return(newTestPlayer(TestPlayerAID, TestPlayerAExtID, 300), nil)
			mocks.HotPotatoRepo.On("GetByIDForShare", ctx, int64(5)).Return(newHotPotatoTestRound(), nil)

			_, err := service.PlaceHotPotatoWager(ctx, TestPlayerAExtID, 5, decimal.RequireFromString(hours), 25, testNow)

			assert.ErrorIs(t, err, domain.ErrInvalidPrediction)
			mocks.PlayerRepo.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
