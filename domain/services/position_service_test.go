package services

import (
	"context"
	"errors"
	"testing"

	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPositionServiceUnderTest(t *testing.T) (interfaces.PositionService, *TestMocks) {
	SetupTestConfig(t)
	mocks := NewTestMocks()
	service := NewPositionService(
		mocks.PlayerRepo,
		mocks.MemeStockRepo,
		mocks.PositionRepo,
		mocks.BalanceHistoryRepo,
		mocks.EventPublisher,
	)
	return service, mocks
}

func dogeStock(value int64) *entities.MemeStock {
	return &entities.MemeStock{ID: 9, Symbol: "$DOGE", Title: "Doge", CurrentValue: value, IsActive: true}
}

// $DOGE at 50: 220 chips buy 4 shares for 200; selling them at 70 credits 280 and realizes 80
func TestPositionService_DogeScenario(t *testing.T) {
	service, mocks := newPositionServiceUnderTest(t)
	ctx := context.Background()

	player := newTestPlayer(TestPlayerAID, TestPlayerAExtID, 1000)
	mocks.PlayerRepo.On("GetByExternalIDForUpdate", ctx, TestPlayerAExtID).Return(player, nil)
	mocks.MemeStockRepo.On("GetBySymbol", ctx, "$DOGE").Return(dogeStock(50), nil).Once()
	mocks.PlayerRepo.On("Debit", ctx, TestPlayerAID, int64(200)).Return(int64(800), nil)
	mocks.PositionRepo.On("GetForUpdate", ctx, TestPlayerAID, int64(9)).Return(nil, nil).Once()

	var saved *entities.Position
	mocks.PositionRepo.On("Save", ctx, mock.MatchedBy(func(p *entities.Position) bool {
		return p.SharesOwned == 4 && p.AverageBuyPrice.Equal(decimal.NewFromInt(50))
	})).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*entities.Position)
	}).Return(nil)
	mocks.ExpectBalanceHistoryRecord(TestPlayerAID, 800, entities.TransactionTypeStockBuy)
	mocks.ExpectAnyPublish()

	bought, err := service.Buy(ctx, TestPlayerAExtID, "doge", 220)
	require.NoError(t, err)
	assert.Equal(t, int64(4), bought.Shares)
	assert.Equal(t, int64(200), bought.Amount)
	assert.Equal(t, int64(20), bought.Unspent)
	assert.Equal(t, int64(800), bought.NewBalance)
	assert.True(t, bought.AverageBuyPrice.Equal(decimal.NewFromInt(50)))

	mocks.MemeStockRepo.On("GetBySymbol", ctx, "$DOGE").Return(dogeStock(70), nil).Once()
	mocks.PositionRepo.On("GetForUpdate", ctx, TestPlayerAID, int64(9)).Return(saved, nil).Once()
	mocks.PlayerRepo.On("Credit", ctx, TestPlayerAID, int64(280)).Return(int64(1080), nil)
	mocks.PositionRepo.On("Delete", ctx, TestPlayerAID, int64(9)).Return(nil)
	mocks.ExpectBalanceHistoryRecord(TestPlayerAID, 1080, entities.TransactionTypeStockSell)

	sold, err := service.Sell(ctx, TestPlayerAExtID, "$DOGE", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(280), sold.Amount)
	assert.True(t, sold.RealizedPL.Equal(decimal.NewFromInt(80)))
	assert.Zero(t, sold.SharesOwned)
	assert.Equal(t, int64(1080), sold.NewBalance)

	mocks.PositionRepo.AssertNumberOfCalls(t, "Save", 1)
	mocks.AssertAllExpectations(t)
}

func TestPositionService_Buy_AddsToExistingPosition(t *testing.T) {
	service, mocks := newPositionServiceUnderTest(t)
	ctx := context.Background()

	existing := &entities.Position{PlayerID: TestPlayerAID, StockID: 9, SharesOwned: 2, AverageBuyPrice: decimal.NewFromInt(10)}
	mocks.PlayerRepo.On("GetByExternalIDForUpdate", ctx, TestPlayerAExtID).Return(newTestPlayer(TestPlayerAID, TestPlayerAExtID, 1000), nil)
	mocks.MemeStockRepo.On("GetBySymbol", ctx, "$DOGE").Return(dogeStock(20), nil)
	mocks.PlayerRepo.On("Debit", ctx, TestPlayerAID, int64(20)).Return(int64(980), nil)
	mocks.PositionRepo.On("GetForUpdate", ctx, TestPlayerAID, int64(9)).Return(existing, nil)
	mocks.PositionRepo.On("Save", ctx, mock.Anything).Return(nil)
	mocks.BalanceHistoryRepo.On("Record", ctx, mock.Anything).Return(nil)
	mocks.ExpectAnyPublish()

	result, err := service.Buy(ctx, TestPlayerAExtID, "DOGE", 39)

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Shares)
	assert.Equal(t, int64(19), result.Unspent)
	assert.Equal(t, int64(3), result.SharesOwned)
	// (2*10 + 1*20) / 3
	assert.Equal(t, "13.333333333333", result.AverageBuyPrice.String())
}

func TestPositionService_Buy_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		chips   int64
		balance int64
		stock   *entities.MemeStock
		wantErr error
	}{
		{name: "non-positive chips", chips: 0, balance: 100, wantErr: domain.ErrInvalidAmount},
		{name: "fewer chips than one share", chips: 49, balance: 100, stock: dogeStock(50), wantErr: domain.ErrInsufficientChipsForOneShare},
		{name: "cost above balance", chips: 500, balance: 100, stock: dogeStock(50), wantErr: domain.ErrInsufficientBalance},
		{name: "unknown stock", chips: 100, balance: 100, wantErr: domain.ErrStockNotFound},
		{
			name: "stock no longer trending", chips: 100, balance: 100,
			stock:   &entities.MemeStock{ID: 9, Symbol: "$DOGE", CurrentValue: 50, IsActive: false},
			wantErr: domain.ErrStockInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mocks := newPositionServiceUnderTest(t)
			ctx := context.Background()

			mocks.PlayerRepo.On("GetByExternalIDForUpdate", ctx, TestPlayerAExtID).Return(newTestPlayer(TestPlayerAID, TestPlayerAExtID, tt.balance), nil).Maybe()
			mocks.MemeStockRepo.On("GetBySymbol", ctx, "$DOGE").Return(tt.stock, nil).Maybe()

			_, err := service.Buy(ctx, TestPlayerAExtID, "$DOGE", tt.chips)

			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			mocks.PlayerRepo.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything)
			mocks.PositionRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestPositionService_Buy_PositionWriteFailureSurfaces(t *testing.T) {
	service, mocks := newPositionServiceUnderTest(t)
	ctx := context.Background()

	mocks.PlayerRepo.On("GetByExternalIDForUpdate", ctx, TestPlayerAExtID).Return(newTestPlayer(TestPlayerAID, TestPlayerAExtID, 1000), nil)
	mocks.MemeStockRepo.On("GetBySymbol", ctx, "$DOGE").Return(dogeStock(50), nil)
	mocks.PlayerRepo.On("Debit", ctx, TestPlayerAID, int64(100)).Return(int64(900), nil)
	mocks.PositionRepo.On("GetForUpdate", ctx, TestPlayerAID, int64(9)).Return(nil, nil)
	mocks.PositionRepo.On("Save", ctx, mock.Anything).Return(errors.New("connection reset"))

	_, err := service.Buy(ctx, TestPlayerAExtID, "$DOGE", 100)

	// The error aborts the caller's transaction, which undoes the debit
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	mocks.BalanceHistoryRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestPositionService_Sell_Rejections(t *testing.T) {
	t.Run("more shares than owned", func(t *testing.T) {
		service, mocks := newPositionServiceUnderTest(t)
		ctx := context.Background()

		mocks.PlayerRepo.On("GetByExternalIDForUpdate", ctx, TestPlayerAExtID).Return(newTestPlayer(TestPlayerAID, TestPlayerAExtID, 10), nil)
		mocks.MemeStockRepo.On("GetBySymbol", ctx, "$DOGE").Return(dogeStock(50), nil)
		mocks.PositionRepo.On("GetForUpdate", ctx, TestPlayerAID, int64(9)).Return(&entities.Position{SharesOwned: 3, AverageBuyPrice: decimal.NewFromInt(40)}, nil)

		_, err := service.Sell(ctx, TestPlayerAExtID, "$DOGE", 4)

		assert.ErrorIs(t, err, domain.ErrInsufficientShares)
		assert.Equal(t, domain.KindStateConflict, domain.KindOf(err))
		mocks.PlayerRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no position", func(t *testing.T) {
		service, mocks := newPositionServiceUnderTest(t)
		ctx := context.Background()

		mocks.PlayerRepo.On("GetByExternalIDForUpdate", ctx, TestPlayerAExtID).Return(newTestPlayer(TestPlayerAID, TestPlayerAExtID, 10), nil)
		mocks.MemeStockRepo.On("GetBySymbol", ctx, "$DOGE").Return(dogeStock(50), nil)
		mocks.PositionRepo.On("GetForUpdate", ctx, TestPlayerAID, int64(9)).Return(nil, nil)

		_, err := service.Sell(ctx, TestPlayerAExtID, "$DOGE", 1)

		assert.ErrorIs(t, err, domain.ErrPositionNotFound)
	})
}

func TestPositionService_Sell_PartialKeepsRow(t *testing.T) {
	service, mocks := newPositionServiceUnderTest(t)
	ctx := context.Background()

	position := &entities.Position{PlayerID: TestPlayerAID, StockID: 9, SharesOwned: 5, AverageBuyPrice: decimal.NewFromInt(60)}
	mocks.PlayerRepo.On("GetByExternalIDForUpdate", ctx, TestPlayerAExtID).Return(newTestPlayer(TestPlayerAID, TestPlayerAExtID, 0), nil)
	mocks.MemeStockRepo.On("GetBySymbol", ctx, "$DOGE").Return(dogeStock(50), nil)
	mocks.PositionRepo.On("GetForUpdate", ctx, TestPlayerAID, int64(9)).Return(position, nil)
	mocks.PlayerRepo.On("Credit", ctx, TestPlayerAID, int64(100)).Return(int64(100), nil)
	mocks.PositionRepo.On("Save", ctx, mock.MatchedBy(func(p *entities.Position) bool {
		return p.SharesOwned == 3 && p.AverageBuyPrice.Equal(decimal.NewFromInt(60))
	})).Return(nil)
	mocks.BalanceHistoryRepo.On("Record", ctx, mock.Anything).Return(nil)
	mocks.ExpectAnyPublish()

	result, err := service.Sell(ctx, TestPlayerAExtID, "$DOGE", 2)

	require.NoError(t, err)
	assert.True(t, result.RealizedPL.Equal(decimal.NewFromInt(-20)))
	mocks.PositionRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestPositionService_Portfolio(t *testing.T) {
	service, mocks := newPositionServiceUnderTest(t)
	ctx := context.Background()

	mocks.PlayerRepo.On("GetByExternalID", ctx, TestPlayerAExtID).Return(newTestPlayer(TestPlayerAID, TestPlayerAExtID, 0), nil)
	mocks.PositionRepo.On("ListByPlayer", ctx, TestPlayerAID).Return([]*entities.Position{
		{PlayerID: TestPlayerAID, StockID: 9, SharesOwned: 4, AverageBuyPrice: decimal.NewFromInt(50)},
	}, nil)
	mocks.MemeStockRepo.On("GetByID", ctx, int64(9)).Return(dogeStock(70), nil)

	entries, err := service.Portfolio(ctx, TestPlayerAExtID)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(280), entries[0].MarketValue)
	assert.True(t, entries[0].UnrealizedPL.Equal(decimal.NewFromInt(80)))
}
