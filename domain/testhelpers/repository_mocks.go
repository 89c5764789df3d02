package testhelpers

import (
	"context"
	"time"

	"gamerit/domain/entities"
	"gamerit/domain/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPlayerRepository is a mock implementation of PlayerRepository
type MockPlayerRepository struct {
	mock.Mock
}

func (m *MockPlayerRepository) GetByID(ctx context.Context, id int64) (*entities.Player, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) GetByExternalID(ctx context.Context, externalID string) (*entities.Player, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) GetByExternalIDForUpdate(ctx context.Context, externalID string) (*entities.Player, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) Create(ctx context.Context, externalID, username string, initialBalance int64) (*entities.Player, error) {
	args := m.Called(ctx, externalID, username, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) Debit(ctx context.Context, playerID, amount int64) (int64, error) {
	args := m.Called(ctx, playerID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlayerRepository) Credit(ctx context.Context, playerID, amount int64) (int64, error) {
	args := m.Called(ctx, playerID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlayerRepository) Leaderboard(ctx context.Context, limit int) ([]*entities.Player, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Player), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, playerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockRoundRepository is a mock implementation of RoundRepository
type MockRoundRepository struct {
	mock.Mock
}

func (m *MockRoundRepository) Create(ctx context.Context, round *entities.Round) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockRoundRepository) GetByID(ctx context.Context, id int64) (*entities.Round, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) GetByIDForShare(ctx context.Context, id int64) (*entities.Round, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) GetActive(ctx context.Context) (*entities.Round, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) GetLatest(ctx context.Context) (*entities.Round, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) ListDue(ctx context.Context, now time.Time) ([]*entities.Round, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) ListPendingPayout(ctx context.Context, settledBefore time.Time) ([]*entities.Round, error) {
	args := m.Called(ctx, settledBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) ListRecent(ctx context.Context, limit int) ([]*entities.Round, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) RecentPostIDs(ctx context.Context, limit int) ([]string, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRoundRepository) MarkPendingPayout(ctx context.Context, id int64, outcome *entities.RoundOutcome, at time.Time) (bool, error) {
	args := m.Called(ctx, id, outcome, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoundRepository) MarkFinished(ctx context.Context, id int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

// MockWagerRepository is a mock implementation of WagerRepository
type MockWagerRepository struct {
	mock.Mock
}

func (m *MockWagerRepository) Create(ctx context.Context, wager *entities.Wager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockWagerRepository) GetByID(ctx context.Context, id int64) (*entities.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetByRoundAndPlayer(ctx context.Context, roundID, playerID int64) (*entities.Wager, error) {
	args := m.Called(ctx, roundID, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) ListByRound(ctx context.Context, roundID int64) ([]*entities.Wager, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) ListUnpaidByRound(ctx context.Context, roundID int64) ([]*entities.Wager, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) ListByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.Wager, error) {
	args := m.Called(ctx, playerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) MarkPaid(ctx context.Context, wagerID, payout int64, key uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, wagerID, payout, key, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockWagerRepository) GetPot(ctx context.Context, roundID int64) (*entities.Pot, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Pot), args.Error(1)
}

// MockHotPotatoRepository is a mock implementation of HotPotatoRepository
type MockHotPotatoRepository struct {
	mock.Mock
}

func (m *MockHotPotatoRepository) Create(ctx context.Context, round *entities.HotPotatoRound) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockHotPotatoRepository) GetByID(ctx context.Context, id int64) (*entities.HotPotatoRound, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.HotPotatoRound), args.Error(1)
}

func (m *MockHotPotatoRepository) GetByIDForShare(ctx context.Context, id int64) (*entities.HotPotatoRound, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.HotPotatoRound), args.Error(1)
}

func (m *MockHotPotatoRepository) ListActive(ctx context.Context) ([]*entities.HotPotatoRound, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.HotPotatoRound), args.Error(1)
}

func (m *MockHotPotatoRepository) LockAdmission(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockHotPotatoRepository) CountActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockHotPotatoRepository) RecentContentIDs(ctx context.Context, limit int) ([]string, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockHotPotatoRepository) Resolve(ctx context.Context, id int64, status entities.HotPotatoStatus, deletionTime *time.Time, at time.Time) (bool, error) {
	args := m.Called(ctx, id, status, deletionTime, at)
	return args.Bool(0), args.Error(1)
}

// MockHotPotatoWagerRepository is a mock implementation of HotPotatoWagerRepository
type MockHotPotatoWagerRepository struct {
	mock.Mock
}

func (m *MockHotPotatoWagerRepository) Create(ctx context.Context, wager *entities.HotPotatoWager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockHotPotatoWagerRepository) ListByRound(ctx context.Context, roundID int64) ([]*entities.HotPotatoWager, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.HotPotatoWager), args.Error(1)
}

func (m *MockHotPotatoWagerRepository) MarkPaid(ctx context.Context, wagerID, payout int64, at time.Time) (bool, error) {
	args := m.Called(ctx, wagerID, payout, at)
	return args.Bool(0), args.Error(1)
}

// MockMemeStockRepository is a mock implementation of MemeStockRepository
type MockMemeStockRepository struct {
	mock.Mock
}

func (m *MockMemeStockRepository) Create(ctx context.Context, stock *entities.MemeStock) error {
	args := m.Called(ctx, stock)
	return args.Error(0)
}

func (m *MockMemeStockRepository) GetBySymbol(ctx context.Context, symbol string) (*entities.MemeStock, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MemeStock), args.Error(1)
}

func (m *MockMemeStockRepository) GetBySymbolForUpdate(ctx context.Context, symbol string) (*entities.MemeStock, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MemeStock), args.Error(1)
}

func (m *MockMemeStockRepository) GetByID(ctx context.Context, id int64) (*entities.MemeStock, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MemeStock), args.Error(1)
}

func (m *MockMemeStockRepository) List(ctx context.Context, activeOnly bool) ([]*entities.MemeStock, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MemeStock), args.Error(1)
}

func (m *MockMemeStockRepository) UpdatePrice(ctx context.Context, stock *entities.MemeStock) error {
	args := m.Called(ctx, stock)
	return args.Error(0)
}

func (m *MockMemeStockRepository) SetActive(ctx context.Context, stockID int64, active bool) error {
	args := m.Called(ctx, stockID, active)
	return args.Error(0)
}

// MockPositionRepository is a mock implementation of PositionRepository
type MockPositionRepository struct {
	mock.Mock
}

func (m *MockPositionRepository) GetForUpdate(ctx context.Context, playerID, stockID int64) (*entities.Position, error) {
	args := m.Called(ctx, playerID, stockID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Position), args.Error(1)
}

func (m *MockPositionRepository) Save(ctx context.Context, position *entities.Position) error {
	args := m.Called(ctx, position)
	return args.Error(0)
}

func (m *MockPositionRepository) Delete(ctx context.Context, playerID, stockID int64) error {
	args := m.Called(ctx, playerID, stockID)
	return args.Error(0)
}

func (m *MockPositionRepository) ListByPlayer(ctx context.Context, playerID int64) ([]*entities.Position, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Position), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockContentSource is a mock implementation of ContentSource
type MockContentSource struct {
	mock.Mock
}

func (m *MockContentSource) FetchScore(ctx context.Context, contentID string) (int64, error) {
	args := m.Called(ctx, contentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContentSource) FetchExists(ctx context.Context, contentID string) (bool, error) {
	args := m.Called(ctx, contentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockContentSource) ListCandidates(ctx context.Context) ([]*entities.ContentItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ContentItem), args.Error(1)
}
