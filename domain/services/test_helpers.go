package services

import (
	"testing"
	"time"

	"gamerit/config"
	"gamerit/domain/entities"
	"gamerit/domain/events"
	"gamerit/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

// Test constants for consistent test data
const (
	TestPlayerAID      = int64(100)
	TestPlayerBID      = int64(200)
	TestPlayerAExtID   = "t2_alpha"
	TestPlayerBExtID   = "t2_bravo"
	TestRoundID        = int64(1)
	TestInitialBalance = int64(1000)
)

// testNow is a fixed clock shared by service tests
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// TestMocks aggregates all repository mocks for testing
type TestMocks struct {
	PlayerRepo         *testhelpers.MockPlayerRepository
	BalanceHistoryRepo *testhelpers.MockBalanceHistoryRepository
	RoundRepo          *testhelpers.MockRoundRepository
	WagerRepo          *testhelpers.MockWagerRepository
	HotPotatoRepo      *testhelpers.MockHotPotatoRepository
	HotPotatoWagerRepo *testhelpers.MockHotPotatoWagerRepository
	MemeStockRepo      *testhelpers.MockMemeStockRepository
	PositionRepo       *testhelpers.MockPositionRepository
	EventPublisher     *testhelpers.MockEventPublisher
	ContentSource      *testhelpers.MockContentSource
}

// NewTestMocks creates a new set of mocks
func NewTestMocks() *TestMocks {
	return &TestMocks{
		PlayerRepo:         &testhelpers.MockPlayerRepository{},
		BalanceHistoryRepo: &testhelpers.MockBalanceHistoryRepository{},
		RoundRepo:          &testhelpers.MockRoundRepository{},
		WagerRepo:          &testhelpers.MockWagerRepository{},
		HotPotatoRepo:      &testhelpers.MockHotPotatoRepository{},
		HotPotatoWagerRepo: &testhelpers.MockHotPotatoWagerRepository{},
		MemeStockRepo:      &testhelpers.MockMemeStockRepository{},
		PositionRepo:       &testhelpers.MockPositionRepository{},
		EventPublisher:     &testhelpers.MockEventPublisher{},
		ContentSource:      &testhelpers.MockContentSource{},
	}
}

// AssertAllExpectations verifies all mock expectations were met
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.PlayerRepo.AssertExpectations(t)
	m.BalanceHistoryRepo.AssertExpectations(t)
	m.RoundRepo.AssertExpectations(t)
	m.WagerRepo.AssertExpectations(t)
	m.HotPotatoRepo.AssertExpectations(t)
	m.HotPotatoWagerRepo.AssertExpectations(t)
	m.MemeStockRepo.AssertExpectations(t)
	m.PositionRepo.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
	m.ContentSource.AssertExpectations(t)
}

// ExpectAnyPublish accepts every published event
func (m *TestMocks) ExpectAnyPublish() {
	m.EventPublisher.On("Publish", mock.Anything).Return(nil)
}

// ExpectEventPublish sets up event publisher mock expectations for one event type
func (m *TestMocks) ExpectEventPublish(eventType events.EventType) {
	m.EventPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type() == eventType
	})).Return(nil)
}

// ExpectBalanceHistoryRecord expects a history row for playerID ending at balanceAfter
func (m *TestMocks) ExpectBalanceHistoryRecord(playerID, balanceAfter int64, txType entities.TransactionType) {
	m.BalanceHistoryRepo.On("Record", mock.Anything, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.PlayerID == playerID &&
			h.BalanceAfter == balanceAfter &&
			h.TransactionType == txType
	})).Return(nil).Once()
}

// SetupTestConfig configures the test environment
func SetupTestConfig(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	t.Cleanup(config.ResetConfig)
}

// newTestPlayer builds a player holding balance chips
func newTestPlayer(id int64, externalID string, balance int64) *entities.Player {
	return &entities.Player{
		ID:         id,
		ExternalID: externalID,
		Username:   externalID,
		Points:     balance,
		MinBalance: balance,
		MaxBalance: balance,
	}
}

// newTestRound builds an active round created a full duration before testNow
func newTestRound(id int64) *entities.Round {
	created := testNow.Add(-24 * time.Hour)
	return &entities.Round{
		ID:     id,
		Status: entities.RoundStatusActive,
		PostA: entities.PostSnapshot{
			ID:           "post_a",
			Title:        "Cat learns to open fridge",
			Author:       "alice",
			Subreddit:    "aww",
			InitialScore: 100,
		},
		PostB: entities.PostSnapshot{
			ID:           "post_b",
			Title:        "Dog steals pizza",
			Author:       "bob",
			Subreddit:    "funny",
			InitialScore: 110,
		},
		CreatedAt: created,
		EndsAt:    created.Add(24 * time.Hour),
	}
}

func sidePtr(side entities.Side) *entities.Side {
	return &side
}
