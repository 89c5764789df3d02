package services

import (
	"context"
	"testing"
	"time"

	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRoundService_CheckAdmission(t *testing.T) {
	tests := []struct {
		name       string
		active     *entities.Round
		latest     *entities.Round
		wantReason entities.AdmissionReason
	}{
		{
			name:       "active round blocks creation",
			active:     &entities.Round{ID: 7, Status: entities.RoundStatusActive},
			wantReason: entities.AdmissionActiveRoundExists,
		},
		{
			name:       "no rounds yet",
			wantReason: entities.AdmissionDue,
		},
		{
			name:       "latest round too recent",
			latest:     &entities.Round{ID: 6, Status: entities.RoundStatusFinished, CreatedAt: testNow.Add(-22 * time.Hour)},
			wantReason: entities.AdmissionLastRoundTooRecent,
		},
		{
			name:       "latest round older than duration minus margin",
			latest:     &entities.Round{ID: 6, Status: entities.RoundStatusFinished, CreatedAt: testNow.Add(-23 * time.Hour)},
			wantReason: entities.AdmissionDue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetupTestConfig(t)
			ctx := context.Background()
			mocks := NewTestMocks()
			service := NewRoundService(mocks.RoundRepo, mocks.WagerRepo, mocks.EventPublisher)

			mocks.RoundRepo.On("GetActive", ctx).Return(tt.active, nil)
			if tt.active == nil {
				mocks.RoundRepo.On("GetLatest", ctx).Return(tt.latest, nil)
			}

			admission, err := service.CheckAdmission(ctx, testNow)

			require.NoError(t, err)
			assert.Equal(t, tt.wantReason, admission.Reason)
			assert.False(t, admission.Created)
			mocks.RoundRepo.AssertExpectations(t)
		})
	}
}

func TestRoundService_CheckAdmission_IsIdempotentWhileActive(t *testing.T) {
	SetupTestConfig(t)
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewRoundService(mocks.RoundRepo, mocks.WagerRepo, mocks.EventPublisher)

	mocks.RoundRepo.On("GetActive", ctx).Return(newTestRound(TestRoundID), nil)

	for i := 0; i < 5; i++ {
		admission, err := service.CheckAdmission(ctx, testNow.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, entities.AdmissionActiveRoundExists, admission.Reason)
	}
	mocks.RoundRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRoundService_CreateRound(t *testing.T) {
	SetupTestConfig(t)
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewRoundService(mocks.RoundRepo, mocks.WagerRepo, mocks.EventPublisher)

	postA := &entities.ContentItem{ID: "a1", Title: "A", Author: "alice", Score: 50}
	postB := &entities.ContentItem{ID: "b1", Title: "B", Author: "bob", Score: 70}

	mocks.RoundRepo.On("GetActive", ctx).Return(nil, nil)
	mocks.RoundRepo.On("Create", ctx, mock.MatchedBy(func(r *entities.Round) bool {
		return r.Status == entities.RoundStatusActive &&
			r.PostA.ID == "a1" && r.PostA.InitialScore == 50 &&
			r.PostB.ID == "b1" && r.PostB.InitialScore == 70 &&
			r.EndsAt.Equal(testNow.Add(24*time.Hour))
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.Round).ID = 42
	}).Return(nil)
	mocks.ExpectEventPublish(events.EventTypeRoundCreated)

	round, err := service.CreateRound(ctx, postA, postB, testNow)

	require.NoError(t, err)
	assert.Equal(t, int64(42), round.ID)
	mocks.AssertAllExpectations(t)
}

func TestRoundService_CreateRound_ActiveRoundExists(t *testing.T) {
	SetupTestConfig(t)
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewRoundService(mocks.RoundRepo, mocks.WagerRepo, mocks.EventPublisher)

	mocks.RoundRepo.On("GetActive", ctx).Return(newTestRound(TestRoundID), nil)

	_, err := service.CreateRound(ctx,
		&entities.ContentItem{ID: "a1", Author: "alice"},
		&entities.ContentItem{ID: "b1", Author: "bob"},
		testNow)

	assert.ErrorIs(t, err, domain.ErrActiveRoundExists)
	assert.Equal(t, domain.KindStateConflict, domain.KindOf(err))
}

func TestRoundService_CreateRound_RejectsSamePost(t *testing.T) {
	SetupTestConfig(t)
	mocks := NewTestMocks()
	service := NewRoundService(mocks.RoundRepo, mocks.WagerRepo, mocks.EventPublisher)

	post := &entities.ContentItem{ID: "a1", Author: "alice"}
	_, err := service.CreateRound(context.Background(), post, post, testNow)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRoundService_GetPot_UnknownRound(t *testing.T) {
	SetupTestConfig(t)
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewRoundService(mocks.RoundRepo, mocks.WagerRepo, mocks.EventPublisher)

	mocks.RoundRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

	_, err := service.GetPot(ctx, 99)

	assert.ErrorIs(t, err, domain.ErrRoundNotFound)
	mocks.WagerRepo.AssertNotCalled(t, "GetPot", mock.Anything, mock.Anything)
}
