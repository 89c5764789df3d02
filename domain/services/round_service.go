package services

import (
	"context"
	"fmt"
	"time"

	"gamerit/config"
	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/events"
	"gamerit/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type roundService struct {
	config         *config.Config
	roundRepo      interfaces.RoundRepository
	wagerRepo      interfaces.WagerRepository
	eventPublisher interfaces.EventPublisher
}

// NewRoundService creates a new classic round service
func NewRoundService(
	roundRepo interfaces.RoundRepository,
	wagerRepo interfaces.WagerRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.RoundService {
	return &roundService{
		config:         config.Get(),
		roundRepo:      roundRepo,
		wagerRepo:      wagerRepo,
		eventPublisher: eventPublisher,
	}
}

// CheckAdmission reports whether a new round is due. The guard is the
// existence of an active round, so repeated calls never admit a second one.
func (s *roundService) CheckAdmission(ctx context.Context, now time.Time) (*entities.RoundAdmission, error) {
	active, err := s.roundRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active round: %w", err)
	}
	if active != nil {
		return &entities.RoundAdmission{Reason: entities.AdmissionActiveRoundExists, RoundID: active.ID}, nil
	}

	latest, err := s.roundRepo.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest round: %w", err)
	}
	minAge := s.config.RoundDuration - s.config.RoundCreationMargin
	if latest != nil && now.Sub(latest.CreatedAt) < minAge {
		return &entities.RoundAdmission{Reason: entities.AdmissionLastRoundTooRecent, RoundID: latest.ID}, nil
	}

	return &entities.RoundAdmission{Reason: entities.AdmissionDue}, nil
}

// RecentPostIDs returns post IDs that must not seed the next round
func (s *roundService) RecentPostIDs(ctx context.Context) ([]string, error) {
	ids, err := s.roundRepo.RecentPostIDs(ctx, s.config.RecentContentWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent post ids: %w", err)
	}
	return ids, nil
}

// CreateRound opens a round for the two posts
func (s *roundService) CreateRound(ctx context.Context, postA, postB *entities.ContentItem, now time.Time) (*entities.Round, error) {
	if postA == nil || postB == nil {
		return nil, domain.ErrInvalidInput.WithMessage("a round needs two posts")
	}
	if postA.ID == postB.ID {
		return nil, domain.ErrInvalidInput.WithMessage("a round needs two different posts")
	}

	active, err := s.roundRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active round: %w", err)
	}
	if active != nil {
		return nil, domain.ErrActiveRoundExists
	}

	round := &entities.Round{
		Status:    entities.RoundStatusActive,
		PostA:     postA.Snapshot(),
		PostB:     postB.Snapshot(),
		CreatedAt: now,
		EndsAt:    now.Add(s.config.RoundDuration),
	}
	if err := s.roundRepo.Create(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	if err := s.eventPublisher.Publish(events.RoundCreatedEvent{
		RoundID: round.ID,
		PostAID: round.PostA.ID,
		PostBID: round.PostB.ID,
		EndsAt:  round.EndsAt.UTC().Format(time.RFC3339),
	}); err != nil {
		log.WithError(err).Error("Failed to publish round created event")
	}

	log.WithFields(log.Fields{
		"roundID": round.ID,
		"postA":   round.PostA.ID,
		"postB":   round.PostB.ID,
		"endsAt":  round.EndsAt,
	}).Info("Created round")

	return round, nil
}

// GetRound retrieves a round by ID
func (s *roundService) GetRound(ctx context.Context, id int64) (*entities.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, domain.ErrRoundNotFound
	}
	return round, nil
}

// GetActiveRound returns the round accepting wagers, nil if none
func (s *roundService) GetActiveRound(ctx context.Context) (*entities.Round, error) {
	round, err := s.roundRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active round: %w", err)
	}
	return round, nil
}

// ListRecentRounds returns the latest rounds in any status
func (s *roundService) ListRecentRounds(ctx context.Context, limit int) ([]*entities.Round, error) {
	rounds, err := s.roundRepo.ListRecent(ctx, clampLimit(limit, 10, 50))
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	return rounds, nil
}

// GetPot returns the stakes placed on a round
func (s *roundService) GetPot(ctx context.Context, id int64) (*entities.Pot, error) {
	if _, err := s.GetRound(ctx, id); err != nil {
		return nil, err
	}
	pot, err := s.wagerRepo.GetPot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pot: %w", err)
	}
	return pot, nil
}
