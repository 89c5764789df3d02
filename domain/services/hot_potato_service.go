package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"gamerit/config"
	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/events"
	"gamerit/domain/interfaces"
	"gamerit/domain/utils"

	log "github.com/sirupsen/logrus"
)

type hotPotatoService struct {
	config             *config.Config
	hotPotatoRepo      interfaces.HotPotatoRepository
	hotPotatoWagerRepo interfaces.HotPotatoWagerRepository
	playerRepo         interfaces.PlayerRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
}

// NewHotPotatoService creates a new hot potato service
func NewHotPotatoService(
	hotPotatoRepo interfaces.HotPotatoRepository,
	hotPotatoWagerRepo interfaces.HotPotatoWagerRepository,
	playerRepo interfaces.PlayerRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.HotPotatoService {
	return &hotPotatoService{
		config:             config.Get(),
		hotPotatoRepo:      hotPotatoRepo,
		hotPotatoWagerRepo: hotPotatoWagerRepo,
		playerRepo:         playerRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
	}
}

// CheckAdmission reports whether the active cap leaves room for another round
func (s *hotPotatoService) CheckAdmission(ctx context.Context, now time.Time) (*entities.RoundAdmission, error) {
	count, err := s.hotPotatoRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active hot potato rounds: %w", err)
	}
	if count >= s.config.HotPotatoMaxActive {
		return &entities.RoundAdmission{Reason: entities.AdmissionActiveCapReached}, nil
	}
	return &entities.RoundAdmission{Reason: entities.AdmissionDue}, nil
}

// RecentContentIDs returns content IDs that must not be reused
func (s *hotPotatoService) RecentContentIDs(ctx context.Context) ([]string, error) {
	ids, err := s.hotPotatoRepo.RecentContentIDs(ctx, s.config.HotPotatoRecentWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent content ids: %w", err)
	}
	return ids, nil
}

// CreateRound opens a hot potato round for item
func (s *hotPotatoService) CreateRound(ctx context.Context, item *entities.ContentItem, now time.Time) (*entities.HotPotatoRound, error) {
	if item == nil || item.ID == "" {
		return nil, domain.ErrInvalidInput.WithMessage("a hot potato round needs a post")
	}

	if err := s.hotPotatoRepo.LockAdmission(ctx); err != nil {
		return nil, err
	}

	count, err := s.hotPotatoRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active hot potato rounds: %w", err)
	}
	if count >= s.config.HotPotatoMaxActive {
		return nil, domain.ErrActiveRoundExists.WithMessage("%d hot potato rounds are already active", count)
	}

	recent, err := s.RecentContentIDs(ctx)
	if err != nil {
		return nil, err
	}
	if slices.Contains(recent, item.ID) {
		return nil, domain.ErrContentRecentlyUsed.WithMessage("post %s was used by a recent round", item.ID)
	}

	round := &entities.HotPotatoRound{
		ContentID:        item.ID,
		Title:            item.Title,
		Author:           item.Author,
		Subreddit:        item.Subreddit,
		ControversyScore: item.ControversyScore(),
		Status:           entities.HotPotatoStatusActive,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.config.HotPotatoDuration),
	}
	if err := s.hotPotatoRepo.Create(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to create hot potato round: %w", err)
	}

	if err := s.eventPublisher.Publish(events.HotPotatoCreatedEvent{
		RoundID:   round.ID,
		ContentID: round.ContentID,
		ExpiresAt: round.ExpiresAt.UTC().Format(time.RFC3339),
	}); err != nil {
		log.WithError(err).Error("Failed to publish hot potato created event")
	}

	log.WithFields(log.Fields{
		"roundID":     round.ID,
		"contentID":   round.ContentID,
		"controversy": round.ControversyScore.String(),
	}).Info("Created hot potato round")

	return round, nil
}

// ListActive returns all active rounds
func (s *hotPotatoService) ListActive(ctx context.Context) ([]*entities.HotPotatoRound, error) {
	rounds, err := s.hotPotatoRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active hot potato rounds: %w", err)
	}
	return rounds, nil
}

// GetRound retrieves a round by ID
func (s *hotPotatoService) GetRound(ctx context.Context, id int64) (*entities.HotPotatoRound, error) {
	round, err := s.hotPotatoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get hot potato round: %w", err)
	}
	if round == nil {
		return nil, domain.ErrRoundNotFound
	}
	return round, nil
}

// Resolve moves an active round to its terminal status and pays the closest
// predictions. The status flip is conditional on the round still being
// active, so a second resolution of the same round returns nil.
func (s *hotPotatoService) Resolve(ctx context.Context, roundID int64, observation *entities.HotPotatoObservation) (*entities.HotPotatoResolution, error) {
	if observation == nil || !observation.Status.IsTerminal() {
		return nil, domain.ErrInvalidInput.WithMessage("resolution needs a terminal status")
	}

	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.Status != entities.HotPotatoStatusActive {
		return nil, nil
	}

	at := observation.ObservedAt
	target := round.MaxHours()
	var deletionTime *time.Time
	if observation.Status == entities.HotPotatoStatusDeleted {
		deletedAt := at
		if deletedAt.After(round.ExpiresAt) {
			deletedAt = round.ExpiresAt
		}
		deletionTime = &deletedAt
		target = entities.HoursBetween(round.CreatedAt, deletedAt)
	}

	resolved, err := s.hotPotatoRepo.Resolve(ctx, roundID, observation.Status, deletionTime, at)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hot potato round: %w", err)
	}
	if !resolved {
		return nil, nil
	}

	wagers, err := s.hotPotatoWagerRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list hot potato wagers: %w", err)
	}

	var pot int64
	for _, w := range wagers {
		pot += w.Amount
	}
	winners := entities.ClosestPredictions(wagers, target)
	share := entities.SplitPot(pot, len(winners))

	for _, w := range winners {
		if share <= 0 {
			break
		}
		if err := s.payPrediction(ctx, w, share, at); err != nil {
			return nil, err
		}
	}

	resolution := &entities.HotPotatoResolution{
		RoundID:      roundID,
		Status:       observation.Status,
		TargetHours:  target,
		Pot:          pot,
		ShareEach:    share,
		Winners:      winners,
		RoundingLoss: pot - share*int64(len(winners)),
	}

	if err := s.eventPublisher.Publish(events.HotPotatoResolvedEvent{
		RoundID:     roundID,
		Status:      observation.Status,
		Pot:         pot,
		WinnerCount: len(winners),
		ShareEach:   share,
	}); err != nil {
		log.WithError(err).Error("Failed to publish hot potato resolved event")
	}

	log.WithFields(log.Fields{
		"roundID":      roundID,
		"status":       observation.Status,
		"targetHours":  target.StringFixed(2),
		"pot":          pot,
		"winners":      len(winners),
		"shareEach":    share,
		"roundingLoss": resolution.RoundingLoss,
	}).Info("Resolved hot potato round")

	return resolution, nil
}

func (s *hotPotatoService) payPrediction(ctx context.Context, wager *entities.HotPotatoWager, amount int64, at time.Time) error {
	marked, err := s.hotPotatoWagerRepo.MarkPaid(ctx, wager.ID, amount, at)
	if err != nil {
		return fmt.Errorf("failed to mark prediction paid: %w", err)
	}
	if !marked {
		return nil
	}

	newBalance, err := s.playerRepo.Credit(ctx, wager.PlayerID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit prediction payout: %w", err)
	}
	paid := amount
	wager.Payout = &paid
	wager.PaidAt = &at

	history := entities.NewBalanceChange(wager.PlayerID, newBalance-amount, newBalance,
		entities.TransactionTypeHotPotatoPayout, wager.ID, entities.RelatedTypeHotPotatoWager,
		map[string]any{
			"round_id":        wager.RoundID,
			"predicted_hours": wager.PredictedHours.String(),
		})
	return utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history)
}
