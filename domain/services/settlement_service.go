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
	"gamerit/domain/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	config             *config.Config
	roundRepo          interfaces.RoundRepository
	wagerRepo          interfaces.WagerRepository
	playerRepo         interfaces.PlayerRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	roundRepo interfaces.RoundRepository,
	wagerRepo interfaces.WagerRepository,
	playerRepo interfaces.PlayerRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.SettlementService {
	return &settlementService{
		config:             config.Get(),
		roundRepo:          roundRepo,
		wagerRepo:          wagerRepo,
		playerRepo:         playerRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
	}
}

// FenceRound takes the settlement fence for a due round. Only the caller whose
// conditional update moved the round out of active gets true.
func (s *settlementService) FenceRound(ctx context.Context, roundID int64, outcome *entities.RoundOutcome, now time.Time) (bool, error) {
	if outcome == nil {
		return false, domain.ErrInvalidInput.WithMessage("outcome is required to settle a round")
	}

	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return false, err
	}
	if round.Status != entities.RoundStatusActive {
		return false, nil
	}
	if !round.IsDue(now) {
		return false, domain.ErrRoundNotDue
	}

	fenced, err := s.roundRepo.MarkPendingPayout(ctx, roundID, outcome, now)
	if err != nil {
		return false, fmt.Errorf("failed to fence round: %w", err)
	}
	if !fenced {
		return false, nil
	}

	s.publishStateChange(roundID, entities.RoundStatusActive, entities.RoundStatusPendingPayout, outcome.Winner)

	log.WithFields(log.Fields{
		"roundID":       roundID,
		"finalScoreA":   outcome.FinalScoreA,
		"finalScoreB":   outcome.FinalScoreB,
		"winner":        outcome.Winner,
		"tieBroken":     outcome.TieBroken,
		"usedFallbackA": outcome.UsedFallbackA,
		"usedFallbackB": outcome.UsedFallbackB,
	}).Info("Round fenced for payout")

	return true, nil
}

// OutstandingPayouts returns owed, unpaid wagers. Payout eligibility is derived
// from the round status, so only pending_payout rounds have any.
func (s *settlementService) OutstandingPayouts(ctx context.Context, roundID int64) ([]*entities.Wager, error) {
	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.Status != entities.RoundStatusPendingPayout {
		return nil, nil
	}

	unpaid, err := s.wagerRepo.ListUnpaidByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid wagers: %w", err)
	}

	owed := make([]*entities.Wager, 0, len(unpaid))
	for _, wager := range unpaid {
		if _, ok := round.PayoutFor(wager); ok {
			owed = append(owed, wager)
		}
	}
	return owed, nil
}

// PayWager credits one wager. The paid marker and the credit share the
// caller's transaction, and the marker is only set on an unpaid row, so a
// retried or concurrent call credits nothing.
func (s *settlementService) PayWager(ctx context.Context, roundID, wagerID int64, now time.Time) (int64, error) {
	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return 0, err
	}
	switch round.Status {
	case entities.RoundStatusPendingPayout:
	case entities.RoundStatusFinished:
		return 0, domain.ErrRoundAlreadySettled
	default:
		return 0, domain.ErrRoundNotActive.WithMessage("round %d has not been fenced for payout", roundID)
	}

	wager, err := s.wagerRepo.GetByID(ctx, wagerID)
	if err != nil {
		return 0, fmt.Errorf("failed to get wager: %w", err)
	}
	if wager == nil || wager.RoundID != roundID {
		return 0, domain.ErrWagerNotFound
	}
	if wager.IsPaid() {
		return 0, nil
	}

	amount, owed := round.PayoutFor(wager)
	if !owed {
		return 0, nil
	}

	key := uuid.New()
	marked, err := s.wagerRepo.MarkPaid(ctx, wager.ID, amount, key, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark wager paid: %w", err)
	}
	if !marked {
		return 0, nil
	}

	newBalance, err := s.playerRepo.Credit(ctx, wager.PlayerID, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to credit payout: %w", err)
	}

	txType := entities.TransactionTypeRoundPayout
	if round.Winner == nil {
		txType = entities.TransactionTypeRoundRefund
	}
	history := entities.NewBalanceChange(wager.PlayerID, newBalance-amount, newBalance,
		txType, wager.ID, entities.RelatedTypeWager,
		map[string]any{
			"round_id":   roundID,
			"side":       string(wager.Side),
			"stake":      wager.Amount,
			"payout_key": key.String(),
		})
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return 0, err
	}

	return amount, nil
}

// FinalizeRound moves a fully paid round to finished
func (s *settlementService) FinalizeRound(ctx context.Context, roundID int64, now time.Time) (bool, error) {
	outstanding, err := s.OutstandingPayouts(ctx, roundID)
	if err != nil {
		return false, err
	}
	if len(outstanding) > 0 {
		return false, nil
	}

	finished, err := s.roundRepo.MarkFinished(ctx, roundID, now)
	if err != nil {
		return false, fmt.Errorf("failed to finish round: %w", err)
	}
	if !finished {
		return false, nil
	}

	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return false, err
	}
	s.publishStateChange(roundID, entities.RoundStatusPendingPayout, entities.RoundStatusFinished, round.Winner)

	log.WithFields(log.Fields{
		"roundID": roundID,
		"winner":  round.Winner,
	}).Info("Round finished")

	return true, nil
}

func (s *settlementService) getRound(ctx context.Context, roundID int64) (*entities.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, domain.ErrRoundNotFound
	}
	return round, nil
}

func (s *settlementService) publishStateChange(roundID int64, from, to entities.RoundStatus, winner *entities.Side) {
	if err := s.eventPublisher.Publish(events.RoundStateChangeEvent{
		RoundID:  roundID,
		OldState: from,
		NewState: to,
		Winner:   winner,
	}); err != nil {
		log.WithError(err).Error("Failed to publish round state change event")
	}
}
