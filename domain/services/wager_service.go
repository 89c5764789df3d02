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

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	roundKindClassic   = "classic"
	roundKindHotPotato = "hot_potato"
)

type wagerService struct {
	config             *config.Config
	playerRepo         interfaces.PlayerRepository
	roundRepo          interfaces.RoundRepository
	wagerRepo          interfaces.WagerRepository
	hotPotatoRepo      interfaces.HotPotatoRepository
	hotPotatoWagerRepo interfaces.HotPotatoWagerRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
}

// NewWagerService creates a new wager service. Every method must run inside a
// single transaction so the debit and the wager row commit together.
func NewWagerService(
	playerRepo interfaces.PlayerRepository,
	roundRepo interfaces.RoundRepository,
	wagerRepo interfaces.WagerRepository,
	hotPotatoRepo interfaces.HotPotatoRepository,
	hotPotatoWagerRepo interfaces.HotPotatoWagerRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.WagerService {
	return &wagerService{
		config:             config.Get(),
		playerRepo:         playerRepo,
		roundRepo:          roundRepo,
		wagerRepo:          wagerRepo,
		hotPotatoRepo:      hotPotatoRepo,
		hotPotatoWagerRepo: hotPotatoWagerRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
	}
}

// PlaceWager debits the stake and records the wager
func (s *wagerService) PlaceWager(ctx context.Context, externalID string, roundID int64, side entities.Side, amount int64, now time.Time) (*entities.Wager, error) {
	if side != entities.SideA && side != entities.SideB {
		return nil, domain.ErrInvalidSide
	}
	if err := s.validateStake(amount); err != nil {
		return nil, err
	}

	player, err := s.lockPlayer(ctx, externalID)
	if err != nil {
		return nil, err
	}

	round, err := s.roundRepo.GetByIDForShare(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, domain.ErrRoundNotFound
	}
	if !round.AcceptsWagers(now) {
		return nil, domain.ErrRoundNotActive
	}

	existing, err := s.wagerRepo.GetByRoundAndPlayer(ctx, roundID, player.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing wager: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateWager
	}

	if !player.CanAfford(amount) {
		return nil, domain.ErrInsufficientBalance.WithMessage("stake of %d exceeds your balance of %d", amount, player.Points)
	}

	newBalance, err := s.playerRepo.Debit(ctx, player.ID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	wager := &entities.Wager{
		RoundID:   roundID,
		PlayerID:  player.ID,
		Side:      side,
		Amount:    amount,
		CreatedAt: now,
	}
	if err := s.wagerRepo.Create(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to create wager: %w", err)
	}

	history := entities.NewBalanceChange(player.ID, newBalance+amount, newBalance,
		entities.TransactionTypeWagerStake, wager.ID, entities.RelatedTypeWager,
		map[string]any{
			"round_id": roundID,
			"side":     string(side),
		})
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	s.publishWagerPlaced(wager.ID, roundID, player.ID, roundKindClassic, amount)

	log.WithFields(log.Fields{
		"wagerID":  wager.ID,
		"roundID":  roundID,
		"playerID": player.ID,
		"side":     side,
		"amount":   amount,
	}).Info("Placed wager")

	return wager, nil
}

// PlaceHotPotatoWager debits the stake and records the prediction
func (s *wagerService) PlaceHotPotatoWager(ctx context.Context, externalID string, roundID int64, predictedHours decimal.Decimal, amount int64, now time.Time) (*entities.HotPotatoWager, error) {
	if err := s.validateStake(amount); err != nil {
		return nil, err
	}

	player, err := s.lockPlayer(ctx, externalID)
	if err != nil {
		return nil, err
	}

	round, err := s.hotPotatoRepo.GetByIDForShare(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get hot potato round: %w", err)
	}
	if round == nil {
		return nil, domain.ErrRoundNotFound
	}
	if !round.AcceptsWagers(now) {
		return nil, domain.ErrRoundNotActive
	}

	maxHours := round.MaxHours()
	if !predictedHours.IsPositive() || predictedHours.GreaterThan(maxHours) {
		return nil, domain.ErrInvalidPrediction.WithMessage("predicted hours must be above 0 and at most %s", maxHours.StringFixed(0))
	}

	if !player.CanAfford(amount) {
		return nil, domain.ErrInsufficientBalance.WithMessage("stake of %d exceeds your balance of %d", amount, player.Points)
	}

	newBalance, err := s.playerRepo.Debit(ctx, player.ID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	wager := &entities.HotPotatoWager{
		RoundID:        roundID,
		PlayerID:       player.ID,
		PredictedHours: predictedHours,
		Amount:         amount,
		CreatedAt:      now,
	}
	if err := s.hotPotatoWagerRepo.Create(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to create hot potato wager: %w", err)
	}

	history := entities.NewBalanceChange(player.ID, newBalance+amount, newBalance,
		entities.TransactionTypeHotPotatoStake, wager.ID, entities.RelatedTypeHotPotatoWager,
		map[string]any{
			"round_id":        roundID,
			"predicted_hours": predictedHours.String(),
		})
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	s.publishWagerPlaced(wager.ID, roundID, player.ID, roundKindHotPotato, amount)

	return wager, nil
}

// ListPlayerWagers returns a player's recent classic wagers
func (s *wagerService) ListPlayerWagers(ctx context.Context, externalID string, limit int) ([]*entities.Wager, error) {
	player, err := s.playerRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}
	wagers, err := s.wagerRepo.ListByPlayer(ctx, player.ID, clampLimit(limit, 20, 100))
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers: %w", err)
	}
	return wagers, nil
}

func (s *wagerService) validateStake(amount int64) error {
	if amount < s.config.MinStake {
		return domain.ErrStakeBelowMinimum.WithMessage("minimum stake is %d chips", s.config.MinStake)
	}
	return nil
}

// lockPlayer loads the player holding a row lock until the transaction ends
func (s *wagerService) lockPlayer(ctx context.Context, externalID string) (*entities.Player, error) {
	player, err := s.playerRepo.GetByExternalIDForUpdate(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}
	return player, nil
}

func (s *wagerService) publishWagerPlaced(wagerID, roundID, playerID int64, kind string, amount int64) {
	if err := s.eventPublisher.Publish(events.WagerPlacedEvent{
		WagerID:   wagerID,
		RoundID:   roundID,
		PlayerID:  playerID,
		RoundKind: kind,
		Amount:    amount,
	}); err != nil {
		log.WithError(err).Error("Failed to publish wager placed event")
	}
}
