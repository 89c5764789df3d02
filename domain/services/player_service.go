package services

import (
	"context"
	"fmt"
	"strings"

	"gamerit/config"
	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/interfaces"
	"gamerit/domain/utils"

	log "github.com/sirupsen/logrus"
)

type playerService struct {
	config             *config.Config
	playerRepo         interfaces.PlayerRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
}

// NewPlayerService creates a new player service
func NewPlayerService(
	playerRepo interfaces.PlayerRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.PlayerService {
	return &playerService{
		config:             config.Get(),
		playerRepo:         playerRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
	}
}

// GetOrCreatePlayer retrieves an existing player or creates one with the starting balance
func (s *playerService) GetOrCreatePlayer(ctx context.Context, externalID, username string) (*entities.Player, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, domain.ErrInvalidInput.WithMessage("external account id is required")
	}

	player, err := s.playerRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player != nil {
		return player, nil
	}

	player, err = s.playerRepo.Create(ctx, externalID, username, s.config.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	if player == nil {
		// Another request created the player first
		player, err = s.playerRepo.GetByExternalID(ctx, externalID)
		if err != nil {
			return nil, fmt.Errorf("failed to get player: %w", err)
		}
		if player == nil {
			return nil, domain.ErrPlayerNotFound
		}
		return player, nil
	}

	history := &entities.BalanceHistory{
		PlayerID:        player.ID,
		BalanceBefore:   0,
		BalanceAfter:    player.Points,
		ChangeAmount:    player.Points,
		TransactionType: entities.TransactionTypeInitial,
		TransactionMetadata: map[string]any{
			"external_id": externalID,
			"username":    username,
		},
	}
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"playerID":   player.ID,
		"externalID": externalID,
		"balance":    player.Points,
	}).Info("Created player")

	return player, nil
}

// GetPlayer retrieves a player by external ID
func (s *playerService) GetPlayer(ctx context.Context, externalID string) (*entities.Player, error) {
	player, err := s.playerRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}
	return player, nil
}

// Leaderboard returns the richest players
func (s *playerService) Leaderboard(ctx context.Context, limit int) ([]*entities.Player, error) {
	players, err := s.playerRepo.Leaderboard(ctx, clampLimit(limit, 10, 100))
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return players, nil
}

// History returns a player's recent balance changes
func (s *playerService) History(ctx context.Context, externalID string, limit int) ([]*entities.BalanceHistory, error) {
	player, err := s.GetPlayer(ctx, externalID)
	if err != nil {
		return nil, err
	}
	history, err := s.balanceHistoryRepo.GetByPlayer(ctx, player.ID, clampLimit(limit, 20, 200))
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}

// clampLimit replaces a non-positive limit with def and caps it at ceiling
func clampLimit(limit, def, ceiling int) int {
	if limit <= 0 {
		return def
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
