package application

import (
	"context"
	"fmt"

	"gamerit/domain/entities"
	"gamerit/domain/interfaces"
	"gamerit/domain/services"
)

// PlayerHandlerImpl implements the PlayerHandler interface
type PlayerHandlerImpl struct {
	uowFactory UnitOfWorkFactory
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(uowFactory UnitOfWorkFactory) PlayerHandler {
	return &PlayerHandlerImpl{uowFactory: uowFactory}
}

// StartSession returns the player for externalID, creating it with the
// starting balance on first sight
func (h *PlayerHandlerImpl) StartSession(ctx context.Context, externalID, username string) (*entities.Player, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	player, err := playerService(uow).GetOrCreatePlayer(ctx, externalID, username)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session: %w", err)
	}
	return player, nil
}

func playerService(uow UnitOfWork) interfaces.PlayerService {
	return services.NewPlayerService(uow.PlayerRepository(), uow.BalanceHistoryRepository(), uow.EventBus())
}

// ensurePlayer makes sure the caller has an account inside the caller's
// transaction, so a first action never fails for a missing player
func ensurePlayer(ctx context.Context, uow UnitOfWork, externalID, username string) error {
	if _, err := playerService(uow).GetOrCreatePlayer(ctx, externalID, username); err != nil {
		return fmt.Errorf("failed to resolve player: %w", err)
	}
	return nil
}
