package application

import (
	"context"
	"fmt"
	"time"

	"gamerit/domain/entities"
	"gamerit/domain/interfaces"
	"gamerit/domain/services"

	"github.com/shopspring/decimal"
)

// WagerHandlerImpl implements the WagerHandler interface. The debit and the
// wager row commit or roll back together.
type WagerHandlerImpl struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewWagerHandler creates a new wager handler
func NewWagerHandler(uowFactory UnitOfWorkFactory) WagerHandler {
	return &WagerHandlerImpl{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

func wagerService(uow UnitOfWork) interfaces.WagerService {
	return services.NewWagerService(
		uow.PlayerRepository(),
		uow.RoundRepository(),
		uow.WagerRepository(),
		uow.HotPotatoRepository(),
		uow.HotPotatoWagerRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
	)
}

// PlaceWager stakes amount on side of a classic round
func (h *WagerHandlerImpl) PlaceWager(ctx context.Context, externalID, username string, roundID int64, side entities.Side, amount int64) (*entities.Wager, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := ensurePlayer(ctx, uow, externalID, username); err != nil {
		return nil, err
	}

	wager, err := wagerService(uow).PlaceWager(ctx, externalID, roundID, side, amount, h.now())
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit wager: %w", err)
	}
	return wager, nil
}

// PlaceHotPotatoWager stakes amount on a predicted deletion time
func (h *WagerHandlerImpl) PlaceHotPotatoWager(ctx context.Context, externalID, username string, roundID int64, predictedHours decimal.Decimal, amount int64) (*entities.HotPotatoWager, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := ensurePlayer(ctx, uow, externalID, username); err != nil {
		return nil, err
	}

	wager, err := wagerService(uow).PlaceHotPotatoWager(ctx, externalID, roundID, predictedHours, amount, h.now())
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit hot potato wager: %w", err)
	}
	return wager, nil
}
