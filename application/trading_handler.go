package application

import (
	"context"
	"fmt"
	"time"

	"gamerit/domain/entities"
	"gamerit/domain/interfaces"
	"gamerit/domain/services"
)

// TradingHandlerImpl implements the TradingHandler interface
type TradingHandlerImpl struct {
	uowFactory UnitOfWorkFactory
}

// NewTradingHandler creates a new trading handler
func NewTradingHandler(uowFactory UnitOfWorkFactory) TradingHandler {
	return &TradingHandlerImpl{uowFactory: uowFactory}
}

func positionService(uow UnitOfWork) interfaces.PositionService {
	return services.NewPositionService(
		uow.PlayerRepository(),
		uow.MemeStockRepository(),
		uow.PositionRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
	)
}

// Buy spends up to chips on whole shares of symbol
func (h *TradingHandlerImpl) Buy(ctx context.Context, externalID, username, symbol string, chips int64) (*entities.TradeResult, error) {
	return h.trade(ctx, externalID, username, func(svc interfaces.PositionService) (*entities.TradeResult, error) {
		return svc.Buy(ctx, externalID, symbol, chips)
	})
}

// Sell sells shares of symbol at the current value
func (h *TradingHandlerImpl) Sell(ctx context.Context, externalID, username, symbol string, shares int64) (*entities.TradeResult, error) {
	return h.trade(ctx, externalID, username, func(svc interfaces.PositionService) (*entities.TradeResult, error) {
		return svc.Sell(ctx, externalID, symbol, shares)
	})
}

func (h *TradingHandlerImpl) trade(ctx context.Context, externalID, username string, execute func(interfaces.PositionService) (*entities.TradeResult, error)) (*entities.TradeResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := ensurePlayer(ctx, uow, externalID, username); err != nil {
		return nil, err
	}

	result, err := execute(positionService(uow))
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit trade: %w", err)
	}
	return result, nil
}

// MarketHandlerImpl implements the MarketHandler interface
type MarketHandlerImpl struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(uowFactory UnitOfWorkFactory) MarketHandler {
	return &MarketHandlerImpl{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// ListStock lists a new meme stock
func (h *MarketHandlerImpl) ListStock(ctx context.Context, title string, initialValue int64) (*entities.MemeStock, error) {
	return h.update(ctx, func(svc interfaces.MarketService) (*entities.MemeStock, error) {
		return svc.ListStock(ctx, title, initialValue, h.now())
	})
}

// RecordPrice stores a new price sample for symbol
func (h *MarketHandlerImpl) RecordPrice(ctx context.Context, symbol string, value int64) (*entities.MemeStock, error) {
	return h.update(ctx, func(svc interfaces.MarketService) (*entities.MemeStock, error) {
		return svc.RecordPrice(ctx, symbol, value, h.now())
	})
}

// SetActive marks symbol as trending or not
func (h *MarketHandlerImpl) SetActive(ctx context.Context, symbol string, active bool) (*entities.MemeStock, error) {
	return h.update(ctx, func(svc interfaces.MarketService) (*entities.MemeStock, error) {
		return svc.SetActive(ctx, symbol, active)
	})
}

func (h *MarketHandlerImpl) update(ctx context.Context, apply func(interfaces.MarketService) (*entities.MemeStock, error)) (*entities.MemeStock, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	stock, err := apply(services.NewMarketService(uow.MemeStockRepository(), uow.EventBus()))
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit market update: %w", err)
	}
	return stock, nil
}
