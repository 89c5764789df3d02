package application

import (
	"context"
	"fmt"

	"gamerit/domain/entities"
	"gamerit/domain/interfaces"
	"gamerit/domain/services"
)

// QueryHandlerImpl implements the QueryHandler interface against the store.
// Each query runs in its own read transaction that is always rolled back.
type QueryHandlerImpl struct {
	uowFactory UnitOfWorkFactory
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(uowFactory UnitOfWorkFactory) QueryHandler {
	return &QueryHandlerImpl{uowFactory: uowFactory}
}

func readOnly[T any](ctx context.Context, factory UnitOfWorkFactory, query func(UnitOfWork) (T, error)) (T, error) {
	var zero T
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return query(uow)
}

func roundService(uow UnitOfWork) interfaces.RoundService {
	return services.NewRoundService(uow.RoundRepository(), uow.WagerRepository(), uow.EventBus())
}

func (h *QueryHandlerImpl) GetPlayer(ctx context.Context, externalID string) (*entities.Player, error) {
	return readOnly(ctx, h.uowFactory, func(uow UnitOfWork) (*entities.Player, error) {
		return playerService(uow).GetPlayer(ctx, externalID)
	})
}

func (h *QueryHandlerImpl) Leaderboard(ctx context.Context, limit int) ([]*entities.Player, error) {
	return readOnly(ctx, h.uowFactory, func(uow UnitOfWork) ([]*entities.Player, error) {
		return playerService(uow).Leaderboard(ctx, limit)
	})
}

func (h *QueryHandlerImpl) BalanceHistory(ctx context.Context, externalID string, limit int) ([]*entities.BalanceHistory, error) {
	return readOnly(ctx, h.uowFactory, func(uow UnitOfWork) ([]*entities.BalanceHistory, error) {
		return playerService(uow).History(ctx, externalID, limit)
	})
}

func (h *QueryHandlerImpl) PlayerWagers(ctx context.Context, externalID string, limit int) ([]*entities.Wager, error) {
	return readOnly(ctx, h.uowFactory, func(uow UnitOfWork) ([]*entities.Wager, error) {
		return wagerService(uow).ListPlayerWagers(ctx, externalID, limit)
	})
}

// ActiveRound returns the round accepting wagers, nil if none
func (h *QueryHandlerImpl) ActiveRound(ctx context.Context) (*entities.Round, error) {
	return readOnly(ctx, h.uowFactory, func(uow UnitOfWork) (*entities.Round, error) {
		return roundService(uow).GetActiveRound(ctx)
	})
}

func (h *QueryHandlerImpl) GetRound(ctx context.Context, id int64) (*entities.Round, error) {
	return readOnly(ctx, h.uowFactory, func(uow UnitOfWork) (*entities.Round, error) {
		return roundService(uow).GetRound(ctx, id)
	})
}

func (h *QueryHandlerImpl) RecentRounds(ctx context.Context, limit int) ([]*entities.Round, error) {
	return readOnly(ctx, h.uowFactory, func(uow UnitOfWork) ([]*entities.Round, error) {
		return roundService(uow).ListRecentRounds(ctx, limit)
	})
}

func (h *QueryHandlerImpl) RoundPot(ctx context.Context, id int64) (*entities.Pot, error) {
	return readOnly(ctx, h.uowFactory, func(uow UnitOfWork) (*entities.Pot, error) {
		return roundService(uow).GetPot(ctx, id)
	})
}

func (h *QueryHandlerImpl) ActiveHotPotatoRounds(ctx context.Context) ([]*entities.HotPotatoRound, error) {
	return readOnly(ctx, h.uowFactory, func(uow UnitOfWork) ([]*entities.HotPotatoRound, error) {
		return hotPotatoService(uow).ListActive(ctx)
	})
}

func (h *QueryHandlerImpl) GetHotPotatoRound(ctx context.Context, id int64) (*entities.HotPotatoRound, error) {
	return readOnly(ctx, h.uowFactory, func(uow UnitOfWork) (*entities.HotPotatoRound, error) {
		return hotPotatoService(uow).GetRound(ctx, id)
	})
}

func (h *QueryHandlerImpl) ListStocks(ctx context.Context, activeOnly bool) ([]*entities.MemeStock, error) {
	return readOnly(ctx, h.uowFactory, func(uow UnitOfWork) ([]*entities.MemeStock, error) {
		return services.NewMarketService(uow.MemeStockRepository(), uow.EventBus()).ListStocks(ctx, activeOnly)
	})
}

// Portfolio returns the player's positions valued at current prices
func (h *QueryHandlerImpl) Portfolio(ctx context.Context, externalID string) ([]*entities.PortfolioEntry, error) {
	return readOnly(ctx, h.uowFactory, func(uow UnitOfWork) ([]*entities.PortfolioEntry, error) {
		return positionService(uow).Portfolio(ctx, externalID)
	})
}
