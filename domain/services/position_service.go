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

type positionService struct {
	config             *config.Config
	playerRepo         interfaces.PlayerRepository
	memeStockRepo      interfaces.MemeStockRepository
	positionRepo       interfaces.PositionRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
}

// NewPositionService creates a new position service. Buy and Sell must run
// inside one transaction: if the position write fails after the balance
// moved, rolling back the transaction is the compensation.
func NewPositionService(
	playerRepo interfaces.PlayerRepository,
	memeStockRepo interfaces.MemeStockRepository,
	positionRepo interfaces.PositionRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.PositionService {
	return &positionService{
		config:             config.Get(),
		playerRepo:         playerRepo,
		memeStockRepo:      memeStockRepo,
		positionRepo:       positionRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
	}
}

// Buy spends up to chips on whole shares. Chips left over after flooring to
// whole shares are never charged.
func (s *positionService) Buy(ctx context.Context, externalID, symbol string, chips int64) (*entities.TradeResult, error) {
	if chips <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	player, stock, err := s.loadTrade(ctx, externalID, symbol)
	if err != nil {
		return nil, err
	}
	if !stock.IsActive {
		return nil, domain.ErrStockInactive
	}

	price := stock.CurrentValue
	shares := chips / price
	if shares == 0 {
		return nil, domain.ErrInsufficientChipsForOneShare.WithMessage("one share of %s costs %d chips", stock.Symbol, price)
	}
	cost := shares * price
	if !player.CanAfford(cost) {
		return nil, domain.ErrInsufficientBalance.WithMessage("%d shares of %s cost %d, your balance is %d", shares, stock.Symbol, cost, player.Points)
	}

	newBalance, err := s.playerRepo.Debit(ctx, player.ID, cost)
	if err != nil {
		return nil, fmt.Errorf("failed to debit purchase: %w", err)
	}

	position, err := s.positionRepo.GetForUpdate(ctx, player.ID, stock.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	now := time.Now()
	if position == nil {
		position = &entities.Position{
			PlayerID:        player.ID,
			StockID:         stock.ID,
			AverageBuyPrice: decimal.Zero,
			CreatedAt:       now,
		}
	}
	position.ApplyBuy(shares, price)
	position.UpdatedAt = now
	if err := s.positionRepo.Save(ctx, position); err != nil {
		return nil, fmt.Errorf("failed to save position: %w", err)
	}

	if err := s.recordTrade(ctx, player.ID, stock, entities.TradeSideBuy, shares, newBalance+cost, newBalance); err != nil {
		return nil, err
	}

	return &entities.TradeResult{
		Side:            entities.TradeSideBuy,
		Symbol:          stock.Symbol,
		Shares:          shares,
		Price:           price,
		Amount:          cost,
		Unspent:         chips - cost,
		SharesOwned:     position.SharesOwned,
		AverageBuyPrice: position.AverageBuyPrice,
		RealizedPL:      decimal.Zero,
		NewBalance:      newBalance,
	}, nil
}

// Sell sells shares at the current value. A position sold down to zero shares
// is removed.
func (s *positionService) Sell(ctx context.Context, externalID, symbol string, shares int64) (*entities.TradeResult, error) {
	if shares <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	player, stock, err := s.loadTrade(ctx, externalID, symbol)
	if err != nil {
		return nil, err
	}

	position, err := s.positionRepo.GetForUpdate(ctx, player.ID, stock.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	if position == nil {
		return nil, domain.ErrPositionNotFound
	}
	if shares > position.SharesOwned {
		return nil, domain.ErrInsufficientShares.WithMessage("you own %d shares of %s", position.SharesOwned, stock.Symbol)
	}

	price := stock.CurrentValue
	proceeds := shares * price
	realized := position.RealizedPL(shares, price)

	newBalance, err := s.playerRepo.Credit(ctx, player.ID, proceeds)
	if err != nil {
		return nil, fmt.Errorf("failed to credit sale: %w", err)
	}

	position.SharesOwned -= shares
	position.UpdatedAt = time.Now()
	if position.SharesOwned == 0 {
		err = s.positionRepo.Delete(ctx, player.ID, stock.ID)
	} else {
		err = s.positionRepo.Save(ctx, position)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update position: %w", err)
	}

	if err := s.recordTrade(ctx, player.ID, stock, entities.TradeSideSell, shares, newBalance-proceeds, newBalance); err != nil {
		return nil, err
	}

	return &entities.TradeResult{
		Side:            entities.TradeSideSell,
		Symbol:          stock.Symbol,
		Shares:          shares,
		Price:           price,
		Amount:          proceeds,
		SharesOwned:     position.SharesOwned,
		AverageBuyPrice: position.AverageBuyPrice,
		RealizedPL:      realized,
		NewBalance:      newBalance,
	}, nil
}

// Portfolio returns a player's positions valued at current prices
func (s *positionService) Portfolio(ctx context.Context, externalID string) ([]*entities.PortfolioEntry, error) {
	player, err := s.playerRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}

	positions, err := s.positionRepo.ListByPlayer(ctx, player.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	entries := make([]*entities.PortfolioEntry, 0, len(positions))
	for _, position := range positions {
		stock, err := s.memeStockRepo.GetByID(ctx, position.StockID)
		if err != nil {
			return nil, fmt.Errorf("failed to get stock %d: %w", position.StockID, err)
		}
		if stock == nil {
			log.WithFields(log.Fields{
				"playerID": player.ID,
				"stockID":  position.StockID,
			}).Warn("Position references missing stock")
			continue
		}
		entries = append(entries, entities.NewPortfolioEntry(stock, position))
	}
	return entries, nil
}

func (s *positionService) loadTrade(ctx context.Context, externalID, symbol string) (*entities.Player, *entities.MemeStock, error) {
	player, err := s.playerRepo.GetByExternalIDForUpdate(ctx, externalID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, nil, domain.ErrPlayerNotFound
	}

	stock, err := s.memeStockRepo.GetBySymbol(ctx, NormalizeSymbol(symbol))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get stock: %w", err)
	}
	if stock == nil {
		return nil, nil, domain.ErrStockNotFound
	}
	if stock.CurrentValue <= 0 {
		return nil, nil, domain.ErrInvalidPrice.WithMessage("%s has no valid price", stock.Symbol)
	}
	return player, stock, nil
}

func (s *positionService) recordTrade(ctx context.Context, playerID int64, stock *entities.MemeStock, side entities.TradeSide, shares, before, after int64) error {
	txType := entities.TransactionTypeStockBuy
	if side == entities.TradeSideSell {
		txType = entities.TransactionTypeStockSell
	}
	history := entities.NewBalanceChange(playerID, before, after, txType, stock.ID, entities.RelatedTypeMemeStock,
		map[string]any{
			"symbol": stock.Symbol,
			"shares": shares,
			"price":  stock.CurrentValue,
		})
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return err
	}

	if err := s.eventPublisher.Publish(events.TradeExecutedEvent{
		PlayerID: playerID,
		Symbol:   stock.Symbol,
		Side:     side,
		Shares:   shares,
		Price:    stock.CurrentValue,
	}); err != nil {
		log.WithError(err).Error("Failed to publish trade executed event")
	}

	log.WithFields(log.Fields{
		"playerID": playerID,
		"symbol":   stock.Symbol,
		"side":     side,
		"shares":   shares,
		"price":    stock.CurrentValue,
	}).Info("Trade executed")
	return nil
}
