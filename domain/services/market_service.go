package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gamerit/config"
	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/events"
	"gamerit/domain/interfaces"

	"github.com/gosimple/slug"
	log "github.com/sirupsen/logrus"
)

// maxSymbolLength bounds the ticker after the leading "$"
const maxSymbolLength = 10

type marketService struct {
	config         *config.Config
	memeStockRepo  interfaces.MemeStockRepository
	eventPublisher interfaces.EventPublisher
}

// NewMarketService creates the service the market scan job feeds prices through
func NewMarketService(
	memeStockRepo interfaces.MemeStockRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.MarketService {
	return &marketService{
		config:         config.Get(),
		memeStockRepo:  memeStockRepo,
		eventPublisher: eventPublisher,
	}
}

// SymbolFromTitle derives a ticker from a trending title: "Doge" becomes "$DOGE"
func SymbolFromTitle(title string) string {
	ticker := strings.ToUpper(strings.ReplaceAll(slug.Make(title), "-", ""))
	if len(ticker) > maxSymbolLength {
		ticker = ticker[:maxSymbolLength]
	}
	return "$" + ticker
}

// NormalizeSymbol accepts "doge", "DOGE" or "$doge" and returns "$DOGE"
func NormalizeSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !strings.HasPrefix(symbol, "$") {
		symbol = "$" + symbol
	}
	return symbol
}

// ListStock creates a stock whose symbol is derived from title
func (s *marketService) ListStock(ctx context.Context, title string, initialValue int64, now time.Time) (*entities.MemeStock, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ErrInvalidInput.WithMessage("title is required")
	}
	if initialValue <= 0 {
		return nil, domain.ErrInvalidPrice
	}

	symbol := SymbolFromTitle(title)
	if symbol == "$" {
		return nil, domain.ErrInvalidInput.WithMessage("title %q does not produce a ticker symbol", title)
	}

	stock := &entities.MemeStock{
		Symbol:       symbol,
		Title:        title,
		CurrentValue: initialValue,
		History:      []entities.PricePoint{{At: now, Value: initialValue}},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.memeStockRepo.Create(ctx, stock); err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}

	s.publishPrice(stock, 0)

	log.WithFields(log.Fields{
		"symbol": stock.Symbol,
		"title":  stock.Title,
		"value":  stock.CurrentValue,
	}).Info("Listed meme stock")

	return stock, nil
}

// RecordPrice stores a new price sample and prunes samples outside the history window
func (s *marketService) RecordPrice(ctx context.Context, symbol string, value int64, now time.Time) (*entities.MemeStock, error) {
	if value <= 0 {
		return nil, domain.ErrInvalidPrice
	}

	stock, err := s.lockStock(ctx, symbol)
	if err != nil {
		return nil, err
	}

	oldValue := stock.CurrentValue
	stock.AppendPrice(value, now, s.config.PriceHistoryWindow)
	stock.UpdatedAt = now
	if err := s.memeStockRepo.UpdatePrice(ctx, stock); err != nil {
		return nil, fmt.Errorf("failed to update price: %w", err)
	}

	s.publishPrice(stock, oldValue)
	return stock, nil
}

// SetActive marks a stock as trending or not
func (s *marketService) SetActive(ctx context.Context, symbol string, active bool) (*entities.MemeStock, error) {
	stock, err := s.lockStock(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if stock.IsActive == active {
		return stock, nil
	}

	if err := s.memeStockRepo.SetActive(ctx, stock.ID, active); err != nil {
		return nil, fmt.Errorf("failed to set stock active: %w", err)
	}
	stock.IsActive = active

	s.publishPrice(stock, stock.CurrentValue)
	return stock, nil
}

// ListStocks returns listed stocks
func (s *marketService) ListStocks(ctx context.Context, activeOnly bool) ([]*entities.MemeStock, error) {
	stocks, err := s.memeStockRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	return stocks, nil
}

// lockStock holds the row until the transaction ends so concurrent price
// samples do not overwrite each other's history
func (s *marketService) lockStock(ctx context.Context, symbol string) (*entities.MemeStock, error) {
	stock, err := s.memeStockRepo.GetBySymbolForUpdate(ctx, NormalizeSymbol(symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock: %w", err)
	}
	if stock == nil {
		return nil, domain.ErrStockNotFound
	}
	return stock, nil
}

func (s *marketService) publishPrice(stock *entities.MemeStock, oldValue int64) {
	if err := s.eventPublisher.Publish(events.StockPriceUpdatedEvent{
		Symbol:   stock.Symbol,
		OldValue: oldValue,
		NewValue: stock.CurrentValue,
		IsActive: stock.IsActive,
	}); err != nil {
		log.WithError(err).Error("Failed to publish stock price event")
	}
}
