package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gamerit/database"
	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// MemeStockRepository implements meme stock data access
type MemeStockRepository struct {
	q Queryable
}

// NewMemeStockRepository creates a new meme stock repository
func NewMemeStockRepository(db *database.DB) *MemeStockRepository {
	return &MemeStockRepository{q: db.Pool}
}

// NewMemeStockRepositoryWithTx creates a meme stock repository bound to a transaction
func NewMemeStockRepositoryWithTx(tx Queryable) interfaces.MemeStockRepository {
	return &MemeStockRepository{q: tx}
}

const memeStockColumns = `id, symbol, title, current_value, history, is_active, created_at, updated_at`

func scanMemeStock(row pgx.Row) (*entities.MemeStock, error) {
	var stock entities.MemeStock
	var historyJSON []byte
	err := row.Scan(
		&stock.ID,
		&stock.Symbol,
		&stock.Title,
		&stock.CurrentValue,
		&historyJSON,
		&stock.IsActive,
		&stock.CreatedAt,
		&stock.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &stock.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal price history: %w", err)
		}
	}
	return &stock, nil
}

func marshalHistory(history []entities.PricePoint) ([]byte, error) {
	if history == nil {
		history = []entities.PricePoint{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal price history: %w", err)
	}
	return data, nil
}

func (r *MemeStockRepository) getOne(ctx context.Context, query string, arg any) (*entities.MemeStock, error) {
	stock, err := scanMemeStock(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return stock, err
}

// Create lists a new stock
func (r *MemeStockRepository) Create(ctx context.Context, stock *entities.MemeStock) error {
	historyJSON, err := marshalHistory(stock.History)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO meme_stocks (symbol, title, current_value, history, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err = r.q.QueryRow(ctx, query, stock.Symbol, stock.Title, stock.CurrentValue, historyJSON, stock.IsActive).
		Scan(&stock.ID, &stock.CreatedAt, &stock.UpdatedAt)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return domain.ErrDuplicateStock
		}
		return fmt.Errorf("failed to create stock %s: %w", stock.Symbol, err)
	}
	return nil
}

// GetBySymbol retrieves a stock by symbol
func (r *MemeStockRepository) GetBySymbol(ctx context.Context, symbol string) (*entities.MemeStock, error) {
	stock, err := r.getOne(ctx, `SELECT `+memeStockColumns+` FROM meme_stocks WHERE symbol = $1`, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock %s: %w", symbol, err)
	}
	return stock, nil
}

// GetBySymbolForUpdate retrieves and row-locks a stock by symbol
func (r *MemeStockRepository) GetBySymbolForUpdate(ctx context.Context, symbol string) (*entities.MemeStock, error) {
	stock, err := r.getOne(ctx, `SELECT `+memeStockColumns+` FROM meme_stocks WHERE symbol = $1 FOR UPDATE`, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock %s: %w", symbol, err)
	}
	return stock, nil
}

// GetByID retrieves a stock by ID
func (r *MemeStockRepository) GetByID(ctx context.Context, id int64) (*entities.MemeStock, error) {
	stock, err := r.getOne(ctx, `SELECT `+memeStockColumns+` FROM meme_stocks WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock %d: %w", id, err)
	}
	return stock, nil
}

// List returns stocks ordered by symbol
func (r *MemeStockRepository) List(ctx context.Context, activeOnly bool) ([]*entities.MemeStock, error) {
	rows, err := r.q.Query(ctx, `SELECT `+memeStockColumns+` FROM meme_stocks WHERE is_active OR NOT $1 ORDER BY symbol`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	defer rows.Close()

	var stocks []*entities.MemeStock
	for rows.Next() {
		stock, err := scanMemeStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, stock)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stocks: %w", err)
	}
	return stocks, nil
}

// UpdatePrice stores the current value and history
func (r *MemeStockRepository) UpdatePrice(ctx context.Context, stock *entities.MemeStock) error {
	historyJSON, err := marshalHistory(stock.History)
	if err != nil {
		return err
	}
	query := `
		UPDATE meme_stocks
		SET current_value = $2, history = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = r.q.QueryRow(ctx, query, stock.ID, stock.CurrentValue, historyJSON).Scan(&stock.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrStockNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update price of stock %s: %w", stock.Symbol, err)
	}
	return nil
}

// SetActive toggles whether a stock is still trending
func (r *MemeStockRepository) SetActive(ctx context.Context, stockID int64, active bool) error {
	result, err := r.q.Exec(ctx, `UPDATE meme_stocks SET is_active = $2, updated_at = NOW() WHERE id = $1`, stockID, active)
	if err != nil {
		return fmt.Errorf("failed to update stock %d: %w", stockID, err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrStockNotFound
	}
	return nil
}
