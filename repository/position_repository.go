package repository

import (
	"context"
	"errors"
	"fmt"

	"gamerit/database"
	"gamerit/domain/entities"
	"gamerit/domain/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PositionRepository implements portfolio data access
type PositionRepository struct {
	q Queryable
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *database.DB) *PositionRepository {
	return &PositionRepository{q: db.Pool}
}

// NewPositionRepositoryWithTx creates a position repository bound to a transaction
func NewPositionRepositoryWithTx(tx Queryable) interfaces.PositionRepository {
	return &PositionRepository{q: tx}
}

const positionColumns = `player_id, stock_id, shares_owned, average_buy_price::TEXT, created_at, updated_at`

func scanPosition(row pgx.Row) (*entities.Position, error) {
	var p entities.Position
	var avg string
	if err := row.Scan(&p.PlayerID, &p.StockID, &p.SharesOwned, &avg, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(avg)
	if err != nil {
		return nil, fmt.Errorf("invalid average buy price %q: %w", avg, err)
	}
	p.AverageBuyPrice = price
	return &p, nil
}

// GetForUpdate retrieves and locks a position
func (r *PositionRepository) GetForUpdate(ctx context.Context, playerID, stockID int64) (*entities.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM portfolio WHERE player_id = $1 AND stock_id = $2 FOR UPDATE`
	position, err := scanPosition(r.q.QueryRow(ctx, query, playerID, stockID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock position of player %d in stock %d: %w", playerID, stockID, err)
	}
	return position, nil
}

// Save inserts or replaces a position
func (r *PositionRepository) Save(ctx context.Context, position *entities.Position) error {
	query := `
		INSERT INTO portfolio (player_id, stock_id, shares_owned, average_buy_price)
		VALUES ($1, $2, $3, $4::NUMERIC)
		ON CONFLICT (player_id, stock_id) DO UPDATE
		SET shares_owned = EXCLUDED.shares_owned,
		    average_buy_price = EXCLUDED.average_buy_price,
		    updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query,
		position.PlayerID,
		position.StockID,
		position.SharesOwned,
		position.AverageBuyPrice.StringFixed(entities.AveragePriceScale),
	).Scan(&position.CreatedAt, &position.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save position of player %d in stock %d: %w", position.PlayerID, position.StockID, err)
	}
	return nil
}

// Delete removes a position
func (r *PositionRepository) Delete(ctx context.Context, playerID, stockID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM portfolio WHERE player_id = $1 AND stock_id = $2`, playerID, stockID); err != nil {
		return fmt.Errorf("failed to delete position of player %d in stock %d: %w", playerID, stockID, err)
	}
	return nil
}

// ListByPlayer returns every position a player holds
func (r *PositionRepository) ListByPlayer(ctx context.Context, playerID int64) ([]*entities.Position, error) {
	rows, err := r.q.Query(ctx, `SELECT `+positionColumns+` FROM portfolio WHERE player_id = $1 ORDER BY stock_id`, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions of player %d: %w", playerID, err)
	}
	defer rows.Close()

	var positions []*entities.Position
	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, position)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}
