package repository

import (
	"context"
	"fmt"
	"time"

	"gamerit/database"
	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/interfaces"

	"github.com/shopspring/decimal"
)

// HotPotatoWagerRepository implements hot potato prediction data access
type HotPotatoWagerRepository struct {
	q Queryable
}

// NewHotPotatoWagerRepository creates a new hot potato wager repository
func NewHotPotatoWagerRepository(db *database.DB) *HotPotatoWagerRepository {
	return &HotPotatoWagerRepository{q: db.Pool}
}

// NewHotPotatoWagerRepositoryWithTx creates a hot potato wager repository bound to a transaction
func NewHotPotatoWagerRepositoryWithTx(tx Queryable) interfaces.HotPotatoWagerRepository {
	return &HotPotatoWagerRepository{q: tx}
}

// Create inserts a prediction
func (r *HotPotatoWagerRepository) Create(ctx context.Context, wager *entities.HotPotatoWager) error {
	query := `
		INSERT INTO hot_potato_wagers (round_id, player_id, predicted_hours, amount)
		VALUES ($1, $2, $3::NUMERIC, $4)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query,
		wager.RoundID,
		wager.PlayerID,
		wager.PredictedHours.Round(4).String(),
		wager.Amount,
	).Scan(&wager.ID, &wager.CreatedAt)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return domain.ErrDuplicateWager
		}
		return fmt.Errorf("failed to create prediction on hot potato round %d: %w", wager.RoundID, err)
	}
	return nil
}

// ListByRound returns all predictions on a round
func (r *HotPotatoWagerRepository) ListByRound(ctx context.Context, roundID int64) ([]*entities.HotPotatoWager, error) {
	query := `
		SELECT id, round_id, player_id, predicted_hours::TEXT, amount, payout, paid_at, created_at
		FROM hot_potato_wagers
		WHERE round_id = $1
		ORDER BY id
	`
	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions on hot potato round %d: %w", roundID, err)
	}
	defer rows.Close()

	var wagers []*entities.HotPotatoWager
	for rows.Next() {
		var w entities.HotPotatoWager
		var predicted string
		if err := rows.Scan(&w.ID, &w.RoundID, &w.PlayerID, &predicted, &w.Amount, &w.Payout, &w.PaidAt, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		if w.PredictedHours, err = decimal.NewFromString(predicted); err != nil {
			return nil, fmt.Errorf("invalid predicted hours %q: %w", predicted, err)
		}
		wagers = append(wagers, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}
	return wagers, nil
}

// MarkPaid records a payout exactly once per prediction
func (r *HotPotatoWagerRepository) MarkPaid(ctx context.Context, wagerID, payout int64, at time.Time) (bool, error) {
	result, err := r.q.Exec(ctx, `UPDATE hot_potato_wagers SET payout = $2, paid_at = $3 WHERE id = $1 AND paid_at IS NULL`, wagerID, payout, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark prediction %d paid: %w", wagerID, err)
	}
	return result.RowsAffected() == 1, nil
}
