package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamerit/database"
	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/interfaces"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WagerRepository implements classic round wager data access
type WagerRepository struct {
	q Queryable
}

// NewWagerRepository creates a new wager repository
func NewWagerRepository(db *database.DB) *WagerRepository {
	return &WagerRepository{q: db.Pool}
}

// NewWagerRepositoryWithTx creates a wager repository bound to a transaction
func NewWagerRepositoryWithTx(tx Queryable) interfaces.WagerRepository {
	return &WagerRepository{q: tx}
}

const wagerColumns = `id, round_id, player_id, side, amount, payout, payout_key, paid_at, created_at`

func scanWager(row pgx.Row) (*entities.Wager, error) {
	var w entities.Wager
	var side string
	err := row.Scan(
		&w.ID,
		&w.RoundID,
		&w.PlayerID,
		&side,
		&w.Amount,
		&w.Payout,
		&w.PayoutKey,
		&w.PaidAt,
		&w.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.Side = entities.Side(side)
	return &w, nil
}

func collectWagers(rows pgx.Rows) ([]*entities.Wager, error) {
	defer rows.Close()
	var wagers []*entities.Wager
	for rows.Next() {
		wager, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, wager)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wagers: %w", err)
	}
	return wagers, nil
}

// Create inserts a wager
func (r *WagerRepository) Create(ctx context.Context, wager *entities.Wager) error {
	query := `
		INSERT INTO wagers (round_id, player_id, side, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query, wager.RoundID, wager.PlayerID, string(wager.Side), wager.Amount).
		Scan(&wager.ID, &wager.CreatedAt)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return domain.ErrDuplicateWager
		}
		return fmt.Errorf("failed to create wager on round %d: %w", wager.RoundID, err)
	}
	return nil
}

// GetByID retrieves a wager by ID
func (r *WagerRepository) GetByID(ctx context.Context, id int64) (*entities.Wager, error) {
	wager, err := scanWager(r.q.QueryRow(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %d: %w", id, err)
	}
	return wager, nil
}

// GetByRoundAndPlayer retrieves a player's wager on a round
func (r *WagerRepository) GetByRoundAndPlayer(ctx context.Context, roundID, playerID int64) (*entities.Wager, error) {
	wager, err := scanWager(r.q.QueryRow(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE round_id = $1 AND player_id = $2`, roundID, playerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager for player %d on round %d: %w", playerID, roundID, err)
	}
	return wager, nil
}

// ListByRound returns all wagers on a round
func (r *WagerRepository) ListByRound(ctx context.Context, roundID int64) ([]*entities.Wager, error) {
	rows, err := r.q.Query(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE round_id = $1 ORDER BY id`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers on round %d: %w", roundID, err)
	}
	return collectWagers(rows)
}

// ListUnpaidByRound returns wagers that have not been paid
func (r *WagerRepository) ListUnpaidByRound(ctx context.Context, roundID int64) ([]*entities.Wager, error) {
	rows, err := r.q.Query(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE round_id = $1 AND paid_at IS NULL ORDER BY id`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid wagers on round %d: %w", roundID, err)
	}
	return collectWagers(rows)
}

// ListByPlayer returns a player's most recent wagers
func (r *WagerRepository) ListByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.Wager, error) {
	rows, err := r.q.Query(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE player_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers for player %d: %w", playerID, err)
	}
	return collectWagers(rows)
}

// MarkPaid records a payout exactly once per wager
func (r *WagerRepository) MarkPaid(ctx context.Context, wagerID, payout int64, key uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE wagers
		SET payout = $2, payout_key = $3, paid_at = $4
		WHERE id = $1 AND paid_at IS NULL
	`
	result, err := r.q.Exec(ctx, query, wagerID, payout, key, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark wager %d paid: %w", wagerID, err)
	}
	return result.RowsAffected() == 1, nil
}

// GetPot sums stakes on a round by side
func (r *WagerRepository) GetPot(ctx context.Context, roundID int64) (*entities.Pot, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE side = 'A'), 0)::BIGINT,
			COALESCE(SUM(amount) FILTER (WHERE side = 'B'), 0)::BIGINT,
			COUNT(*) FILTER (WHERE side = 'A'),
			COUNT(*) FILTER (WHERE side = 'B')
		FROM wagers
		WHERE round_id = $1
	`
	pot := &entities.Pot{RoundID: roundID}
	err := r.q.QueryRow(ctx, query, roundID).Scan(&pot.SideATotal, &pot.SideBTotal, &pot.SideACount, &pot.SideBCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get pot for round %d: %w", roundID, err)
	}
	pot.Total = pot.SideATotal + pot.SideBTotal
	return pot, nil
}
