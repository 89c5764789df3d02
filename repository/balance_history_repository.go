package repository

import (
	"context"
	"fmt"

	"gamerit/database"
	"gamerit/domain/entities"
	"gamerit/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// BalanceHistoryRepository is the append-only ledger of balance changes
type BalanceHistoryRepository struct {
	q Queryable
}

func NewBalanceHistoryRepository(db *database.DB) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{q: db.Pool}
}

func NewBalanceHistoryRepositoryWithTx(tx Queryable) interfaces.BalanceHistoryRepository {
	return &BalanceHistoryRepository{q: tx}
}

// Record appends history and fills in its id and timestamp. Metadata is
// stored as jsonb, never null.
func (r *BalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	if history.TransactionMetadata == nil {
		history.TransactionMetadata = map[string]any{}
	}

	err := r.q.QueryRow(ctx, `
		INSERT INTO balance_history (player_id, balance_before, balance_after, change_amount,
		                             transaction_type, transaction_metadata, related_id, related_type)
		VALUES (@player_id, @balance_before, @balance_after, @change_amount,
		        @transaction_type, @transaction_metadata, @related_id, @related_type)
		RETURNING id, created_at`,
		pgx.NamedArgs{
			"player_id":            history.PlayerID,
			"balance_before":       history.BalanceBefore,
			"balance_after":        history.BalanceAfter,
			"change_amount":        history.ChangeAmount,
			"transaction_type":     history.TransactionType,
			"transaction_metadata": history.TransactionMetadata,
			"related_id":           history.RelatedID,
			"related_type":         history.RelatedType,
		},
	).Scan(&history.ID, &history.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record %s for player %d: %w", history.TransactionType, history.PlayerID, err)
	}
	return nil
}

// GetByPlayer returns up to limit entries for playerID, newest first
func (r *BalanceHistoryRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.BalanceHistory, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, player_id, balance_before, balance_after, change_amount,
		       transaction_type, transaction_metadata, related_id, related_type, created_at
		FROM balance_history
		WHERE player_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance history for player %d: %w", playerID, err)
	}

	history, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[entities.BalanceHistory])
	if err != nil {
		return nil, fmt.Errorf("failed to scan balance history for player %d: %w", playerID, err)
	}
	return history, nil
}
