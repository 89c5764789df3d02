package repository

import (
	"context"
	"errors"
	"fmt"

	"gamerit/database"
	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// PlayerRepository implements player data access
type PlayerRepository struct {
	q Queryable
}

// NewPlayerRepository creates a new player repository backed by the pool
func NewPlayerRepository(db *database.DB) *PlayerRepository {
	return &PlayerRepository{q: db.Pool}
}

// NewPlayerRepositoryWithTx creates a player repository bound to a transaction
func NewPlayerRepositoryWithTx(tx Queryable) interfaces.PlayerRepository {
	return &PlayerRepository{q: tx}
}

const playerColumns = `id, external_id, username, points, xp, level, min_balance, max_balance, created_at, updated_at`

func scanPlayer(row pgx.Row) (*entities.Player, error) {
	var p entities.Player
	err := row.Scan(
		&p.ID,
		&p.ExternalID,
		&p.Username,
		&p.Points,
		&p.XP,
		&p.Level,
		&p.MinBalance,
		&p.MaxBalance,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlayerRepository) getOne(ctx context.Context, query string, arg any) (*entities.Player, error) {
	player, err := scanPlayer(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return player, nil
}

// GetByID retrieves a player by internal ID
func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*entities.Player, error) {
	player, err := r.getOne(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	return player, nil
}

// GetByExternalID retrieves a player by external account ID
func (r *PlayerRepository) GetByExternalID(ctx context.Context, externalID string) (*entities.Player, error) {
	player, err := r.getOne(ctx, `SELECT `+playerColumns+` FROM players WHERE external_id = $1`, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", externalID, err)
	}
	return player, nil
}

// GetByExternalIDForUpdate retrieves and locks a player row
func (r *PlayerRepository) GetByExternalIDForUpdate(ctx context.Context, externalID string) (*entities.Player, error) {
	player, err := r.getOne(ctx, `SELECT `+playerColumns+` FROM players WHERE external_id = $1 FOR UPDATE`, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock player %s: %w", externalID, err)
	}
	return player, nil
}

// Create inserts a player. Returns nil when the external ID is already taken.
func (r *PlayerRepository) Create(ctx context.Context, externalID, username string, initialBalance int64) (*entities.Player, error) {
	query := `
		INSERT INTO players (external_id, username, points, min_balance, max_balance)
		VALUES ($1, $2, $3, $3, $3)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING ` + playerColumns

	player, err := scanPlayer(r.q.QueryRow(ctx, query, externalID, username, initialBalance))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create player %s: %w", externalID, err)
	}
	return player, nil
}

// Debit subtracts amount only when the balance covers it
func (r *PlayerRepository) Debit(ctx context.Context, playerID, amount int64) (int64, error) {
	query := `
		UPDATE players
		SET points = points - $2,
		    min_balance = LEAST(min_balance, points - $2),
		    updated_at = NOW()
		WHERE id = $1 AND points >= $2
		RETURNING points
	`
	var balance int64
	err := r.q.QueryRow(ctx, query, playerID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		exists, existsErr := r.exists(ctx, playerID)
		if existsErr != nil {
			return 0, existsErr
		}
		if !exists {
			return 0, domain.ErrPlayerNotFound
		}
		return 0, domain.ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("failed to debit player %d: %w", playerID, err)
	}
	return balance, nil
}

// Credit adds amount to the balance
func (r *PlayerRepository) Credit(ctx context.Context, playerID, amount int64) (int64, error) {
	query := `
		UPDATE players
		SET points = points + $2,
		    max_balance = GREATEST(max_balance, points + $2),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING points
	`
	var balance int64
	err := r.q.QueryRow(ctx, query, playerID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrPlayerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to credit player %d: %w", playerID, err)
	}
	return balance, nil
}

// Leaderboard returns players ordered by balance
func (r *PlayerRepository) Leaderboard(ctx context.Context, limit int) ([]*entities.Player, error) {
	rows, err := r.q.Query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY points DESC, id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var players []*entities.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}
	return players, nil
}

func (r *PlayerRepository) exists(ctx context.Context, playerID int64) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM players WHERE id = $1)`, playerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check player %d: %w", playerID, err)
	}
	return exists, nil
}
