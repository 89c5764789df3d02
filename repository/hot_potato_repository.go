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

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// HotPotatoRepository implements hot potato round data access
type HotPotatoRepository struct {
	q Queryable
}

// NewHotPotatoRepository creates a new hot potato repository
func NewHotPotatoRepository(db *database.DB) *HotPotatoRepository {
	return &HotPotatoRepository{q: db.Pool}
}

// NewHotPotatoRepositoryWithTx creates a hot potato repository bound to a transaction
func NewHotPotatoRepositoryWithTx(tx Queryable) interfaces.HotPotatoRepository {
	return &HotPotatoRepository{q: tx}
}

const hotPotatoColumns = `
	id, content_id, title, author, subreddit, controversy_score::TEXT, status,
	created_at, expires_at, actual_deletion_time, resolved_at`

func scanHotPotato(row pgx.Row) (*entities.HotPotatoRound, error) {
	var round entities.HotPotatoRound
	var score, status string
	err := row.Scan(
		&round.ID,
		&round.ContentID,
		&round.Title,
		&round.Author,
		&round.Subreddit,
		&score,
		&status,
		&round.CreatedAt,
		&round.ExpiresAt,
		&round.ActualDeletionTime,
		&round.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	round.ControversyScore, err = decimal.NewFromString(score)
	if err != nil {
		return nil, fmt.Errorf("invalid controversy score %q: %w", score, err)
	}
	round.Status = entities.HotPotatoStatus(status)
	return &round, nil
}

func (r *HotPotatoRepository) getOne(ctx context.Context, query string, id int64) (*entities.HotPotatoRound, error) {
	round, err := scanHotPotato(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hot potato round %d: %w", id, err)
	}
	return round, nil
}

// Create inserts an active hot potato round
func (r *HotPotatoRepository) Create(ctx context.Context, round *entities.HotPotatoRound) error {
	query := `
		INSERT INTO hot_potato_rounds (content_id, title, author, subreddit, controversy_score, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5::NUMERIC, 'active', $6, $7)
		RETURNING id, status
	`
	var status string
	err := r.q.QueryRow(ctx, query,
		round.ContentID,
		round.Title,
		round.Author,
		round.Subreddit,
		round.ControversyScore.String(),
		round.CreatedAt,
		round.ExpiresAt,
	).Scan(&round.ID, &status)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok && constraint == "idx_hot_potato_rounds_active_content" {
			return domain.ErrContentRecentlyUsed
		}
		return fmt.Errorf("failed to create hot potato round for %s: %w", round.ContentID, err)
	}
	round.Status = entities.HotPotatoStatus(status)
	return nil
}

// GetByID retrieves a hot potato round
func (r *HotPotatoRepository) GetByID(ctx context.Context, id int64) (*entities.HotPotatoRound, error) {
	return r.getOne(ctx, `SELECT `+hotPotatoColumns+` FROM hot_potato_rounds WHERE id = $1`, id)
}

// GetByIDForShare retrieves a hot potato round holding a share lock
func (r *HotPotatoRepository) GetByIDForShare(ctx context.Context, id int64) (*entities.HotPotatoRound, error) {
	return r.getOne(ctx, `SELECT `+hotPotatoColumns+` FROM hot_potato_rounds WHERE id = $1 FOR SHARE`, id)
}

// ListActive returns all active rounds, soonest expiry first
func (r *HotPotatoRepository) ListActive(ctx context.Context) ([]*entities.HotPotatoRound, error) {
	rows, err := r.q.Query(ctx, `SELECT `+hotPotatoColumns+` FROM hot_potato_rounds WHERE status = 'active' ORDER BY expires_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active hot potato rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*entities.HotPotatoRound
	for rows.Next() {
		round, err := scanHotPotato(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hot potato round: %w", err)
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hot potato rounds: %w", err)
	}
	return rounds, nil
}

// hotPotatoAdmissionLockKey serializes hot potato admission across replicas
const hotPotatoAdmissionLockKey int64 = 0x6870_6164_6d69

// LockAdmission takes the admission lock, held until the surrounding
// transaction ends. Outside a transaction it is released immediately.
func (r *HotPotatoRepository) LockAdmission(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, hotPotatoAdmissionLockKey); err != nil {
		return fmt.Errorf("failed to lock hot potato admission: %w", err)
	}
	return nil
}

// CountActive returns the number of active rounds
func (r *HotPotatoRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM hot_potato_rounds WHERE status = 'active'`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active hot potato rounds: %w", err)
	}
	return count, nil
}

// RecentContentIDs returns content IDs of the last limit rounds
func (r *HotPotatoRepository) RecentContentIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT content_id FROM hot_potato_rounds ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent hot potato content: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan recent hot potato content: %w", err)
	}
	return ids, nil
}

// Resolve moves an active round to a terminal status. Only one caller wins.
func (r *HotPotatoRepository) Resolve(ctx context.Context, id int64, status entities.HotPotatoStatus, deletionTime *time.Time, at time.Time) (bool, error) {
	if !status.IsTerminal() {
		return false, fmt.Errorf("cannot resolve hot potato round %d to %s", id, status)
	}
	query := `
		UPDATE hot_potato_rounds
		SET status = $2, actual_deletion_time = $3, resolved_at = $4
		WHERE id = $1 AND status = 'active'
	`
	result, err := r.q.Exec(ctx, query, id, string(status), deletionTime, at)
	if err != nil {
		return false, fmt.Errorf("failed to resolve hot potato round %d: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}
