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
)

// RoundRepository implements classic round data access
type RoundRepository struct {
	q Queryable
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db *database.DB) *RoundRepository {
	return &RoundRepository{q: db.Pool}
}

// NewRoundRepositoryWithTx creates a round repository bound to a transaction
func NewRoundRepositoryWithTx(tx Queryable) interfaces.RoundRepository {
	return &RoundRepository{q: tx}
}

const roundColumns = `
	id, status, winner,
	post_a_id, post_a_title, post_a_author, post_a_subreddit, post_a_initial_score, post_a_final_score,
	post_b_id, post_b_title, post_b_author, post_b_subreddit, post_b_initial_score, post_b_final_score,
	created_at, ends_at, settled_at, finished_at`

func scanRound(row pgx.Row) (*entities.Round, error) {
	var round entities.Round
	var winner *string
	err := row.Scan(
		&round.ID,
		&round.Status,
		&winner,
		&round.PostA.ID,
		&round.PostA.Title,
		&round.PostA.Author,
		&round.PostA.Subreddit,
		&round.PostA.InitialScore,
		&round.PostA.FinalScore,
		&round.PostB.ID,
		&round.PostB.Title,
		&round.PostB.Author,
		&round.PostB.Subreddit,
		&round.PostB.InitialScore,
		&round.PostB.FinalScore,
		&round.CreatedAt,
		&round.EndsAt,
		&round.SettledAt,
		&round.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	if winner != nil {
		side := entities.Side(*winner)
		round.Winner = &side
	}
	return &round, nil
}

func collectRounds(rows pgx.Rows) ([]*entities.Round, error) {
	defer rows.Close()
	var rounds []*entities.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}
	return rounds, nil
}

func (r *RoundRepository) getOne(ctx context.Context, query string, args ...any) (*entities.Round, error) {
	round, err := scanRound(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return round, err
}

// Create inserts an active round
func (r *RoundRepository) Create(ctx context.Context, round *entities.Round) error {
	query := `
		INSERT INTO rounds (
			status,
			post_a_id, post_a_title, post_a_author, post_a_subreddit, post_a_initial_score,
			post_b_id, post_b_title, post_b_author, post_b_subreddit, post_b_initial_score,
			created_at, ends_at
		)
		VALUES ('active', $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, status
	`

	err := r.q.QueryRow(ctx, query,
		round.PostA.ID, round.PostA.Title, round.PostA.Author, round.PostA.Subreddit, round.PostA.InitialScore,
		round.PostB.ID, round.PostB.Title, round.PostB.Author, round.PostB.Subreddit, round.PostB.InitialScore,
		round.CreatedAt, round.EndsAt,
	).Scan(&round.ID, &round.Status)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok && constraint == "idx_rounds_single_active" {
			return domain.ErrActiveRoundExists
		}
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// GetByID retrieves a round by ID
func (r *RoundRepository) GetByID(ctx context.Context, id int64) (*entities.Round, error) {
	round, err := r.getOne(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get round %d: %w", id, err)
	}
	return round, nil
}

// GetByIDForShare retrieves a round holding a share lock until the transaction ends
func (r *RoundRepository) GetByIDForShare(ctx context.Context, id int64) (*entities.Round, error) {
	round, err := r.getOne(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = $1 FOR SHARE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock round %d: %w", id, err)
	}
	return round, nil
}

// GetActive returns the active round
func (r *RoundRepository) GetActive(ctx context.Context) (*entities.Round, error) {
	round, err := r.getOne(ctx, `SELECT `+roundColumns+` FROM rounds WHERE status = 'active' LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active round: %w", err)
	}
	return round, nil
}

// GetLatest returns the most recently created round
func (r *RoundRepository) GetLatest(ctx context.Context) (*entities.Round, error) {
	round, err := r.getOne(ctx, `SELECT `+roundColumns+` FROM rounds ORDER BY created_at DESC, id DESC LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest round: %w", err)
	}
	return round, nil
}

// ListDue returns active rounds past their deadline
func (r *RoundRepository) ListDue(ctx context.Context, now time.Time) ([]*entities.Round, error) {
	rows, err := r.q.Query(ctx, `SELECT `+roundColumns+` FROM rounds WHERE status = 'active' AND ends_at <= $1 ORDER BY ends_at`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due rounds: %w", err)
	}
	return collectRounds(rows)
}

// ListPendingPayout returns rounds stuck between fence and finish
func (r *RoundRepository) ListPendingPayout(ctx context.Context, settledBefore time.Time) ([]*entities.Round, error) {
	rows, err := r.q.Query(ctx, `SELECT `+roundColumns+` FROM rounds WHERE status = 'pending_payout' AND settled_at <= $1 ORDER BY settled_at`, settledBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payout rounds: %w", err)
	}
	return collectRounds(rows)
}

// ListRecent returns the most recent rounds
func (r *RoundRepository) ListRecent(ctx context.Context, limit int) ([]*entities.Round, error) {
	rows, err := r.q.Query(ctx, `SELECT `+roundColumns+` FROM rounds ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent rounds: %w", err)
	}
	return collectRounds(rows)
}

// RecentPostIDs returns the post IDs of the last limit rounds
func (r *RoundRepository) RecentPostIDs(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT post_id FROM (
			SELECT post_a_id, post_b_id FROM rounds ORDER BY created_at DESC, id DESC LIMIT $1
		) recent
		CROSS JOIN LATERAL (VALUES (recent.post_a_id), (recent.post_b_id)) AS posts(post_id)
	`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent post ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan recent post ids: %w", err)
	}
	return ids, nil
}

// MarkPendingPayout fences an active round. Only one caller can win the fence.
func (r *RoundRepository) MarkPendingPayout(ctx context.Context, id int64, outcome *entities.RoundOutcome, at time.Time) (bool, error) {
	var winner *string
	if outcome.Winner != nil {
		w := string(*outcome.Winner)
		winner = &w
	}

	query := `
		UPDATE rounds
		SET status = 'pending_payout',
		    winner = $2,
		    post_a_final_score = $3,
		    post_b_final_score = $4,
		    settled_at = $5
		WHERE id = $1 AND status = 'active'
	`
	result, err := r.q.Exec(ctx, query, id, winner, outcome.FinalScoreA, outcome.FinalScoreB, at)
	if err != nil {
		return false, fmt.Errorf("failed to fence round %d: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}

// MarkFinished completes a fenced round
func (r *RoundRepository) MarkFinished(ctx context.Context, id int64, at time.Time) (bool, error) {
	result, err := r.q.Exec(ctx, `UPDATE rounds SET status = 'finished', finished_at = $2 WHERE id = $1 AND status = 'pending_payout'`, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to finish round %d: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}
