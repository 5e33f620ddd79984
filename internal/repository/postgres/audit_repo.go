package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iamasit07/soloq/internal/domain"
)

// AuditRepo appends to and reads the game_sessions and rating_history logs.
type AuditRepo struct {
	DB *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{DB: db}
}

func (r *AuditRepo) InsertGameSession(ctx context.Context, rec *domain.GameSessionRecord) error {
	query := `
	INSERT INTO game_sessions (id, player_id, specialty, correct, total, duration_ms, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.DB.ExecContext(ctx, query,
		rec.ID, rec.PlayerID, rec.Specialty, rec.Correct, rec.Total, rec.DurationMS, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert game session: %w", translate(err))
	}
	return nil
}

func (r *AuditRepo) InsertRatingHistory(ctx context.Context, rec *domain.RatingHistoryRecord) error {
	query := `
	INSERT INTO rating_history (id, player_id, specialty, old_rating, delta, new_rating, correct, total, score, duration_ms, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.DB.ExecContext(ctx, query,
		rec.ID, rec.PlayerID, rec.Specialty, rec.OldRating, rec.Delta, rec.NewRating,
		rec.Correct, rec.Total, rec.Score, rec.DurationMS, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert rating history: %w", translate(err))
	}
	return nil
}

// ListRatingHistory returns the newest records first. An empty specialty matches all.
func (r *AuditRepo) ListRatingHistory(ctx context.Context, playerID, specialty string, limit int) ([]domain.RatingHistoryRecord, error) {
	query := `
	SELECT id, player_id, specialty, old_rating, delta, new_rating, correct, total, score, duration_ms, created_at
	FROM rating_history
	WHERE player_id = $1 AND ($2 = '' OR specialty = $2)
	ORDER BY seq DESC
	LIMIT $3;
	`
	rows, err := r.DB.QueryContext(ctx, query, playerID, specialty, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating history: %w", err)
	}
	defer rows.Close()

	history := make([]domain.RatingHistoryRecord, 0)
	for rows.Next() {
		var h domain.RatingHistoryRecord
		if err := rows.Scan(&h.ID, &h.PlayerID, &h.Specialty, &h.OldRating, &h.Delta, &h.NewRating,
			&h.Correct, &h.Total, &h.Score, &h.DurationMS, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating history row: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rating history: %w", err)
	}
	return history, nil
}

func (r *AuditRepo) CountGameSessions(ctx context.Context, playerID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_sessions WHERE player_id = $1;`, playerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count game sessions: %w", err)
	}
	return n, nil
}

// RatingLedger folds rating_history into the rating each player and
// specialty should hold: the first old rating plus every delta since.
func (r *AuditRepo) RatingLedger(ctx context.Context) ([]domain.LedgerEntry, error) {
	query := `
	SELECT
		player_id,
		specialty,
		(ARRAY_AGG(old_rating ORDER BY seq ASC))[1] + SUM(delta)::int AS expected_rating,
		COUNT(*) AS sessions
	FROM rating_history
	GROUP BY player_id, specialty
	ORDER BY player_id, specialty;
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating ledger: %w", err)
	}
	defer rows.Close()

	ledger := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.PlayerID, &e.Specialty, &e.ExpectedRating, &e.Sessions); err != nil {
			return nil, fmt.Errorf("failed to scan rating ledger row: %w", err)
		}
		ledger = append(ledger, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rating ledger: %w", err)
	}
	return ledger, nil
}
