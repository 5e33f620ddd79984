package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iamasit07/soloq/internal/domain"
)

type PlayerRepo struct {
	DB *sql.DB
}

func NewPlayerRepo(db *sql.DB) *PlayerRepo {
	return &PlayerRepo{DB: db}
}

const playerSelectFields = `id, COALESCE(email, '') AS email, global_rating, ratings_by_specialty, created_at`

// scanPlayer returns nil, nil on sql.ErrNoRows.
func scanPlayer(row interface{ Scan(dest ...any) error }) (*domain.PlayerRating, error) {
	var (
		p       domain.PlayerRating
		global  sql.NullInt64
		ratings []byte
	)
	err := row.Scan(&p.ID, &p.Email, &global, &ratings, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if global.Valid {
		p.GlobalRating = domain.Int(int(global.Int64))
	}
	p.RatingsBySpecialty = map[string]int{}
	if len(ratings) > 0 {
		if err := json.Unmarshal(ratings, &p.RatingsBySpecialty); err != nil {
			return nil, fmt.Errorf("failed to decode ratings_by_specialty for %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

// GetByID retrieves a player by primary key.
func (r *PlayerRepo) GetByID(ctx context.Context, id string) (*domain.PlayerRating, error) {
	query := `SELECT ` + playerSelectFields + ` FROM players WHERE id = $1;`
	p, err := scanPlayer(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// GetByEmail retrieves the oldest player registered with email.
func (r *PlayerRepo) GetByEmail(ctx context.Context, email string) (*domain.PlayerRating, error) {
	if email == "" {
		return nil, nil
	}
	query := `SELECT ` + playerSelectFields + ` FROM players WHERE email = $1 ORDER BY created_at ASC, id ASC LIMIT 1;`
	p, err := scanPlayer(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get player by email: %w", err)
	}
	return p, nil
}

// Insert creates a player. A primary key conflict is domain.ErrDuplicate.
func (r *PlayerRepo) Insert(ctx context.Context, p *domain.PlayerRating) error {
	var emailParam, globalParam interface{}
	if p.Email != "" {
		emailParam = p.Email
	}
	if p.GlobalRating != nil {
		globalParam = *p.GlobalRating
	}
	ratings, err := encodeRatings(p.RatingsBySpecialty)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO players (id, email, global_rating, ratings_by_specialty)
	VALUES ($1, $2, $3, $4::jsonb);
	`
	if _, err := r.DB.ExecContext(ctx, query, p.ID, emailParam, globalParam, ratings); err != nil {
		return fmt.Errorf("failed to create player: %w", translate(err))
	}
	return nil
}

// UpdateRatings overwrites the fields set in u.
func (r *PlayerRepo) UpdateRatings(ctx context.Context, id string, u domain.RatingUpdate) error {
	var (
		res sql.Result
		err error
	)
	switch {
	case u.GlobalRating != nil && u.RatingsBySpecialty != nil:
		ratings, encErr := encodeRatings(u.RatingsBySpecialty)
		if encErr != nil {
			return encErr
		}
		res, err = r.DB.ExecContext(ctx,
			`UPDATE players SET global_rating = $2, ratings_by_specialty = $3::jsonb WHERE id = $1;`,
			id, *u.GlobalRating, ratings)
	case u.RatingsBySpecialty != nil:
		ratings, encErr := encodeRatings(u.RatingsBySpecialty)
		if encErr != nil {
			return encErr
		}
		res, err = r.DB.ExecContext(ctx,
			`UPDATE players SET ratings_by_specialty = $2::jsonb WHERE id = $1;`,
			id, ratings)
	case u.GlobalRating != nil:
		res, err = r.DB.ExecContext(ctx,
			`UPDATE players SET global_rating = $2 WHERE id = $1;`,
			id, *u.GlobalRating)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update ratings: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update ratings: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetSpecialtyRating writes a single key of ratings_by_specialty in place.
func (r *PlayerRepo) SetSpecialtyRating(ctx context.Context, id, specialty string, rating int) error {
	query := `
		UPDATE players
		SET ratings_by_specialty = jsonb_set(COALESCE(ratings_by_specialty, '{}'::jsonb), ARRAY[$2::text], to_jsonb($3::int))
		WHERE id = $1;
	`
	res, err := r.DB.ExecContext(ctx, query, id, specialty, rating)
	if err != nil {
		return fmt.Errorf("failed to set specialty rating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set specialty rating: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Leaderboard ranks the players rated in specialty.
func (r *PlayerRepo) Leaderboard(ctx context.Context, specialty string, limit int) ([]domain.LeaderboardEntry, error) {
	query := `
	SELECT
		ROW_NUMBER() OVER (ORDER BY (ratings_by_specialty ->> $1)::int DESC, id ASC) AS pos,
		id,
		COALESCE(email, '') AS email,
		(ratings_by_specialty ->> $1)::int AS rating
	FROM players
	WHERE ratings_by_specialty ->> $1 IS NOT NULL
	ORDER BY pos
	LIMIT $2;
	`

	rows, err := r.DB.QueryContext(ctx, query, specialty, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	leaderboard := make([]domain.LeaderboardEntry, 0)
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Pos, &e.PlayerID, &e.Email, &e.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		leaderboard = append(leaderboard, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	return leaderboard, nil
}

// List pages through players in creation order.
func (r *PlayerRepo) List(ctx context.Context, offset, limit int) ([]*domain.PlayerRating, error) {
	query := `SELECT ` + playerSelectFields + ` FROM players ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2;`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := make([]*domain.PlayerRating, 0, limit)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

func encodeRatings(ratings map[string]int) (string, error) {
	if ratings == nil {
		ratings = map[string]int{}
	}
	data, err := json.Marshal(ratings)
	if err != nil {
		return "", fmt.Errorf("failed to encode ratings: %w", err)
	}
	return string(data), nil
}
