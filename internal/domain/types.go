package domain

import (
	"strings"
	"time"
)

// PlayerRating is the only mutable entity owned by the rating core.
type PlayerRating struct {
	ID                 string         `json:"id"`
	Email              string         `json:"email,omitempty"`
	GlobalRating       *int           `json:"global_rating"`
	RatingsBySpecialty map[string]int `json:"ratings_by_specialty"`
	CreatedAt          time.Time      `json:"created_at"`
}

// CurrentRating picks the rating a session in specialty is settled against:
// the specialty rating, then the global rating, then DefaultRating.
func (p *PlayerRating) CurrentRating(specialty string) int {
	if p == nil {
		return DefaultRating
	}
	if r, ok := p.RatingsBySpecialty[specialty]; ok {
		return r
	}
	if p.GlobalRating != nil {
		return *p.GlobalRating
	}
	return DefaultRating
}

// WithSpecialtyRating returns a copy of the specialty mapping with specialty set to rating.
func (p *PlayerRating) WithSpecialtyRating(specialty string, rating int) map[string]int {
	merged := make(map[string]int, len(p.RatingsBySpecialty)+1)
	for k, v := range p.RatingsBySpecialty {
		merged[k] = v
	}
	merged[specialty] = rating
	return merged
}

// NewPlayerRating is the row created for a first-time player.
func NewPlayerRating(id, email string) *PlayerRating {
	return &PlayerRating{
		ID:                 id,
		Email:              email,
		GlobalRating:       Int(DefaultRating),
		RatingsBySpecialty: map[string]int{},
	}
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// RatingUpdate is a partial update of a PlayerRating.
// A nil field is left untouched.
type RatingUpdate struct {
	GlobalRating       *int
	RatingsBySpecialty map[string]int
}

// SessionOutcome is a finished quiz as reported by the client.
type SessionOutcome struct {
	Specialty      string
	Correct        int
	Total          int
	DurationMS     int64
	OpponentRating *int
}

// Validate checks the outcome against the settlement policy.
func (o SessionOutcome) Validate() error {
	if strings.TrimSpace(o.Specialty) == "" {
		return NewValidationError(CodeMissingSpecialty, "specialty is required")
	}
	if o.Total < MinQuestions || o.Correct < 0 || o.Correct > o.Total {
		return NewValidationError(CodeInvalidScoreBounds, "correct/total out of bounds")
	}
	if o.DurationMS < 0 {
		return NewValidationError(CodeDurationInvalid, "duration_ms must be a non-negative integer")
	}
	if o.OpponentRating != nil && !ValidOpponentRating(int64(*o.OpponentRating)) {
		return NewValidationError(CodeOpponentRatingInvalid, "opponent_rating out of range")
	}
	return nil
}

// ValidOpponentRating reports whether r lies in [MinOpponentRating, MaxOpponentRating].
func ValidOpponentRating(r int64) bool {
	return r >= MinOpponentRating && r <= MaxOpponentRating
}

// Opponent returns the opponent rating, defaulting to DefaultOpponentRating.
func (o SessionOutcome) Opponent() int {
	if o.OpponentRating == nil {
		return DefaultOpponentRating
	}
	return *o.OpponentRating
}

// GameSessionRecord is the append-only record of a settled quiz.
type GameSessionRecord struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"player_id"`
	Specialty  string    `json:"specialty"`
	Correct    int       `json:"correct"`
	Total      int       `json:"total"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// RatingHistoryRecord is the append-only audit entry of a rating change.
type RatingHistoryRecord struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"player_id"`
	Specialty  string    `json:"specialty"`
	OldRating  int       `json:"old_rating"`
	Delta      int       `json:"delta"`
	NewRating  int       `json:"new_rating"`
	Correct    int       `json:"correct"`
	Total      int       `json:"total"`
	Score      float64   `json:"score"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// LedgerEntry is the rating the audit log implies for one player and specialty:
// the first recorded old rating plus the sum of every recorded delta.
type LedgerEntry struct {
	PlayerID       string
	Specialty      string
	ExpectedRating int
	Sessions       int
}

// LeaderboardEntry is one row of a specialty leaderboard.
type LeaderboardEntry struct {
	Pos      int    `json:"pos"`
	PlayerID string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Rating   int    `json:"rating"`
}

// SettlementResult is returned by a successful settlement.
type SettlementResult struct {
	OldRating     int
	NewRating     int
	Delta         int
	PlayerID      string
	FoundBy       FoundBy
	GameSessionID string
	HistoryID     string
}
