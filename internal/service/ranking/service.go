// Package ranking serves the read side: leaderboards, profiles and rating history.
package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/iamasit07/soloq/internal/domain"
	"github.com/iamasit07/soloq/pkg/metrics"
	"go.uber.org/zap"
)

const leaderboardKeyPrefix = "leaderboard:"

type PlayerReader interface {
	GetByID(ctx context.Context, id string) (*domain.PlayerRating, error)
	GetByEmail(ctx context.Context, email string) (*domain.PlayerRating, error)
	Leaderboard(ctx context.Context, specialty string, limit int) ([]domain.LeaderboardEntry, error)
}

type HistoryReader interface {
	ListRatingHistory(ctx context.Context, playerID, specialty string, limit int) ([]domain.RatingHistoryRecord, error)
	CountGameSessions(ctx context.Context, playerID string) (int, error)
}

type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type Options struct {
	DefaultLimit int
	MaxLimit     int
	CacheTTL     time.Duration
}

// Leaderboard is one specialty's ranking.
type Leaderboard struct {
	Specialty string                    `json:"specialty"`
	Rows      []domain.LeaderboardEntry `json:"rows"`
	Cached    bool                      `json:"-"`
}

// Profile is what a player sees about themselves.
type Profile struct {
	PlayerID           string         `json:"player_id"`
	Email              string         `json:"email,omitempty"`
	GlobalRating       int            `json:"global_rating"`
	RatingsBySpecialty map[string]int `json:"ratings_by_specialty"`
	GamesPlayed        int            `json:"games_played"`
}

type Service struct {
	players PlayerReader
	history HistoryReader
	cache   CacheRepository // Optional, can be nil
	opts    Options
	log     *zap.Logger
}

func NewService(players PlayerReader, history HistoryReader, cache CacheRepository, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	return &Service{players: players, history: history, cache: cache, opts: opts, log: log.Named("ranking")}
}

// ClampLimit maps a requested row count into [1, MaxLimit]; zero or less
// means the default.
func (s *Service) ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return s.opts.DefaultLimit
	case limit > s.opts.MaxLimit:
		return s.opts.MaxLimit
	default:
		return limit
	}
}

func leaderboardKey(specialty string) string {
	return leaderboardKeyPrefix + specialty
}

// Leaderboard returns the top rows for specialty. The cache holds the full
// MaxLimit ranking per specialty and smaller requests are sliced from it.
func (s *Service) Leaderboard(ctx context.Context, specialty string, limit int) (*Leaderboard, error) {
	specialty = strings.TrimSpace(specialty)
	if specialty == "" {
		return nil, domain.NewValidationError(domain.CodeInvalidQueryParameters, "specialty is required")
	}
	limit = s.ClampLimit(limit)

	if rows, ok := s.cachedLeaderboard(ctx, specialty); ok {
		return &Leaderboard{Specialty: specialty, Rows: truncate(rows, limit), Cached: true}, nil
	}

	rows, err := s.players.Leaderboard(ctx, specialty, s.opts.MaxLimit)
	if err != nil {
		return nil, domain.NewStoreError(domain.StepRead, err)
	}

	if s.cache != nil && s.opts.CacheTTL > 0 {
		if data, err := json.Marshal(rows); err == nil {
			if cacheErr := s.cache.Set(ctx, leaderboardKey(specialty), data, s.opts.CacheTTL); cacheErr != nil {
				s.log.Warn("failed to cache leaderboard", zap.String("specialty", specialty), zap.Error(cacheErr))
			}
		}
	}

	return &Leaderboard{Specialty: specialty, Rows: truncate(rows, limit)}, nil
}

func (s *Service) cachedLeaderboard(ctx context.Context, specialty string) ([]domain.LeaderboardEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, leaderboardKey(specialty))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.RecordLeaderboardCache("miss")
		} else {
			metrics.RecordLeaderboardCache("error")
			s.log.Warn("leaderboard cache read failed", zap.String("specialty", specialty), zap.Error(err))
		}
		return nil, false
	}
	var rows []domain.LeaderboardEntry
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		metrics.RecordLeaderboardCache("error")
		return nil, false
	}
	metrics.RecordLeaderboardCache("hit")
	return rows, true
}

// Invalidate drops the cached ranking of specialty.
func (s *Service) Invalidate(ctx context.Context, specialty string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, leaderboardKey(specialty))
}

func truncate(rows []domain.LeaderboardEntry, limit int) []domain.LeaderboardEntry {
	if rows == nil {
		return []domain.LeaderboardEntry{}
	}
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

// Profile reads the caller's record, following the same email redirect the
// settlement uses. It never creates a player; an unknown caller is ErrNotFound.
func (s *Service) Profile(ctx context.Context, id domain.Identity) (*Profile, error) {
	p, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	games, err := s.history.CountGameSessions(ctx, p.ID)
	if err != nil {
		return nil, domain.NewStoreError(domain.StepRead, err)
	}

	ratings := p.RatingsBySpecialty
	if ratings == nil {
		ratings = map[string]int{}
	}
	global := domain.DefaultRating
	if p.GlobalRating != nil {
		global = *p.GlobalRating
	}
	return &Profile{
		PlayerID:           p.ID,
		Email:              p.Email,
		GlobalRating:       global,
		RatingsBySpecialty: ratings,
		GamesPlayed:        games,
	}, nil
}

// History lists the caller's rating changes, newest first.
func (s *Service) History(ctx context.Context, id domain.Identity, specialty string, limit int) ([]domain.RatingHistoryRecord, error) {
	p, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	records, err := s.history.ListRatingHistory(ctx, p.ID, strings.TrimSpace(specialty), s.ClampLimit(limit))
	if err != nil {
		return nil, domain.NewStoreError(domain.StepRead, err)
	}
	return records, nil
}

func (s *Service) lookup(ctx context.Context, id domain.Identity) (*domain.PlayerRating, error) {
	p, err := s.players.GetByID(ctx, id.PlayerID)
	if err != nil {
		return nil, domain.NewStoreError(domain.StepLookupPlayer, err)
	}
	if p == nil && id.Email != "" {
		p, err = s.players.GetByEmail(ctx, id.Email)
		if err != nil {
			return nil, domain.NewStoreError(domain.StepLookupEmail, err)
		}
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}
