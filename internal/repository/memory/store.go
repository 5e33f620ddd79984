// Package memory holds mutex-guarded in-memory stores used when no database
// is configured and by service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iamasit07/soloq/internal/domain"
)

// PlayerStore keeps player ratings in a map.
type PlayerStore struct {
	mu      sync.RWMutex
	players map[string]*domain.PlayerRating
	order   []string // insertion order, oldest first
	now     func() time.Time
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		players: make(map[string]*domain.PlayerRating),
		now:     time.Now,
	}
}

func clonePlayer(p *domain.PlayerRating) *domain.PlayerRating {
	if p == nil {
		return nil
	}
	c := *p
	if p.GlobalRating != nil {
		c.GlobalRating = domain.Int(*p.GlobalRating)
	}
	c.RatingsBySpecialty = make(map[string]int, len(p.RatingsBySpecialty))
	for k, v := range p.RatingsBySpecialty {
		c.RatingsBySpecialty[k] = v
	}
	return &c
}

// GetByID returns nil, nil when no player has id.
func (s *PlayerStore) GetByID(_ context.Context, id string) (*domain.PlayerRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePlayer(s.players[id]), nil
}

// GetByEmail returns the oldest player with email, or nil, nil.
func (s *PlayerStore) GetByEmail(_ context.Context, email string) (*domain.PlayerRating, error) {
	if email == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if p := s.players[id]; p.Email == email {
			return clonePlayer(p), nil
		}
	}
	return nil, nil
}

func (s *PlayerStore) Insert(_ context.Context, p *domain.PlayerRating) error {
	if p == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.players[p.ID]; exists {
		return domain.ErrDuplicate
	}
	c := clonePlayer(p)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.players[c.ID] = c
	s.order = append(s.order, c.ID)
	return nil
}

func (s *PlayerStore) UpdateRatings(_ context.Context, id string, u domain.RatingUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return domain.ErrNotFound
	}
	if u.GlobalRating != nil {
		p.GlobalRating = domain.Int(*u.GlobalRating)
	}
	if u.RatingsBySpecialty != nil {
		ratings := make(map[string]int, len(u.RatingsBySpecialty))
		for k, v := range u.RatingsBySpecialty {
			ratings[k] = v
		}
		p.RatingsBySpecialty = ratings
	}
	return nil
}

// SetSpecialtyRating writes one specialty rating and leaves the others as stored.
func (s *PlayerStore) SetSpecialtyRating(_ context.Context, id, specialty string, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.RatingsBySpecialty == nil {
		p.RatingsBySpecialty = make(map[string]int, 1)
	}
	p.RatingsBySpecialty[specialty] = rating
	return nil
}

// Leaderboard ranks players that have a rating in specialty, best first.
func (s *PlayerStore) Leaderboard(_ context.Context, specialty string, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	type row struct {
		p      *domain.PlayerRating
		rating int
	}
	rows := make([]row, 0, len(s.players))
	for _, id := range s.order {
		p := s.players[id]
		if r, ok := p.RatingsBySpecialty[specialty]; ok {
			rows = append(rows, row{p: p, rating: r})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].rating != rows[j].rating {
			return rows[i].rating > rows[j].rating
		}
		return rows[i].p.ID < rows[j].p.ID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		entries = append(entries, domain.LeaderboardEntry{
			Pos:      i + 1,
			PlayerID: r.p.ID,
			Email:    r.p.Email,
			Rating:   r.rating,
		})
	}
	return entries, nil
}

// List pages through players in creation order.
func (s *PlayerStore) List(_ context.Context, offset, limit int) ([]*domain.PlayerRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(s.order) {
		return []*domain.PlayerRating{}, nil
	}
	ids := s.order[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*domain.PlayerRating, 0, len(ids))
	for _, id := range ids {
		out = append(out, clonePlayer(s.players[id]))
	}
	return out, nil
}
