package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iamasit07/soloq/internal/domain"
)

// AuditStore keeps the append-only game session and rating history logs.
type AuditStore struct {
	mu       sync.RWMutex
	sessions []domain.GameSessionRecord
	history  []domain.RatingHistoryRecord
	now      func() time.Time
}

func NewAuditStore() *AuditStore {
	return &AuditStore{now: time.Now}
}

func (s *AuditStore) InsertGameSession(_ context.Context, rec *domain.GameSessionRecord) error {
	if rec == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *rec
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.sessions = append(s.sessions, c)
	return nil
}

func (s *AuditStore) InsertRatingHistory(_ context.Context, rec *domain.RatingHistoryRecord) error {
	if rec == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *rec
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.history = append(s.history, c)
	return nil
}

// ListRatingHistory returns the newest records first. An empty specialty matches all.
func (s *AuditStore) ListRatingHistory(_ context.Context, playerID, specialty string, limit int) ([]domain.RatingHistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RatingHistoryRecord, 0)
	for i := len(s.history) - 1; i >= 0; i-- {
		h := s.history[i]
		if h.PlayerID != playerID || (specialty != "" && h.Specialty != specialty) {
			continue
		}
		out = append(out, h)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *AuditStore) CountGameSessions(_ context.Context, playerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, g := range s.sessions {
		if g.PlayerID == playerID {
			n++
		}
	}
	return n, nil
}

// RatingLedger folds the history log into the rating each player and
// specialty should hold: the first old rating plus every delta since.
func (s *AuditStore) RatingLedger(_ context.Context) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type key struct{ player, specialty string }
	index := make(map[key]int)
	out := make([]domain.LedgerEntry, 0)
	for _, h := range s.history {
		k := key{h.PlayerID, h.Specialty}
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, domain.LedgerEntry{
				PlayerID:       h.PlayerID,
				Specialty:      h.Specialty,
				ExpectedRating: h.OldRating,
			})
			i = len(out) - 1
		}
		out[i].ExpectedRating += h.Delta
		out[i].Sessions++
	}
	return out, nil
}

// Sessions returns a copy of the game session log.
func (s *AuditStore) Sessions() []domain.GameSessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.GameSessionRecord(nil), s.sessions...)
}

// History returns a copy of the rating history log, oldest first.
func (s *AuditStore) History() []domain.RatingHistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.RatingHistoryRecord(nil), s.history...)
}
