package settlement_test

import (
	"context"
	"errors"
	"sync"

	"github.com/iamasit07/soloq/internal/domain"
	"github.com/iamasit07/soloq/internal/repository/memory"
)

var errBoom = errors.New("boom")

// faultyPlayers wraps the memory store and fails the named operations.
type faultyPlayers struct {
	*memory.PlayerStore
	failGetByID    bool
	failRereadOnly bool
	failGetByEmail bool
	failInsert     bool
	failUpdate     bool
	raceInsert     bool // another writer creates the row first
	dropInsert     bool // insert reports success but stores nothing

	getByIDCalls int
	writes       int
}

func (f *faultyPlayers) GetByID(ctx context.Context, id string) (*domain.PlayerRating, error) {
	f.getByIDCalls++
	if f.failGetByID || (f.failRereadOnly && f.getByIDCalls > 1) {
		return nil, errBoom
	}
	return f.PlayerStore.GetByID(ctx, id)
}

func (f *faultyPlayers) GetByEmail(ctx context.Context, email string) (*domain.PlayerRating, error) {
	if f.failGetByEmail {
		return nil, errBoom
	}
	return f.PlayerStore.GetByEmail(ctx, email)
}

func (f *faultyPlayers) Insert(ctx context.Context, p *domain.PlayerRating) error {
	if f.failInsert {
		return errBoom
	}
	if f.dropInsert {
		return nil
	}
	f.writes++
	if f.raceInsert {
		other := domain.NewPlayerRating(p.ID, p.Email)
		other.RatingsBySpecialty = map[string]int{"neuro": 1300}
		_ = f.PlayerStore.Insert(ctx, other)
		return domain.ErrDuplicate
	}
	return f.PlayerStore.Insert(ctx, p)
}

func (f *faultyPlayers) UpdateRatings(ctx context.Context, id string, u domain.RatingUpdate) error {
	if f.failUpdate {
		return errBoom
	}
	f.writes++
	return f.PlayerStore.UpdateRatings(ctx, id, u)
}

type faultyAudit struct {
	*memory.AuditStore
	failSession bool
	failHistory bool
}

func (f *faultyAudit) InsertGameSession(ctx context.Context, rec *domain.GameSessionRecord) error {
	if f.failSession {
		return errBoom
	}
	return f.AuditStore.InsertGameSession(ctx, rec)
}

func (f *faultyAudit) InsertRatingHistory(ctx context.Context, rec *domain.RatingHistoryRecord) error {
	if f.failHistory {
		return errBoom
	}
	return f.AuditStore.InsertRatingHistory(ctx, rec)
}

// barrierPlayers holds every GetByID caller until n callers have read,
// forcing overlapping settlements to observe the same base rating.
type barrierPlayers struct {
	*memory.PlayerStore
	arrived sync.WaitGroup
}

func newBarrierPlayers(inner *memory.PlayerStore, n int) *barrierPlayers {
	b := &barrierPlayers{PlayerStore: inner}
	b.arrived.Add(n)
	return b
}

func (b *barrierPlayers) GetByID(ctx context.Context, id string) (*domain.PlayerRating, error) {
	p, err := b.PlayerStore.GetByID(ctx, id)
	b.arrived.Done()
	b.arrived.Wait()
	return p, err
}

type recordingCache struct {
	mu          sync.Mutex
	invalidated []string
	err         error
}

func (c *recordingCache) Invalidate(_ context.Context, specialty string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, specialty)
	return c.err
}
