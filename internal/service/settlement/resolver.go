package settlement

import (
	"context"
	"errors"

	"github.com/iamasit07/soloq/internal/domain"
	"go.uber.org/zap"
)

// Resolver maps a verified identity onto the canonical player record.
type Resolver struct {
	players PlayerStore
	log     *zap.Logger
}

func NewResolver(players PlayerStore, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{players: players, log: log}
}

// Resolve looks the player up by primary key, then by email, and creates the
// record as a last resort. A concurrent creator winning the insert race is
// not an error: the row it wrote is re-read.
func (r *Resolver) Resolve(ctx context.Context, id domain.Identity) (*domain.Resolution, error) {
	p, err := r.players.GetByID(ctx, id.PlayerID)
	if err != nil {
		return nil, domain.NewStoreError(domain.StepLookupPlayer, err)
	}
	if p != nil {
		return &domain.Resolution{FoundBy: domain.FoundByPrimary, CanonicalID: p.ID, Player: p}, nil
	}

	if id.Email != "" {
		byEmail, err := r.players.GetByEmail(ctx, id.Email)
		if err != nil {
			return nil, domain.NewStoreError(domain.StepLookupEmail, err)
		}
		if byEmail != nil {
			r.log.Info("identity redirected by email",
				zap.String("presented_id", id.PlayerID),
				zap.String("canonical_id", byEmail.ID))
			return &domain.Resolution{FoundBy: domain.FoundByEmail, CanonicalID: byEmail.ID, Player: byEmail}, nil
		}
	}

	err = r.players.Insert(ctx, domain.NewPlayerRating(id.PlayerID, id.Email))
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		r.log.Debug("player created concurrently, re-reading", zap.String("player_id", id.PlayerID))
	case err != nil:
		return nil, domain.NewStoreError(domain.StepInsertPlayer, err)
	}

	created, err := r.players.GetByID(ctx, id.PlayerID)
	if err != nil {
		return nil, domain.NewStoreError(domain.StepRereadPlayer, err)
	}
	if created == nil {
		return nil, domain.NewStoreError(domain.StepRereadPlayer, domain.ErrNotFound)
	}
	return &domain.Resolution{FoundBy: domain.FoundByCreated, CanonicalID: created.ID, Player: created}, nil
}
