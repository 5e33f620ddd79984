// Package settlement turns a finished quiz into a persisted rating change.
//
// A settlement runs five steps in order: resolve the player, pick the
// current rating, compute the delta, append the game session and rating
// history records, then write the merged ratings back. The steps are not
// transactional. Two settlements for the same player and specialty that
// overlap both read the same base rating; both audit records are kept and
// the later update wins, so one delta is lost. The reconcile worker detects
// that drift from the history log.
package settlement

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iamasit07/soloq/internal/domain"
	"github.com/iamasit07/soloq/pkg/metrics"
	"github.com/iamasit07/soloq/pkg/uid"
	"go.uber.org/zap"
)

type PlayerStore interface {
	GetByID(ctx context.Context, id string) (*domain.PlayerRating, error)
	GetByEmail(ctx context.Context, email string) (*domain.PlayerRating, error)
	Insert(ctx context.Context, p *domain.PlayerRating) error
	UpdateRatings(ctx context.Context, id string, u domain.RatingUpdate) error
}

type AuditStore interface {
	InsertGameSession(ctx context.Context, rec *domain.GameSessionRecord) error
	InsertRatingHistory(ctx context.Context, rec *domain.RatingHistoryRecord) error
}

// LeaderboardInvalidator drops cached leaderboards after a rating moves.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context, specialty string) error
}

// Options tunes a Service. With UpdateGlobalRating off only the specialty
// rating moves.
type Options struct {
	UpdateGlobalRating bool
}

func DefaultOptions() Options {
	return Options{UpdateGlobalRating: true}
}

type Service struct {
	players  PlayerStore
	audit    AuditStore
	resolver *Resolver
	cache    LeaderboardInvalidator // optional
	opts     Options
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(players PlayerStore, audit AuditStore, cache LeaderboardInvalidator, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("settlement")
	return &Service{
		players:  players,
		audit:    audit,
		resolver: NewResolver(players, log),
		cache:    cache,
		opts:     opts,
		log:      log,
		now:      time.Now,
		newID:    uid.New,
	}
}

// Settle validates the identity and outcome, then applies the rating change.
// Errors are *domain.IdentityError, *domain.ValidationError or
// *domain.StoreError. Writes made before a failing step stay in place.
func (s *Service) Settle(ctx context.Context, id domain.Identity, outcome domain.SessionOutcome) (*domain.SettlementResult, error) {
	if strings.TrimSpace(id.PlayerID) == "" {
		metrics.RecordSettlement("identity")
		return nil, domain.NewIdentityError(domain.CodeInvalidIDToken, errors.New("identity has no player id"))
	}
	outcome.Specialty = strings.TrimSpace(outcome.Specialty)
	if err := outcome.Validate(); err != nil {
		metrics.RecordSettlement("validation")
		return nil, err
	}

	res, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, s.storeFailure(err)
	}

	current := res.Player.CurrentRating(outcome.Specialty)
	score := domain.Score(outcome.Correct, outcome.Total)
	delta := domain.Delta(current, score, outcome.Opponent())
	newRating := current + delta
	now := s.now()

	session := &domain.GameSessionRecord{
		ID:         s.newID(),
		PlayerID:   res.CanonicalID,
		Specialty:  outcome.Specialty,
		Correct:    outcome.Correct,
		Total:      outcome.Total,
		DurationMS: outcome.DurationMS,
		CreatedAt:  now,
	}
	if err := s.audit.InsertGameSession(ctx, session); err != nil {
		return nil, s.storeFailure(domain.NewStoreError(domain.StepInsertGameSession, err))
	}

	history := &domain.RatingHistoryRecord{
		ID:         s.newID(),
		PlayerID:   res.CanonicalID,
		Specialty:  outcome.Specialty,
		OldRating:  current,
		Delta:      delta,
		NewRating:  newRating,
		Correct:    outcome.Correct,
		Total:      outcome.Total,
		Score:      score,
		DurationMS: outcome.DurationMS,
		CreatedAt:  now,
	}
	if err := s.audit.InsertRatingHistory(ctx, history); err != nil {
		return nil, s.storeFailure(domain.NewStoreError(domain.StepInsertRatingHistory, err))
	}

	update := domain.RatingUpdate{
		RatingsBySpecialty: res.Player.WithSpecialtyRating(outcome.Specialty, newRating),
	}
	if s.opts.UpdateGlobalRating {
		update.GlobalRating = domain.Int(newRating)
	}
	if err := s.players.UpdateRatings(ctx, res.CanonicalID, update); err != nil {
		return nil, s.storeFailure(domain.NewStoreError(domain.StepUpdateRating, err))
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, outcome.Specialty); err != nil {
			s.log.Warn("leaderboard cache invalidation failed",
				zap.String("specialty", outcome.Specialty), zap.Error(err))
		}
	}

	metrics.RecordSettlement("ok")
	metrics.RecordRatingDelta(delta)
	s.log.Info("session settled",
		zap.String("player_id", res.CanonicalID),
		zap.String("found_by", string(res.FoundBy)),
		zap.String("specialty", outcome.Specialty),
		zap.Int("old_rating", current),
		zap.Int("delta", delta),
		zap.Int("new_rating", newRating),
		zap.String("game_session_id", session.ID))

	return &domain.SettlementResult{
		OldRating:     current,
		NewRating:     newRating,
		Delta:         delta,
		PlayerID:      res.CanonicalID,
		FoundBy:       res.FoundBy,
		GameSessionID: session.ID,
		HistoryID:     history.ID,
	}, nil
}

func (s *Service) storeFailure(err error) error {
	var serr *domain.StoreError
	if errors.As(err, &serr) {
		metrics.RecordStoreError(string(serr.Step))
		s.log.Error("settlement store failure", zap.String("step", string(serr.Step)), zap.Error(serr.Err))
	}
	metrics.RecordSettlement("store")
	return err
}
