// Package reconcile compares live specialty ratings with the rating history
// ledger. Concurrent settlements for one player can lose an update; the
// ledger still records both deltas, so the drift shows up here.
package reconcile

import (
	"context"
	"time"

	"github.com/iamasit07/soloq/internal/domain"
	"github.com/iamasit07/soloq/pkg/metrics"
	"go.uber.org/zap"
)

type LedgerReader interface {
	RatingLedger(ctx context.Context) ([]domain.LedgerEntry, error)
}

type PlayerStore interface {
	GetByID(ctx context.Context, id string) (*domain.PlayerRating, error)
	SetSpecialtyRating(ctx context.Context, id, specialty string, rating int) error
	List(ctx context.Context, offset, limit int) ([]*domain.PlayerRating, error)
}

const pageSize = 200

// Drift is one player and specialty whose live rating disagrees with the ledger.
// Missing means the ledger has entries the player row lacks; Orphan means the
// player row has a rating the ledger never recorded. Orphans are never repaired.
type Drift struct {
	PlayerID  string
	Specialty string
	Live      int
	Expected  int
	Missing   bool
	Orphan    bool
}

// Report summarises one pass.
type Report struct {
	Checked  int
	Drifted  []Drift
	Repaired int
}

type Worker struct {
	ledger   LedgerReader
	players  PlayerStore
	interval time.Duration
	repair   bool
	log      *zap.Logger
}

func NewWorker(ledger LedgerReader, players PlayerStore, interval time.Duration, repair bool, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{ledger: ledger, players: players, interval: interval, repair: repair, log: log.Named("reconcile")}
}

// Start runs a pass immediately and then on every tick until ctx is done.
// A non-positive interval disables the worker.
func (w *Worker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Info("reconcile worker disabled")
		return
	}
	w.log.Info("reconcile worker started", zap.Duration("interval", w.interval), zap.Bool("repair", w.repair))

	w.runLogged(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("reconcile worker stopped")
			return
		case <-ticker.C:
			w.runLogged(ctx)
		}
	}
}

func (w *Worker) runLogged(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
		w.log.Error("reconcile pass failed", zap.Error(err))
	}
}

// RunOnce checks every ledger entry against the live rating.
func (w *Worker) RunOnce(ctx context.Context) (*Report, error) {
	entries, err := w.ledger.RatingLedger(ctx)
	if err != nil {
		metrics.RecordReconcileRun("error")
		return nil, err
	}

	report := &Report{}
	type key struct{ player, specialty string }
	seen := make(map[key]struct{}, len(entries))
	for _, e := range entries {
		seen[key{e.PlayerID, e.Specialty}] = struct{}{}
	}

	for _, e := range entries {
		report.Checked++
		p, err := w.players.GetByID(ctx, e.PlayerID)
		if err != nil {
			metrics.RecordReconcileRun("error")
			return report, err
		}
		if p == nil {
			continue
		}

		live, ok := p.RatingsBySpecialty[e.Specialty]
		if ok && live == e.ExpectedRating {
			continue
		}
		d := Drift{PlayerID: e.PlayerID, Specialty: e.Specialty, Live: live, Expected: e.ExpectedRating, Missing: !ok}
		report.Drifted = append(report.Drifted, d)
		w.log.Warn("rating drift",
			zap.String("player_id", d.PlayerID),
			zap.String("specialty", d.Specialty),
			zap.Int("live", d.Live),
			zap.Int("expected", d.Expected),
			zap.Bool("missing", d.Missing),
			zap.Int("sessions", e.Sessions),
		)

		if !w.repair {
			continue
		}
		// Only the drifted key is written so a settlement in another
		// specialty since GetByID is not overwritten.
		if err := w.players.SetSpecialtyRating(ctx, p.ID, e.Specialty, e.ExpectedRating); err != nil {
			metrics.RecordReconcileRun("error")
			return report, err
		}
		report.Repaired++
	}

	for offset := 0; ; offset += pageSize {
		page, err := w.players.List(ctx, offset, pageSize)
		if err != nil {
			metrics.RecordReconcileRun("error")
			return report, err
		}
		for _, p := range page {
			for specialty, live := range p.RatingsBySpecialty {
				if _, ok := seen[key{p.ID, specialty}]; ok {
					continue
				}
				report.Drifted = append(report.Drifted, Drift{PlayerID: p.ID, Specialty: specialty, Live: live, Orphan: true})
				w.log.Warn("rating without history",
					zap.String("player_id", p.ID),
					zap.String("specialty", specialty),
					zap.Int("live", live),
				)
			}
		}
		if len(page) < pageSize {
			break
		}
	}

	metrics.UpdateRatingDrift(len(report.Drifted) - report.Repaired)
	metrics.RecordReconcileRun("ok")
	w.log.Info("reconcile pass finished",
		zap.Int("checked", report.Checked),
		zap.Int("drifted", len(report.Drifted)),
		zap.Int("repaired", report.Repaired),
	)
	return report, nil
}
