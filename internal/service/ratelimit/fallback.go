package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Fallback tries the primary limiter and, when it errors, answers from the
// secondary one so a Redis outage degrades to per-instance limits instead
// of failing requests.
type Fallback struct {
	primary   Limiter
	secondary Limiter
	log       *zap.Logger
}

func NewFallback(primary, secondary Limiter, log *zap.Logger) *Fallback {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fallback{primary: primary, secondary: secondary, log: log.Named("ratelimit")}
}

func (f *Fallback) Hit(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	res, err := f.primary.Hit(ctx, key, limit, window)
	if err == nil {
		return res, nil
	}
	f.log.Warn("primary limiter failed, using fallback", zap.String("key", key), zap.Error(err))
	return f.secondary.Hit(ctx, key, limit, window)
}
