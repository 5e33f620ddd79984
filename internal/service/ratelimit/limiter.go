// Package ratelimit implements fixed-window request limits.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one hit against a window.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter counts hits per key in fixed windows. Only allowed hits are
// counted: once a window is exhausted further hits are rejected without
// touching the count, and the first hit of a fresh window always passes.
type Limiter interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

func remaining(limit, count int) int {
	if r := limit - count; r > 0 {
		return r
	}
	return 0
}
