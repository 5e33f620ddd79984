package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepThreshold bounds how many buckets accumulate before expired ones are dropped.
const sweepThreshold = 10_000

type bucket struct {
	count int
	reset time.Time
}

// MemoryLimiter is a single-process limiter. Counts are not shared between
// instances, so it is only a fallback for when Redis is unavailable.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]*bucket), now: time.Now}
}

// Hit never returns an error. A rejected hit does not count against the window.
func (l *MemoryLimiter) Hit(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || now.After(b.reset) {
		if len(l.buckets) >= sweepThreshold {
			l.sweep(now)
		}
		b = &bucket{count: 1, reset: now.Add(window)}
		l.buckets[key] = b
		return Result{Allowed: true, Remaining: remaining(limit, 1), Reset: b.reset}, nil
	}
	if b.count >= limit {
		return Result{Allowed: false, Remaining: 0, Reset: b.reset}, nil
	}
	b.count++
	return Result{Allowed: true, Remaining: remaining(limit, b.count), Reset: b.reset}, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.After(b.reset) {
			delete(l.buckets, k)
		}
	}
}
