package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// hitScript counts a hit only while the window has budget left, so rejected
// hits do not extend the count. The first hit of a window is always counted.
// A counter that lost its TTL is re-armed.
var hitScript = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
local allowed = 0
if n == 0 or n < tonumber(ARGV[2]) then
  n = redis.call('INCR', KEYS[1])
  allowed = 1
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl, allowed}
`)

// RedisLimiter shares fixed windows across instances through Redis.
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, now: time.Now}
}

func (l *RedisLimiter) Hit(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	vals, err := hitScript.Run(ctx, l.client, []string{keyPrefix + key}, window.Milliseconds(), limit).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit hit %s: %w", key, err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("rate limit hit %s: unexpected reply %v", key, vals)
	}

	count := int(vals[0])
	reset := l.now().Add(time.Duration(vals[1]) * time.Millisecond)
	return Result{
		Allowed:   vals[2] == 1,
		Remaining: remaining(limit, count),
		Reset:     reset,
	}, nil
}
