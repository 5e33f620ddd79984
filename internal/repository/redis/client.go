package redis

import (
	"context"
	"errors"
	"time"

	"github.com/iamasit07/soloq/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect dials Redis and pings it. It returns nil when Addr is empty or the
// server is unreachable; callers fall back to in-process implementations.
func Connect(ctx context.Context, opts Options, log *zap.Logger) *redis.Client {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Addr == "" {
		log.Info("redis disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("could not connect to redis, falling back to in-memory rate limiting and no leaderboard cache",
			zap.String("addr", opts.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}

	log.Info("redis connected", zap.String("addr", opts.Addr))
	return client
}

// RedisCache acts as a wrapper around redis.Client to implement the cache
// repository used by the ranking service.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Set stores a key-value pair with expiration
func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value by key. A missing key is domain.ErrNotFound.
func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	return val, err
}

// Del deletes keys
func (r *RedisCache) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}
