package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aniladanir/imonnit-sms-connector/internal/cache"
	"github.com/aniladanir/retry"
	"github.com/go-redis/redis/v8"
)

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new redis cache that complies with cache interface.
// The instance is pinged up to maxAttempts times before giving up.
func NewRedisCache(ctx context.Context, addr string, maxAttempts int) (*RedisCache, error) {
	rClient := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	retrierOpts := make([]retry.Option, 0, 1)
	if maxAttempts > 0 {
		retrierOpts = append(retrierOpts, retry.WithMaxAttemps(maxAttempts))
	}
	retrier, err := retry.New(retrierOpts...)
	if err != nil {
		return nil, fmt.Errorf("encountered error when initializing retrier: %w", err)
	}

	var pingErr error
	reachable := <-retrier.Retry(ctx, func(attempt int) (terminate bool) {
		pingErr = rClient.Ping(ctx).Err()
		return pingErr == nil
	}, true)
	if !reachable {
		rClient.Close()
		return nil, fmt.Errorf("failed to ping redis instance: %w", pingErr)
	}

	return &RedisCache{
		client: rClient,
	}, nil
}

func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", cache.ErrMiss
	}
	return val, err
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
