package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/foxcode/shorter/internal/models"
)

// RateLimiter counts shortlink creations per identity in fixed Redis windows.
// A nil client disables limiting.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{redis: rdb, limit: limit, window: window}
}

func rateLimitKey(identity string) string {
	return fmt.Sprintf("shortlink:ratelimit:%s", identity)
}

// Reserve counts one creation against identity before the creation runs, so
// concurrent requests cannot all slip under the limit. Over the limit the
// slot is handed back and ErrRateLimited returned. On success the returned
// release undoes the count and should be called if the creation fails. Redis
// errors are logged and let the request through.
func (l *RateLimiter) Reserve(ctx context.Context, identity string) (release func(), err error) {
	release = func() {}
	if l == nil || l.redis == nil || l.limit <= 0 {
		return release, nil
	}

	key := rateLimitKey(identity)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("[RATELIMIT] reserve failed for %s, allowing: %v", identity, err)
		return release, nil
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			log.Printf("[RATELIMIT] window not set for %s: %v", identity, err)
		}
	}

	release = func() {
		// the request context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := l.redis.Decr(ctx, key).Err(); err != nil {
			log.Printf("[RATELIMIT] release failed for %s: %v", identity, err)
		}
	}

	if count > int64(l.limit) {
		release()
		return func() {}, fmt.Errorf("%w: %d creations per %s", models.ErrRateLimited, l.limit, l.window)
	}
	return release, nil
}
