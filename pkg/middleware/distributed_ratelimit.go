package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

// DistributedRateLimiter implements rate limiting using Redis.
// This allows rate limits to be shared across multiple instances.
type DistributedRateLimiter struct {
	redis  *redis.Client
	config *RateLimitConfig
	prefix string
}

// NewDistributedRateLimiter creates a new Redis-backed rate limiter
func NewDistributedRateLimiter(redisClient *redis.Client, config *RateLimitConfig, prefix string) *DistributedRateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if prefix == "" {
		prefix = "ratelimit"
	}

	return &DistributedRateLimiter{
		redis:  redisClient,
		config: config,
		prefix: prefix,
	}
}

// Allow checks if a request is allowed using a Redis-backed counter
// window. On Redis errors it fails open and returns the error for the
// caller to log.
func (rl *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.WindowDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("redis error: %w", err)
	}

	return incr.Val() <= int64(rl.config.RequestsPerWindow), nil
}

// TTL returns the time until the rate limit window resets
func (rl *DistributedRateLimiter) TTL(ctx context.Context, key string) (time.Duration, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)
	return rl.redis.TTL(ctx, redisKey).Result()
}

// Reset clears the rate limit for a key (for testing or admin purposes)
func (rl *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)
	return rl.redis.Del(ctx, redisKey).Err()
}

// LoginRateLimitMiddleware throttles credential endpoints per client IP
// using Redis so the budget holds across instances. It fails open on
// Redis errors so a cache outage never locks users out.
type LoginRateLimitMiddleware struct {
	limiter *DistributedRateLimiter
}

// NewLoginRateLimitMiddleware creates a Redis-backed login throttle.
func NewLoginRateLimitMiddleware(redisClient *redis.Client) *LoginRateLimitMiddleware {
	return &LoginRateLimitMiddleware{
		limiter: NewDistributedRateLimiter(redisClient, LoginRateLimitConfig(), "ratelimit:login"),
	}
}

// Handler wraps a credential endpoint with the per-IP login throttle.
func (m *LoginRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := "ip:" + getClientIP(r)

		allowed, err := m.limiter.Allow(ctx, key)
		if err != nil {
			// Fail open on Redis error.
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			retryAfter := m.limiter.config.WindowDuration.Seconds()
			if ttl, err := m.limiter.TTL(ctx, key); err == nil && ttl > 0 {
				retryAfter = ttl.Seconds()
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter))
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many login attempts","retry_after":` + fmt.Sprintf("%.0f", retryAfter) + `}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HealthCheck verifies Redis connectivity for rate limiting
func (m *LoginRateLimitMiddleware) HealthCheck(ctx context.Context) error {
	return m.limiter.redis.Ping(ctx).Err()
}
