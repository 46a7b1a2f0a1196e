// Package ratelimit provides distributed rate limiting using Redis.
// It implements sliding window rate limiting with atomic operations
// to ensure accurate counting across multiple service instances.
package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/ports"
)

// RedisRateLimiter implements distributed rate limiting using Redis.
type RedisRateLimiter struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisRateLimiter creates a Redis-based rate limiter.
//
// Parameters:
//   - client: Redis client for distributed state
//   - logger: Zap logger for rate limiting events
//
// Returns:
//   - ports.RateLimitService: Redis rate limiter implementation
func NewRedisRateLimiter(client *redis.Client, logger *zap.Logger) ports.RateLimitService {
	return &RedisRateLimiter{
		client: client,
		logger: logger,
	}
}

// Allow checks if a request from identifier is allowed under the rate limit.
// The window is trimmed and counted atomically with a Lua script.
func (r *RedisRateLimiter) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error) {
	tracer := otel.Tracer("ratelimit")
	ctx, span := tracer.Start(ctx, "RateLimit.Allow")

	defer span.End()

	span.SetAttributes(
		attribute.String("ratelimit.identifier", identifier),
		attribute.Int("ratelimit.limit", limit),
		attribute.String("ratelimit.window", window.String()),
	)

	key := "ratelimit:" + identifier

	luaScript := `
        local key = KEYS[1]
        local limit = tonumber(ARGV[1])
        local window = tonumber(ARGV[2])
        local now = tonumber(ARGV[3])

        redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

        local current = redis.call('ZCARD', key)

        if current < limit then
            redis.call('ZADD', key, now, now)
            redis.call('EXPIRE', key, window)
            return 1
        else
            return 0
        end
    `

	now := time.Now().Unix()
	result, err := r.client.Eval(ctx, luaScript, []string{key}, limit, int(window.Seconds()), now).Result()

	if err != nil {
		span.RecordError(err)

		r.logger.Error("rate limit eval error",
			zap.String("identifier", identifier),
			zap.Error(err))

		return false, err
	}

	allowed := result.(int64) == 1
	span.SetAttributes(attribute.Bool("ratelimit.allowed", allowed))

	if !allowed {
		r.logger.Debug("rate limit exceeded",
			zap.String("identifier", identifier),
			zap.Int("limit", limit))
	}

	return allowed, nil
}

// Reset clears the rate limit history for an identifier.
func (r *RedisRateLimiter) Reset(ctx context.Context, identifier string) error {
	tracer := otel.Tracer("ratelimit")
	ctx, span := tracer.Start(ctx, "RateLimit.Reset")

	defer span.End()

	span.SetAttributes(attribute.String("ratelimit.identifier", identifier))

	return r.client.Del(ctx, "ratelimit:"+identifier).Err()
}
