package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/ports"
	"github.com/tcleary/greeting-service/internal/observability"
)

// RedisCache implements distributed caching using Redis. It lets multiple
// service instances share resolved locations, weather, and greetings so a
// visitor hitting a different instance still gets cache hits.
type RedisCache struct {
	client    *redis.Client
	telemetry *observability.Telemetry
	logger    *zap.Logger
}

// Config holds Redis connection and performance settings.
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRedisCache creates a Redis-backed cache service.
//
// Parameters:
//   - cfg: Redis connection configuration
//   - telemetry: hit/miss counters, may be nil
//   - logger: Zap logger for cache operations
//
// Returns:
//   - ports.CacheService: Redis cache implementation
//   - error: connection error if Redis is unavailable
func NewRedisCache(cfg Config, telemetry *observability.Telemetry, logger *zap.Logger) (ports.CacheService, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client:    rdb,
		telemetry: telemetry,
		logger:    logger,
	}, nil
}

// Get retrieves a value from Redis, returning ErrCacheMiss when the key is
// absent or expired.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	tracer := otel.Tracer("cache")
	ctx, span := tracer.Start(ctx, "RedisCache.Get")

	defer span.End()

	span.SetAttributes(attribute.String("cache.key", key))
	start := time.Now()
	result, err := r.client.Get(ctx, key).Bytes()
	duration := time.Since(start)

	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		r.telemetry.RecordCacheMiss(ctx, keyPrefix(key))

		r.logger.Debug("redis cache miss",
			zap.String("key", key),
			zap.Duration("duration", duration))

		return nil, ErrCacheMiss
	}

	if err != nil {
		span.RecordError(err)

		r.logger.Error("redis cache get error",
			zap.String("key", key),
			zap.Error(err))

		return nil, err
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	r.telemetry.RecordCacheHit(ctx, keyPrefix(key))

	r.logger.Debug("redis cache hit",
		zap.String("key", key),
		zap.Duration("duration", duration))

	return result, nil
}

// Set stores a value in Redis with the given TTL.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	tracer := otel.Tracer("cache")
	ctx, span := tracer.Start(ctx, "RedisCache.Set")

	defer span.End()

	span.SetAttributes(
		attribute.String("cache.key", key),
		attribute.Int("cache.value_size", len(value)),
		attribute.String("cache.ttl", ttl.String()),
	)

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		span.RecordError(err)

		r.logger.Error("redis cache set error",
			zap.String("key", key),
			zap.Error(err))

		return err
	}

	r.logger.Debug("redis cache set", zap.String("key", key))

	return nil
}

// Delete removes a value from Redis.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	tracer := otel.Tracer("cache")
	ctx, span := tracer.Start(ctx, "RedisCache.Delete")

	defer span.End()

	span.SetAttributes(attribute.String("cache.key", key))

	if err := r.client.Del(ctx, key).Err(); err != nil {
		span.RecordError(err)

		r.logger.Error("redis cache delete error",
			zap.String("key", key),
			zap.Error(err))

		return err
	}

	return nil
}

// Clear flushes all values from the Redis database.
func (r *RedisCache) Clear(ctx context.Context) error {
	tracer := otel.Tracer("cache")
	ctx, span := tracer.Start(ctx, "RedisCache.Clear")

	defer span.End()

	if err := r.client.FlushDB(ctx).Err(); err != nil {
		span.RecordError(err)
		r.logger.Error("redis cache clear error", zap.Error(err))

		return err
	}

	r.logger.Info("redis cache cleared")

	return nil
}

// Close closes the Redis client connection.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// ErrCacheMiss indicates a cache key was not found or has expired.
var ErrCacheMiss = redis.Nil
