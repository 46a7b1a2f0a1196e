// Package cache provides the caching implementations used by the greeting
// pipeline. It includes an in-process cache with lazy TTL expiry and a
// Redis-backed cache for multi-instance deployments, both instrumented
// with OpenTelemetry.
package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/ports"
	"github.com/tcleary/greeting-service/internal/observability"
)

// MemoryCache is the in-process cache backing the pipeline by default.
// Expired entries are treated as absent on read; with a zero cleanup interval
// no background sweep runs, so dead entries are never deleted and the map is
// bounded only by the distinct keys seen during the process lifetime.
type MemoryCache struct {
	cache     *gocache.Cache
	telemetry *observability.Telemetry
	logger    *zap.Logger
}

// NewMemoryCache creates an in-process cache.
//
// Parameters:
//   - defaultTTL: TTL applied when a caller passes a zero TTL to Set
//   - cleanupInterval: background sweep period; <= 0 disables the sweeper,
//     leaving expired entries in the map but invisible to Get
//   - telemetry: hit/miss counters, may be nil
//   - logger: Zap logger for cache operations
//
// Returns:
//   - ports.CacheService: in-process cache implementation
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration, telemetry *observability.Telemetry, logger *zap.Logger) ports.CacheService {
	return &MemoryCache{
		cache:     gocache.New(defaultTTL, cleanupInterval),
		telemetry: telemetry,
		logger:    logger,
	}
}

// keyPrefix reduces a cache key like "location:1.2.3.4" to its namespace for
// metric labels, keeping cardinality bounded.
func keyPrefix(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}

	return key
}

// Get retrieves a value by key. Expired entries are treated as absent and
// return ErrCacheMiss; Get never returns a value past its expiry.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	tracer := otel.Tracer("cache")
	_, span := tracer.Start(ctx, "MemoryCache.Get")

	defer span.End()

	span.SetAttributes(attribute.String("cache.key", key))

	if value, found := m.cache.Get(key); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		m.telemetry.RecordCacheHit(ctx, keyPrefix(key))
		m.logger.Debug("memory cache hit", zap.String("key", key))

		return value.([]byte), nil
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))
	m.telemetry.RecordCacheMiss(ctx, keyPrefix(key))
	m.logger.Debug("memory cache miss", zap.String("key", key))

	return nil, ErrCacheMiss
}

// Set stores a value under key with the given TTL, replacing any existing
// entry for that key.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	tracer := otel.Tracer("cache")
	_, span := tracer.Start(ctx, "MemoryCache.Set")

	defer span.End()

	span.SetAttributes(
		attribute.String("cache.key", key),
		attribute.Int("cache.value_size", len(value)),
		attribute.String("cache.ttl", ttl.String()),
	)

	m.cache.Set(key, value, ttl)
	m.logger.Debug("memory cache set", zap.String("key", key), zap.Duration("ttl", ttl))

	return nil
}

// Delete removes the entry for key if present.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	tracer := otel.Tracer("cache")
	_, span := tracer.Start(ctx, "MemoryCache.Delete")

	defer span.End()

	span.SetAttributes(attribute.String("cache.key", key))
	m.cache.Delete(key)
	m.logger.Debug("memory cache delete", zap.String("key", key))

	return nil
}

// Clear empties the entire store. Used for test isolation and administrative
// reset.
func (m *MemoryCache) Clear(ctx context.Context) error {
	tracer := otel.Tracer("cache")
	_, span := tracer.Start(ctx, "MemoryCache.Clear")

	defer span.End()

	m.cache.Flush()
	m.logger.Info("memory cache cleared")

	return nil
}
