package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/config"
)

// TestInitRedisServicesFallsBackToMemory verifies an unreachable Redis never
// leaves the resolvers without a cache or rate limiter: both services must be
// usable in-process fallbacks, never nil.
func TestInitRedisServicesFallsBackToMemory(t *testing.T) {
	a := &App{
		cfg: &config.Config{
			Redis: config.RedisConfig{
				Enabled:     true,
				Addr:        "127.0.0.1:1",
				DialTimeout: 100 * time.Millisecond,
			},
			Cache: config.CacheConfig{LocationTTL: time.Hour},
		},
		logger: zap.NewNop(),
	}

	cacheService, rateLimitService := a.initRedisServices(context.Background())

	assert.NotNil(t, cacheService)
	assert.NotNil(t, rateLimitService)

	err := cacheService.Set(context.Background(), "location:1.2.3.4", []byte("{}"), time.Minute)
	assert.NoError(t, err)
}
