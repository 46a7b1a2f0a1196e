package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestNewRedisCacheUnreachable verifies the constructor surfaces a connection
// error instead of handing back an unusable cache, so callers can fall back
// to the in-process implementation.
func TestNewRedisCacheUnreachable(t *testing.T) {
	svc, err := NewRedisCache(Config{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
	}, nil, zap.NewNop())

	require.Error(t, err)
	assert.Nil(t, svc)
}
