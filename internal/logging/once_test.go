package logging

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestOnce_WarnDeduplicates verifies repeated warnings for one key log once.
func TestOnce_WarnDeduplicates(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	once := NewOnce(zap.New(core))

	for i := 0; i < 5; i++ {
		once.Warn("geo:all-failed", "all geolocation providers failed")
	}

	once.Warn("geo:invalid-ip", "invalid ip format")

	assert.Equal(t, 2, logs.Len())
	assert.True(t, once.Seen("geo:all-failed"))
	assert.False(t, once.Seen("weather:401"))
}

// TestOnce_Reset verifies keys can be logged again after a reset.
func TestOnce_Reset(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	once := NewOnce(zap.New(core))

	once.Warn("k", "first")
	once.Reset()
	once.Warn("k", "second")

	assert.Equal(t, 2, logs.Len())
}

// TestOnce_Concurrent exercises the mutex under parallel writers.
func TestOnce_Concurrent(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	once := NewOnce(zap.New(core))

	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			once.Warn("shared", "concurrent warn")
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, logs.Len())
}
