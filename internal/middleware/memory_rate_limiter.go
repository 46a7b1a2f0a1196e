package middleware

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/ports"
)

// MemoryRateLimiter provides an in-memory rate-limiting implementation used
// when Redis is disabled or unreachable.
type MemoryRateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*clientInfo
	logger  *zap.Logger
}

// clientInfo tracks request timestamps for a single client.
type clientInfo struct {
	mu       sync.Mutex
	requests []time.Time
}

// NewMemoryRateLimiter creates an in-memory rate limiter. A background
// goroutine periodically drops idle clients to bound memory growth.
func NewMemoryRateLimiter(logger *zap.Logger) ports.RateLimitService {
	rl := &MemoryRateLimiter{
		clients: make(map[string]*clientInfo),
		logger:  logger,
	}

	go rl.cleanup()

	return rl
}

// Allow checks if a request from identifier is allowed under the rate limit
// using a sliding window of request timestamps.
func (rl *MemoryRateLimiter) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	now := time.Now()

	rl.mu.Lock()
	client, exists := rl.clients[identifier]

	if !exists {
		client = &clientInfo{}
		rl.clients[identifier] = client
	}
	rl.mu.Unlock()

	client.mu.Lock()
	defer client.mu.Unlock()

	cutoff := now.Add(-window)
	kept := client.requests[:0]

	for _, ts := range client.requests {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	client.requests = kept

	if len(client.requests) >= limit {
		rl.logger.Debug("memory rate limit exceeded",
			zap.String("identifier", identifier),
			zap.Int("limit", limit))

		return false, nil
	}

	client.requests = append(client.requests, now)

	return true, nil
}

// Reset clears the request history for an identifier.
func (rl *MemoryRateLimiter) Reset(ctx context.Context, identifier string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.clients, identifier)

	return nil
}

// cleanup drops clients with no recent requests every few minutes.
func (rl *MemoryRateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)

		rl.mu.Lock()

		for id, client := range rl.clients {
			client.mu.Lock()
			idle := len(client.requests) == 0 ||
				client.requests[len(client.requests)-1].Before(cutoff)
			client.mu.Unlock()

			if idle {
				delete(rl.clients, id)
			}
		}

		rl.mu.Unlock()
	}
}
