package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/ports"
)

// RateLimitMiddleware applies per-client rate limiting to API routes using
// whichever ports.RateLimitService the composition root wired (Redis or
// memory).
type RateLimitMiddleware struct {
	limiter ports.RateLimitService
	limit   int
	window  time.Duration
	logger  *zap.Logger
}

// NewRateLimitMiddleware creates rate limiting middleware.
//
// Parameters:
//   - limiter: rate limit service implementation
//   - limit: maximum requests allowed per window
//   - window: sliding window duration
//   - logger: Zap logger for limit events
//
// Returns:
//   - *RateLimitMiddleware: configured middleware instance
func NewRateLimitMiddleware(limiter ports.RateLimitService, limit int, window time.Duration, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
}

// Middleware rejects requests over the limit with 429. A failing limiter
// backend fails open: the request proceeds rather than blocking traffic on a
// Redis outage.
func (m *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := GetClientIP(r)

		allowed, err := m.limiter.Allow(r.Context(), clientIP, m.limit, m.window)

		if err != nil {
			m.logger.Warn("rate limiter unavailable, allowing request",
				zap.String("client_ip", clientIP),
				zap.Error(err))

			next.ServeHTTP(w, r)

			return
		}

		if !allowed {
			w.Header().Set("Retry-After", m.window.String())
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)

			return
		}

		next.ServeHTTP(w, r)
	})
}
