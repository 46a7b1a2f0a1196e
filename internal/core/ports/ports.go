// Package ports defines the interfaces that connect the core services to their
// collaborators. Primary adapters (REST) depend on the resolver interfaces;
// secondary adapters (provider clients, caches) implement the client interfaces.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/tcleary/greeting-service/internal/core/domain"
)

// ErrEntitlement marks a provider rejection caused by a missing subscription
// (HTTP 401 on a paid tier). Callers skip the tier without retrying it.
var ErrEntitlement = errors.New("provider entitlement missing")

// LocationResolver maps a raw client IP string to a best-effort location.
// The contract is total: every input resolves to a usable Location, falling
// back to the configured default rather than returning an error.
type LocationResolver interface {
	Resolve(ctx context.Context, rawIP string) *domain.Location
}

// WeatherResolver maps coordinates to current conditions. Like the location
// resolver its contract is total; provider failures degrade to a synthesized
// seasonal estimate.
type WeatherResolver interface {
	Resolve(ctx context.Context, coords domain.Coordinates) *domain.Weather
}

// GreetingGenerator produces a short time- and weather-aware greeting.
// Model failures degrade to deterministic template greetings.
type GreetingGenerator interface {
	Generate(ctx context.Context, city string, weather *domain.Weather, timeOfDay domain.TimeOfDay) *domain.Greeting
}

// GreetingPipeline runs the full three-stage personalization flow.
// When gps is non-nil the location stage is skipped and the coordinates are
// used directly.
type GreetingPipeline interface {
	Greet(ctx context.Context, clientIP string, gps *domain.Coordinates) *domain.PersonalizedGreeting
}

// GeoProvider is one tier in the geolocation fallback chain. Lookup returns an
// error for any failure the chain should skip past: timeout, non-2xx response,
// missing required fields.
type GeoProvider interface {
	Name() string
	Lookup(ctx context.Context, ip string) (*domain.Location, error)
}

// WeatherClient is one tier in the weather fallback chain.
type WeatherClient interface {
	Name() string
	Current(ctx context.Context, coords domain.Coordinates) (*domain.Weather, error)
}

// ChatClient performs a single chat-completion call and returns the raw text
// of the model's reply.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CacheService provides key-value caching with per-entry TTL expiration.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// RateLimitService limits request rates per client identifier.
type RateLimitService interface {
	Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error)
	Reset(ctx context.Context, identifier string) error
}
