// Package app provides application initialization and dependency injection.
package app

import (
	"context"

	"github.com/tcleary/greeting-service/internal/core/domain"
	"github.com/tcleary/greeting-service/internal/infrastructure/circuitbreaker"

	"github.com/tcleary/greeting-service/internal/core/ports"
)

// CircuitBreakerGeoProvider wraps a geolocation provider with circuit breaker
// protection so a flapping provider drops out of the chain quickly instead of
// burning its per-attempt timeout on every request.
type CircuitBreakerGeoProvider struct {
	provider ports.GeoProvider
	cb       *circuitbreaker.Breaker
}

// Name delegates to the wrapped provider.
func (c *CircuitBreakerGeoProvider) Name() string {
	return c.provider.Name()
}

// Lookup performs a geolocation lookup with circuit breaker protection.
func (c *CircuitBreakerGeoProvider) Lookup(ctx context.Context, ip string) (*domain.Location, error) {
	var result *domain.Location

	err := c.cb.Execute(ctx, "lookup", func() error {
		var err error
		result, err = c.provider.Lookup(ctx, ip)

		return err
	})

	return result, err
}

// CircuitBreakerWeatherClient wraps a weather tier with circuit breaker
// protection to provide fault tolerance for external API calls.
type CircuitBreakerWeatherClient struct {
	client ports.WeatherClient
	cb     *circuitbreaker.Breaker
}

// Name delegates to the wrapped tier.
func (c *CircuitBreakerWeatherClient) Name() string {
	return c.client.Name()
}

// Current fetches current conditions with circuit breaker protection. The
// entitlement sentinel passes through unwrapped so the resolver can still
// recognize it.
func (c *CircuitBreakerWeatherClient) Current(ctx context.Context, coords domain.Coordinates) (*domain.Weather, error) {
	var result *domain.Weather

	err := c.cb.Execute(ctx, "current", func() error {
		var err error
		result, err = c.client.Current(ctx, coords)

		return err
	})

	return result, err
}
