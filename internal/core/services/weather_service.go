package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/domain"
	"github.com/tcleary/greeting-service/internal/core/ports"
	"github.com/tcleary/greeting-service/internal/logging"
	"github.com/tcleary/greeting-service/internal/observability"
)

// WeatherResolverOptions carries the tunables for the weather resolver.
type WeatherResolverOptions struct {
	// TTL is the fixed cache duration for resolved weather.
	TTL time.Duration

	// APIKeyConfigured short-circuits both external tiers to the synthesized
	// estimate when false.
	APIKeyConfigured bool

	// Telemetry records fallback metrics. May be nil.
	Telemetry *observability.Telemetry
}

type weatherService struct {
	tiers  []ports.WeatherClient
	cache  ports.CacheService
	warner *logging.Once
	logger *zap.Logger
	opts   WeatherResolverOptions
	now    func() time.Time
}

// NewWeatherResolver creates the weather resolution service. Tiers are tried
// in slice order (premium first, then standard); both failing yields a
// synthesized seasonal estimate, so the contract is total.
func NewWeatherResolver(
	tiers []ports.WeatherClient,
	cacheSvc ports.CacheService,
	warner *logging.Once,
	opts WeatherResolverOptions,
	logger *zap.Logger,
) ports.WeatherResolver {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}

	return &weatherService{
		tiers:  tiers,
		cache:  cacheSvc,
		warner: warner,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// Resolve maps coordinates to current conditions, degrading through the tier
// chain to a synthesized estimate. It never fails.
func (s *weatherService) Resolve(ctx context.Context, coords domain.Coordinates) *domain.Weather {
	key := fmt.Sprintf("weather:%g-%g", coords.Latitude, coords.Longitude)

	if data, err := s.cache.Get(ctx, key); err == nil {
		var w domain.Weather

		if err := json.Unmarshal(data, &w); err == nil {
			return &w
		}
	}

	w := s.fetch(ctx, coords)

	if data, err := json.Marshal(w); err == nil {
		if err := s.cache.Set(ctx, key, data, s.opts.TTL); err != nil {
			s.logger.Debug("failed to cache weather", zap.String("key", key), zap.Error(err))
		}
	}

	return w
}

func (s *weatherService) fetch(ctx context.Context, coords domain.Coordinates) *domain.Weather {
	if !s.opts.APIKeyConfigured {
		s.warner.Warn("weather:no-api-key",
			"no weather api key configured, synthesizing conditions")
		s.opts.Telemetry.RecordFallback(ctx, "weather", "no-api-key")

		return s.synthesize(coords)
	}

	if err := coords.Validate(); err != nil {
		s.logger.Debug("coordinates out of range, synthesizing conditions",
			zap.Float64("lat", coords.Latitude),
			zap.Float64("lon", coords.Longitude))

		return s.synthesize(coords)
	}

	for _, tier := range s.tiers {
		w, err := tier.Current(ctx, coords)

		if err == nil {
			return w
		}

		// A 401 means the key lacks this tier's subscription. That will not
		// change mid-process, so warn once and move on without retrying.
		if errors.Is(err, ports.ErrEntitlement) {
			s.warner.Warn("weather:entitlement:"+tier.Name(),
				"weather tier rejected api key, skipping tier",
				zap.String("tier", tier.Name()))

			continue
		}

		s.logger.Debug("weather tier failed",
			zap.String("tier", tier.Name()),
			zap.Error(err))
	}

	s.warner.Warn("weather:all-tiers-failed",
		"all weather tiers failed, synthesizing conditions")
	s.opts.Telemetry.RecordFallback(ctx, "weather", "all-tiers-failed")

	return s.synthesize(coords)
}

// synthesize builds a plausible estimate from the season and latitude. The
// heuristic is deliberately rough and northern-hemisphere biased: the output
// only needs to keep a greeting conversational, not be meteorologically
// accurate.
func (s *weatherService) synthesize(coords domain.Coordinates) *domain.Weather {
	now := s.now()
	month := now.Month()

	temperature := 65
	condition := "Partly cloudy"
	conditionCode := 802

	switch {
	case month == time.December || month <= time.February:
		if coords.Latitude > 45 {
			temperature = 28
		} else {
			temperature = 42
		}

		condition = "Overcast"
		conditionCode = 804
	case month >= time.June && month <= time.August:
		temperature = 82
		condition = "Clear sky"
		conditionCode = 800
	}

	// Small jitter keeps repeated fallback greetings from sounding canned.
	feelsLike := temperature + rand.Intn(5) - 2

	return &domain.Weather{
		Temperature:   temperature,
		Condition:     condition,
		ConditionCode: conditionCode,
		Humidity:      55,
		WindSpeed:     5,
		FeelsLike:     feelsLike,
		FetchedAt:     now,
	}
}
