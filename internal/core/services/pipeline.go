package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/domain"
	"github.com/tcleary/greeting-service/internal/core/ports"
)

type pipelineService struct {
	locations ports.LocationResolver
	weather   ports.WeatherResolver
	greetings ports.GreetingGenerator
	logger    *zap.Logger
	now       func() time.Time
}

// NewGreetingPipeline chains the three resolvers into the full
// personalization flow: location, then weather at the resolved coordinates,
// then a greeting for the combined context.
func NewGreetingPipeline(
	locations ports.LocationResolver,
	weather ports.WeatherResolver,
	greetings ports.GreetingGenerator,
	logger *zap.Logger,
) ports.GreetingPipeline {
	return &pipelineService{
		locations: locations,
		weather:   weather,
		greetings: greetings,
		logger:    logger,
		now:       time.Now,
	}
}

// Greet runs the pipeline. Browser-supplied GPS coordinates skip the
// IP-geolocation stage entirely. Each stage is total, so Greet always
// returns a fully populated result.
func (s *pipelineService) Greet(ctx context.Context, clientIP string, gps *domain.Coordinates) *domain.PersonalizedGreeting {
	var location *domain.Location

	if gps != nil {
		location = &domain.Location{
			City:        "your area",
			Coordinates: *gps,
		}
	} else {
		location = s.locations.Resolve(ctx, clientIP)
	}

	weather := s.weather.Resolve(ctx, location.Coordinates)
	timeOfDay := s.timeOfDay(location.Timezone)
	greeting := s.greetings.Generate(ctx, location.City, weather, timeOfDay)

	s.logger.Debug("pipeline completed",
		zap.String("city", location.City),
		zap.String("condition", weather.Condition),
		zap.String("time_of_day", string(timeOfDay)))

	return &domain.PersonalizedGreeting{
		Greeting: *greeting,
		Location: *location,
		Weather:  *weather,
	}
}

// timeOfDay derives the visitor's local time-of-day bucket from the resolved
// timezone, falling back to server time when the zone is absent or unknown.
func (s *pipelineService) timeOfDay(timezone string) domain.TimeOfDay {
	now := s.now()

	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			now = now.In(loc)
		}
	}

	return domain.TimeOfDayForHour(now.Hour())
}
