// Package circuitbreaker wraps Sony's gobreaker with logging and tracing so
// the pipeline's external providers (geolocation, weather) stop being called
// while they are known to be failing.
package circuitbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Breaker wraps a gobreaker.CircuitBreaker with OpenTelemetry instrumentation
// and structured logging.
type Breaker struct {
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	name    string
}

// Config defines circuit breaker behavior and thresholds.
type Config struct {
	Name          string
	MaxRequests   uint32
	Interval      time.Duration
	Timeout       time.Duration
	ReadyToTrip   func(counts gobreaker.Counts) bool
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// New creates a circuit breaker with the specified configuration. When no
// ReadyToTrip is supplied the breaker opens after at least 3 requests with a
// failure ratio of 50% or more.
func New(cfg Config, logger *zap.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.ReadyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))

			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}

	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= 3 && failureRatio >= 0.5
		}
	}

	return &Breaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		name:    cfg.Name,
	}
}

// Execute runs fn within the circuit breaker. It returns fn's error, or
// gobreaker.ErrOpenState / ErrTooManyRequests when the breaker rejects the
// call outright.
func (b *Breaker) Execute(ctx context.Context, operation string, fn func() error) error {
	tracer := otel.Tracer("circuit-breaker")
	_, span := tracer.Start(ctx, "CircuitBreaker.Execute")

	defer span.End()

	span.SetAttributes(
		attribute.String("circuit_breaker.name", b.name),
		attribute.String("circuit_breaker.operation", operation),
		attribute.String("circuit_breaker.state", b.breaker.State().String()),
	)

	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})

	if err != nil {
		span.RecordError(err)

		b.logger.Warn("circuit breaker execution failed",
			zap.String("name", b.name),
			zap.String("operation", operation),
			zap.String("state", b.breaker.State().String()),
			zap.Error(err))
	}

	span.SetAttributes(attribute.Bool("circuit_breaker.success", err == nil))

	return err
}

// State returns the current circuit breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}

// Counts returns the current request and failure statistics.
func (b *Breaker) Counts() gobreaker.Counts {
	return b.breaker.Counts()
}

// Manager holds one breaker per external collaborator so handlers can expose
// their states on the stats endpoint.
type Manager struct {
	breakers map[string]*Breaker
	logger   *zap.Logger
}

// NewManager creates an empty circuit breaker manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		breakers: make(map[string]*Breaker),
		logger:   logger,
	}
}

// GetBreaker retrieves the breaker registered under name, creating it from
// cfg on first use. Manager is populated at composition time and read-only
// afterwards, so no locking is needed.
func (m *Manager) GetBreaker(name string, cfg Config) *Breaker {
	if breaker, exists := m.breakers[name]; exists {
		return breaker
	}

	cfg.Name = name
	breaker := New(cfg, m.logger)
	m.breakers[name] = breaker

	return breaker
}

// GetStats returns statistics for all managed circuit breakers.
func (m *Manager) GetStats() map[string]interface{} {
	stats := make(map[string]interface{})

	for name, breaker := range m.breakers {
		counts := breaker.Counts()
		stats[name] = map[string]interface{}{
			"state":                 breaker.State().String(),
			"requests":              counts.Requests,
			"total_successes":       counts.TotalSuccesses,
			"total_failures":        counts.TotalFailures,
			"consecutive_successes": counts.ConsecutiveSuccesses,
			"consecutive_failures":  counts.ConsecutiveFailures,
		}
	}

	return stats
}
