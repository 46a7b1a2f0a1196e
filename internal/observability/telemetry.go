// Package observability sets up OpenTelemetry tracing and metrics for the
// greeting service: an OTLP trace exporter and a Prometheus metrics exporter,
// plus the counters the pipeline records (requests, cache traffic, provider
// fallbacks).
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Telemetry bundles the providers and the instruments used across the service.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	logger         *zap.Logger

	RequestCounter   metric.Int64Counter
	RequestDuration  metric.Float64Histogram
	ErrorCounter     metric.Int64Counter
	FallbackCounter  metric.Int64Counter
	CacheHitCounter  metric.Int64Counter
	CacheMissCounter metric.Int64Counter
}

// Config carries service identity and exporter settings.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	SampleRate     float64
}

// InitTelemetry configures global tracer and meter providers and creates the
// service's instruments.
func InitTelemetry(ctx context.Context, cfg Config, logger *zap.Logger) (*Telemetry, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tracerProvider, err := initTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracer provider: %w", err)
	}

	meterProvider, err := initMeterProvider(res)
	if err != nil {
		return nil, fmt.Errorf("failed to init meter provider: %w", err)
	}

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	meter := meterProvider.Meter(cfg.ServiceName)

	requestCounter, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	fallbackCounter, err := meter.Int64Counter(
		"pipeline_fallbacks_total",
		metric.WithDescription("Times a pipeline stage degraded to a fallback tier or default value"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	cacheHitCounter, err := meter.Int64Counter(
		"cache_hits_total",
		metric.WithDescription("Total number of cache hits"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	cacheMissCounter, err := meter.Int64Counter(
		"cache_misses_total",
		metric.WithDescription("Total number of cache misses"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		TracerProvider:   tracerProvider,
		MeterProvider:    meterProvider,
		Tracer:           tracerProvider.Tracer(cfg.ServiceName),
		Meter:            meter,
		logger:           logger,
		RequestCounter:   requestCounter,
		RequestDuration:  requestDuration,
		ErrorCounter:     errorCounter,
		FallbackCounter:  fallbackCounter,
		CacheHitCounter:  cacheHitCounter,
		CacheMissCounter: cacheMissCounter,
	}, nil
}

func initTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptrace.New(
		ctx,
		otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRate)),
	)

	return tp, nil
}

func initMeterProvider(res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	return mp, nil
}

// RecordRequest records a completed HTTP request.
func (t *Telemetry) RecordRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if t == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status_code", statusCode),
	}

	t.RequestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	t.RequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if statusCode >= 400 {
		t.ErrorCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordFallback records a pipeline stage degrading past a tier: "stage" is
// location/weather/greeting, "reason" names what failed. Safe to call on a
// nil receiver, so callers need no guard when telemetry is disabled.
func (t *Telemetry) RecordFallback(ctx context.Context, stage, reason string) {
	if t == nil {
		return
	}

	t.FallbackCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("reason", reason),
	))
}

// RecordCacheHit records a cache hit for the given key prefix. Safe to call
// on a nil receiver.
func (t *Telemetry) RecordCacheHit(ctx context.Context, key string) {
	if t == nil {
		return
	}

	t.CacheHitCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", key),
	))
}

// RecordCacheMiss records a cache miss for the given key prefix. Safe to call
// on a nil receiver.
func (t *Telemetry) RecordCacheMiss(ctx context.Context, key string) {
	if t == nil {
		return
	}

	t.CacheMissCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", key),
	))
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := t.TracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}

	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}

	return nil
}
