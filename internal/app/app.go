// Package app provides application-level coordination and dependency injection.
// It orchestrates the initialization of all service components, manages their
// lifecycles, and provides a clean application structure following dependency
// inversion principles.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/adapters/primary/rest"
	"github.com/tcleary/greeting-service/internal/adapters/secondary/geoip"
	"github.com/tcleary/greeting-service/internal/adapters/secondary/llm"
	"github.com/tcleary/greeting-service/internal/adapters/secondary/openweather"
	"github.com/tcleary/greeting-service/internal/config"
	"github.com/tcleary/greeting-service/internal/core/domain"
	"github.com/tcleary/greeting-service/internal/core/ports"
	"github.com/tcleary/greeting-service/internal/core/services"
	"github.com/tcleary/greeting-service/internal/infrastructure/cache"
	"github.com/tcleary/greeting-service/internal/infrastructure/circuitbreaker"
	"github.com/tcleary/greeting-service/internal/infrastructure/ratelimit"
	"github.com/tcleary/greeting-service/internal/logging"
	"github.com/tcleary/greeting-service/internal/middleware"
	"github.com/tcleary/greeting-service/internal/observability"
	"github.com/tcleary/greeting-service/internal/version"
)

// Server represents the HTTP server instance.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// App manages the application lifecycle and dependencies.
type App struct {
	cfg         *config.Config
	server      *Server
	logger      *zap.Logger
	telemetry   *observability.Telemetry
	cbManager   *circuitbreaker.Manager
	redisClient *redis.Client
}

// New creates a new application instance.
//
// Returns:
//   - *App: Configured application instance
//   - error: Logger initialization error
func New() (*App, error) {
	logger, err := zap.NewProduction()

	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg := config.Load()

	return &App{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Start initializes and starts all application components.
//
// Parameters:
//   - ctx: Context for initialization
//
// Returns:
//   - error: Server start error
func (a *App) Start(ctx context.Context) error {
	if err := a.initTelemetry(ctx); err != nil {
		a.logger.Warn("failed to initialize telemetry, continuing without it", zap.Error(err))
	}

	cacheService, rateLimitService := a.initRedisServices(ctx)

	a.cbManager = circuitbreaker.NewManager(a.logger)
	warner := logging.NewOnce(a.logger)

	locationResolver := services.NewLocationResolver(
		a.initGeoProviders(),
		cacheService,
		warner,
		services.LocationResolverOptions{
			Default:        a.defaultLocation(),
			BaseTTL:        a.cfg.Cache.LocationTTL,
			AttemptTimeout: a.cfg.Geo.AttemptTimeout,
			Telemetry:      a.telemetry,
		},
		a.logger,
	)

	weatherResolver := services.NewWeatherResolver(
		a.initWeatherTiers(),
		cacheService,
		warner,
		services.WeatherResolverOptions{
			TTL:              a.cfg.Cache.WeatherTTL,
			APIKeyConfigured: a.cfg.Weather.APIKey != "",
			Telemetry:        a.telemetry,
		},
		a.logger,
	)

	greetingGenerator := services.NewGreetingGenerator(
		a.initChatClient(),
		cacheService,
		a.cfg.Cache.GreetingTTL,
		a.logger,
	)

	pipeline := services.NewGreetingPipeline(locationResolver, weatherResolver, greetingGenerator, a.logger)
	greetingHandler := rest.NewGreetingHandler(pipeline, a.logger)

	rateLimitMiddleware := middleware.NewRateLimitMiddleware(
		rateLimitService,
		a.cfg.RateLimit.RPS,
		a.cfg.RateLimit.Window,
		a.logger,
	)

	router := a.setupRouter(
		greetingHandler,
		rateLimitMiddleware,
		a.telemetry,
	)

	a.server = &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%s", a.cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  a.cfg.Server.ReadTimeout,
			WriteTimeout: a.cfg.Server.WriteTimeout,
			IdleTimeout:  a.cfg.Server.IdleTimeout,
		},
		logger: a.logger,
	}

	go func() {
		a.logger.Info("starting HTTP server", zap.String("port", a.cfg.Server.Port))

		if err := a.server.server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				a.logger.Fatal("failed to start server", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down all application components.
func (a *App) Stop() {
	a.logger.Info("shutting down application...")

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := a.server.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown server gracefully", zap.Error(err))
		}
	}

	if a.telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown telemetry", zap.Error(err))
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("failed to close Redis client", zap.Error(err))
		}
	}

	if err := a.logger.Sync(); err != nil {
		// Sync can fail on some platforms, ignore the error
		_ = err
	}
}

// WaitForShutdown blocks until the server receives a shutdown signal.
func (a *App) WaitForShutdown() {
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	a.logger.Info("shutdown signal received")
}

// initTelemetry initializes OpenTelemetry providers.
func (a *App) initTelemetry(ctx context.Context) error {
	telemetryConfig := observability.Config{
		ServiceName:    a.cfg.Observability.ServiceName,
		ServiceVersion: a.cfg.Observability.ServiceVersion,
		Environment:    a.cfg.Observability.Environment,
		OTLPEndpoint:   a.cfg.Observability.OTLPEndpoint,
		SampleRate:     a.cfg.Observability.SampleRate,
	}

	var err error
	a.telemetry, err = observability.InitTelemetry(ctx, telemetryConfig, a.logger)

	return err
}

// initRedisServices initializes Redis-based or memory-based cache and rate
// limiting.
//
// Parameters:
//   - ctx: Context for Redis connection testing
//
// Returns:
//   - ports.CacheService: Cache implementation (Redis or memory)
//   - ports.RateLimitService: Rate limiter implementation (Redis or memory)
func (a *App) initRedisServices(ctx context.Context) (ports.CacheService, ports.RateLimitService) {
	if !a.cfg.Redis.Enabled {
		a.logger.Info("Redis disabled, using memory-based services")
		return a.memoryServices()
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         a.cfg.Redis.Addr,
		Password:     a.cfg.Redis.Password,
		DB:           a.cfg.Redis.DB,
		PoolSize:     a.cfg.Redis.PoolSize,
		MinIdleConns: a.cfg.Redis.MinIdleConns,
		MaxRetries:   a.cfg.Redis.MaxRetries,
		DialTimeout:  a.cfg.Redis.DialTimeout,
		ReadTimeout:  a.cfg.Redis.ReadTimeout,
		WriteTimeout: a.cfg.Redis.WriteTimeout,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		a.logger.Warn("Redis connection failed, falling back to memory-based services", zap.Error(err))
		return a.memoryServices()
	}

	a.logger.Info("Redis connected successfully")
	a.redisClient = redisClient

	redisCfg := cache.Config{
		Addr:         a.cfg.Redis.Addr,
		Password:     a.cfg.Redis.Password,
		DB:           a.cfg.Redis.DB,
		PoolSize:     a.cfg.Redis.PoolSize,
		MinIdleConns: a.cfg.Redis.MinIdleConns,
		MaxRetries:   a.cfg.Redis.MaxRetries,
		DialTimeout:  a.cfg.Redis.DialTimeout,
		ReadTimeout:  a.cfg.Redis.ReadTimeout,
		WriteTimeout: a.cfg.Redis.WriteTimeout,
	}

	cacheService, err := cache.NewRedisCache(redisCfg, a.telemetry, a.logger)

	if err != nil {
		a.logger.Warn("Redis cache initialization failed, falling back to memory-based services", zap.Error(err))
		_ = redisClient.Close()
		a.redisClient = nil

		return a.memoryServices()
	}

	rateLimitService := ratelimit.NewRedisRateLimiter(redisClient, a.logger)

	return cacheService, rateLimitService
}

// memoryServices builds the in-process cache and rate limiter used when
// Redis is unavailable. No cleanup interval is set: expired entries are
// treated as absent on read but stay in the map until overwritten.
func (a *App) memoryServices() (ports.CacheService, ports.RateLimitService) {
	memCache := cache.NewMemoryCache(a.cfg.Cache.LocationTTL, 0, a.telemetry, a.logger)
	memRateLimit := middleware.NewMemoryRateLimiter(a.logger)

	return memCache, memRateLimit
}

// defaultLocation builds the configured fallback location used when every
// geolocation provider fails or the visitor's IP is private.
func (a *App) defaultLocation() domain.Location {
	return domain.Location{
		City:        a.cfg.Geo.DefaultCity,
		Region:      a.cfg.Geo.DefaultRegion,
		Country:     a.cfg.Geo.DefaultCountry,
		CountryCode: a.cfg.Geo.DefaultCountryCode,
		Coordinates: domain.Coordinates{
			Latitude:  a.cfg.Geo.DefaultLatitude,
			Longitude: a.cfg.Geo.DefaultLongitude,
		},
		Timezone: a.cfg.Geo.DefaultTimezone,
	}
}

// initGeoProviders creates the geolocation provider chain, each wrapped with
// its own circuit breaker.
//
// Returns:
//   - []ports.GeoProvider: Providers in priority order
func (a *App) initGeoProviders() []ports.GeoProvider {
	httpClient := &http.Client{
		Timeout: a.cfg.Geo.AttemptTimeout,
	}

	providers := []ports.GeoProvider{
		geoip.NewIPWhoisClient(a.cfg.Geo.IPWhoisBaseURL, httpClient, a.logger),
		geoip.NewIPAPIClient(a.cfg.Geo.IPAPIBaseURL, httpClient, a.logger),
		geoip.NewIPInfoClient(a.cfg.Geo.IPInfoBaseURL, a.cfg.Geo.IPInfoToken, httpClient, a.logger),
	}

	wrapped := make([]ports.GeoProvider, len(providers))

	for i, provider := range providers {
		wrapped[i] = &CircuitBreakerGeoProvider{
			provider: provider,
			cb: a.cbManager.GetBreaker("geoip-"+provider.Name(), circuitbreaker.Config{
				MaxRequests: 3,
				Interval:    10 * time.Second,
				Timeout:     30 * time.Second,
			}),
		}
	}

	return wrapped
}

// initWeatherTiers creates the weather API tiers in fallback order, each
// wrapped with its own circuit breaker.
//
// Returns:
//   - []ports.WeatherClient: Premium then standard tier
func (a *App) initWeatherTiers() []ports.WeatherClient {
	httpClient := &http.Client{
		Timeout: a.cfg.Weather.HTTPTimeout,
	}

	tiers := []ports.WeatherClient{
		openweather.NewPremiumClient(a.cfg.Weather.PremiumBaseURL, a.cfg.Weather.APIKey, httpClient, a.logger),
		openweather.NewStandardClient(a.cfg.Weather.StandardBaseURL, a.cfg.Weather.APIKey, httpClient, a.logger),
	}

	wrapped := make([]ports.WeatherClient, len(tiers))

	for i, tier := range tiers {
		wrapped[i] = &CircuitBreakerWeatherClient{
			client: tier,
			cb: a.cbManager.GetBreaker("openweather-"+tier.Name(), circuitbreaker.Config{
				MaxRequests: 3,
				Interval:    10 * time.Second,
				Timeout:     30 * time.Second,
			}),
		}
	}

	return wrapped
}

// initChatClient creates the chat-model client for greeting generation, or
// nil when no API key is configured.
func (a *App) initChatClient() ports.ChatClient {
	if a.cfg.LLM.APIKey == "" {
		a.logger.Info("no chat model API key configured, greetings will use templates")
		return nil
	}

	return llm.NewOpenAIClient(llm.Config{
		APIKey:      a.cfg.LLM.APIKey,
		BaseURL:     a.cfg.LLM.BaseURL,
		Model:       a.cfg.LLM.Model,
		Temperature: a.cfg.LLM.Temperature,
		Timeout:     a.cfg.LLM.Timeout,
	}, a.logger)
}

// setupRouter creates and configures the HTTP router with all middleware.
//
// Parameters:
//   - greetingHandler: Handler for greeting endpoints
//   - rateLimitMiddleware: Rate-limiting middleware instance
//   - telemetry: Telemetry instance for observability
//
// Returns:
//   - http.Handler: Configured router with all routes and middleware
func (a *App) setupRouter(
	greetingHandler *rest.GreetingHandler,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	telemetry *observability.Telemetry,
) http.Handler {
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	// Liveness probe
	router.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	// Readiness probe. Checks Redis when it is the active backend; the
	// memory-backed configuration is always ready.
	router.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if a.redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := a.redisClient.Ping(ctx).Err(); err != nil {
				a.logger.Warn("readiness check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}).Methods("GET")

	// Version endpoint
	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		versionInfo := version.Get()

		if err := json.NewEncoder(w).Encode(versionInfo); err != nil {
			a.logger.Error("failed to encode version info", zap.Error(err))
		}
	}).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Circuit breaker statistics endpoint
	router.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(a.cbManager.GetStats()); err != nil {
			a.logger.Error("failed to encode breaker stats", zap.Error(err))
		}
	}).Methods("GET")

	// Apply observability middleware if telemetry is available
	if telemetry != nil {
		obsMiddleware := middleware.NewObservabilityMiddleware(telemetry, a.logger)
		router.Use(obsMiddleware.TracingMiddleware)
		router.Use(obsMiddleware.MetricsMiddleware)
		router.Use(obsMiddleware.LoggingMiddleware)
	}

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Apply rate limiting to API routes
	if rateLimitMiddleware != nil {
		api.Use(rateLimitMiddleware.Middleware)
	}

	// Greeting endpoint
	api.HandleFunc("/greeting", greetingHandler.GetGreeting).Methods("GET")

	return router
}
