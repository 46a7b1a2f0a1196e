// Package config provides centralized configuration management for the
// greeting service. It loads configuration from environment variables with
// sensible defaults, supporting different deployment environments.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration settings for the greeting service.
type Config struct {
	Server        ServerConfig
	Redis         RedisConfig
	Geo           GeoConfig
	Weather       WeatherConfig
	LLM           LLMConfig
	Cache         CacheConfig
	Observability ObservabilityConfig
	RateLimit     RateLimitConfig
}

// ServerConfig contains HTTP server settings and timeouts.
type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RedisConfig contains settings for the Redis cache and rate limiting.
// Redis is optional; when disabled or unreachable the service falls back to
// in-process equivalents.
type RedisConfig struct {
	Enabled      bool
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// GeoConfig contains the geolocation provider chain settings. The three base
// URLs are tried in order; each attempt is bounded by AttemptTimeout.
type GeoConfig struct {
	IPWhoisBaseURL string
	IPAPIBaseURL   string
	IPInfoBaseURL  string
	IPInfoToken    string
	AttemptTimeout time.Duration

	// DefaultLocation is the fixed fallback every unresolvable input maps to.
	DefaultCity        string
	DefaultRegion      string
	DefaultCountry     string
	DefaultCountryCode string
	DefaultLatitude    float64
	DefaultLongitude   float64
	DefaultTimezone    string
}

// WeatherConfig contains the two-tier weather API settings. An empty APIKey
// short-circuits both tiers to the synthesized estimate.
type WeatherConfig struct {
	APIKey          string
	PremiumBaseURL  string
	StandardBaseURL string
	HTTPTimeout     time.Duration
}

// LLMConfig contains the chat-completion settings for greeting generation.
// An empty APIKey routes every greeting to the deterministic fallback.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// CacheConfig contains the per-entity TTLs. Location TTL is the base value
// before jitter is applied.
type CacheConfig struct {
	LocationTTL time.Duration
	WeatherTTL  time.Duration
	GreetingTTL time.Duration
}

// ObservabilityConfig contains settings for distributed tracing and metrics.
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	SampleRate     float64
}

// RateLimitConfig contains rate limiting settings for the API routes.
type RateLimitConfig struct {
	RPS    int
	Window time.Duration
}

// Load reads configuration from environment variables and returns a Config.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Geo: GeoConfig{
			IPWhoisBaseURL: getEnv("GEO_IPWHOIS_BASE_URL", "https://ipwho.is"),
			IPAPIBaseURL:   getEnv("GEO_IPAPI_BASE_URL", "http://ip-api.com"),
			IPInfoBaseURL:  getEnv("GEO_IPINFO_BASE_URL", "https://ipinfo.io"),
			IPInfoToken:    getEnv("GEO_IPINFO_TOKEN", ""),
			AttemptTimeout: getEnvAsDuration("GEO_ATTEMPT_TIMEOUT", 3500*time.Millisecond),

			DefaultCity:        getEnv("GEO_DEFAULT_CITY", "New York"),
			DefaultRegion:      getEnv("GEO_DEFAULT_REGION", "New York"),
			DefaultCountry:     getEnv("GEO_DEFAULT_COUNTRY", "United States"),
			DefaultCountryCode: getEnv("GEO_DEFAULT_COUNTRY_CODE", "US"),
			DefaultLatitude:    getEnvAsFloat("GEO_DEFAULT_LAT", 40.7128),
			DefaultLongitude:   getEnvAsFloat("GEO_DEFAULT_LON", -74.0060),
			DefaultTimezone:    getEnv("GEO_DEFAULT_TIMEZONE", "America/New_York"),
		},
		Weather: WeatherConfig{
			APIKey:          getEnv("WEATHER_API_KEY", ""),
			PremiumBaseURL:  getEnv("WEATHER_PREMIUM_BASE_URL", "https://api.openweathermap.org/data/3.0"),
			StandardBaseURL: getEnv("WEATHER_STANDARD_BASE_URL", "https://api.openweathermap.org/data/2.5"),
			HTTPTimeout:     getEnvAsDuration("WEATHER_HTTP_TIMEOUT", 10*time.Second),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat("OPENAI_TEMPERATURE", 0.8),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 15*time.Second),
		},
		Cache: CacheConfig{
			LocationTTL: getEnvAsDuration("CACHE_LOCATION_TTL", time.Hour),
			WeatherTTL:  getEnvAsDuration("CACHE_WEATHER_TTL", time.Hour),
			GreetingTTL: getEnvAsDuration("CACHE_GREETING_TTL", 30*time.Minute),
		},
		Observability: ObservabilityConfig{
			ServiceName:    "greeting-service",
			ServiceVersion: getEnv("VERSION", "1.0.0"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:     0.1,
		},
		RateLimit: RateLimitConfig{
			RPS:    getEnvAsInt("RATE_LIMIT_RPS", 100),
			Window: time.Minute,
		},
	}
}

// getEnv retrieves an environment variable value with a fallback default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer with a fallback
// default.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}

	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float with a fallback
// default.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}

	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean with a fallback
// default.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}

	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration with a
// fallback default.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}

	return defaultValue
}
