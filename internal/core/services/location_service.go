// Package services contains the core pipeline services: location resolution,
// weather resolution, greeting generation, and the pipeline that chains them.
// Every service here has a total contract: failures degrade to defaults and
// are never surfaced to callers, because the feature is cosmetic
// personalization and must not block page rendering.
package services

import (
	"context"
	"encoding/json"
	"math/rand"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/tcleary/greeting-service/internal/core/domain"
	"github.com/tcleary/greeting-service/internal/core/ports"
	"github.com/tcleary/greeting-service/internal/logging"
	"github.com/tcleary/greeting-service/internal/observability"
)

// LocationResolverOptions carries the tunables for the location resolver.
type LocationResolverOptions struct {
	// Default is the fixed location every unresolvable input maps to.
	Default domain.Location

	// BaseTTL is the cache TTL before jitter is applied.
	BaseTTL time.Duration

	// AttemptTimeout bounds each individual provider attempt.
	AttemptTimeout time.Duration

	// Telemetry records fallback metrics. May be nil.
	Telemetry *observability.Telemetry
}

type locationService struct {
	providers []ports.GeoProvider
	cache     ports.CacheService
	warner    *logging.Once
	logger    *zap.Logger
	opts      LocationResolverOptions
	group     singleflight.Group
}

// NewLocationResolver creates the location resolution service. Providers are
// tried in slice order, so the chain's priority is a data decision made at
// the composition root.
func NewLocationResolver(
	providers []ports.GeoProvider,
	cacheSvc ports.CacheService,
	warner *logging.Once,
	opts LocationResolverOptions,
	logger *zap.Logger,
) ports.LocationResolver {
	if opts.BaseTTL <= 0 {
		opts.BaseTTL = time.Hour
	}

	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 3500 * time.Millisecond
	}

	return &locationService{
		providers: providers,
		cache:     cacheSvc,
		warner:    warner,
		logger:    logger,
		opts:      opts,
	}
}

// Resolve maps a raw IP string to a best-effort location. It never fails:
// empty, malformed, and private inputs all resolve to the default location,
// and provider failures fall through the chain before degrading to the same
// default.
func (s *locationService) Resolve(ctx context.Context, rawIP string) *domain.Location {
	ip := strings.TrimSpace(rawIP)

	if ip == "" {
		s.warner.Warn("location:empty-ip", "empty client ip, using default location")
		return s.defaultLocation()
	}

	ip = normalizeIP(ip)
	parsed := net.ParseIP(ip)

	if parsed == nil {
		s.warner.Warn("location:invalid-ip:"+ip,
			"client ip failed format validation, using default location",
			zap.String("ip", ip))

		return s.defaultLocation()
	}

	// Expected during local development and behind NAT, so no warning.
	if isPrivateOrLocal(parsed) {
		s.logger.Debug("private or local ip, using default location", zap.String("ip", ip))
		return s.defaultLocation()
	}

	key := "location:" + ip

	if data, err := s.cache.Get(ctx, key); err == nil {
		var loc domain.Location

		if err := json.Unmarshal(data, &loc); err == nil {
			return &loc
		}
	}

	// Concurrent lookups for the same IP collapse into one provider call;
	// the jittered TTL below staggers the next round of refreshes.
	result, _, _ := s.group.Do(ip, func() (interface{}, error) {
		return s.lookup(ctx, ip, key), nil
	})

	return result.(*domain.Location)
}

// lookup walks the provider chain and caches whatever it resolves to,
// including the default when every tier fails.
func (s *locationService) lookup(ctx context.Context, ip, key string) *domain.Location {
	for _, provider := range s.providers {
		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.AttemptTimeout)
		loc, err := provider.Lookup(attemptCtx, ip)
		cancel()

		if err != nil {
			s.logger.Debug("geolocation provider failed",
				zap.String("provider", provider.Name()),
				zap.String("ip", ip),
				zap.Error(err))

			continue
		}

		s.store(ctx, key, loc)

		return loc
	}

	s.warner.Warn("location:all-providers-failed",
		"all geolocation providers failed, using default location")
	s.opts.Telemetry.RecordFallback(ctx, "location", "all-providers-failed")

	loc := s.defaultLocation()
	s.store(ctx, key, loc)

	return loc
}

func (s *locationService) store(ctx context.Context, key string, loc *domain.Location) {
	data, err := json.Marshal(loc)

	if err != nil {
		return
	}

	// 0.9x-1.1x jitter so simultaneous lookups for one IP do not all expire
	// in the same instant and stampede the providers.
	ttl := time.Duration(float64(s.opts.BaseTTL) * (0.9 + rand.Float64()*0.2))

	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		s.logger.Debug("failed to cache location", zap.String("key", key), zap.Error(err))
	}
}

func (s *locationService) defaultLocation() *domain.Location {
	loc := s.opts.Default
	return &loc
}

// normalizeIP strips an enclosing IPv6 bracket literal and any zone-index
// suffix, and lowercases hex groups.
func normalizeIP(ip string) string {
	ip = strings.TrimPrefix(ip, "[")
	ip = strings.TrimSuffix(ip, "]")

	if i := strings.IndexByte(ip, '%'); i >= 0 {
		ip = ip[:i]
	}

	return strings.ToLower(ip)
}

// isPrivateOrLocal reports whether ip falls in a range no public geolocation
// provider can resolve: loopback (127/8, ::1), RFC 1918 and ULA
// (10/8, 172.16/12, 192.168/16, fc00::/7), link-local (169.254/16, fe80::/10),
// unspecified (0.0.0.0, ::), or carrier-grade NAT (100.64/10).
func isPrivateOrLocal(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return true
	}

	if v4 := ip.To4(); v4 != nil {
		return v4[0] == 100 && v4[1] >= 64 && v4[1] <= 127
	}

	return false
}
