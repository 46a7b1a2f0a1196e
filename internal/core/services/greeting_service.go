package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/domain"
	"github.com/tcleary/greeting-service/internal/core/ports"
)

// greetingCacheBucket is the wall-clock bucket width for greeting cache keys.
// Identical contexts within one bucket reuse a cached greeting, which bounds
// model-call volume without making greetings static.
const greetingCacheBucket = 30 * time.Minute

const greetingSystemPrompt = `You write one short greeting for a personal website visitor.
Respond with only a JSON object with exactly three fields:
{"greeting": string, "emoji": string, "tone": "friendly"|"professional"|"casual"}
Rules:
- Comment on the weather or time of day, never on the visitor's location and never say "welcome".
- Keep the greeting under 120 characters.
- Use at most one emoji, preferably none.`

type greetingService struct {
	chat   ports.ChatClient
	cache  ports.CacheService
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewGreetingGenerator creates the greeting generation service. A nil chat
// client (no model credential configured) routes every request straight to
// the deterministic fallback.
func NewGreetingGenerator(
	chat ports.ChatClient,
	cacheSvc ports.CacheService,
	ttl time.Duration,
	logger *zap.Logger,
) ports.GreetingGenerator {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &greetingService{
		chat:   chat,
		cache:  cacheSvc,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate produces a greeting for the given context. Model errors, timeouts,
// and malformed output all degrade to deterministic templates; the caller
// always receives a well-formed greeting.
func (s *greetingService) Generate(ctx context.Context, city string, weather *domain.Weather, timeOfDay domain.TimeOfDay) *domain.Greeting {
	bucket := s.now().Unix() / int64(greetingCacheBucket.Seconds())
	key := fmt.Sprintf("greeting:%s:%s:%s:%d", city, weather.Condition, timeOfDay, bucket)

	if data, err := s.cache.Get(ctx, key); err == nil {
		var g domain.Greeting

		if err := json.Unmarshal(data, &g); err == nil {
			return &g
		}
	}

	if s.chat == nil {
		return s.fallback(weather, timeOfDay)
	}

	user := fmt.Sprintf("City: %s. Weather: %s, %d°F (feels like %d°F). Time of day: %s.",
		city, weather.Condition, weather.Temperature, weather.FeelsLike, timeOfDay)

	raw, err := s.chat.Complete(ctx, greetingSystemPrompt, user)

	if err != nil {
		s.logger.Debug("greeting model call failed, using fallback", zap.Error(err))
		return s.fallback(weather, timeOfDay)
	}

	g, ok := parseGreeting(raw, s.now())

	if !ok {
		s.logger.Debug("greeting model output unparsable, using fallback",
			zap.String("raw", raw))

		return s.fallback(weather, timeOfDay)
	}

	if data, err := json.Marshal(g); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Debug("failed to cache greeting", zap.String("key", key), zap.Error(err))
		}
	}

	return g
}

// greetingPayload mirrors the JSON shape the system prompt demands.
type greetingPayload struct {
	Greeting string `json:"greeting"`
	Emoji    string `json:"emoji"`
	Tone     string `json:"tone"`
}

// parseGreeting extracts a greeting from raw model output. It tries a direct
// JSON parse, then the first-{-to-last-} substring for outputs wrapped in
// prose or code fences. A missing greeting field fails the parse.
func parseGreeting(raw string, at time.Time) (*domain.Greeting, bool) {
	var payload greetingPayload

	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		start := strings.IndexByte(raw, '{')
		end := strings.LastIndexByte(raw, '}')

		if start < 0 || end <= start {
			return nil, false
		}

		if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
			return nil, false
		}
	}

	if payload.Greeting == "" {
		return nil, false
	}

	tone := domain.Tone(payload.Tone)

	if !domain.ValidTone(tone) {
		tone = domain.ToneFriendly
	}

	return &domain.Greeting{
		Greeting:    payload.Greeting,
		Emoji:       truncateEmoji(payload.Emoji),
		Tone:        tone,
		GeneratedAt: at,
	}, true
}

// truncateEmoji enforces the at-most-one-symbol contract the prompt asks for
// but the model is free to ignore.
func truncateEmoji(emoji string) string {
	if emoji == "" {
		return ""
	}

	r, _ := utf8.DecodeRuneInString(emoji)

	if r == utf8.RuneError {
		return ""
	}

	return string(r)
}

// fallback chooses a canned greeting from the weather condition keywords and
// the time of day. It never calls the model and never fails.
func (s *greetingService) fallback(weather *domain.Weather, timeOfDay domain.TimeOfDay) *domain.Greeting {
	opener := map[domain.TimeOfDay]string{
		domain.Morning:   "Good morning",
		domain.Afternoon: "Good afternoon",
		domain.Evening:   "Good evening",
		domain.Night:     "Hello",
	}[timeOfDay]

	condition := strings.ToLower(weather.Condition)

	var text, emoji string

	switch {
	case strings.Contains(condition, "rain"):
		text = fmt.Sprintf("%s! A rainy one out there, good day to stay cozy.", opener)
		emoji = "☔"
	case strings.Contains(condition, "sun") || weather.Temperature > 75:
		text = fmt.Sprintf("%s! Beautiful bright weather today.", opener)
		emoji = "🌞"
	case weather.Temperature < 50:
		text = fmt.Sprintf("%s! Chilly out there, stay warm.", opener)
		emoji = "❄"
	default:
		text = fmt.Sprintf("%s! Hope your %s is going well.", opener, timeOfDay)
		emoji = "👋"
	}

	return &domain.Greeting{
		Greeting:    text,
		Emoji:       emoji,
		Tone:        domain.ToneFriendly,
		GeneratedAt: s.now(),
	}
}
