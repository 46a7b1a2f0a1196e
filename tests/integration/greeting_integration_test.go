//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/adapters/primary/rest"
	"github.com/tcleary/greeting-service/internal/adapters/secondary/geoip"
	"github.com/tcleary/greeting-service/internal/adapters/secondary/llm"
	"github.com/tcleary/greeting-service/internal/adapters/secondary/openweather"
	"github.com/tcleary/greeting-service/internal/core/domain"
	"github.com/tcleary/greeting-service/internal/core/ports"
	"github.com/tcleary/greeting-service/internal/core/services"
	"github.com/tcleary/greeting-service/internal/infrastructure/cache"
	"github.com/tcleary/greeting-service/internal/logging"
)

type IntegrationTestSuite struct {
	suite.Suite
	server      *httptest.Server
	mockGeo     *httptest.Server
	mockWeather *httptest.Server
	mockChat    *httptest.Server
	geoHits     int64
	weatherHits int64
	chatHits    int64
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupTest() {
	atomic.StoreInt64(&s.geoHits, 0)
	atomic.StoreInt64(&s.weatherHits, 0)
	atomic.StoreInt64(&s.chatHits, 0)

	s.setupMockGeo()
	s.setupMockWeather()
	s.setupMockChat()
	s.setupApplication()
}

func (s *IntegrationTestSuite) TearDownTest() {
	s.server.Close()
	s.mockGeo.Close()
	s.mockWeather.Close()
	s.mockChat.Close()
}

func (s *IntegrationTestSuite) setupMockGeo() {
	s.mockGeo = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.geoHits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"city": "Mountain View",
			"region": "California",
			"country": "United States",
			"country_code": "US",
			"latitude": 37.3861,
			"longitude": -122.0839,
			"timezone": {"id": "America/Los_Angeles"}
		}`))
	}))
}

func (s *IntegrationTestSuite) setupMockWeather() {
	s.mockWeather = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.weatherHits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"main": {"temp": 61.5, "feels_like": 59.8, "humidity": 70},
			"wind": {"speed": 6.9},
			"weather": [{"id": 803, "main": "Clouds", "description": "broken clouds"}]
		}`))
	}))
}

func (s *IntegrationTestSuite) setupMockChat() {
	s.mockChat = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.chatHits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-it",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "{\"greeting\":\"Cloudy but pleasant out there\",\"emoji\":\"\",\"tone\":\"friendly\"}"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 40, "completion_tokens": 18, "total_tokens": 58}
		}`))
	}))
}

func (s *IntegrationTestSuite) setupApplication() {
	logger := zap.NewNop()
	httpClient := &http.Client{Timeout: 5 * time.Second}
	cacheService := cache.NewMemoryCache(time.Hour, 0, nil, logger)
	warner := logging.NewOnce(logger)

	locationResolver := services.NewLocationResolver(
		[]ports.GeoProvider{
			geoip.NewIPWhoisClient(s.mockGeo.URL, httpClient, logger),
		},
		cacheService,
		warner,
		services.LocationResolverOptions{
			Default: domain.Location{
				City:        "New York",
				Region:      "New York",
				Country:     "United States",
				CountryCode: "US",
				Coordinates: domain.Coordinates{Latitude: 40.7128, Longitude: -74.0060},
				Timezone:    "America/New_York",
			},
			BaseTTL:        time.Hour,
			AttemptTimeout: 3500 * time.Millisecond,
		},
		logger,
	)

	weatherResolver := services.NewWeatherResolver(
		[]ports.WeatherClient{
			openweather.NewStandardClient(s.mockWeather.URL, "test-key", httpClient, logger),
		},
		cacheService,
		warner,
		services.WeatherResolverOptions{TTL: time.Hour, APIKeyConfigured: true},
		logger,
	)

	greetingGenerator := services.NewGreetingGenerator(
		llm.NewOpenAIClient(llm.Config{
			APIKey:      "sk-test",
			BaseURL:     s.mockChat.URL,
			Model:       "gpt-4o-mini",
			Temperature: 0.8,
			Timeout:     5 * time.Second,
		}, logger),
		cacheService,
		30*time.Minute,
		logger,
	)

	pipeline := services.NewGreetingPipeline(locationResolver, weatherResolver, greetingGenerator, logger)
	handler := rest.NewGreetingHandler(pipeline, logger)

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/greeting", handler.GetGreeting).Methods("GET")

	s.server = httptest.NewServer(router)
}

func (s *IntegrationTestSuite) getGreeting(path string, headers map[string]string) (int, map[string]interface{}) {
	req, err := http.NewRequest("GET", s.server.URL+path, nil)
	require.NoError(s.T(), err)

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.T(), err)

	defer func() { _ = resp.Body.Close() }()

	var body map[string]interface{}
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&body))

	return resp.StatusCode, body
}

// TestPublicIPFullPipeline drives the whole chain: geolocation, weather and
// model-generated greeting for a forwarded public IP.
func (s *IntegrationTestSuite) TestPublicIPFullPipeline() {
	status, body := s.getGreeting("/api/v1/greeting", map[string]string{
		"X-Forwarded-For": "8.8.8.8",
	})

	assert.Equal(s.T(), http.StatusOK, status)
	assert.Equal(s.T(), "Cloudy but pleasant out there", body["greeting"])

	location := body["location"].(map[string]interface{})
	assert.Equal(s.T(), "Mountain View", location["city"])

	weather := body["weather"].(map[string]interface{})
	assert.Equal(s.T(), float64(62), weather["temperature"])
	assert.Equal(s.T(), "Broken clouds", weather["condition"])

	assert.EqualValues(s.T(), 1, atomic.LoadInt64(&s.geoHits))
	assert.EqualValues(s.T(), 1, atomic.LoadInt64(&s.weatherHits))
	assert.EqualValues(s.T(), 1, atomic.LoadInt64(&s.chatHits))
}

// TestPrivateIPSkipsGeoLookup verifies a loopback visitor maps straight to
// the default location without any provider traffic.
func (s *IntegrationTestSuite) TestPrivateIPSkipsGeoLookup() {
	status, body := s.getGreeting("/api/v1/greeting", nil)

	assert.Equal(s.T(), http.StatusOK, status)

	location := body["location"].(map[string]interface{})
	assert.Equal(s.T(), "New York", location["city"])

	assert.EqualValues(s.T(), 0, atomic.LoadInt64(&s.geoHits))
	assert.EqualValues(s.T(), 1, atomic.LoadInt64(&s.weatherHits))
}

// TestRepeatRequestServedFromCache verifies the second identical request
// touches no external service at all.
func (s *IntegrationTestSuite) TestRepeatRequestServedFromCache() {
	headers := map[string]string{"X-Forwarded-For": "8.8.8.8"}

	status, first := s.getGreeting("/api/v1/greeting", headers)
	assert.Equal(s.T(), http.StatusOK, status)

	status, second := s.getGreeting("/api/v1/greeting", headers)
	assert.Equal(s.T(), http.StatusOK, status)

	assert.Equal(s.T(), first["greeting"], second["greeting"])
	assert.EqualValues(s.T(), 1, atomic.LoadInt64(&s.geoHits))
	assert.EqualValues(s.T(), 1, atomic.LoadInt64(&s.weatherHits))
	assert.EqualValues(s.T(), 1, atomic.LoadInt64(&s.chatHits))
}

// TestBrowserCoordinates verifies lat/lon query parameters bypass
// geolocation entirely.
func (s *IntegrationTestSuite) TestBrowserCoordinates() {
	status, body := s.getGreeting(
		fmt.Sprintf("/api/v1/greeting?lat=%g&lon=%g", 47.6062, -122.3321), nil)

	assert.Equal(s.T(), http.StatusOK, status)

	location := body["location"].(map[string]interface{})
	assert.Equal(s.T(), "your area", location["city"])
	assert.EqualValues(s.T(), 0, atomic.LoadInt64(&s.geoHits))
	assert.EqualValues(s.T(), 1, atomic.LoadInt64(&s.weatherHits))
}

// TestWeatherOutageStillGreets verifies a dead weather API degrades to a
// synthesized estimate, never an error.
func (s *IntegrationTestSuite) TestWeatherOutageStillGreets() {
	s.mockWeather.Close()

	status, body := s.getGreeting("/api/v1/greeting", map[string]string{
		"X-Forwarded-For": "8.8.8.8",
	})

	assert.Equal(s.T(), http.StatusOK, status)
	assert.NotEmpty(s.T(), body["greeting"])

	weather := body["weather"].(map[string]interface{})
	assert.NotEmpty(s.T(), weather["condition"])
}
