package openweather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/domain"
	"github.com/tcleary/greeting-service/internal/core/ports"
)

var testCoords = domain.Coordinates{Latitude: 40.7128, Longitude: -74.0060}

func TestPremiumClient_Current(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/onecall", r.URL.Path)
		assert.Equal(t, "imperial", r.URL.Query().Get("units"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(`{
			"current": {
				"temp": 67.6,
				"feels_like": 66.2,
				"humidity": 71,
				"wind_speed": 8.5,
				"weather": [{"id": 500, "main": "Rain", "description": "light rain"}]
			}
		}`))
	}))
	defer server.Close()

	client := NewPremiumClient(server.URL, "test-key", server.Client(), zap.NewNop())

	weather, err := client.Current(context.Background(), testCoords)

	require.NoError(t, err)
	assert.Equal(t, 68, weather.Temperature)
	assert.Equal(t, 66, weather.FeelsLike)
	assert.Equal(t, "Light rain", weather.Condition)
	assert.Equal(t, 500, weather.ConditionCode)
	assert.Equal(t, 71, weather.Humidity)
	assert.Equal(t, 8.5, weather.WindSpeed)
	assert.False(t, weather.FetchedAt.IsZero())
}

func TestPremiumClient_UnauthorizedIsEntitlement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod": 401, "message": "Invalid API key"}`))
	}))
	defer server.Close()

	client := NewPremiumClient(server.URL, "free-tier-key", server.Client(), zap.NewNop())

	weather, err := client.Current(context.Background(), testCoords)

	assert.Nil(t, weather)
	assert.True(t, errors.Is(err, ports.ErrEntitlement))
}

func TestPremiumClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewPremiumClient(server.URL, "test-key", server.Client(), zap.NewNop())

	_, err := client.Current(context.Background(), testCoords)

	assert.Error(t, err)
	assert.False(t, errors.Is(err, ports.ErrEntitlement))
}

func TestPremiumClient_EmptyConditions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current": {"temp": 60, "weather": []}}`))
	}))
	defer server.Close()

	client := NewPremiumClient(server.URL, "test-key", server.Client(), zap.NewNop())

	_, err := client.Current(context.Background(), testCoords)

	assert.Error(t, err)
}

func TestStandardClient_Current(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "imperial", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(`{
			"main": {"temp": 41.2, "feels_like": 35.9, "humidity": 52},
			"wind": {"speed": 12.3},
			"weather": [{"id": 804, "main": "Clouds", "description": "overcast clouds"}]
		}`))
	}))
	defer server.Close()

	client := NewStandardClient(server.URL, "test-key", server.Client(), zap.NewNop())

	weather, err := client.Current(context.Background(), testCoords)

	require.NoError(t, err)
	assert.Equal(t, 41, weather.Temperature)
	assert.Equal(t, 36, weather.FeelsLike)
	assert.Equal(t, "Overcast clouds", weather.Condition)
	assert.Equal(t, 804, weather.ConditionCode)
	assert.Equal(t, 12.3, weather.WindSpeed)
}

func TestStandardClient_UnauthorizedIsEntitlement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewStandardClient(server.URL, "revoked-key", server.Client(), zap.NewNop())

	_, err := client.Current(context.Background(), testCoords)

	assert.True(t, errors.Is(err, ports.ErrEntitlement))
}

func TestTitleCondition(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"light rain", "Light rain"},
		{"Clear Sky", "Clear Sky"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, titleCondition(tt.in))
	}
}
