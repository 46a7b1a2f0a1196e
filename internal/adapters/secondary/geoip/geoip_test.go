package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/domain"
)

func TestIPWhoisClient_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8", r.URL.Path)
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
	defer server.Close()

	client := NewIPWhoisClient(server.URL, server.Client(), zap.NewNop())

	location, err := client.Lookup(context.Background(), "8.8.8.8")

	require.NoError(t, err)
	assert.Equal(t, "Mountain View", location.City)
	assert.Equal(t, "US", location.CountryCode)
	assert.Equal(t, domain.Coordinates{Latitude: 37.3861, Longitude: -122.0839}, location.Coordinates)
	assert.Equal(t, "America/Los_Angeles", location.Timezone)
}

// ipwho.is reports reserved-range and quota errors in-band with a 200.
func TestIPWhoisClient_InBandFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "Reserved range"}`))
	}))
	defer server.Close()

	client := NewIPWhoisClient(server.URL, server.Client(), zap.NewNop())

	location, err := client.Lookup(context.Background(), "10.0.0.1")

	assert.Error(t, err)
	assert.Nil(t, location)
	assert.Contains(t, err.Error(), "Reserved range")
}

func TestIPWhoisClient_NullIslandRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "city": "Nowhere", "latitude": 0, "longitude": 0}`))
	}))
	defer server.Close()

	client := NewIPWhoisClient(server.URL, server.Client(), zap.NewNop())

	_, err := client.Lookup(context.Background(), "8.8.8.8")

	assert.Error(t, err)
}

func TestIPWhoisClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewIPWhoisClient(server.URL, server.Client(), zap.NewNop())

	_, err := client.Lookup(context.Background(), "8.8.8.8")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestIPAPIClient_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/8.8.8.8", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"status": "success",
			"city": "Ashburn",
			"regionName": "Virginia",
			"country": "United States",
			"countryCode": "US",
			"lat": 39.03,
			"lon": -77.5,
			"timezone": "America/New_York"
		}`))
	}))
	defer server.Close()

	client := NewIPAPIClient(server.URL, server.Client(), zap.NewNop())

	location, err := client.Lookup(context.Background(), "8.8.8.8")

	require.NoError(t, err)
	assert.Equal(t, "Ashburn", location.City)
	assert.Equal(t, "Virginia", location.Region)
	assert.Equal(t, "America/New_York", location.Timezone)
}

func TestIPAPIClient_FailStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "fail", "message": "private range"}`))
	}))
	defer server.Close()

	client := NewIPAPIClient(server.URL, server.Client(), zap.NewNop())

	location, err := client.Lookup(context.Background(), "192.168.1.1")

	assert.Error(t, err)
	assert.Nil(t, location)
	assert.Contains(t, err.Error(), "private range")
}

func TestIPInfoClient_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8/json", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"city": "Mountain View",
			"region": "California",
			"country": "US",
			"loc": "37.4056,-122.0775",
			"timezone": "America/Los_Angeles"
		}`))
	}))
	defer server.Close()

	client := NewIPInfoClient(server.URL, "test-token", server.Client(), zap.NewNop())

	location, err := client.Lookup(context.Background(), "8.8.8.8")

	require.NoError(t, err)
	assert.Equal(t, "Mountain View", location.City)
	assert.Equal(t, "US", location.CountryCode)
	assert.InDelta(t, 37.4056, location.Coordinates.Latitude, 0.0001)
	assert.InDelta(t, -122.0775, location.Coordinates.Longitude, 0.0001)
}

func TestIPInfoClient_NoTokenOmitsHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"city": "X", "loc": "1,1"}`))
	}))
	defer server.Close()

	client := NewIPInfoClient(server.URL, "", server.Client(), zap.NewNop())

	_, err := client.Lookup(context.Background(), "8.8.8.8")

	assert.NoError(t, err)
}

func TestParseLoc(t *testing.T) {
	tests := []struct {
		name    string
		loc     string
		wantErr bool
		lat     float64
		lon     float64
	}{
		{"valid", "51.5074,-0.1278", false, 51.5074, -0.1278},
		{"valid with space", "51.5074, -0.1278", false, 51.5074, -0.1278},
		{"empty", "", true, 0, 0},
		{"single value", "51.5074", true, 0, 0},
		{"non numeric", "abc,def", true, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coords, err := parseLoc(tt.loc)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.lat, coords.Latitude)
			assert.Equal(t, tt.lon, coords.Longitude)
		})
	}
}
