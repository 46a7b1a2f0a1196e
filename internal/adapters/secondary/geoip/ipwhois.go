// Package geoip implements IP-geolocation provider clients. Each client is a
// secondary adapter translating a provider's response into the domain
// Location, so the resolution service can treat all providers uniformly.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/domain"
)

// IPWhoisClient looks up locations via the ipwho.is API.
type IPWhoisClient struct {
	// baseURL is the API base endpoint
	baseURL string

	// httpClient handles HTTP communication with timeout configuration
	httpClient *http.Client

	// logger records API interactions and errors
	logger *zap.Logger
}

// NewIPWhoisClient creates a new ipwho.is API client.
//
// Parameters:
//   - baseURL: API base URL (typically https://ipwho.is)
//   - httpClient: HTTP client with timeout configuration
//   - logger: Zap logger for API interaction logging
//
// Returns:
//   - *IPWhoisClient: Configured client
func NewIPWhoisClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *IPWhoisClient {
	return &IPWhoisClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ipwhoisResponse represents the ipwho.is lookup response. The API reports
// failures (reserved ranges, rate limits) in-band with success=false and a
// 200 status.
type ipwhoisResponse struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    struct {
		ID string `json:"id"`
	} `json:"timezone"`
}

// Name identifies the provider in logs and warnings.
func (c *IPWhoisClient) Name() string {
	return "ipwhois"
}

// Lookup resolves the given IP address to a location.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - ip: Normalized public IP address
//
// Returns:
//   - *domain.Location: Resolved location with coordinates and timezone
//   - error: HTTP error, non-200 status, in-band failure, or missing coordinates
func (c *IPWhoisClient) Lookup(ctx context.Context, ip string) (*domain.Location, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)

	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return nil, err
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipwho.is returned status %d", resp.StatusCode)
	}

	var body ipwhoisResponse

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	if !body.Success {
		return nil, fmt.Errorf("ipwho.is lookup failed: %s", body.Message)
	}

	if body.Latitude == 0 && body.Longitude == 0 {
		return nil, fmt.Errorf("ipwho.is returned no coordinates")
	}

	return &domain.Location{
		City:        body.City,
		Region:      body.Region,
		Country:     body.Country,
		CountryCode: body.CountryCode,
		Coordinates: domain.Coordinates{
			Latitude:  body.Latitude,
			Longitude: body.Longitude,
		},
		Timezone: body.Timezone.ID,
	}, nil
}
