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

// IPAPIClient looks up locations via the ip-api.com API.
type IPAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewIPAPIClient creates a new ip-api.com client.
func NewIPAPIClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *IPAPIClient {
	return &IPAPIClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ipapiResponse represents the ip-api.com lookup response. Failures come back
// with a 200 status and status=="fail".
type ipapiResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	City        string  `json:"city"`
	RegionName  string  `json:"regionName"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
}

// Name identifies the provider in logs and warnings.
func (c *IPAPIClient) Name() string {
	return "ip-api"
}

// Lookup resolves the given IP address to a location.
func (c *IPAPIClient) Lookup(ctx context.Context, ip string) (*domain.Location, error) {
	url := fmt.Sprintf("%s/json/%s", c.baseURL, ip)
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
		return nil, fmt.Errorf("ip-api returned status %d", resp.StatusCode)
	}

	var body ipapiResponse

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	if body.Status != "success" {
		return nil, fmt.Errorf("ip-api lookup failed: %s", body.Message)
	}

	return &domain.Location{
		City:        body.City,
		Region:      body.RegionName,
		Country:     body.Country,
		CountryCode: body.CountryCode,
		Coordinates: domain.Coordinates{
			Latitude:  body.Lat,
			Longitude: body.Lon,
		},
		Timezone: body.Timezone,
	}, nil
}
