package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/domain"
)

// IPInfoClient looks up locations via the ipinfo.io API. An access token is
// optional; without one the free anonymous tier applies.
type IPInfoClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewIPInfoClient creates a new ipinfo.io client.
func NewIPInfoClient(baseURL, token string, httpClient *http.Client, logger *zap.Logger) *IPInfoClient {
	return &IPInfoClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ipinfoResponse represents the ipinfo.io lookup response. Coordinates arrive
// as a single "lat,lon" string and country is a two-letter code only.
type ipinfoResponse struct {
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Loc      string `json:"loc"`
	Timezone string `json:"timezone"`
}

// Name identifies the provider in logs and warnings.
func (c *IPInfoClient) Name() string {
	return "ipinfo"
}

// Lookup resolves the given IP address to a location.
func (c *IPInfoClient) Lookup(ctx context.Context, ip string) (*domain.Location, error) {
	url := fmt.Sprintf("%s/%s/json", c.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)

	if err != nil {
		return nil, err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return nil, err
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipinfo returned status %d", resp.StatusCode)
	}

	var body ipinfoResponse

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	coords, err := parseLoc(body.Loc)

	if err != nil {
		return nil, err
	}

	return &domain.Location{
		City:        body.City,
		Region:      body.Region,
		Country:     body.Country,
		CountryCode: body.Country,
		Coordinates: coords,
		Timezone:    body.Timezone,
	}, nil
}

// parseLoc splits ipinfo's "lat,lon" coordinate string.
func parseLoc(loc string) (domain.Coordinates, error) {
	parts := strings.Split(loc, ",")

	if len(parts) != 2 {
		return domain.Coordinates{}, fmt.Errorf("ipinfo returned malformed loc %q", loc)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)

	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("ipinfo returned malformed latitude %q", parts[0])
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)

	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("ipinfo returned malformed longitude %q", parts[1])
	}

	return domain.Coordinates{Latitude: lat, Longitude: lon}, nil
}
