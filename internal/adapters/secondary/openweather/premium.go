// Package openweather implements OpenWeatherMap clients for the two API
// tiers the service can run against: the paid One Call 3.0 endpoint and the
// free current-weather 2.5 endpoint. Both translate responses into the
// domain Weather model; a 401 is surfaced as the entitlement sentinel so the
// resolver can skip the tier without retrying it.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/domain"
	"github.com/tcleary/greeting-service/internal/core/ports"
)

// PremiumClient fetches current conditions from the One Call 3.0 API, which
// requires a paid subscription on the API key.
type PremiumClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPremiumClient creates a One Call 3.0 client.
//
// Parameters:
//   - baseURL: API base URL (typically https://api.openweathermap.org/data/3.0)
//   - apiKey: OpenWeatherMap API key
//   - httpClient: HTTP client with timeout configuration
//   - logger: Zap logger for API interaction logging
//
// Returns:
//   - *PremiumClient: Configured client
func NewPremiumClient(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *PremiumClient {
	return &PremiumClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// oneCallResponse represents the subset of the One Call 3.0 response the
// service consumes.
type oneCallResponse struct {
	Current struct {
		Temp      float64            `json:"temp"`
		FeelsLike float64            `json:"feels_like"`
		Humidity  int                `json:"humidity"`
		WindSpeed float64            `json:"wind_speed"`
		Weather   []weatherCondition `json:"weather"`
	} `json:"current"`
}

type weatherCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

// Name identifies the tier in logs and warnings.
func (c *PremiumClient) Name() string {
	return "premium"
}

// Current fetches current conditions at the given coordinates.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - coords: Geographic coordinates
//
// Returns:
//   - *domain.Weather: Current conditions in Fahrenheit
//   - error: ports.ErrEntitlement on a 401, otherwise HTTP or decode errors
func (c *PremiumClient) Current(ctx context.Context, coords domain.Coordinates) (*domain.Weather, error) {
	url := fmt.Sprintf("%s/onecall?lat=%g&lon=%g&units=imperial&exclude=minutely,hourly,daily,alerts&appid=%s",
		c.baseURL, coords.Latitude, coords.Longitude, c.apiKey)

	var body oneCallResponse

	if err := fetchJSON(ctx, c.httpClient, url, &body); err != nil {
		return nil, err
	}

	if len(body.Current.Weather) == 0 {
		return nil, fmt.Errorf("onecall returned no weather conditions")
	}

	condition := body.Current.Weather[0]

	return &domain.Weather{
		Temperature:   roundTemp(body.Current.Temp),
		Condition:     titleCondition(condition.Description),
		ConditionCode: condition.ID,
		Humidity:      body.Current.Humidity,
		WindSpeed:     body.Current.WindSpeed,
		FeelsLike:     roundTemp(body.Current.FeelsLike),
		FetchedAt:     time.Now(),
	}, nil
}

// fetchJSON performs a GET and decodes the JSON body, mapping a 401 to the
// entitlement sentinel shared by both tiers.
func fetchJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)

	if err != nil {
		return err
	}

	resp, err := client.Do(req)

	if err != nil {
		return err
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return ports.ErrEntitlement
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openweathermap returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// roundTemp rounds an API temperature to the nearest whole degree.
func roundTemp(t float64) int {
	return int(math.Round(t))
}

// titleCondition upper-cases the first letter of OpenWeatherMap's lowercase
// condition descriptions ("light rain" becomes "Light rain").
func titleCondition(description string) string {
	if description == "" {
		return description
	}

	r, size := utf8.DecodeRuneInString(description)

	return string(unicode.ToUpper(r)) + description[size:]
}
