package openweather

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/domain"
)

// StandardClient fetches current conditions from the free current-weather
// 2.5 API, which any valid key can use.
type StandardClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewStandardClient creates a current-weather 2.5 client.
func NewStandardClient(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *StandardClient {
	return &StandardClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// currentWeatherResponse represents the subset of the 2.5 weather response
// the service consumes. The 2.5 payload nests differently from One Call.
type currentWeatherResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []weatherCondition `json:"weather"`
}

// Name identifies the tier in logs and warnings.
func (c *StandardClient) Name() string {
	return "standard"
}

// Current fetches current conditions at the given coordinates. A 401 maps to
// ports.ErrEntitlement the same way the premium tier does.
func (c *StandardClient) Current(ctx context.Context, coords domain.Coordinates) (*domain.Weather, error) {
	url := fmt.Sprintf("%s/weather?lat=%g&lon=%g&units=imperial&appid=%s",
		c.baseURL, coords.Latitude, coords.Longitude, c.apiKey)

	var body currentWeatherResponse

	if err := fetchJSON(ctx, c.httpClient, url, &body); err != nil {
		return nil, err
	}

	if len(body.Weather) == 0 {
		return nil, fmt.Errorf("weather endpoint returned no conditions")
	}

	condition := body.Weather[0]

	return &domain.Weather{
		Temperature:   roundTemp(body.Main.Temp),
		Condition:     titleCondition(condition.Description),
		ConditionCode: condition.ID,
		Humidity:      body.Main.Humidity,
		WindSpeed:     body.Wind.Speed,
		FeelsLike:     roundTemp(body.Main.FeelsLike),
		FetchedAt:     time.Now(),
	}, nil
}
