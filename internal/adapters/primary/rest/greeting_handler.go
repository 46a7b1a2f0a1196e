// Package rest implements the HTTP handlers for the greeting endpoints.
// This package serves as the primary adapter, translating HTTP requests
// into pipeline invocations and formatting responses for clients.
package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tcleary/greeting-service/internal/core/domain"
	"github.com/tcleary/greeting-service/internal/core/ports"
	"github.com/tcleary/greeting-service/internal/middleware"
)

// GreetingHandler handles HTTP requests for personalized greetings. It acts
// as the primary adapter between HTTP transport and the greeting pipeline,
// managing request parsing, validation, and response formatting.
type GreetingHandler struct {
	// pipeline provides the full location/weather/greeting flow
	pipeline ports.GreetingPipeline

	// logger records request processing events and errors
	logger *zap.Logger
}

// NewGreetingHandler creates a new HTTP handler for greeting requests.
//
// Parameters:
//   - pipeline: GreetingPipeline interface for the personalization flow
//   - logger: Zap logger for request logging and error tracking
//
// Returns:
//   - *GreetingHandler: Configured handler instance
func NewGreetingHandler(pipeline ports.GreetingPipeline, logger *zap.Logger) *GreetingHandler {
	return &GreetingHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// GreetingResponse represents the JSON structure returned by the greeting
// endpoint. It flattens the pipeline result into a client-friendly shape.
type GreetingResponse struct {
	Greeting string           `json:"greeting"`
	Emoji    string           `json:"emoji,omitempty"`
	Tone     string           `json:"tone"`
	Location LocationResponse `json:"location"`
	Weather  WeatherResponse  `json:"weather"`
}

// LocationResponse is the location portion of the greeting response.
type LocationResponse struct {
	City        string `json:"city"`
	Region      string `json:"region,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

// WeatherResponse is the weather portion of the greeting response.
type WeatherResponse struct {
	Temperature int     `json:"temperature"`
	Condition   string  `json:"condition"`
	FeelsLike   int     `json:"feelsLike"`
	Humidity    int     `json:"humidity,omitempty"`
	WindSpeed   float64 `json:"windSpeed,omitempty"`
}

// ErrorResponse represents a standardized error response structure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// GetGreeting handles GET requests for a personalized greeting.
//
// Browser-supplied coordinates arrive as optional 'lat' and 'lon' query
// parameters; when absent the client IP drives geolocation instead. The
// pipeline itself never fails, so apart from parameter validation this
// endpoint always returns 200.
//
// Response codes:
//   - 200: Success with GreetingResponse JSON
//   - 400: Malformed coordinates (INVALID_LATITUDE, INVALID_LONGITUDE, MISSING_PARAMETER)
func (h *GreetingHandler) GetGreeting(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("greeting pipeline panicked",
				zap.Any("panic", rec),
				zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			)

			h.respondWithJSON(w, http.StatusOK, staticGreetingResponse())
		}
	}()

	gps, errResp := parseOptionalCoordinates(r)

	if errResp != nil {
		h.respondWithJSON(w, http.StatusBadRequest, *errResp)
		return
	}

	clientIP := middleware.GetClientIP(r)

	result := h.pipeline.Greet(r.Context(), clientIP, gps)

	response := GreetingResponse{
		Greeting: result.Greeting.Greeting,
		Emoji:    result.Greeting.Emoji,
		Tone:     string(result.Greeting.Tone),
		Location: LocationResponse{
			City:        result.Location.City,
			Region:      result.Location.Region,
			Country:     result.Location.Country,
			CountryCode: result.Location.CountryCode,
			Timezone:    result.Location.Timezone,
		},
		Weather: WeatherResponse{
			Temperature: result.Weather.Temperature,
			Condition:   result.Weather.Condition,
			FeelsLike:   result.Weather.FeelsLike,
			Humidity:    result.Weather.Humidity,
			WindSpeed:   result.Weather.WindSpeed,
		},
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// parseOptionalCoordinates reads the lat/lon query parameters. Both absent
// means IP-based resolution; one absent or either malformed is a client
// error.
func parseOptionalCoordinates(r *http.Request) (*domain.Coordinates, *ErrorResponse) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")

	if latStr == "" && lonStr == "" {
		return nil, nil
	}

	if latStr == "" || lonStr == "" {
		return nil, &ErrorResponse{
			Error:   "MISSING_PARAMETER",
			Message: "'lat' and 'lon' must be provided together",
		}
	}

	latitude, err := strconv.ParseFloat(latStr, 64)

	if err != nil {
		return nil, &ErrorResponse{
			Error:   "INVALID_LATITUDE",
			Message: "Invalid latitude format",
		}
	}

	longitude, err := strconv.ParseFloat(lonStr, 64)

	if err != nil {
		return nil, &ErrorResponse{
			Error:   "INVALID_LONGITUDE",
			Message: "Invalid longitude format",
		}
	}

	coords := domain.Coordinates{
		Latitude:  latitude,
		Longitude: longitude,
	}

	if err := coords.Validate(); err != nil {
		return nil, &ErrorResponse{
			Error:   "INVALID_COORDINATES",
			Message: err.Error(),
		}
	}

	return &coords, nil
}

// staticGreetingResponse is the last-resort payload when even the pipeline's
// internal fallbacks fail. Visitors see a plain greeting, never an error.
func staticGreetingResponse() GreetingResponse {
	return GreetingResponse{
		Greeting: "Hello! Thanks for stopping by.",
		Emoji:    "👋",
		Tone:     string(domain.ToneFriendly),
		Location: LocationResponse{City: "your area"},
		Weather: WeatherResponse{
			Temperature: 65,
			Condition:   "Partly cloudy",
			FeelsLike:   65,
		},
	}
}

// respondWithJSON sends a JSON response with the specified status code.
//
// Parameters:
//   - w: HTTP response writer
//   - status: HTTP status code to return
//   - payload: Data to encode as JSON response body
func (h *GreetingHandler) respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "private, max-age="+strconv.Itoa(int((5*time.Minute).Seconds())))
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
