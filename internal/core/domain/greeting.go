// Package domain contains the core business entities and domain logic for the
// greeting service. This package defines the fundamental types and business rules
// that are independent of external frameworks and infrastructure concerns.
package domain

import (
	"fmt"
	"time"
)

// Coordinates represent a geographic location using latitude and longitude.
// This follows the standard geographic coordinate system used worldwide.
type Coordinates struct {
	// Latitude specifies the north-south position (-90 to 90 degrees)
	Latitude float64

	// Longitude specifies the east-west position (-180 to 180 degrees)
	Longitude float64
}

// Validate checks if the coordinates are within valid geographic bounds.
// Latitude must be between -90 and 90 degrees (south to north poles).
// Longitude must be between -180 and 180 degrees (international date line).
func (c Coordinates) Validate() error {
	if c.Latitude != c.Latitude || c.Longitude != c.Longitude {
		return fmt.Errorf("coordinates must be finite numbers")
	}

	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %f", c.Latitude)
	}

	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %f", c.Longitude)
	}

	return nil
}

// Location describes where a visitor is connecting from. It is produced either
// from a geolocation provider response or from the fixed default record, and is
// immutable once constructed.
type Location struct {
	// City is the resolved city name
	City string

	// Region is the state, province, or equivalent subdivision
	Region string

	// Country is the full country name
	Country string

	// CountryCode is the ISO 3166-1 alpha-2 country code
	CountryCode string

	// Coordinates give the geographic position of the resolved location
	Coordinates Coordinates

	// Timezone is the IANA timezone name, e.g. "America/New_York"
	Timezone string
}

// Weather captures the current conditions for a location. Temperatures are in
// degrees Fahrenheit, rounded to whole degrees.
type Weather struct {
	// Temperature is the current air temperature
	Temperature int

	// Condition is a short human-readable sky description, e.g. "Clear"
	Condition string

	// ConditionCode is the provider-defined numeric condition identifier
	ConditionCode int

	// Humidity is the relative humidity percentage
	Humidity int

	// WindSpeed is the wind speed in miles per hour
	WindSpeed float64

	// FeelsLike is the apparent temperature
	FeelsLike int

	// FetchedAt records when this weather data was retrieved or synthesized
	FetchedAt time.Time
}

// Tone classifies the register of a generated greeting.
type Tone string

const (
	// ToneFriendly is the warm default register
	ToneFriendly Tone = "friendly"

	// ToneProfessional is a reserved, businesslike register
	ToneProfessional Tone = "professional"

	// ToneCasual is a relaxed, colloquial register
	ToneCasual Tone = "casual"
)

// ValidTone reports whether t is one of the recognized tones.
func ValidTone(t Tone) bool {
	switch t {
	case ToneFriendly, ToneProfessional, ToneCasual:
		return true
	}

	return false
}

// TimeOfDay partitions the day into conversational buckets.
type TimeOfDay string

const (
	// Morning covers 05:00 through 11:59
	Morning TimeOfDay = "morning"

	// Afternoon covers 12:00 through 16:59
	Afternoon TimeOfDay = "afternoon"

	// Evening covers 17:00 through 20:59
	Evening TimeOfDay = "evening"

	// Night covers 21:00 through 04:59
	Night TimeOfDay = "night"
)

// TimeOfDayForHour maps a local wall-clock hour (0-23) to its bucket.
func TimeOfDayForHour(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}

// Greeting is a short personalized message for a visitor. It is produced from a
// parsed language-model response or from a deterministic fallback rule, and is
// always well formed: a non-empty Greeting, at most one emoji, and a valid Tone.
type Greeting struct {
	// Greeting is the message text, at most ~120 characters by construction
	Greeting string

	// Emoji is zero or one symbol accompanying the message
	Emoji string

	// Tone is the register of the message
	Tone Tone

	// GeneratedAt records when the greeting was produced
	GeneratedAt time.Time
}

// PersonalizedGreeting is the full pipeline output returned to the caller:
// the greeting itself plus the location and weather context it was built from.
type PersonalizedGreeting struct {
	Greeting Greeting
	Location Location
	Weather  Weather
}

// PipelineError represents errors that can occur inside pipeline collaborators
// (provider clients, parsers). The resolver services catch these and degrade to
// defaults; the error type exists so adapters can report structured failures.
type PipelineError struct {
	// Code identifies the type of error for programmatic handling
	Code string

	// Message provides a human-readable error description
	Message string

	// Cause wraps an underlying error if applicable
	Cause error
}

// Error implements the error interface for PipelineError.
// It formats the error message to include the code, message, and underlying cause.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}
