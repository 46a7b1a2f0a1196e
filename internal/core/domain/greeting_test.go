package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinatesValidate(t *testing.T) {
	tests := []struct {
		name    string
		coords  Coordinates
		wantErr bool
	}{
		{"valid", Coordinates{Latitude: 40.7128, Longitude: -74.0060}, false},
		{"boundary north pole", Coordinates{Latitude: 90, Longitude: 0}, false},
		{"boundary date line", Coordinates{Latitude: 0, Longitude: -180}, false},
		{"latitude too high", Coordinates{Latitude: 90.01, Longitude: 0}, true},
		{"latitude too low", Coordinates{Latitude: -90.01, Longitude: 0}, true},
		{"longitude too high", Coordinates{Latitude: 0, Longitude: 180.01}, true},
		{"nan latitude", Coordinates{Latitude: math.NaN(), Longitude: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coords.Validate()

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTimeOfDayForHour(t *testing.T) {
	tests := []struct {
		hour int
		want TimeOfDay
	}{
		{0, Night},
		{4, Night},
		{5, Morning},
		{11, Morning},
		{12, Afternoon},
		{16, Afternoon},
		{17, Evening},
		{20, Evening},
		{21, Night},
		{23, Night},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeOfDayForHour(tt.hour), "hour %d", tt.hour)
	}
}

func TestValidTone(t *testing.T) {
	assert.True(t, ValidTone(ToneFriendly))
	assert.True(t, ValidTone(ToneProfessional))
	assert.True(t, ValidTone(ToneCasual))
	assert.False(t, ValidTone(Tone("sarcastic")))
	assert.False(t, ValidTone(Tone("")))
}

func TestPipelineErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &PipelineError{Code: "PROVIDER_ERROR", Message: "lookup failed", Cause: cause}

	assert.Contains(t, err.Error(), "PROVIDER_ERROR")
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, errors.Is(err, cause))
}
