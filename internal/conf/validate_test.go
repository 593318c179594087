package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldrec/fieldrec-go/internal/errors"
)

// validSettings returns a settings struct that passes validation.
func validSettings() *Settings {
	s := &Settings{}
	s.Main.Name = "node-1"
	s.Main.Latitude = 60.17
	s.Main.Longitude = 24.94
	s.Recording.Duration = 3
	s.Recording.Samplerate = 192000
	s.Recording.Channels = 1
	s.Recording.Interval = 60
	s.Recording.Schedule = []string{"06:00-09:00"}
	s.Messaging.SendInterval = 60
	return s
}

func TestValidateSettingsAcceptsValidConfig(t *testing.T) {
	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"empty name", func(s *Settings) { s.Main.Name = "" }},
		{"latitude out of range", func(s *Settings) { s.Main.Latitude = 91 }},
		{"longitude out of range", func(s *Settings) { s.Main.Longitude = -181 }},
		{"zero duration", func(s *Settings) { s.Recording.Duration = 0 }},
		{"zero samplerate", func(s *Settings) { s.Recording.Samplerate = 0 }},
		{"zero channels", func(s *Settings) { s.Recording.Channels = 0 }},
		{"zero interval", func(s *Settings) { s.Recording.Interval = 0 }},
		{"bad schedule entry", func(s *Settings) { s.Recording.Schedule = []string{"dawn-ish"} }},
		{"bad retention window", func(s *Settings) { s.Retention.Windows = []string{"25:00-26:00"} }},
		{"duty cycle without period", func(s *Settings) {
			s.Retention.DutyCycle.Enabled = true
			s.Retention.DutyCycle.Duration = 10
		}},
		{"duty cycle duration beyond period", func(s *Settings) {
			s.Retention.DutyCycle.Enabled = true
			s.Retention.DutyCycle.Duration = 90
			s.Retention.DutyCycle.Period = 60
		}},
		{"unknown solar anchor", func(s *Settings) {
			s.Retention.Solar.Enabled = true
			s.Retention.Solar.Anchor = "noon"
		}},
		{"threshold above one", func(s *Settings) {
			s.Retention.Threshold.Enabled = true
			s.Retention.Threshold.Minimum = 1.5
		}},
		{"tag without value", func(s *Settings) { s.Retention.Tags = []string{"species"} }},
		{"mqtt enabled without broker", func(s *Settings) {
			s.Messaging.MQTT.Enabled = true
			s.Messaging.MQTT.Topic = "t"
			s.Messaging.MQTT.Timeout = 5
		}},
		{"http enabled with bad url", func(s *Settings) {
			s.Messaging.HTTP.Enabled = true
			s.Messaging.HTTP.URL = "ftp://collector"
			s.Messaging.HTTP.Timeout = 5
		}},
		{"zero send interval", func(s *Settings) { s.Messaging.SendInterval = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := validSettings()
			tc.mutate(s)
			err := ValidateSettings(s)
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err))
		})
	}
}

func TestTimeLocation(t *testing.T) {
	s := validSettings()

	loc, err := s.TimeLocation()
	require.NoError(t, err)
	assert.NotNil(t, loc)

	s.Main.TimeZone = "Europe/Helsinki"
	loc, err = s.TimeLocation()
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	assert.Equal(t, "Europe/Helsinki", loc.String())

	s.Main.TimeZone = "Not/AZone"
	_, err = s.TimeLocation()
	require.Error(t, err)
}
