// validate.go settings validation
package conf

import (
	"fmt"
	"strings"

	"github.com/fieldrec/fieldrec-go/internal/errors"
	"github.com/fieldrec/fieldrec-go/internal/schedule"
)

// ValidateSettings checks the loaded settings for malformed or
// out-of-range values. Any failure here is fatal configuration.
func ValidateSettings(settings *Settings) error {
	var problems []string

	if err := validateMainSettings(&settings.Main); err != nil {
		problems = append(problems, err.Error())
	}
	if err := validateRecordingSettings(&settings.Recording); err != nil {
		problems = append(problems, err.Error())
	}
	if err := validateRetentionSettings(&settings.Retention); err != nil {
		problems = append(problems, err.Error())
	}
	if err := validateMessagingSettings(&settings.Messaging); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return errors.Newf("invalid configuration: %s", strings.Join(problems, "; ")).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Priority(errors.PriorityCritical).
			Build()
	}
	return nil
}

func validateMainSettings(main *MainSettings) error {
	if main.Name == "" {
		return fmt.Errorf("main.name must not be empty")
	}
	if main.Latitude < -90 || main.Latitude > 90 {
		return fmt.Errorf("main.latitude must be between -90 and 90, got %v", main.Latitude)
	}
	if main.Longitude < -180 || main.Longitude > 180 {
		return fmt.Errorf("main.longitude must be between -180 and 180, got %v", main.Longitude)
	}
	return nil
}

func validateRecordingSettings(rec *RecordingSettings) error {
	if rec.Duration <= 0 {
		return fmt.Errorf("recording.duration must be positive, got %d", rec.Duration)
	}
	if rec.Samplerate <= 0 {
		return fmt.Errorf("recording.samplerate must be positive, got %d", rec.Samplerate)
	}
	if rec.Channels < 1 {
		return fmt.Errorf("recording.channels must be at least 1, got %d", rec.Channels)
	}
	if rec.Interval <= 0 {
		return fmt.Errorf("recording.interval must be positive, got %d", rec.Interval)
	}
	for _, window := range rec.Schedule {
		if _, err := schedule.ParseInterval(window); err != nil {
			return fmt.Errorf("recording.schedule entry %q: %w", window, err)
		}
	}
	return nil
}

func validateRetentionSettings(ret *RetentionSettings) error {
	for _, window := range ret.Windows {
		if _, err := schedule.ParseInterval(window); err != nil {
			return fmt.Errorf("retention.windows entry %q: %w", window, err)
		}
	}
	if ret.DutyCycle.Enabled {
		if ret.DutyCycle.Period <= 0 {
			return fmt.Errorf("retention.dutycycle.period must be positive, got %d", ret.DutyCycle.Period)
		}
		if ret.DutyCycle.Duration <= 0 || ret.DutyCycle.Duration > ret.DutyCycle.Period {
			return fmt.Errorf("retention.dutycycle.duration must be within (0, period], got %d", ret.DutyCycle.Duration)
		}
	}
	if ret.Solar.Enabled {
		switch ret.Solar.Anchor {
		case "sunrise", "sunset", "dawn", "dusk":
		default:
			return fmt.Errorf("retention.solar.anchor must be one of sunrise, sunset, dawn, dusk; got %q", ret.Solar.Anchor)
		}
		if ret.Solar.Before < 0 || ret.Solar.After < 0 {
			return fmt.Errorf("retention.solar.before/after must not be negative")
		}
	}
	if ret.Threshold.Enabled {
		if ret.Threshold.Minimum < 0 || ret.Threshold.Minimum > 1 {
			return fmt.Errorf("retention.threshold.minimum must be between 0 and 1, got %v", ret.Threshold.Minimum)
		}
	}
	for _, tag := range ret.Tags {
		if !strings.Contains(tag, "=") {
			return fmt.Errorf("retention.tags entry %q must be key=value", tag)
		}
	}
	return nil
}

func validateMessagingSettings(msg *MessagingSettings) error {
	if msg.MQTT.Enabled {
		if msg.MQTT.Broker == "" {
			return fmt.Errorf("messaging.mqtt.broker must not be empty when MQTT is enabled")
		}
		if msg.MQTT.Topic == "" {
			return fmt.Errorf("messaging.mqtt.topic must not be empty when MQTT is enabled")
		}
		if msg.MQTT.Timeout <= 0 {
			return fmt.Errorf("messaging.mqtt.timeout must be positive, got %d", msg.MQTT.Timeout)
		}
	}
	if msg.HTTP.Enabled {
		if !strings.HasPrefix(msg.HTTP.URL, "http://") && !strings.HasPrefix(msg.HTTP.URL, "https://") {
			return fmt.Errorf("messaging.http.url must start with http:// or https://, got %q", msg.HTTP.URL)
		}
		if msg.HTTP.Timeout <= 0 {
			return fmt.Errorf("messaging.http.timeout must be positive, got %d", msg.HTTP.Timeout)
		}
	}
	if msg.SendInterval <= 0 {
		return fmt.Errorf("messaging.sendinterval must be positive, got %d", msg.SendInterval)
	}
	if msg.HeartbeatInterval < 0 {
		return fmt.Errorf("messaging.heartbeatinterval must not be negative, got %d", msg.HeartbeatInterval)
	}
	return nil
}
