// Package datastore provides error handling helpers for database operations
package datastore

import (
	"fmt"

	"github.com/fieldrec/fieldrec-go/internal/errors"
)

// dbError creates a properly categorized database error with context
func dbError(err error, operation, priority string, context ...any) error {
	builder := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)

	if priority != "" {
		builder = builder.Priority(priority)
	}

	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// validationError creates a validation error for an out-of-range field
func validationError(message, field string, value any) error {
	return errors.Newf("%s", message).
		Component("datastore").
		Category(errors.CategoryValidation).
		Context("field", field).
		Context("value", fmt.Sprintf("%v", value)).
		Build()
}

// validateDeployment rejects out-of-range coordinates. Values are never
// silently coerced.
func validateDeployment(deployment *Deployment) error {
	if deployment.Latitude != nil && (*deployment.Latitude < -90 || *deployment.Latitude > 90) {
		return validationError("deployment latitude out of range", "latitude", *deployment.Latitude)
	}
	if deployment.Longitude != nil && (*deployment.Longitude < -180 || *deployment.Longitude > 180) {
		return validationError("deployment longitude out of range", "longitude", *deployment.Longitude)
	}
	if deployment.StartedOn.IsZero() {
		return validationError("deployment start time is not set", "started_on", deployment.StartedOn)
	}
	return nil
}

// validateRecording rejects non-positive capture parameters.
func validateRecording(recording *Recording) error {
	if recording.Duration <= 0 {
		return validationError("recording duration must be positive", "duration", recording.Duration)
	}
	if recording.Samplerate <= 0 {
		return validationError("recording samplerate must be positive", "samplerate", recording.Samplerate)
	}
	if recording.Channels < 1 {
		return validationError("recording must have at least one channel", "channels", recording.Channels)
	}
	if recording.Datetime.IsZero() {
		return validationError("recording datetime is not set", "datetime", recording.Datetime)
	}
	if recording.DeploymentID == "" {
		return validationError("recording has no deployment id", "deployment_id", recording.DeploymentID)
	}
	return nil
}
