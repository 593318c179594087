// model.go this code defines the data model for the application
package datastore

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Deployment represents a field placement of the device, with a start
// time and optional location.
type Deployment struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string     `json:"name"`
	StartedOn time.Time  `gorm:"uniqueIndex:idx_deployments_started_on;not null" json:"started_on"`
	EndedOn   *time.Time `json:"ended_on"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
}

// Recording represents a single captured audio clip. Path is nil before
// capture completes and again once the temp file has been purged; the
// row itself is never deleted.
type Recording struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DeploymentID string    `gorm:"index:idx_recordings_deployment;not null" json:"deployment_id"`
	Datetime     time.Time `gorm:"uniqueIndex:idx_recordings_datetime;not null" json:"datetime"`
	Duration     float64   `json:"duration"` // seconds
	Samplerate   int       `json:"samplerate"`
	Channels     int       `json:"channels"`
	Path         *string   `gorm:"index:idx_recordings_path" json:"path"`
}

// ModelOutput is the cleaned result of running a detection model over
// one recording, with its tag and detection predictions.
type ModelOutput struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RecordingID string         `gorm:"index:idx_model_outputs_recording;not null" json:"recording_id"`
	ModelName   string         `json:"model_name"`
	CreatedOn   time.Time      `json:"created_on"`
	Tags        []PredictedTag `gorm:"foreignKey:ModelOutputID;constraint:OnDelete:CASCADE" json:"tags"`
	Detections  []Detection    `gorm:"foreignKey:ModelOutputID;constraint:OnDelete:CASCADE" json:"detections"`
}

// Detection is a localized predicted event within a recording. The
// bounding location fields are optional; a detection without them spans
// the whole recording.
type Detection struct {
	ID            string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ModelOutputID string         `gorm:"index:idx_detections_model_output;not null" json:"-"`
	StartTime     *float64       `json:"start_time"` // seconds into the recording
	EndTime       *float64       `json:"end_time"`
	LowFreq       *float64       `json:"low_freq"` // Hz
	HighFreq      *float64       `json:"high_freq"`
	Probability   float64        `json:"probability"`
	Tags          []PredictedTag `gorm:"foreignKey:DetectionID;constraint:OnDelete:CASCADE" json:"tags"`
}

// PredictedTag is a key/value prediction with a confidence, attached to
// either a ModelOutput or a Detection.
type PredictedTag struct {
	ID            uint    `gorm:"primaryKey" json:"-"`
	ModelOutputID *string `gorm:"index:idx_tags_model_output" json:"-"`
	DetectionID   *string `gorm:"index:idx_tags_detection" json:"-"`
	Key           string  `json:"key"`
	Value         string  `json:"value"`
	Probability   float64 `json:"probability"`
}

// RecordingWithOutputs pairs a recording with its persisted model outputs.
type RecordingWithOutputs struct {
	Recording Recording     `json:"recording"`
	Outputs   []ModelOutput `json:"outputs"`
}

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// SortTags orders tags by probability descending, ties broken by
// (key, value) descending, so serialized outputs are reproducible.
func SortTags(tags []PredictedTag) {
	sort.SliceStable(tags, func(i, j int) bool {
		a, b := tags[i], tags[j]
		if a.Probability != b.Probability {
			return a.Probability > b.Probability
		}
		if a.Key != b.Key {
			return a.Key > b.Key
		}
		return a.Value > b.Value
	})
}

// SortDetections orders detections by probability descending, ties
// broken by ID descending.
func SortDetections(detections []Detection) {
	sort.SliceStable(detections, func(i, j int) bool {
		a, b := detections[i], detections[j]
		if a.Probability != b.Probability {
			return a.Probability > b.Probability
		}
		return a.ID > b.ID
	})
}

// Normalize applies the deterministic ordering to the output's tags and
// detections, including nested detection tags.
func (o *ModelOutput) Normalize() {
	SortTags(o.Tags)
	SortDetections(o.Detections)
	for i := range o.Detections {
		SortTags(o.Detections[i].Tags)
	}
}

// MaxProbability returns the highest probability among the output's tags
// and detections, 0 when it has neither.
func (o *ModelOutput) MaxProbability() float64 {
	highest := 0.0
	for i := range o.Tags {
		if o.Tags[i].Probability > highest {
			highest = o.Tags[i].Probability
		}
	}
	for i := range o.Detections {
		if o.Detections[i].Probability > highest {
			highest = o.Detections[i].Probability
		}
	}
	return highest
}
