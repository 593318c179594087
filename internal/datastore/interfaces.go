// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"time"

	"github.com/fieldrec/fieldrec-go/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Interface abstracts the underlying database implementation and defines
// the operations of the local metadata store.
type Interface interface {
	Open() error
	Close() error
	GetCurrentDeployment() (Deployment, error)
	StoreDeployment(deployment *Deployment) error
	StoreRecording(recording *Recording) error
	StoreModelOutput(output *ModelOutput) error
	GetRecording(id string) (Recording, error)
	GetRecordings(ids []string) ([]RecordingWithOutputs, error)
	GetRecordingByPath(path string) (Recording, error)
	GetModelOutputs(recordingID string) ([]ModelOutput, error)
	UpdateRecordingPath(recordingID string, path *string) (Recording, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// GetCurrentDeployment returns the deployment with the latest start
// time. On an empty store it creates one with no location and
// StartedOn set to now; repeated calls never create duplicates.
func (ds *DataStore) GetCurrentDeployment() (Deployment, error) {
	var deployment Deployment
	err := ds.DB.Order("started_on DESC").First(&deployment).Error
	if err == nil {
		return deployment, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Deployment{}, dbError(err, "get-current-deployment", errors.PriorityHigh)
	}

	deployment = Deployment{
		ID:        NewID(),
		Name:      "default",
		StartedOn: time.Now(),
	}
	if err := ds.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&deployment).Error; err != nil {
		return Deployment{}, dbError(err, "create-default-deployment", errors.PriorityHigh)
	}

	// Re-read in case a concurrent caller won the insert race.
	if err := ds.DB.Order("started_on DESC").First(&deployment).Error; err != nil {
		return Deployment{}, dbError(err, "get-current-deployment", errors.PriorityHigh)
	}
	return deployment, nil
}

// StoreDeployment upserts a deployment by id. Storing the same id twice
// is a no-op on the second call.
func (ds *DataStore) StoreDeployment(deployment *Deployment) error {
	if err := validateDeployment(deployment); err != nil {
		return err
	}
	if deployment.ID == "" {
		deployment.ID = NewID()
	}
	err := ds.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(deployment).Error
	if err != nil {
		return dbError(err, "store-deployment", errors.PriorityMedium, "deployment_id", deployment.ID)
	}
	return nil
}

// StoreRecording upserts a recording by id. Unique-key conflicts (same
// id or same datetime) leave the existing row untouched.
func (ds *DataStore) StoreRecording(recording *Recording) error {
	if err := validateRecording(recording); err != nil {
		return err
	}
	if recording.ID == "" {
		recording.ID = NewID()
	}
	err := ds.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(recording).Error
	if err != nil {
		return dbError(err, "store-recording", errors.PriorityHigh, "recording_id", recording.ID)
	}
	return nil
}

// StoreModelOutput persists the output together with its detections and
// tags as a single transaction. Partial writes are never observable.
func (ds *DataStore) StoreModelOutput(output *ModelOutput) error {
	if output.RecordingID == "" {
		return validationError("model output has no recording id", "recording_id", output.RecordingID)
	}
	if output.ID == "" {
		output.ID = NewID()
	}
	if output.CreatedOn.IsZero() {
		output.CreatedOn = time.Now()
	}
	for i := range output.Detections {
		if output.Detections[i].ID == "" {
			output.Detections[i].ID = NewID()
		}
	}
	output.Normalize()

	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		// Create persists the nested detections and tags along with
		// the output; any failure rolls the whole unit back.
		return tx.Create(output).Error
	})
	if err != nil {
		return dbError(err, "store-model-output", errors.PriorityHigh,
			"output_id", output.ID, "recording_id", output.RecordingID)
	}
	return nil
}

// GetRecording retrieves a recording by its id.
func (ds *DataStore) GetRecording(id string) (Recording, error) {
	var recording Recording
	if err := ds.DB.First(&recording, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Recording{}, errors.NotFoundError("recording", id)
		}
		return Recording{}, dbError(err, "get-recording", errors.PriorityMedium, "recording_id", id)
	}
	return recording, nil
}

// GetRecordingByPath retrieves the recording whose stored path matches.
func (ds *DataStore) GetRecordingByPath(path string) (Recording, error) {
	var recording Recording
	if err := ds.DB.First(&recording, "path = ?", path).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Recording{}, errors.NotFoundError("recording", path)
		}
		return Recording{}, dbError(err, "get-recording-by-path", errors.PriorityMedium, "path", path)
	}
	return recording, nil
}

// GetRecordings returns each matching recording paired with its full
// list of model outputs, ordered by recording datetime descending.
func (ds *DataStore) GetRecordings(ids []string) ([]RecordingWithOutputs, error) {
	var recordings []Recording
	err := ds.DB.Where("id IN ?", ids).Order("datetime DESC").Find(&recordings).Error
	if err != nil {
		return nil, dbError(err, "get-recordings", errors.PriorityMedium)
	}

	result := make([]RecordingWithOutputs, 0, len(recordings))
	for i := range recordings {
		outputs, err := ds.GetModelOutputs(recordings[i].ID)
		if err != nil {
			return nil, err
		}
		result = append(result, RecordingWithOutputs{
			Recording: recordings[i],
			Outputs:   outputs,
		})
	}
	return result, nil
}

// GetModelOutputs returns the persisted outputs for one recording with
// tags and detections loaded in their deterministic order.
func (ds *DataStore) GetModelOutputs(recordingID string) ([]ModelOutput, error) {
	var outputs []ModelOutput
	err := ds.DB.
		Preload("Tags").
		Preload("Detections").
		Preload("Detections.Tags").
		Where("recording_id = ?", recordingID).
		Order("created_on DESC").
		Find(&outputs).Error
	if err != nil {
		return nil, dbError(err, "get-model-outputs", errors.PriorityMedium, "recording_id", recordingID)
	}
	for i := range outputs {
		outputs[i].Normalize()
	}
	return outputs, nil
}

// UpdateRecordingPath rewrites the stored path for an existing recording
// and returns the updated row. A nil path clears the reference after the
// underlying file has been purged.
func (ds *DataStore) UpdateRecordingPath(recordingID string, path *string) (Recording, error) {
	result := ds.DB.Model(&Recording{}).Where("id = ?", recordingID).Update("path", path)
	if result.Error != nil {
		return Recording{}, dbError(result.Error, "update-recording-path", errors.PriorityHigh, "recording_id", recordingID)
	}
	if result.RowsAffected == 0 {
		return Recording{}, errors.NotFoundError("recording", recordingID)
	}
	return ds.GetRecording(recordingID)
}

// performAutoMigration creates or updates the database schema.
func performAutoMigration(db *gorm.DB) error {
	if err := db.AutoMigrate(&Deployment{}, &Recording{}, &ModelOutput{}, &Detection{}, &PredictedTag{}); err != nil {
		return dbError(err, "auto-migration", errors.PriorityCritical)
	}
	return nil
}
