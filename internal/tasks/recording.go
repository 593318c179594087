// recording.go: the capture task. Gated by the schedule condition and a
// single-slot capture lane; safe to re-run arbitrarily.
package tasks

import (
	"context"
	"time"

	"github.com/fieldrec/fieldrec-go/internal/datastore"
	"github.com/fieldrec/fieldrec-go/internal/errors"
	"github.com/fieldrec/fieldrec-go/internal/observability"
	"github.com/fieldrec/fieldrec-go/internal/schedule"
)

// RecordingTask captures one audio clip when the schedule condition
// allows it. The capture device is an exclusive resource: at most one
// invocation is in flight at any time, a concurrent second call skips.
type RecordingTask struct {
	condition   schedule.Condition
	store       datastore.Interface
	recorder    AudioRecorder
	metrics     *observability.Metrics
	captureSlot chan struct{}
}

// NewRecordingTask binds the capture task to its dependencies.
func NewRecordingTask(condition schedule.Condition, store datastore.Interface, recorder AudioRecorder, metrics *observability.Metrics) *RecordingTask {
	slot := make(chan struct{}, 1)
	slot <- struct{}{}
	return &RecordingTask{
		condition:   condition,
		store:       store,
		recorder:    recorder,
		metrics:     metrics,
		captureSlot: slot,
	}
}

// Run evaluates the condition and, when it holds, captures and persists
// one recording. Returns nil without error when the task skipped.
func (t *RecordingTask) Run(ctx context.Context) (*datastore.Recording, error) {
	now := time.Now()
	if !t.condition.ShouldRecord(now) {
		if t.metrics != nil {
			t.metrics.RecordingsSkipped.Inc()
		}
		taskLogger.Debug("Recording skipped by schedule",
			"next_opportunity", t.condition.TimeUntilNext(now).String())
		return nil, nil
	}

	select {
	case <-t.captureSlot:
		defer func() { t.captureSlot <- struct{}{} }()
	default:
		// Another capture is in flight; skip rather than queue.
		taskLogger.Debug("Capture device busy, skipping")
		return nil, nil
	}

	if t.metrics != nil {
		t.metrics.RecordingsStarted.Inc()
	}

	deployment, err := t.store.GetCurrentDeployment()
	if err != nil {
		return nil, err
	}

	recording, err := t.recorder.Record(ctx, &deployment)
	if err != nil {
		return nil, errors.New(err).
			Component("tasks").
			Category(errors.CategoryAudioCapture).
			Context("deployment_id", deployment.ID).
			Build()
	}
	recording.DeploymentID = deployment.ID

	if err := t.store.StoreRecording(recording); err != nil {
		return nil, err
	}

	if t.metrics != nil {
		t.metrics.RecordingsCompleted.Inc()
	}
	taskLogger.Info("Recording captured",
		"recording_id", recording.ID,
		"datetime", recording.Datetime,
		"duration", recording.Duration)
	return recording, nil
}
