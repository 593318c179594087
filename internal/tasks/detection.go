// detection.go: the post-capture processing task. Runs the model over a
// recording, cleans the output, persists it and enqueues messages.
//
// Re-running this task on the same recording creates an additional
// ModelOutput; reprocessing with a newer model is allowed.
package tasks

import (
	"context"
	"encoding/json"

	"github.com/fieldrec/fieldrec-go/internal/datastore"
	"github.com/fieldrec/fieldrec-go/internal/errors"
	"github.com/fieldrec/fieldrec-go/internal/observability"
	"github.com/fieldrec/fieldrec-go/internal/outbox"
)

// DetectionTask processes one recording through the model pipeline.
type DetectionTask struct {
	store     datastore.Interface
	outbox    outbox.Interface
	model     Model
	filters   []ProcessingFilter
	cleaners  []ModelOutputCleaner
	factories []MessageFactory
	metrics   *observability.Metrics
}

// NewDetectionTask binds the detection task to its dependencies.
func NewDetectionTask(store datastore.Interface, ob outbox.Interface, model Model,
	filters []ProcessingFilter, cleaners []ModelOutputCleaner, factories []MessageFactory,
	metrics *observability.Metrics) *DetectionTask {
	return &DetectionTask{
		store:     store,
		outbox:    ob,
		model:     model,
		filters:   filters,
		cleaners:  cleaners,
		factories: factories,
		metrics:   metrics,
	}
}

// Run pre-screens the recording, runs the model, folds the output
// through the cleaner chain, persists it and enqueues any produced
// messages. Returns nil without error when the pre-screen rejected.
func (t *DetectionTask) Run(ctx context.Context, recording *datastore.Recording) (*datastore.ModelOutput, error) {
	for _, f := range t.filters {
		process, err := f.ShouldProcess(recording)
		if err != nil {
			return nil, err
		}
		if !process {
			taskLogger.Debug("Recording rejected by processing filter", "recording_id", recording.ID)
			return nil, nil
		}
	}

	output, err := t.model.Run(ctx, recording)
	if err != nil {
		return nil, errors.New(err).
			Component("tasks").
			Category(errors.CategoryResource).
			Context("recording_id", recording.ID).
			Build()
	}
	output.RecordingID = recording.ID

	// Left fold through the cleaner chain.
	for _, c := range t.cleaners {
		output = c.Clean(output)
	}

	if err := t.store.StoreModelOutput(output); err != nil {
		return nil, err
	}
	if t.metrics != nil {
		t.metrics.DetectionsPersisted.Inc()
	}

	for _, factory := range t.factories {
		message, err := factory.Build(output)
		if err != nil {
			return nil, err
		}
		if message == nil {
			continue
		}
		if err := t.outbox.StoreMessage(message); err != nil {
			return nil, err
		}
		if t.metrics != nil {
			t.metrics.MessagesEnqueued.Inc()
		}
	}

	taskLogger.Info("Model output persisted",
		"recording_id", recording.ID,
		"output_id", output.ID,
		"detections", len(output.Detections),
		"tags", len(output.Tags))
	return output, nil
}

// ThresholdCleaner strips tags and detections below a probability
// threshold. A detection at or above the threshold is kept even when
// all of its nested tags are stripped.
type ThresholdCleaner struct {
	Threshold float64
}

// Clean returns the output with low-confidence predictions removed.
func (c *ThresholdCleaner) Clean(output *datastore.ModelOutput) *datastore.ModelOutput {
	kept := output.Tags[:0]
	for _, tag := range output.Tags {
		if tag.Probability >= c.Threshold {
			kept = append(kept, tag)
		}
	}
	output.Tags = kept

	detections := output.Detections[:0]
	for _, det := range output.Detections {
		if det.Probability < c.Threshold {
			continue
		}
		tags := det.Tags[:0]
		for _, tag := range det.Tags {
			if tag.Probability >= c.Threshold {
				tags = append(tags, tag)
			}
		}
		det.Tags = tags
		detections = append(detections, det)
	}
	output.Detections = detections
	return output
}

// DetectionMessageFactory serializes the whole model output as a JSON
// message for the collector.
type DetectionMessageFactory struct{}

// Build marshals the output. The output is already normalized by the
// store, so the payload is reproducible.
func (f *DetectionMessageFactory) Build(output *datastore.ModelOutput) (*outbox.Message, error) {
	payload, err := json.Marshal(output)
	if err != nil {
		return nil, errors.New(err).
			Component("tasks").
			Category(errors.CategoryGeneric).
			Context("output_id", output.ID).
			Build()
	}
	message := outbox.NewMessage(string(payload))
	return &message, nil
}
