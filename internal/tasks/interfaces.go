// interfaces.go: collaborator interfaces consumed by the task
// generators. One canonical implementation per capability is selected
// at pipeline assembly time.
package tasks

import (
	"context"

	"github.com/fieldrec/fieldrec-go/internal/datastore"
	"github.com/fieldrec/fieldrec-go/internal/outbox"
)

// AudioRecorder captures one audio clip into ephemeral storage.
type AudioRecorder interface {
	// Record captures a recording for the given deployment and returns
	// its metadata with Path set to the temp file location.
	Record(ctx context.Context, deployment *datastore.Deployment) (*datastore.Recording, error)

	// Check verifies the capture device is available.
	Check(ctx context.Context) error
}

// Model runs the external detection model over a recording.
type Model interface {
	// Run produces the raw model output for the recording.
	Run(ctx context.Context, recording *datastore.Recording) (*datastore.ModelOutput, error)

	// Check verifies the model can be invoked.
	Check(ctx context.Context) error
}

// ProcessingFilter is a cheap pre-screen deciding whether a recording
// is worth running the model on, e.g. skipping silence.
type ProcessingFilter interface {
	ShouldProcess(recording *datastore.Recording) (bool, error)
}

// ModelOutputCleaner is a pure transform applied to a model output
// before it is persisted. Cleaners apply in order as a left fold.
type ModelOutputCleaner interface {
	Clean(output *datastore.ModelOutput) *datastore.ModelOutput
}

// MessageFactory builds an outgoing message from a persisted model
// output. Returning nil means no message for this output.
type MessageFactory interface {
	Build(output *datastore.ModelOutput) (*outbox.Message, error)
}
