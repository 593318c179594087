// check.go: aggregate self-check across the pipeline's collaborators.
package tasks

import (
	"context"

	"github.com/fieldrec/fieldrec-go/internal/errors"
	"github.com/fieldrec/fieldrec-go/internal/messenger"
)

// Check runs the recorder's, model's and every messenger's self-checks
// and returns the first failure.
func Check(ctx context.Context, recorder AudioRecorder, model Model, messengers []messenger.Messenger) error {
	if recorder != nil {
		if err := recorder.Check(ctx); err != nil {
			return errors.New(err).
				Component("tasks").
				Category(errors.CategoryResource).
				Context("check", "recorder").
				Build()
		}
	}
	if model != nil {
		if err := model.Check(ctx); err != nil {
			return errors.New(err).
				Component("tasks").
				Category(errors.CategoryResource).
				Context("check", "model").
				Build()
		}
	}
	for _, m := range messengers {
		if err := m.Check(ctx); err != nil {
			return errors.New(err).
				Component("tasks").
				Category(errors.CategoryNetwork).
				Context("check", m.Name()).
				Build()
		}
	}
	return nil
}
