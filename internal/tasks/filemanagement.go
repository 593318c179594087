// filemanagement.go: resolves temp-captured audio files against the
// store, applies the saving filter chain and relocates or deletes them.
package tasks

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fieldrec/fieldrec-go/internal/datastore"
	"github.com/fieldrec/fieldrec-go/internal/errors"
	"github.com/fieldrec/fieldrec-go/internal/filemanager"
	"github.com/fieldrec/fieldrec-go/internal/observability"
	"github.com/fieldrec/fieldrec-go/internal/retention"
)

// FileManagementTask sweeps the temp directory and settles each file's
// fate: relocation to permanent storage or deletion. Recording rows are
// never deleted, only the file and its path reference.
type FileManagementTask struct {
	store   datastore.Interface
	filter  retention.SavingFilter
	manager filemanager.FileManager
	tempDir string
	metrics *observability.Metrics
}

// NewFileManagementTask binds the file lifecycle task to its dependencies.
func NewFileManagementTask(store datastore.Interface, filter retention.SavingFilter,
	manager filemanager.FileManager, tempDir string, metrics *observability.Metrics) *FileManagementTask {
	return &FileManagementTask{
		store:   store,
		filter:  filter,
		manager: manager,
		tempDir: tempDir,
		metrics: metrics,
	}
}

// Run processes every file currently in the temp directory. Individual
// file failures are collected and joined; the sweep continues past them.
func (t *FileManagementTask) Run(ctx context.Context) error {
	entries, err := os.ReadDir(t.tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.New(err).
			Component("tasks").
			Category(errors.CategoryFileIO).
			Context("temp_dir", t.tempDir).
			Build()
	}

	var problems []error
	for _, entry := range entries {
		if ctx.Err() != nil {
			problems = append(problems, ctx.Err())
			break
		}
		if entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		path := filepath.Join(t.tempDir, entry.Name())
		if err := t.resolveFile(path); err != nil {
			if t.metrics != nil {
				t.metrics.FileErrors.Inc()
			}
			taskLogger.Error("File management failed", "path", path, "error", err)
			problems = append(problems, err)
		}
	}
	return errors.Join(problems...)
}

// resolveFile settles the fate of one temp file.
func (t *FileManagementTask) resolveFile(path string) error {
	recording, err := t.store.GetRecordingByPath(path)
	if err != nil {
		if errors.IsNotFound(err) {
			// Metadata never persisted. The file stays put; deleting
			// it here would destroy the only trace of the capture.
			return errors.Newf("temp file has no recording row").
				Component("tasks").
				Category(errors.CategoryResource).
				FileContext(path, -1).
				Build()
		}
		return err
	}

	outputs, err := t.store.GetModelOutputs(recording.ID)
	if err != nil {
		return err
	}

	keep, err := t.filter.ShouldSave(&recording, outputs)
	if err != nil {
		return err
	}

	if !keep {
		if err := os.Remove(path); err != nil {
			return errors.New(err).
				Component("tasks").
				Category(errors.CategoryFileIO).
				FileContext(path, -1).
				Build()
		}
		if _, err := t.store.UpdateRecordingPath(recording.ID, nil); err != nil {
			return err
		}
		if t.metrics != nil {
			t.metrics.FilesDeleted.Inc()
		}
		taskLogger.Info("Temp file discarded", "recording_id", recording.ID, "path", path)
		return nil
	}

	dest, err := t.manager.Save(&recording, outputs)
	if err != nil {
		return err
	}
	if _, err := t.store.UpdateRecordingPath(recording.ID, &dest); err != nil {
		return err
	}
	if t.metrics != nil {
		t.metrics.FilesSaved.Inc()
	}
	taskLogger.Info("Recording retained", "recording_id", recording.ID, "path", dest)
	return nil
}
