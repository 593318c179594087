// Package filemanager relocates retained audio files from ephemeral to
// permanent storage and names their destinations.
package filemanager

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fieldrec/fieldrec-go/internal/datastore"
	"github.com/fieldrec/fieldrec-go/internal/errors"
)

// FileManager chooses a destination for a retained recording and moves
// the audio file there, returning the new path.
type FileManager interface {
	// Save moves the recording's current file into permanent storage
	// and returns the destination path.
	Save(recording *datastore.Recording, outputs []datastore.ModelOutput) (string, error)
}

// DateFileManager files recordings into a date hierarchy:
// <base>/YYYY/MM/DD/<original filename>.
type DateFileManager struct {
	BaseDir string
}

// Save moves the file under the recording date's directory.
func (fm *DateFileManager) Save(recording *datastore.Recording, _ []datastore.ModelOutput) (string, error) {
	source, err := sourcePath(recording)
	if err != nil {
		return "", err
	}
	t := recording.Datetime
	destDir := filepath.Join(fm.BaseDir,
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", int(t.Month())),
		fmt.Sprintf("%02d", t.Day()))
	dest := filepath.Join(destDir, filepath.Base(source))
	if err := moveFile(source, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// IDFileManager names retained files by recording id, keeping the
// original extension: <base>/<id>.<ext>.
type IDFileManager struct {
	BaseDir string
}

// Save moves the file to its id-based destination.
func (fm *IDFileManager) Save(recording *datastore.Recording, _ []datastore.ModelOutput) (string, error) {
	source, err := sourcePath(recording)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(fm.BaseDir, recording.ID+filepath.Ext(source))
	if err := moveFile(source, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// sourcePath resolves the recording's current file location.
func sourcePath(recording *datastore.Recording) (string, error) {
	if recording.Path == nil || *recording.Path == "" {
		return "", errors.Newf("recording has no file to save").
			Component("filemanager").
			Category(errors.CategoryResource).
			Context("recording_id", recording.ID).
			Build()
	}
	return *recording.Path, nil
}

// moveFile renames source to dest, falling back to copy and remove when
// the rename crosses filesystems.
func moveFile(source, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fileError(err, "create-destination-dir", dest)
	}

	if err := os.Rename(source, dest); err == nil {
		return nil
	}

	// Rename failed, likely EXDEV. Copy then remove.
	if err := copyFile(source, dest); err != nil {
		return err
	}
	if err := os.Remove(source); err != nil {
		return fileError(err, "remove-source", source)
	}
	return nil
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return fileError(err, "open-source", source)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fileError(err, "create-destination", dest)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return fileError(err, "copy", dest)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fileError(err, "sync-destination", dest)
	}
	return out.Close()
}

func fileError(err error, operation, path string) error {
	return errors.New(err).
		Component("filemanager").
		Category(errors.CategoryFileIO).
		Context("operation", operation).
		FileContext(path, -1).
		Build()
}
