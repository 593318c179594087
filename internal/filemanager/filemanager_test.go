package filemanager

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldrec/fieldrec-go/internal/datastore"
)

func tempRecording(t *testing.T, name string) *datastore.Recording {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("RIFF fake wav payload"), 0o644))
	return &datastore.Recording{
		ID:       datastore.NewID(),
		Datetime: time.Date(2025, 6, 5, 8, 30, 0, 0, time.UTC),
		Path:     &path,
	}
}

func TestDateFileManagerSave(t *testing.T) {
	base := t.TempDir()
	fm := &DateFileManager{BaseDir: base}

	recording := tempRecording(t, "20250605_083000_ab12cd34.wav")
	source := *recording.Path

	dest, err := fm.Save(recording, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "2025", "06", "05", "20250605_083000_ab12cd34.wav"), dest)
	assert.FileExists(t, dest)
	assert.NoFileExists(t, source)
}

func TestIDFileManagerSave(t *testing.T) {
	base := t.TempDir()
	fm := &IDFileManager{BaseDir: base}

	recording := tempRecording(t, "clip.wav")
	dest, err := fm.Save(recording, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, recording.ID+".wav"), dest)
	assert.FileExists(t, dest)
}

func TestSaveWithoutPathFails(t *testing.T) {
	fm := &DateFileManager{BaseDir: t.TempDir()}

	_, err := fm.Save(&datastore.Recording{ID: datastore.NewID(), Datetime: time.Now()}, nil)
	require.Error(t, err)

	empty := ""
	_, err = fm.Save(&datastore.Recording{ID: datastore.NewID(), Datetime: time.Now(), Path: &empty}, nil)
	require.Error(t, err)
}

func TestSaveMissingSourceFails(t *testing.T) {
	fm := &DateFileManager{BaseDir: t.TempDir()}

	gone := filepath.Join(t.TempDir(), "vanished.wav")
	recording := &datastore.Recording{
		ID:       datastore.NewID(),
		Datetime: time.Now(),
		Path:     &gone,
	}
	_, err := fm.Save(recording, nil)
	require.Error(t, err)
}

func TestMoveFilePreservesContent(t *testing.T) {
	srcDir, destDir := t.TempDir(), t.TempDir()
	source := filepath.Join(srcDir, "clip.wav")
	require.NoError(t, os.WriteFile(source, []byte("payload"), 0o644))

	dest := filepath.Join(destDir, "nested", "clip.wav")
	require.NoError(t, moveFile(source, dest))

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
	assert.NoFileExists(t, source)
}
