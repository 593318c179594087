// Package audio provides the canonical AudioRecorder: fixed-length
// capture from the system microphone into WAV files under the temp
// directory.
package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/datastore"
	"github.com/fieldrec/fieldrec-go/internal/errors"
)

const bitDepth = 16

// Recorder captures one clip at a time from the default capture device.
type Recorder struct {
	duration   time.Duration
	samplerate int
	channels   int
	tempDir    string
	debug      bool
}

// NewRecorder builds a recorder from settings.
func NewRecorder(settings *conf.Settings) *Recorder {
	return &Recorder{
		duration:   time.Duration(settings.Recording.Duration) * time.Second,
		samplerate: settings.Recording.Samplerate,
		channels:   settings.Recording.Channels,
		tempDir:    settings.Recording.TempPath,
		debug:      settings.Debug,
	}
}

// preferredBackend picks the native audio backend for the platform.
func preferredBackend() []malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return []malgo.Backend{malgo.BackendAlsa}
	case "windows":
		return []malgo.Backend{malgo.BackendWasapi}
	case "darwin":
		return []malgo.Backend{malgo.BackendCoreaudio}
	default:
		return nil
	}
}

// Record captures a clip of the configured duration and writes it as a
// WAV file into the temp directory. The returned recording carries the
// temp path; the file lifecycle manager settles its final location.
func (r *Recorder) Record(ctx context.Context, deployment *datastore.Deployment) (*datastore.Recording, error) {
	start := time.Now()

	pcm, err := r.capture(ctx)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s_%s.wav", start.Format("20060102_150405"), deployment.ID[:8])
	path := filepath.Join(r.tempDir, name)
	if err := WritePCMToWAV(path, pcm, r.samplerate, r.channels); err != nil {
		return nil, err
	}

	return &datastore.Recording{
		ID:           datastore.NewID(),
		DeploymentID: deployment.ID,
		Datetime:     start,
		Duration:     r.duration.Seconds(),
		Samplerate:   r.samplerate,
		Channels:     r.channels,
		Path:         &path,
	}, nil
}

// capture runs the malgo device for the configured duration and returns
// the raw 16-bit little-endian PCM.
func (r *Recorder) capture(ctx context.Context) ([]byte, error) {
	malgoCtx, err := malgo.InitContext(preferredBackend(), malgo.ContextConfig{}, func(message string) {
		if r.debug {
			fmt.Print(message)
		}
	})
	if err != nil {
		return nil, captureError(err, "init-context")
	}
	defer malgoCtx.Uninit() //nolint:errcheck

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(r.channels)
	deviceConfig.SampleRate = uint32(r.samplerate)
	deviceConfig.Alsa.NoMMap = 1

	wanted := r.samplerate * r.channels * (bitDepth / 8) * int(r.duration.Seconds())

	var mu sync.Mutex
	pcm := make([]byte, 0, wanted)
	done := make(chan struct{})
	var closeOnce sync.Once

	onReceiveFrames := func(_, pSamples []byte, _ uint32) {
		mu.Lock()
		defer mu.Unlock()
		if len(pcm) >= wanted {
			return
		}
		pcm = append(pcm, pSamples...)
		if len(pcm) >= wanted {
			closeOnce.Do(func() { close(done) })
		}
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onReceiveFrames,
	})
	if err != nil {
		return nil, captureError(err, "init-device")
	}
	defer device.Uninit() //nolint:errcheck

	if err := device.Start(); err != nil {
		return nil, captureError(err, "start-device")
	}
	defer device.Stop() //nolint:errcheck

	// Allow some slack beyond the nominal duration before giving up on
	// the device delivering enough frames.
	deadline := time.NewTimer(r.duration + 2*time.Second)
	defer deadline.Stop()

	select {
	case <-done:
	case <-deadline.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	if len(pcm) == 0 {
		return nil, errors.Newf("capture device produced no audio").
			Component("audio").
			Category(errors.CategoryAudioCapture).
			Build()
	}
	if len(pcm) > wanted {
		pcm = pcm[:wanted]
	}
	return pcm, nil
}

// Check verifies that a capture device can be enumerated and opened.
func (r *Recorder) Check(ctx context.Context) error {
	malgoCtx, err := malgo.InitContext(preferredBackend(), malgo.ContextConfig{}, nil)
	if err != nil {
		return captureError(err, "init-context")
	}
	defer malgoCtx.Uninit() //nolint:errcheck

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return captureError(err, "enumerate-devices")
	}
	if len(infos) == 0 {
		return errors.Newf("no capture devices available").
			Component("audio").
			Category(errors.CategoryAudioCapture).
			Build()
	}
	return nil
}

func captureError(err error, operation string) error {
	return errors.New(err).
		Component("audio").
		Category(errors.CategoryAudioCapture).
		Context("operation", operation).
		Build()
}
