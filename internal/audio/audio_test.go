package audio

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/datastore"
)

// makePCM builds count 16-bit little-endian samples of a constant
// amplitude square wave.
func makePCM(amplitude int16, count int) []byte {
	pcm := make([]byte, 0, count*2)
	var buf [2]byte
	for i := 0; i < count; i++ {
		sample := amplitude
		if i%2 == 1 {
			sample = -amplitude
		}
		binary.LittleEndian.PutUint16(buf[:], uint16(sample))
		pcm = append(pcm, buf[:]...)
	}
	return pcm
}

func TestWritePCMToWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "clip.wav")
	pcm := makePCM(1000, 4800)

	require.NoError(t, WritePCMToWAV(path, pcm, 48000, 1))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	decoder := wav.NewDecoder(f)
	buf, err := decoder.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, 48000, buf.Format.SampleRate)
	assert.Equal(t, 1, buf.Format.NumChannels)
	require.Len(t, buf.Data, 4800)
	assert.Equal(t, 1000, buf.Data[0])
	assert.Equal(t, -1000, buf.Data[1])
}

func TestByteSliceToInts(t *testing.T) {
	pcm := makePCM(512, 4)
	samples := byteSliceToInts(pcm)
	assert.Equal(t, []int{512, -512, 512, -512}, samples)

	// A trailing odd byte is ignored.
	samples = byteSliceToInts(append(pcm, 0x7f))
	assert.Len(t, samples, 4)
}

// writeTestWAV writes a one-channel WAV and returns a recording row
// pointing at it.
func writeTestWAV(t *testing.T, amplitude int16, seconds int) *datastore.Recording {
	t.Helper()
	sampleRate := 8000
	path := filepath.Join(t.TempDir(), "clip.wav")
	pcm := makePCM(amplitude, sampleRate*seconds)
	require.NoError(t, WritePCMToWAV(path, pcm, sampleRate, 1))
	return &datastore.Recording{
		ID:         datastore.NewID(),
		Datetime:   time.Now(),
		Duration:   float64(seconds),
		Samplerate: sampleRate,
		Channels:   1,
		Path:       &path,
	}
}

func newEnergyModel(threshold float64) *EnergyModel {
	settings := &conf.Settings{}
	settings.Detection.ModelName = "energy-v1"
	settings.Detection.Threshold = threshold
	return NewEnergyModel(settings)
}

func TestEnergyModelDetectsLoudAudio(t *testing.T) {
	model := newEnergyModel(0.1)
	recording := writeTestWAV(t, 16000, 3) // roughly half of full scale

	output, err := model.Run(context.Background(), recording)
	require.NoError(t, err)
	require.NotNil(t, output)

	assert.Equal(t, "energy-v1", output.ModelName)
	require.Len(t, output.Detections, 3, "one detection per one-second window")
	require.NotEmpty(t, output.Tags)
	assert.Equal(t, "sound", output.Tags[0].Key)
	assert.InDelta(t, 0.49, output.Detections[0].Probability, 0.05)

	require.NotNil(t, output.Detections[0].StartTime)
	assert.Equal(t, 0.0, *output.Detections[0].StartTime)
	require.NotNil(t, output.Detections[0].EndTime)
	assert.Equal(t, 1.0, *output.Detections[0].EndTime)
}

func TestEnergyModelIgnoresQuietAudio(t *testing.T) {
	model := newEnergyModel(0.1)
	recording := writeTestWAV(t, 100, 2) // well under the threshold

	output, err := model.Run(context.Background(), recording)
	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Empty(t, output.Detections)
	assert.Empty(t, output.Tags)
}

func TestEnergyModelRequiresPath(t *testing.T) {
	model := newEnergyModel(0.1)
	_, err := model.Run(context.Background(), &datastore.Recording{ID: datastore.NewID()})
	require.Error(t, err)
}

func TestEnergyModelCheck(t *testing.T) {
	require.NoError(t, newEnergyModel(0.5).Check(context.Background()))
	require.Error(t, newEnergyModel(1.5).Check(context.Background()))
	require.Error(t, newEnergyModel(-0.1).Check(context.Background()))
}
