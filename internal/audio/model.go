package audio

import (
	"context"
	"math"
	"os"

	"github.com/go-audio/wav"

	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/datastore"
	"github.com/fieldrec/fieldrec-go/internal/errors"
)

// Window length for energy analysis.
const energyWindowSeconds = 1.0

// EnergyModel is the built-in detection model: it flags windows whose
// normalized RMS amplitude exceeds the configured threshold. It exists
// so a device runs end to end without an external model wired in.
type EnergyModel struct {
	name      string
	threshold float64
}

// NewEnergyModel builds the model from settings.
func NewEnergyModel(settings *conf.Settings) *EnergyModel {
	return &EnergyModel{
		name:      settings.Detection.ModelName,
		threshold: settings.Detection.Threshold,
	}
}

// Run analyzes the recording's WAV file and produces a model output with
// one detection per window exceeding the threshold.
func (m *EnergyModel) Run(ctx context.Context, recording *datastore.Recording) (*datastore.ModelOutput, error) {
	if recording.Path == nil {
		return nil, errors.ValidationError("recording has no file path")
	}

	f, err := os.Open(*recording.Path)
	if err != nil {
		return nil, errors.New(err).
			Component("audio").
			Category(errors.CategoryFileIO).
			Context("path", *recording.Path).
			Build()
	}
	defer f.Close() //nolint:errcheck

	decoder := wav.NewDecoder(f)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.New(err).
			Component("audio").
			Category(errors.CategoryFileIO).
			Context("path", *recording.Path).
			Build()
	}

	output := &datastore.ModelOutput{
		RecordingID: recording.ID,
		ModelName:   m.name,
	}

	channels := buf.Format.NumChannels
	windowFrames := int(float64(buf.Format.SampleRate) * energyWindowSeconds)
	if windowFrames <= 0 || channels <= 0 {
		return output, nil
	}

	frames := len(buf.Data) / channels
	for start := 0; start < frames; start += windowFrames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+windowFrames, frames)
		probability := windowRMS(buf.Data[start*channels:end*channels], buf.SourceBitDepth)
		if probability < m.threshold {
			continue
		}
		startTime := float64(start) / float64(buf.Format.SampleRate)
		endTime := float64(end) / float64(buf.Format.SampleRate)
		output.Detections = append(output.Detections, datastore.Detection{
			StartTime:   &startTime,
			EndTime:     &endTime,
			Probability: probability,
			Tags: []datastore.PredictedTag{
				{Key: "sound", Value: "present", Probability: probability},
			},
		})
	}

	if len(output.Detections) > 0 {
		output.Tags = []datastore.PredictedTag{
			{Key: "sound", Value: "present", Probability: output.MaxProbability()},
		}
	}
	return output, nil
}

// Check validates the model configuration.
func (m *EnergyModel) Check(ctx context.Context) error {
	if m.threshold < 0 || m.threshold > 1 {
		return errors.ValidationError("detection threshold must be between 0 and 1")
	}
	return nil
}

// windowRMS computes the RMS of the samples normalized to [0, 1] by the
// source bit depth's full scale.
func windowRMS(samples []int, bitDepth int) float64 {
	if len(samples) == 0 {
		return 0
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	fullScale := math.Pow(2, float64(bitDepth-1))
	var sum float64
	for _, s := range samples {
		v := float64(s) / fullScale
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
