// Package retention implements the saving filter chain: composable
// predicates deciding whether a captured recording is worth keeping in
// permanent storage. A configured chain combines filters with AND; the
// Any combinator expresses OR of sub-conditions.
package retention

import (
	"strings"
	"time"

	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/datastore"
	"github.com/fieldrec/fieldrec-go/internal/errors"
	"github.com/fieldrec/fieldrec-go/internal/schedule"
	"github.com/fieldrec/fieldrec-go/internal/suncalc"
)

// SavingFilter decides whether a recording and its persisted model
// outputs qualify for permanent retention.
type SavingFilter interface {
	// Name identifies the policy in logs.
	Name() string

	// ShouldSave reports whether the recording's audio file should be
	// moved to permanent storage.
	ShouldSave(recording *datastore.Recording, outputs []datastore.ModelOutput) (bool, error)
}

// Chain combines filters with logical AND. An empty chain saves
// everything.
type Chain struct {
	filters []SavingFilter
}

// NewChain builds an AND chain over the given filters.
func NewChain(filters ...SavingFilter) *Chain {
	return &Chain{filters: filters}
}

// Name identifies the chain.
func (c *Chain) Name() string { return "chain" }

// ShouldSave is true iff every filter in the chain accepts.
func (c *Chain) ShouldSave(recording *datastore.Recording, outputs []datastore.ModelOutput) (bool, error) {
	for _, f := range c.filters {
		keep, err := f.ShouldSave(recording, outputs)
		if err != nil {
			return false, err
		}
		if !keep {
			return false, nil
		}
	}
	return true, nil
}

// Any combines filters with logical OR, e.g. "within the window after
// either dawn or dusk". An empty Any rejects everything.
type Any struct {
	filters []SavingFilter
}

// NewAny builds an OR combinator over the given filters.
func NewAny(filters ...SavingFilter) *Any {
	return &Any{filters: filters}
}

// Name identifies the combinator.
func (a *Any) Name() string { return "any" }

// ShouldSave is true iff at least one sub-filter accepts.
func (a *Any) ShouldSave(recording *datastore.Recording, outputs []datastore.ModelOutput) (bool, error) {
	for _, f := range a.filters {
		keep, err := f.ShouldSave(recording, outputs)
		if err != nil {
			return false, err
		}
		if keep {
			return true, nil
		}
	}
	return false, nil
}

// WindowFilter keeps recordings whose timestamp falls inside a fixed
// daily time-of-day window.
type WindowFilter struct {
	Window schedule.Interval
}

// Name identifies the policy.
func (f *WindowFilter) Name() string { return "daily-window" }

// ShouldSave checks the recording timestamp against the window.
func (f *WindowFilter) ShouldSave(recording *datastore.Recording, _ []datastore.ModelOutput) (bool, error) {
	return f.Window.Contains(recording.Datetime), nil
}

// DutyCycleFilter keeps the first Duration of every Period, with periods
// anchored at midnight of the recording's day.
type DutyCycleFilter struct {
	Duration time.Duration
	Period   time.Duration
}

// Name identifies the policy.
func (f *DutyCycleFilter) Name() string { return "duty-cycle" }

// ShouldSave checks the recording's offset within its duty period.
func (f *DutyCycleFilter) ShouldSave(recording *datastore.Recording, _ []datastore.ModelOutput) (bool, error) {
	if f.Period <= 0 {
		return false, errors.Newf("duty cycle period must be positive").
			Component("retention").
			Category(errors.CategoryConfiguration).
			Build()
	}
	t := recording.Datetime
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := t.Sub(midnight) % f.Period
	return offset < f.Duration, nil
}

// SolarFilter keeps recordings within an offset window around a solar
// event at the device location on the recording's date.
type SolarFilter struct {
	Sun    *suncalc.SunCalc
	Anchor string // sunrise, sunset, dawn or dusk
	Before time.Duration
	After  time.Duration
}

// Name identifies the policy.
func (f *SolarFilter) Name() string { return "solar-" + f.Anchor }

// ShouldSave checks the recording timestamp against the event window.
func (f *SolarFilter) ShouldSave(recording *datastore.Recording, _ []datastore.ModelOutput) (bool, error) {
	event, err := f.Sun.EventTime(f.Anchor, recording.Datetime)
	if err != nil {
		return false, errors.New(err).
			Component("retention").
			Category(errors.CategoryConfiguration).
			Context("anchor", f.Anchor).
			Build()
	}
	t := recording.Datetime
	return !t.Before(event.Add(-f.Before)) && !t.After(event.Add(f.After)), nil
}

// ThresholdFilter keeps recordings with at least one tag or detection at
// or above the minimum probability.
type ThresholdFilter struct {
	Minimum float64
}

// Name identifies the policy.
func (f *ThresholdFilter) Name() string { return "confidence-threshold" }

// ShouldSave scans the outputs for a confident enough prediction.
func (f *ThresholdFilter) ShouldSave(_ *datastore.Recording, outputs []datastore.ModelOutput) (bool, error) {
	for i := range outputs {
		if outputs[i].MaxProbability() >= f.Minimum {
			return true, nil
		}
	}
	return false, nil
}

// TagFilter keeps recordings carrying at least one allow-listed tag,
// either on an output or on one of its detections.
type TagFilter struct {
	Allowed []datastore.PredictedTag // probability is ignored
}

// Name identifies the policy.
func (f *TagFilter) Name() string { return "tag-allowlist" }

// ShouldSave scans output and detection tags for an allowed key/value.
func (f *TagFilter) ShouldSave(_ *datastore.Recording, outputs []datastore.ModelOutput) (bool, error) {
	for i := range outputs {
		if f.matchAny(outputs[i].Tags) {
			return true, nil
		}
		for j := range outputs[i].Detections {
			if f.matchAny(outputs[i].Detections[j].Tags) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *TagFilter) matchAny(tags []datastore.PredictedTag) bool {
	for i := range tags {
		for j := range f.Allowed {
			if tags[i].Key == f.Allowed[j].Key && tags[i].Value == f.Allowed[j].Value {
				return true
			}
		}
	}
	return false
}

// FromSettings assembles the filter chain from configuration. Daily
// windows combine as OR among themselves, then AND with the other
// enabled policies.
func FromSettings(settings *conf.Settings, sun *suncalc.SunCalc) (*Chain, error) {
	var filters []SavingFilter

	if len(settings.Retention.Windows) > 0 {
		windows, err := schedule.ParseIntervals(settings.Retention.Windows)
		if err != nil {
			return nil, errors.New(err).
				Component("retention").
				Category(errors.CategoryConfiguration).
				Build()
		}
		sub := make([]SavingFilter, 0, len(windows))
		for _, w := range windows {
			sub = append(sub, &WindowFilter{Window: w})
		}
		filters = append(filters, NewAny(sub...))
	}

	if settings.Retention.DutyCycle.Enabled {
		filters = append(filters, &DutyCycleFilter{
			Duration: time.Duration(settings.Retention.DutyCycle.Duration) * time.Minute,
			Period:   time.Duration(settings.Retention.DutyCycle.Period) * time.Minute,
		})
	}

	if settings.Retention.Solar.Enabled {
		if sun == nil {
			return nil, errors.Newf("solar retention requires device coordinates").
				Component("retention").
				Category(errors.CategoryConfiguration).
				Build()
		}
		filters = append(filters, &SolarFilter{
			Sun:    sun,
			Anchor: settings.Retention.Solar.Anchor,
			Before: time.Duration(settings.Retention.Solar.Before) * time.Minute,
			After:  time.Duration(settings.Retention.Solar.After) * time.Minute,
		})
	}

	if settings.Retention.Threshold.Enabled {
		filters = append(filters, &ThresholdFilter{Minimum: settings.Retention.Threshold.Minimum})
	}

	if len(settings.Retention.Tags) > 0 {
		allowed := make([]datastore.PredictedTag, 0, len(settings.Retention.Tags))
		for _, entry := range settings.Retention.Tags {
			key, value, found := strings.Cut(entry, "=")
			if !found {
				return nil, errors.Newf("retention tag %q must be key=value", entry).
					Component("retention").
					Category(errors.CategoryConfiguration).
					Build()
			}
			allowed = append(allowed, datastore.PredictedTag{Key: key, Value: value})
		}
		filters = append(filters, &TagFilter{Allowed: allowed})
	}

	return NewChain(filters...), nil
}
