package schedule

import (
	"testing"
	"time"
)

func at(hour, minute, second int) time.Time {
	return time.Date(2025, 6, 15, hour, minute, second, 0, time.UTC)
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input   string
		want    Interval
		wantErr bool
	}{
		{"06:00-09:30", Interval{Start: 6 * 3600, End: 9*3600 + 30*60}, false},
		{"22:00-04:00", Interval{Start: 22 * 3600, End: 4 * 3600}, false},
		{"00:00-23:59", Interval{Start: 0, End: 23*3600 + 59*60}, false},
		{" 06:00 - 07:00 ", Interval{Start: 6 * 3600, End: 7 * 3600}, false},
		{"06:00", Interval{}, true},
		{"25:00-09:00", Interval{}, true},
		{"06:61-09:00", Interval{}, true},
		{"six-nine", Interval{}, true},
	}

	for _, tc := range tests {
		got, err := ParseInterval(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseInterval(%q) expected error, got %+v", tc.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseInterval(%q) unexpected error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseInterval(%q) = %+v, want %+v", tc.input, got, tc.want)
		}
	}
}

func TestIntervalContainsInclusiveBounds(t *testing.T) {
	iv := NewInterval(6, 0, 9, 30)

	if !iv.Contains(at(6, 0, 0)) {
		t.Error("start bound should be contained")
	}
	if !iv.Contains(at(9, 30, 0)) {
		t.Error("end bound should be contained")
	}
	if !iv.Contains(at(7, 45, 12)) {
		t.Error("interior time should be contained")
	}
	if iv.Contains(at(5, 59, 59)) {
		t.Error("time before start should not be contained")
	}
	if iv.Contains(at(9, 30, 1)) {
		t.Error("time after end should not be contained")
	}
}

func TestIntervalContainsWrapsMidnight(t *testing.T) {
	iv := NewInterval(22, 0, 4, 0)

	for _, tc := range []struct {
		hour, minute int
		want         bool
	}{
		{23, 0, true},
		{0, 30, true},
		{22, 0, true},
		{4, 0, true},
		{12, 0, false},
		{21, 59, false},
		{4, 1, false},
	} {
		got := iv.Contains(at(tc.hour, tc.minute, 0))
		if got != tc.want {
			t.Errorf("Contains(%02d:%02d) = %v, want %v", tc.hour, tc.minute, got, tc.want)
		}
	}
}

func TestIntervalConditionEmptyAlwaysRecords(t *testing.T) {
	c := NewIntervalCondition()
	if !c.ShouldRecord(at(3, 0, 0)) {
		t.Error("empty condition should always record")
	}
	if c.TimeUntilNext(at(3, 0, 0)) != 0 {
		t.Error("empty condition should have zero wait")
	}
}

func TestIntervalConditionMultipleIntervals(t *testing.T) {
	c := NewIntervalCondition(
		NewInterval(6, 0, 9, 0),
		NewInterval(18, 0, 21, 0),
	)

	if !c.ShouldRecord(at(7, 0, 0)) {
		t.Error("time in first interval should record")
	}
	if !c.ShouldRecord(at(19, 0, 0)) {
		t.Error("time in second interval should record")
	}
	if c.ShouldRecord(at(12, 0, 0)) {
		t.Error("time outside both intervals should not record")
	}
}

func TestIntervalConditionTimeUntilNext(t *testing.T) {
	c := NewIntervalCondition(
		NewInterval(6, 0, 9, 0),
		NewInterval(18, 0, 21, 0),
	)

	if wait := c.TimeUntilNext(at(7, 0, 0)); wait != 0 {
		t.Errorf("wait inside interval = %v, want 0", wait)
	}

	// At noon the nearest start is 18:00, six hours away.
	if wait := c.TimeUntilNext(at(12, 0, 0)); wait != 6*time.Hour {
		t.Errorf("wait at noon = %v, want 6h", wait)
	}

	// At 22:00 the nearest start is 06:00 the next day.
	if wait := c.TimeUntilNext(at(22, 0, 0)); wait != 8*time.Hour {
		t.Errorf("wait at 22:00 = %v, want 8h", wait)
	}
}

type fixedCondition struct {
	record bool
	wait   time.Duration
}

func (c fixedCondition) ShouldRecord(time.Time) bool           { return c.record }
func (c fixedCondition) TimeUntilNext(time.Time) time.Duration { return c.wait }

func TestAllConditions(t *testing.T) {
	now := at(12, 0, 0)

	all := NewAllConditions(fixedCondition{record: true}, fixedCondition{record: true})
	if !all.ShouldRecord(now) {
		t.Error("all satisfied conditions should record")
	}
	if all.TimeUntilNext(now) != 0 {
		t.Error("satisfied conditions should have zero wait")
	}

	mixed := NewAllConditions(
		fixedCondition{record: true},
		fixedCondition{record: false, wait: 2 * time.Hour},
		fixedCondition{record: false, wait: 30 * time.Minute},
	)
	if mixed.ShouldRecord(now) {
		t.Error("one unsatisfied condition should block recording")
	}
	if wait := mixed.TimeUntilNext(now); wait != 2*time.Hour {
		t.Errorf("wait = %v, want the largest individual wait 2h", wait)
	}

	empty := NewAllConditions()
	if !empty.ShouldRecord(now) {
		t.Error("empty AND should record")
	}
}
