// Package schedule provides time-of-day interval primitives and the
// recording condition that decides whether and when the device records.
// All functions are pure and hold no mutable state.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// Interval is an inclusive time-of-day range. Start and End are seconds
// since midnight. When Start > End the interval wraps past midnight.
type Interval struct {
	Start int
	End   int
}

// NewInterval builds an interval from wall-clock hours and minutes.
func NewInterval(startHour, startMinute, endHour, endMinute int) Interval {
	return Interval{
		Start: startHour*3600 + startMinute*60,
		End:   endHour*3600 + endMinute*60,
	}
}

// ParseInterval parses a "HH:MM-HH:MM" interval string.
func ParseInterval(s string) (Interval, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("interval %q is not of the form HH:MM-HH:MM", s)
	}
	start, err := parseClock(strings.TrimSpace(parts[0]))
	if err != nil {
		return Interval{}, fmt.Errorf("interval %q: %w", s, err)
	}
	end, err := parseClock(strings.TrimSpace(parts[1]))
	if err != nil {
		return Interval{}, fmt.Errorf("interval %q: %w", s, err)
	}
	return Interval{Start: start, End: end}, nil
}

// ParseIntervals parses a list of "HH:MM-HH:MM" strings.
func ParseIntervals(specs []string) ([]Interval, error) {
	intervals := make([]Interval, 0, len(specs))
	for _, s := range specs {
		iv, err := ParseInterval(s)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

func parseClock(s string) (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return hour*3600 + minute*60, nil
}

// secondOfDay returns t's position within its day in seconds.
func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// Contains reports whether t's time-of-day falls within the interval.
// Both bounds are inclusive.
func (iv Interval) Contains(t time.Time) bool {
	tod := secondOfDay(t)
	if iv.Start <= iv.End {
		return tod >= iv.Start && tod <= iv.End
	}
	// wraps midnight
	return tod >= iv.Start || tod <= iv.End
}

// untilStart returns the duration from t to the interval's next start
// boundary, 0 when t is already inside the interval.
func (iv Interval) untilStart(t time.Time) time.Duration {
	if iv.Contains(t) {
		return 0
	}
	tod := secondOfDay(t)
	wait := iv.Start - tod
	if wait < 0 {
		wait += secondsPerDay
	}
	return time.Duration(wait) * time.Second
}

// Condition decides whether a recording should happen at a point in time
// and how long to wait for the next opportunity.
type Condition interface {
	// ShouldRecord reports whether a recording should start at now.
	ShouldRecord(now time.Time) bool

	// TimeUntilNext returns 0 when a recording should happen
	// immediately, otherwise the wait until the next opportunity.
	TimeUntilNext(now time.Time) time.Duration
}

// IntervalCondition is satisfied when now falls inside at least one of
// its intervals. An empty interval list is always satisfied.
type IntervalCondition struct {
	intervals []Interval
}

// NewIntervalCondition creates a condition over the given intervals.
func NewIntervalCondition(intervals ...Interval) *IntervalCondition {
	return &IntervalCondition{intervals: intervals}
}

// ShouldRecord reports whether now is inside at least one interval.
func (c *IntervalCondition) ShouldRecord(now time.Time) bool {
	if len(c.intervals) == 0 {
		return true
	}
	for _, iv := range c.intervals {
		if iv.Contains(now) {
			return true
		}
	}
	return false
}

// TimeUntilNext returns the wait until the nearest interval start, 0 when
// already inside an interval.
func (c *IntervalCondition) TimeUntilNext(now time.Time) time.Duration {
	if c.ShouldRecord(now) {
		return 0
	}
	var nearest time.Duration
	for i, iv := range c.intervals {
		wait := iv.untilStart(now)
		if i == 0 || wait < nearest {
			nearest = wait
		}
	}
	return nearest
}

// AllConditions combines conditions with logical AND.
type AllConditions struct {
	conditions []Condition
}

// NewAllConditions creates an AND combination of the given conditions.
func NewAllConditions(conditions ...Condition) *AllConditions {
	return &AllConditions{conditions: conditions}
}

// ShouldRecord reports whether every condition is satisfied at now.
func (c *AllConditions) ShouldRecord(now time.Time) bool {
	for _, cond := range c.conditions {
		if !cond.ShouldRecord(now) {
			return false
		}
	}
	return true
}

// TimeUntilNext returns 0 when every condition is satisfied, otherwise
// the largest individual wait. This is a lower bound on the true wait
// since conditions may open and close independently.
func (c *AllConditions) TimeUntilNext(now time.Time) time.Duration {
	if c.ShouldRecord(now) {
		return 0
	}
	var longest time.Duration
	for _, cond := range c.conditions {
		if wait := cond.TimeUntilNext(now); wait > longest {
			longest = wait
		}
	}
	return longest
}
