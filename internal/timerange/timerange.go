// Package timerange provides the date range type used to scope activity
// fetches against the Strava API.
package timerange

import "time"

// Range describes a half-open time window. A zero bound means "unbounded"
// on that side; the zero Range matches everything.
type Range struct {
	After  time.Time
	Before time.Time
}

// From returns an open-ended range starting at t (inclusive) and extending
// to the current moment.
func From(t time.Time) Range {
	return Range{After: t, Before: time.Now()}
}

// Between returns a range covering [after, before].
func Between(after, before time.Time) Range {
	return Range{After: after, Before: before}
}

// IsSet reports whether any bound is set.
func (r Range) IsSet() bool {
	return !r.After.IsZero() || !r.Before.IsZero()
}

// Contains reports whether t falls within the range. Zero bounds are
// treated as unbounded.
func (r Range) Contains(t time.Time) bool {
	if !r.After.IsZero() && t.Before(r.After) {
		return false
	}
	if !r.Before.IsZero() && t.After(r.Before) {
		return false
	}
	return true
}

// AfterEpoch returns the lower bound as a Unix timestamp, or 0 when unbounded.
// Strava's activity listing takes epoch seconds for its after/before params.
func (r Range) AfterEpoch() int64 {
	if r.After.IsZero() {
		return 0
	}
	return r.After.Unix()
}

// BeforeEpoch returns the upper bound as a Unix timestamp, or 0 when unbounded.
func (r Range) BeforeEpoch() int64 {
	if r.Before.IsZero() {
		return 0
	}
	return r.Before.Unix()
}
