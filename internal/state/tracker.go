package state

import (
	"time"

	"git.home.luguber.info/inful/ridelog/internal/foundation"
	"git.home.luguber.info/inful/ridelog/internal/timerange"
)

// Tracker translates stored watermarks into fetch date ranges and advances
// them from completed fetch results. It owns an in-memory UserState and
// persists through the Store after every mutation.
//
// The tracker is single-threaded: it provides no locking against concurrent
// process invocations sharing the same state file (last writer wins).
type Tracker struct {
	store *Store
	state *UserState
}

// NewTracker loads the current state from the store and returns a tracker
// over it. Load anomalies degrade to an empty state, so this never fails.
func NewTracker(store *Store) *Tracker {
	return &Tracker{
		store: store,
		state: store.Load(),
	}
}

// LastUpdated returns the stored watermark for the channel, or None when the
// channel has never completed a run. No side effects.
func (t *Tracker) LastUpdated(ch Channel) foundation.Option[time.Time] {
	return t.state.LastUpdated(ch)
}

// DateRangeFrom returns the fetch range implied by the channel's watermark.
// Without a watermark it returns the zero Range (fetch everything). Otherwise
// the lower bound is the calendar date of the watermark (midnight in the
// watermark's location), extending to now. Truncating to date granularity
// re-processes same-day activities rather than risking missing one recorded
// slightly before the watermark; downstream generation is assumed idempotent.
func (t *Tracker) DateRangeFrom(ch Channel) timerange.Range {
	last := t.state.LastUpdated(ch)
	if last.IsNone() {
		return timerange.Range{}
	}
	ts := last.Unwrap()
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
	return timerange.From(day)
}

// UpdateLastUpdated advances the channel watermark to the maximum local start
// time across the supplied activities and persists the state. An empty
// collection is a no-op and does not touch the store.
//
// The watermark is assumed to advance monotonically: callers must not supply
// activities predating prior recorded runs. No regression guard is applied;
// an older batch moves the watermark backward and causes duplicate processing
// on the next run.
func (t *Tracker) UpdateLastUpdated(ch Channel, activities []Activity) error {
	if len(activities) == 0 {
		return nil
	}

	latest := activities[0].StartLocal()
	for _, a := range activities[1:] {
		if start := a.StartLocal(); start.After(latest) {
			latest = start
		}
	}

	t.state.setLastUpdated(ch, latest)
	return t.store.Save(t.state)
}
