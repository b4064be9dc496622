// Package state persists the per-channel incremental sync watermarks.
//
// Each output channel (KML export, bikelog PDF payload) remembers the local
// start time of the most recent activity that made it into a generated file.
// Commands running without an explicit date range ask the tracker for a range
// starting at that watermark so only new activities are fetched.
package state

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/ridelog/internal/foundation"
)

// Channel identifies an output pipeline with its own independent watermark.
type Channel string

const (
	ChannelKML Channel = "kml"
	ChannelPDF Channel = "pdf"
)

// Channels lists all known output channels.
var Channels = []Channel{ChannelKML, ChannelPDF}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	for _, known := range Channels {
		if c == known {
			return true
		}
	}
	return false
}

// TimestampLayout is the persisted watermark format: timezone-local ISO-8601
// without a zone suffix. Date-boundary calculations use activity-local wall
// clock time, not UTC.
const TimestampLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses a persisted watermark. RFC 3339 strings are accepted
// too; their zone offset is kept.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(TimestampLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// FormatTimestamp renders a watermark in the persisted layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Activity is the minimal view of an activity record the tracker needs:
// the start time in the activity's local timezone.
type Activity interface {
	StartLocal() time.Time
}

// UserState holds the per-channel watermarks. Unknown top-level keys found in
// the backing file are carried along so a load/save round trip preserves them.
type UserState struct {
	watermarks map[Channel]time.Time
	extra      map[string]json.RawMessage
}

// NewUserState returns an empty state with no watermarks set.
func NewUserState() *UserState {
	return &UserState{
		watermarks: make(map[Channel]time.Time),
		extra:      make(map[string]json.RawMessage),
	}
}

// LastUpdated returns the watermark for the channel, or None when the channel
// has never been updated.
func (s *UserState) LastUpdated(ch Channel) foundation.Option[time.Time] {
	t, ok := s.watermarks[ch]
	if !ok {
		return foundation.None[time.Time]()
	}
	return foundation.Some(t)
}

func (s *UserState) setLastUpdated(ch Channel, t time.Time) {
	s.watermarks[ch] = t
}
