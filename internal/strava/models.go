package strava

import (
	"fmt"
	"strings"
	"time"
)

// LocalTime is a timestamp in the timezone of the activity's location.
// Strava serializes start_date_local with a trailing "Z" even though the
// value is local wall-clock time, so it must not be parsed as UTC.
type LocalTime struct {
	time.Time
}

const localTimeLayout = "2006-01-02T15:04:05"

// UnmarshalJSON parses Strava's local timestamp format.
func (lt *LocalTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		lt.Time = time.Time{}
		return nil
	}
	s = strings.TrimSuffix(s, "Z")
	t, err := time.ParseInLocation(localTimeLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("parse local time %q: %w", s, err)
	}
	lt.Time = t
	return nil
}

// MarshalJSON renders the timestamp back in Strava's local format.
func (lt LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + lt.Format(localTimeLayout) + `Z"`), nil
}

// Activity is a summary activity as returned by the activity listing.
type Activity struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Type               string      `json:"type"`
	SportType          string      `json:"sport_type"`
	Distance           float64     `json:"distance"` // meters
	MovingTime         int         `json:"moving_time"`
	ElapsedTime        int         `json:"elapsed_time"`
	TotalElevationGain float64     `json:"total_elevation_gain"`
	StartDate          time.Time   `json:"start_date"`
	StartDateLocal     LocalTime   `json:"start_date_local"`
	Timezone           string      `json:"timezone"`
	StartLatLng        []float64   `json:"start_latlng"`
	GearID             string      `json:"gear_id"`
	Map                ActivityMap `json:"map"`
}

// ActivityMap carries the encoded polylines for an activity.
type ActivityMap struct {
	ID              string `json:"id"`
	SummaryPolyline string `json:"summary_polyline"`
	Polyline        string `json:"polyline"`
}

// StartLocal returns the activity start in its local timezone. This is the
// timestamp watermarking and date-boundary logic operate on.
func (a Activity) StartLocal() time.Time {
	return a.StartDateLocal.Time
}

// Athlete is the authenticated athlete profile.
type Athlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

// Gear is a bike or pair of shoes registered with the athlete.
type Gear struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Primary  bool    `json:"primary"`
	Distance float64 `json:"distance"`
}

// Stream is a single data series of an activity.
type Stream struct {
	Data       []float64 `json:"data"`
	SeriesType string    `json:"series_type"`
	Resolution string    `json:"resolution"`
}

// LatLngStream is the coordinate series of an activity.
type LatLngStream struct {
	Data [][2]float64 `json:"data"`
}

// StreamSet is the keyed stream response for an activity.
type StreamSet struct {
	LatLng   *LatLngStream `json:"latlng"`
	Altitude *Stream       `json:"altitude"`
	Time     *Stream       `json:"time"`
}
