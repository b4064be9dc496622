// Package gpx renders a single activity's streams as a GPX 1.1 track.
package gpx

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/ridelog/internal/strava"
)

// GPX is the document root.
type GPX struct {
	XMLName  xml.Name  `xml:"gpx"`
	Version  string    `xml:"version,attr"`
	Creator  string    `xml:"creator,attr"`
	Xmlns    string    `xml:"xmlns,attr"`
	Metadata *Metadata `xml:"metadata,omitempty"`
	Trk      Track     `xml:"trk"`
}

// Metadata carries the export timestamp.
type Metadata struct {
	Name string `xml:"name,omitempty"`
	Time string `xml:"time,omitempty"`
}

// Track is a named track with one segment.
type Track struct {
	Name    string       `xml:"name"`
	Type    string       `xml:"type,omitempty"`
	Segment TrackSegment `xml:"trkseg"`
}

// TrackSegment holds the track points.
type TrackSegment struct {
	Points []TrackPoint `xml:"trkpt"`
}

// TrackPoint is a single sample: position, optional elevation, timestamp.
type TrackPoint struct {
	Lat  float64  `xml:"lat,attr"`
	Lon  float64  `xml:"lon,attr"`
	Ele  *float64 `xml:"ele,omitempty"`
	Time string   `xml:"time,omitempty"`
}

// FromStreams builds a GPX document from an activity and its streams. The
// latlng stream is required; altitude and time series are optional and are
// aligned by index when present.
func FromStreams(activity *strava.Activity, streams *strava.StreamSet) (*GPX, error) {
	if streams == nil || streams.LatLng == nil || len(streams.LatLng.Data) == 0 {
		return nil, fmt.Errorf("activity %d has no coordinate stream", activity.ID)
	}

	points := make([]TrackPoint, 0, len(streams.LatLng.Data))
	for i, ll := range streams.LatLng.Data {
		pt := TrackPoint{Lat: ll[0], Lon: ll[1]}
		if streams.Altitude != nil && i < len(streams.Altitude.Data) {
			ele := streams.Altitude.Data[i]
			pt.Ele = &ele
		}
		if streams.Time != nil && i < len(streams.Time.Data) {
			offset := time.Duration(streams.Time.Data[i]) * time.Second
			pt.Time = activity.StartDate.Add(offset).UTC().Format(time.RFC3339)
		}
		points = append(points, pt)
	}

	return &GPX{
		Version: "1.1",
		Creator: "ridelog",
		Xmlns:   "http://www.topografix.com/GPX/1/1",
		Metadata: &Metadata{
			Name: activity.Name,
			Time: activity.StartDate.UTC().Format(time.RFC3339),
		},
		Trk: Track{
			Name:    activity.Name,
			Type:    activity.Type,
			Segment: TrackSegment{Points: points},
		},
	}, nil
}

// Render writes the document as indented XML with the standard header.
func Render(w io.Writer, doc *GPX) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode gpx: %w", err)
	}
	return enc.Close()
}
