package gpx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/ridelog/internal/strava"
)

func sampleStreams() *strava.StreamSet {
	return &strava.StreamSet{
		LatLng:   &strava.LatLngStream{Data: [][2]float64{{59.91, 10.75}, {59.92, 10.76}}},
		Altitude: &strava.Stream{Data: []float64{12.5, 14.0}},
		Time:     &strava.Stream{Data: []float64{0, 30}},
	}
}

func TestFromStreams_AlignsSeriesByIndex(t *testing.T) {
	start := time.Date(2024, 1, 7, 7, 0, 0, 0, time.UTC)
	act := &strava.Activity{ID: 7, Name: "Commute", Type: "Ride", StartDate: start}

	doc, err := FromStreams(act, sampleStreams())
	require.NoError(t, err)
	require.Len(t, doc.Trk.Segment.Points, 2)

	first, second := doc.Trk.Segment.Points[0], doc.Trk.Segment.Points[1]
	require.InDelta(t, 59.91, first.Lat, 1e-9)
	require.InDelta(t, 10.75, first.Lon, 1e-9)
	require.NotNil(t, first.Ele)
	require.InDelta(t, 12.5, *first.Ele, 1e-9)
	require.Equal(t, "2024-01-07T07:00:00Z", first.Time)
	require.Equal(t, "2024-01-07T07:00:30Z", second.Time)
}

func TestFromStreams_MissingCoordinates_ReturnsError(t *testing.T) {
	act := &strava.Activity{ID: 8, Name: "Manual entry"}

	_, err := FromStreams(act, nil)
	require.Error(t, err)

	_, err = FromStreams(act, &strava.StreamSet{})
	require.Error(t, err)
}

func TestFromStreams_ShortAltitudeSeries_LeavesElevationUnset(t *testing.T) {
	streams := sampleStreams()
	streams.Altitude.Data = streams.Altitude.Data[:1]

	doc, err := FromStreams(&strava.Activity{ID: 9, Name: "Ride"}, streams)
	require.NoError(t, err)
	require.NotNil(t, doc.Trk.Segment.Points[0].Ele)
	require.Nil(t, doc.Trk.Segment.Points[1].Ele)
}

func TestRender_ProducesGPX11Document(t *testing.T) {
	start := time.Date(2024, 1, 7, 7, 0, 0, 0, time.UTC)
	act := &strava.Activity{ID: 7, Name: "Commute", Type: "Ride", StartDate: start}

	doc, err := FromStreams(act, sampleStreams())
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, Render(&sb, doc))
	out := sb.String()

	require.Contains(t, out, `version="1.1"`)
	require.Contains(t, out, `creator="ridelog"`)
	require.Contains(t, out, `xmlns="http://www.topografix.com/GPX/1/1"`)
	require.Contains(t, out, `<trkpt lat="59.91" lon="10.75">`)
	require.Contains(t, out, "<name>Commute</name>")
}
