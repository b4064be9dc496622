package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"git.home.luguber.info/inful/ridelog/internal/cache"
	"git.home.luguber.info/inful/ridelog/internal/state"
	"git.home.luguber.info/inful/ridelog/internal/strava"
	"git.home.luguber.info/inful/ridelog/internal/timerange"
)

type fakeAPI struct {
	activities []strava.Activity
	streams    *strava.StreamSet
	listCalls  []timerange.Range
	listErr    error
}

func (f *fakeAPI) ListActivities(_ context.Context, tr timerange.Range, _ int) ([]strava.Activity, error) {
	f.listCalls = append(f.listCalls, tr)
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []strava.Activity
	for _, a := range f.activities {
		if tr.Contains(a.StartLocal()) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAPI) Activity(_ context.Context, id int64) (*strava.Activity, error) {
	for i := range f.activities {
		if f.activities[i].ID == id {
			return &f.activities[i], nil
		}
	}
	return nil, os.ErrNotExist
}

func (f *fakeAPI) ActivityStreams(context.Context, int64) (*strava.StreamSet, error) {
	return f.streams, nil
}

func trackedRide(id int64, name string, start time.Time) strava.Activity {
	encoded := polyline.EncodeCoords([][]float64{{59.91, 10.75}, {59.92, 10.76}})
	return strava.Activity{
		ID:             id,
		Name:           name,
		Type:           "Ride",
		Distance:       12000,
		MovingTime:     2400,
		StartDateLocal: strava.LocalTime{Time: start},
		Map:            strava.ActivityMap{SummaryPolyline: string(encoded)},
	}
}

func newTestPipeline(t *testing.T, api API) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	tracker := state.NewTracker(state.NewStore(filepath.Join(dir, "state.json")))
	return &Pipeline{
		Client:    api,
		Tracker:   tracker,
		OutputDir: filepath.Join(dir, "export"),
	}
}

func TestRunKML_WithoutRange_AdvancesWatermark(t *testing.T) {
	newest := time.Date(2024, 1, 7, 8, 0, 0, 0, time.Local)
	api := &fakeAPI{activities: []strava.Activity{
		trackedRide(1, "Older", time.Date(2024, 1, 5, 10, 0, 0, 0, time.Local)),
		trackedRide(2, "Newest", newest),
	}}
	p := newTestPipeline(t, api)

	res, err := p.RunKML(context.Background(), timerange.Range{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Activities)
	require.FileExists(t, res.OutputPath)

	got := p.Tracker.LastUpdated(state.ChannelKML)
	require.True(t, got.IsSome())
	require.Equal(t, newest, got.Unwrap())
}

func TestRunKML_WithExplicitRange_DoesNotTouchWatermark(t *testing.T) {
	api := &fakeAPI{activities: []strava.Activity{
		trackedRide(1, "Ride", time.Date(2024, 1, 5, 10, 0, 0, 0, time.Local)),
	}}
	p := newTestPipeline(t, api)

	tr := timerange.Between(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local),
	)
	_, err := p.RunKML(context.Background(), tr)
	require.NoError(t, err)

	require.True(t, p.Tracker.LastUpdated(state.ChannelKML).IsNone())
	require.Equal(t, []timerange.Range{tr}, api.listCalls)
}

func TestRunKML_SecondRun_UsesWatermarkRange(t *testing.T) {
	start := time.Date(2024, 1, 7, 8, 0, 0, 0, time.Local)
	api := &fakeAPI{activities: []strava.Activity{trackedRide(1, "Ride", start)}}
	p := newTestPipeline(t, api)

	_, err := p.RunKML(context.Background(), timerange.Range{})
	require.NoError(t, err)
	_, err = p.RunKML(context.Background(), timerange.Range{})
	require.NoError(t, err)

	require.Len(t, api.listCalls, 2)
	require.False(t, api.listCalls[0].IsSet())
	// Second run starts at the calendar date of the watermark.
	require.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.Local), api.listCalls[1].After)
}

func TestRunKML_NoActivities_LeavesWatermarkAlone(t *testing.T) {
	api := &fakeAPI{}
	p := newTestPipeline(t, api)

	res, err := p.RunKML(context.Background(), timerange.Range{})
	require.NoError(t, err)
	require.Zero(t, res.Activities)
	require.Empty(t, res.OutputPath)
	require.True(t, p.Tracker.LastUpdated(state.ChannelKML).IsNone())
}

func TestRunBikelog_UsesIndependentChannel(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	api := &fakeAPI{activities: []strava.Activity{trackedRide(1, "Ride", start)}}
	p := newTestPipeline(t, api)

	_, err := p.RunBikelog(context.Background(), timerange.Range{})
	require.NoError(t, err)

	require.True(t, p.Tracker.LastUpdated(state.ChannelPDF).IsSome())
	require.True(t, p.Tracker.LastUpdated(state.ChannelKML).IsNone())
}

func TestOffline_ServesFromCache(t *testing.T) {
	start := time.Date(2024, 1, 5, 10, 0, 0, 0, time.Local)
	c, err := cache.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.PutActivities(context.Background(), []strava.Activity{trackedRide(1, "Cached", start)}))

	api := &fakeAPI{} // must not be consulted
	p := newTestPipeline(t, api)
	p.Cache = c
	p.Offline = true

	res, err := p.RunKML(context.Background(), timerange.Range{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Activities)
	require.Empty(t, api.listCalls)
}

func TestOffline_WithoutCache_ReturnsError(t *testing.T) {
	p := newTestPipeline(t, &fakeAPI{})
	p.Offline = true

	_, err := p.RunKML(context.Background(), timerange.Range{})
	require.Error(t, err)
}

func TestRunGPX_WritesSluggedFile(t *testing.T) {
	start := time.Date(2024, 1, 7, 8, 0, 0, 0, time.Local)
	ride := trackedRide(42, "Morning Ride!", start)
	ride.StartDate = start.UTC()
	api := &fakeAPI{
		activities: []strava.Activity{ride},
		streams: &strava.StreamSet{
			LatLng: &strava.LatLngStream{Data: [][2]float64{{59.91, 10.75}}},
			Time:   &strava.Stream{Data: []float64{0}},
		},
	}
	p := newTestPipeline(t, api)

	path, err := p.RunGPX(context.Background(), 42)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Contains(t, filepath.Base(path), "morning-ride")
	require.Contains(t, filepath.Base(path), "42")
}
