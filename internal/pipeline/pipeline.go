// Package pipeline orchestrates a generation run: resolve the date range from
// the channel watermark, fetch activities, render output files, then advance
// the watermark.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/ridelog/internal/cache"
	"git.home.luguber.info/inful/ridelog/internal/config"
	apperrors "git.home.luguber.info/inful/ridelog/internal/errors"
	"git.home.luguber.info/inful/ridelog/internal/logfields"
	"git.home.luguber.info/inful/ridelog/internal/render"
	"git.home.luguber.info/inful/ridelog/internal/render/bikelog"
	"git.home.luguber.info/inful/ridelog/internal/render/gpx"
	"git.home.luguber.info/inful/ridelog/internal/render/kml"
	"git.home.luguber.info/inful/ridelog/internal/state"
	"git.home.luguber.info/inful/ridelog/internal/strava"
	"git.home.luguber.info/inful/ridelog/internal/timerange"
)

// API is the slice of the Strava client the pipeline needs.
type API interface {
	ListActivities(ctx context.Context, tr timerange.Range, perPage int) ([]strava.Activity, error)
	Activity(ctx context.Context, id int64) (*strava.Activity, error)
	ActivityStreams(ctx context.Context, id int64) (*strava.StreamSet, error)
}

// Pipeline runs generation for the output channels. The tracker supplies
// date ranges when the caller gives none and records completed runs.
type Pipeline struct {
	Client    API
	Cache     *cache.Cache // optional write-through cache
	Tracker   *state.Tracker
	OutputDir string
	Bikelog   config.BikelogConfig
	Offline   bool
}

// Result summarizes a completed run.
type Result struct {
	Channel    state.Channel
	Range      timerange.Range
	Activities int
	OutputPath string
}

// fetch returns the activities in the range, from the cache when offline,
// otherwise from the API with a write-through to the cache.
func (p *Pipeline) fetch(ctx context.Context, tr timerange.Range) ([]strava.Activity, error) {
	if p.Offline {
		if p.Cache == nil {
			return nil, apperrors.New(apperrors.CategoryValidation, "offline mode requires the activity cache")
		}
		return p.Cache.ActivitiesInRange(ctx, tr)
	}

	activities, err := p.Client.ListActivities(ctx, tr, strava.DefaultPerPage)
	if err != nil {
		return nil, err
	}
	if p.Cache != nil {
		// The cache is auxiliary: a failed write-through must not fail the run.
		if err := p.Cache.PutActivities(ctx, activities); err != nil {
			slog.Warn("Failed to write activities to cache", logfields.Error(err))
		}
	}
	return activities, nil
}

// resolveRange picks the explicit range when set, otherwise the range implied
// by the channel watermark. The second return reports whether the run is
// incremental (watermark-driven) and should advance the watermark on success.
func (p *Pipeline) resolveRange(ch state.Channel, tr timerange.Range) (timerange.Range, bool) {
	if tr.IsSet() {
		return tr, false
	}
	return p.Tracker.DateRangeFrom(ch), true
}

// RunKML fetches activities and renders a single KML document with one track
// per activity.
func (p *Pipeline) RunKML(ctx context.Context, tr timerange.Range) (*Result, error) {
	effective, incremental := p.resolveRange(state.ChannelKML, tr)

	activities, err := p.fetch(ctx, effective)
	if err != nil {
		return nil, err
	}
	res := &Result{Channel: state.ChannelKML, Range: effective, Activities: len(activities)}
	if len(activities) == 0 {
		slog.Info("No new activities for KML export")
		return res, nil
	}

	docName := fmt.Sprintf("rides %s", time.Now().Format("2006-01-02"))
	doc, err := kml.FromActivities(docName, activities)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryRender, "build KML document")
	}

	var buf bytes.Buffer
	if err := kml.Render(&buf, doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryRender, "render KML document")
	}

	filename := fmt.Sprintf("rides-%s.kml", time.Now().Format("2006-01-02"))
	path, err := render.WriteFile(p.OutputDir, filename, buf.Bytes())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryFileSystem, "write KML file")
	}
	res.OutputPath = path

	if incremental {
		if err := p.advance(state.ChannelKML, activities); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// RunBikelog fetches ride activities and renders the bikelog XML payload for
// PDF form import.
func (p *Pipeline) RunBikelog(ctx context.Context, tr timerange.Range) (*Result, error) {
	effective, incremental := p.resolveRange(state.ChannelPDF, tr)

	activities, err := p.fetch(ctx, effective)
	if err != nil {
		return nil, err
	}
	res := &Result{Channel: state.ChannelPDF, Range: effective, Activities: len(activities)}
	if len(activities) == 0 {
		slog.Info("No new activities for bikelog export")
		return res, nil
	}

	payload := bikelog.FromActivities(activities, p.Bikelog.Gears, p.Bikelog.DefaultGear)

	var buf bytes.Buffer
	if err := bikelog.Render(&buf, payload); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryRender, "render bikelog payload")
	}

	filename := fmt.Sprintf("bikelog-%s.xml", time.Now().Format("2006-01-02"))
	path, err := render.WriteFile(p.OutputDir, filename, buf.Bytes())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryFileSystem, "write bikelog file")
	}
	res.OutputPath = path

	if incremental {
		if err := p.advance(state.ChannelPDF, activities); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// RunGPX exports one activity as a GPX track built from its streams. GPX
// export is per-activity and carries no channel watermark.
func (p *Pipeline) RunGPX(ctx context.Context, activityID int64) (string, error) {
	activity, err := p.Client.Activity(ctx, activityID)
	if err != nil {
		return "", err
	}
	streams, err := p.Client.ActivityStreams(ctx, activityID)
	if err != nil {
		return "", err
	}

	doc, err := gpx.FromStreams(activity, streams)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CategoryRender, "build GPX document")
	}

	var buf bytes.Buffer
	if err := gpx.Render(&buf, doc); err != nil {
		return "", apperrors.Wrap(err, apperrors.CategoryRender, "render GPX document")
	}

	slug := render.Slug(activity.Name)
	if slug == "" {
		slug = "activity"
	}
	filename := fmt.Sprintf("%s-%d-%s.gpx", activity.StartLocal().Format("2006-01-02"), activityID, slug)
	path, err := render.WriteFile(p.OutputDir, filename, buf.Bytes())
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CategoryFileSystem, "write GPX file")
	}
	return path, nil
}

// advance records the completed run on the channel watermark. A save failure
// is fatal: the run must not claim the watermark advanced.
func (p *Pipeline) advance(ch state.Channel, activities []strava.Activity) error {
	tracked := make([]state.Activity, 0, len(activities))
	for i := range activities {
		tracked = append(tracked, activities[i])
	}
	if err := p.Tracker.UpdateLastUpdated(ch, tracked); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryState, "persist watermark")
	}
	return nil
}
