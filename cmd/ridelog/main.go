package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/ridelog/internal/cache"
	"git.home.luguber.info/inful/ridelog/internal/config"
	"git.home.luguber.info/inful/ridelog/internal/daemon"
	apperrors "git.home.luguber.info/inful/ridelog/internal/errors"
	"git.home.luguber.info/inful/ridelog/internal/pipeline"
	"git.home.luguber.info/inful/ridelog/internal/state"
	"git.home.luguber.info/inful/ridelog/internal/strava"
	"git.home.luguber.info/inful/ridelog/internal/timerange"
	"git.home.luguber.info/inful/ridelog/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Auth struct {
		Code string `arg:"" optional:"" help:"Authorization code to exchange (omit to print the authorization URL)"`
	} `cmd:"" help:"Authorize ridelog against the Strava API"`

	KML struct {
		From    string `help:"Start date (YYYY-MM-DD), overrides the stored watermark"`
		To      string `help:"End date (YYYY-MM-DD)"`
		Offline bool   `help:"Render from the local activity cache without network"`
	} `cmd:"" help:"Export activity tracks as a KML document"`

	GPX struct {
		Activity int64 `arg:"" help:"Activity ID to export"`
	} `cmd:"" help:"Export a single activity as GPX built from its streams"`

	Bikelog struct {
		From    string `help:"Start date (YYYY-MM-DD), overrides the stored watermark"`
		To      string `help:"End date (YYYY-MM-DD)"`
		Offline bool   `help:"Render from the local activity cache without network"`
	} `cmd:"" help:"Export the bikelog XML payload for PDF form import"`

	Daemon struct{} `cmd:"" help:"Run periodic incremental syncs with a metrics endpoint"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	var err error
	switch ctx.Command() {
	case "init":
		err = runInit(CLI.Config, CLI.Init.Force)
	case "auth", "auth <code>":
		err = runAuth(CLI.Config, CLI.Auth.Code)
	case "kml":
		err = runExport(CLI.Config, state.ChannelKML, CLI.KML.From, CLI.KML.To, CLI.KML.Offline, 0)
	case "gpx <activity>":
		err = runExport(CLI.Config, "", "", "", false, CLI.GPX.Activity)
	case "bikelog":
		err = runExport(CLI.Config, state.ChannelPDF, CLI.Bikelog.From, CLI.Bikelog.To, CLI.Bikelog.Offline, 0)
	case "daemon":
		err = runDaemon(CLI.Config)
	case "version":
		fmt.Printf("ridelog %s (%s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	}

	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(apperrors.ExitCodeFor(err))
	}
}

func runInit(configPath string, force bool) error {
	slog.Info("Initializing configuration", "path", configPath, "force", force)
	return config.Init(configPath, force)
}

func runAuth(configPath, code string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryConfig, "load configuration")
	}

	if code == "" {
		fmt.Println("Open the following URL, authorize the application, then re-run")
		fmt.Println("`ridelog auth <code>` with the code from the redirect URL:")
		fmt.Println()
		fmt.Println(strava.AuthCodeURL(cfg.Strava.ClientID, cfg.Strava.ClientSecret))
		return nil
	}

	tokenPath, err := strava.TokenPath()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := strava.Exchange(ctx, cfg.Strava.ClientID, cfg.Strava.ClientSecret, code, tokenPath); err != nil {
		return err
	}

	ts, err := strava.TokenSource(ctx, cfg.Strava.ClientID, cfg.Strava.ClientSecret, tokenPath)
	if err != nil {
		return err
	}
	athlete, err := strava.NewClient(ctx, ts).Athlete(ctx)
	if err != nil {
		return err
	}
	slog.Info("Authorized", "athlete", fmt.Sprintf("%s %s", athlete.Firstname, athlete.Lastname))
	return nil
}

// runExport handles the kml, bikelog and gpx commands. channel is empty for
// GPX export, which is per-activity and carries no watermark.
func runExport(configPath string, channel state.Channel, from, to string, offline bool, gpxActivity int64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryConfig, "load configuration")
	}

	tr, err := parseRange(from, to)
	if err != nil {
		return err
	}

	p, cleanup, err := buildPipeline(cfg, offline)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	switch {
	case gpxActivity != 0:
		path, err := p.RunGPX(ctx, gpxActivity)
		if err != nil {
			return err
		}
		slog.Info("GPX export complete", "output", path)
	case channel == state.ChannelKML:
		res, err := p.RunKML(ctx, tr)
		if err != nil {
			return err
		}
		logResult(res)
	case channel == state.ChannelPDF:
		res, err := p.RunBikelog(ctx, tr)
		if err != nil {
			return err
		}
		logResult(res)
	}
	return nil
}

func logResult(res *pipeline.Result) {
	if res.Activities == 0 {
		slog.Info("Nothing to export", "channel", string(res.Channel))
		return
	}
	slog.Info("Export complete",
		"channel", string(res.Channel),
		"activities", res.Activities,
		"output", res.OutputPath)
}

func runDaemon(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryConfig, "load configuration")
	}

	p, cleanup, err := buildPipeline(cfg, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfg, configPath, p)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryDaemon, "create daemon")
	}
	if err := d.Start(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryDaemon, "start daemon")
	}

	slog.Info("Daemon started, waiting for shutdown signal...")
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping daemon...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryDaemon, "stop daemon")
	}

	slog.Info("Daemon stopped successfully")
	return nil
}

// buildPipeline wires the client, cache and tracker for a run. The returned
// cleanup closes the cache.
func buildPipeline(cfg *config.Config, offline bool) (*pipeline.Pipeline, func(), error) {
	statePath, err := state.DefaultPath()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CategoryState, "resolve state path")
	}
	tracker := state.NewTracker(state.NewStore(statePath))

	cachePath := cfg.Cache.Path
	if cachePath == "" {
		cachePath, err = config.DefaultCachePath()
		if err != nil {
			return nil, nil, apperrors.Wrap(err, apperrors.CategoryState, "resolve cache path")
		}
	}
	activityCache, err := cache.Open(cachePath)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CategoryState, "open activity cache")
	}
	cleanup := func() { _ = activityCache.Close() }

	p := &pipeline.Pipeline{
		Cache:     activityCache,
		Tracker:   tracker,
		OutputDir: cfg.Output.Directory,
		Bikelog:   cfg.Bikelog,
		Offline:   offline,
	}

	if !offline {
		tokenPath, err := strava.TokenPath()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		ts, err := strava.TokenSource(context.Background(), cfg.Strava.ClientID, cfg.Strava.ClientSecret, tokenPath)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		p.Client = strava.NewClient(context.Background(), ts)
	}

	return p, cleanup, nil
}

// parseRange builds a range from optional YYYY-MM-DD bounds. Dates are
// interpreted in the local timezone; the end date is inclusive.
func parseRange(from, to string) (timerange.Range, error) {
	var tr timerange.Range

	if from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, time.Local)
		if err != nil {
			return tr, apperrors.Wrap(err, apperrors.CategoryValidation, "invalid --from date")
		}
		tr.After = t
	}
	if to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, time.Local)
		if err != nil {
			return tr, apperrors.Wrap(err, apperrors.CategoryValidation, "invalid --to date")
		}
		tr.Before = t.Add(24*time.Hour - time.Second)
	}
	if from != "" && to == "" {
		tr.Before = time.Now()
	}
	return tr, nil
}
