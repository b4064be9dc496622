// Package daemon runs periodic incremental syncs of the output channels and
// serves Prometheus metrics while doing so.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/ridelog/internal/config"
	"git.home.luguber.info/inful/ridelog/internal/logfields"
	"git.home.luguber.info/inful/ridelog/internal/pipeline"
	"git.home.luguber.info/inful/ridelog/internal/state"
	"git.home.luguber.info/inful/ridelog/internal/timerange"
)

// runner is the slice of the pipeline the daemon drives. Runs are always
// watermark-driven: the zero range lets the tracker decide.
type runner interface {
	RunKML(ctx context.Context, tr timerange.Range) (*pipeline.Result, error)
	RunBikelog(ctx context.Context, tr timerange.Range) (*pipeline.Result, error)
}

// Daemon schedules periodic channel syncs.
type Daemon struct {
	configPath string
	pipeline   runner
	metrics    *Metrics

	mu  sync.RWMutex
	cfg *config.Config

	scheduler gocron.Scheduler
	httpSrv   *http.Server
	watcher   *fsnotify.Watcher
}

// New creates a daemon over the given pipeline. configPath is watched for
// changes; edits reload the configuration for subsequent runs.
func New(cfg *config.Config, configPath string, p *pipeline.Pipeline) (*Daemon, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Daemon{
		configPath: configPath,
		pipeline:   p,
		metrics:    NewMetrics(),
		cfg:        cfg,
		scheduler:  scheduler,
	}, nil
}

// Start schedules the sync jobs, starts the metrics endpoint and the config
// watcher. It returns once everything is running.
func (d *Daemon) Start(ctx context.Context) error {
	cfg := d.config()

	for _, name := range cfg.Daemon.Channels {
		ch := state.Channel(name)
		if !ch.Valid() {
			return fmt.Errorf("unknown sync channel in config: %q", name)
		}
		_, err := d.scheduler.NewJob(
			gocron.DurationJob(cfg.Daemon.Interval),
			gocron.NewTask(d.syncChannel, ctx, ch),
			gocron.WithName(fmt.Sprintf("%s-sync", ch)),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule %s sync: %w", ch, err)
		}
	}
	d.scheduler.Start()
	slog.Info("Scheduler started", logfields.Interval(cfg.Daemon.Interval.String()), "channels", cfg.Daemon.Channels)

	mux := http.NewServeMux()
	mux.Handle("/metrics", d.metrics.Handler())
	d.httpSrv = &http.Server{
		Addr:              cfg.Daemon.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Metrics endpoint listening", logfields.Addr(cfg.Daemon.Listen))
		if err := d.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()

	if err := d.watchConfig(ctx); err != nil {
		slog.Warn("Config watching disabled", logfields.Error(err))
	}

	return nil
}

// Stop shuts the daemon down gracefully.
func (d *Daemon) Stop(ctx context.Context) error {
	if d.watcher != nil {
		_ = d.watcher.Close()
	}
	if d.httpSrv != nil {
		if err := d.httpSrv.Shutdown(ctx); err != nil {
			slog.Warn("Metrics server shutdown failed", logfields.Error(err))
		}
	}
	return d.scheduler.Shutdown()
}

func (d *Daemon) config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// syncChannel executes one watermark-driven run for a channel.
func (d *Daemon) syncChannel(ctx context.Context, ch state.Channel) {
	runID := uuid.NewString()
	log := slog.With(logfields.RunID(runID), logfields.Channel(string(ch)))
	log.Info("Starting scheduled sync")

	var (
		res *pipeline.Result
		err error
	)
	switch ch {
	case state.ChannelKML:
		res, err = d.pipeline.RunKML(ctx, timerange.Range{})
	case state.ChannelPDF:
		res, err = d.pipeline.RunBikelog(ctx, timerange.Range{})
	default:
		err = fmt.Errorf("no pipeline for channel %q", ch)
	}

	activities := 0
	if res != nil {
		activities = res.Activities
	}
	d.metrics.RecordSync(string(ch), activities, err, float64(time.Now().Unix()))

	if err != nil {
		log.Error("Scheduled sync failed", logfields.Error(err))
		return
	}
	log.Info("Scheduled sync completed", logfields.Activities(activities), logfields.Output(res.OutputPath))
}

// watchConfig reloads the configuration when the file changes. Interval and
// listen address changes take effect on restart; everything else applies to
// the next run.
func (d *Daemon) watchConfig(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(d.configPath); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch config file: %w", err)
	}
	d.watcher = watcher

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := config.Load(d.configPath)
				if err != nil {
					slog.Warn("Ignoring invalid config change", logfields.Path(d.configPath), logfields.Error(err))
					continue
				}
				d.mu.Lock()
				d.cfg = cfg
				d.mu.Unlock()
				slog.Info("Configuration reloaded", logfields.Path(d.configPath))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Config watcher error", logfields.Error(err))
			}
		}
	}()

	return nil
}
