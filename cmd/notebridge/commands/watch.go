package commands

import (
	"log/slog"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/notebridge/internal/config"
	"git.home.luguber.info/inful/notebridge/internal/daemon"
	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
	"git.home.luguber.info/inful/notebridge/internal/logfields"
	"git.home.luguber.info/inful/notebridge/internal/metrics"
	"git.home.luguber.info/inful/notebridge/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	PruneEvery time.Duration `help:"How often old activity records are pruned" default:"1h"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	logger := g.logger()

	ctx, cancel := signalContext()
	defer cancel()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var registry *prom.Registry
	if cfg.Metrics.Enabled {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}
	rt := newRuntime(g, cfg, recorder)
	if !rt.tokens.HasToken() {
		logger.Warn("No GitHub token configured; workflows will fail until `notebridge login` is run")
	}

	s, err := openSinks(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	sched, err := daemon.NewScheduler()
	if err != nil {
		return err
	}
	if _, err := sched.ScheduleRetention(ctx, w.PruneEvery, cfg.Activity.RetentionDuration(), s.store); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			logger.Warn("Scheduler shutdown failed", logfields.Error(err))
		}
	}()

	if cfg.Metrics.Enabled {
		srv, err := daemon.NewMetricsServer(cfg.Metrics.Listen, cfg.Metrics.Path, metrics.HTTPHandler(registry))
		if err != nil {
			return err
		}
		logger.Info("Serving metrics", slog.String("addr", srv.Addr()), logfields.Path(cfg.Metrics.Path))
		go func() {
			if err := srv.Serve(ctx); err != nil {
				logger.Error("Metrics server failed", logfields.Error(err))
			}
		}()
	}

	watcher, err := watch.New(cfg.Vault, cfg.Watch.PairWindowDuration(), logger)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	watchErr := make(chan error, 1)
	go func() { watchErr <- watcher.Run(ctx) }()

	d := daemon.New(daemon.Options{
		Interpreter: rt.registry,
		Workflows:   rt.workflows,
		Documents:   rt.docs,
		Sink:        s.sink,
		Recorder:    recorder,
		Logger:      logger,
		MoveBack:    cfg.Watch.MoveBack(),
	})
	logger.Info("Watching note tree", logfields.Path(cfg.Vault), slog.Int("sites", len(cfg.Sites)))

	if err := d.Run(ctx, watcher.Moves()); err != nil {
		return errors.DaemonError("daemon stopped with an error").WithCause(err).Build()
	}
	cancel()
	if err := <-watchErr; err != nil {
		return errors.DaemonError("file watcher failed").WithCause(err).Build()
	}
	logger.Info("Daemon stopped")
	return nil
}
