// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// arena-backend runs the matchmaking queue, the server fleet registry, the match lifecycle
// and the anti-cheat monitor behind one HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/AccelByte/extend-arena-backend/pkg/anticheat"
	"github.com/AccelByte/extend-arena-backend/pkg/api"
	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/envelope"
	"github.com/AccelByte/extend-arena-backend/pkg/fleet"
	"github.com/AccelByte/extend-arena-backend/pkg/lifecycle"
	"github.com/AccelByte/extend-arena-backend/pkg/matchmaker"
	"github.com/AccelByte/extend-arena-backend/pkg/metrics"
	"github.com/AccelByte/extend-arena-backend/pkg/scheduler"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		logrus.Errorf("arena-backend: %s", err.Error())
		os.Exit(1)
	}
}

func run() error {
	var tablesFile string

	flagSet := pflag.NewFlagSet("arena-backend", pflag.ContinueOnError)
	flagSet.StringVar(&tablesFile, "config", "", "YAML file with game mode, region, weapon and selector tables (overrides ARENA_CONFIG)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(tablesFile)
	if err != nil {
		return err
	}
	if err = setupLogging(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(cfg)
	if err != nil {
		return err
	}
	defer shutdownTracing()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	arenaMetrics := metrics.NewMetrics(registry)

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	queue := matchmaker.NewQueueManager(cfg, st.queue, st.notifier, st.sessions, arenaMetrics)
	fleetRegistry := fleet.NewRegistry(cfg, arenaMetrics)
	coordinator := lifecycle.NewCoordinator(cfg, fleetRegistry, st.notifier, st.records, arenaMetrics)
	monitor := anticheat.NewMonitor(cfg, st.sessions, st.notifier, st.records, arenaMetrics)

	queue.SetMatchRequester(coordinator)
	queue.SetMatchLookup(coordinator)
	coordinator.SetRequeuer(queue)
	coordinator.SetPlayerTracker(monitor)
	monitor.SetEnforcer(coordinator)
	fleetRegistry.SetFailureHandler(coordinator)

	startScope := envelope.NewRootScope(ctx, "arena-backend.Start", "")
	restored, err := queue.Restore(startScope)
	if err != nil {
		startScope.Log.Warnf("unable to restore queue entries: %s", err.Error())
	}
	startScope.Log.WithField("entries", restored).Info("queue restored")
	startScope.Finish()

	tasks, err := scheduler.New(
		scheduler.Task{Name: "queue-tick", Interval: cfg.QueueTickRate, Run: func(scope *envelope.Scope, now time.Time) {
			queue.Tick(scope, now)
		}},
		scheduler.Task{Name: "heartbeat-sweep", Interval: cfg.HeartbeatInterval, Run: func(scope *envelope.Scope, now time.Time) {
			fleetRegistry.Sweep(scope, now)
		}},
		scheduler.Task{Name: "violation-decay", Interval: cfg.DecaySweepInterval, Run: func(scope *envelope.Scope, now time.Time) {
			monitor.Decay(scope, now)
		}},
		scheduler.Task{Name: "match-purge", Interval: purgeInterval(cfg), Run: func(scope *envelope.Scope, now time.Time) {
			coordinator.Purge(scope, now)
			if expired := queue.Parties().ExpireInvites(now); expired > 0 {
				scope.Log.WithField("invites", expired).Debug("party invites expired")
			}
		}},
	)
	if err != nil {
		return err
	}

	if st.runNotifier != nil {
		go st.runNotifier(ctx)
	}
	tasks.Start(ctx)
	defer tasks.Stop()

	router := api.NewHandler(queue, fleetRegistry, coordinator, monitor, st.inbox).Routes()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.WithField("address", cfg.HTTPAddress).Info("arena backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err = <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		logrus.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func setupLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)

	switch cfg.LogFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	return nil
}

// purgeInterval sweeps twice per retention period so ended matches do not linger much longer than retained.
func purgeInterval(cfg *config.Config) time.Duration {
	if cfg.MatchRetention < 2*time.Second {
		return time.Second
	}
	return cfg.MatchRetention / 2
}
