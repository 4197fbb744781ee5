// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command ndtcored runs the Network Digital Twin control-plane core: it
// wires every subsystem together, starts the task inventory from spec §5,
// and shuts them all down within 5s of a signal.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ndtwin.dev/core/internal/classifier"
	"ndtwin.dev/core/internal/clock"
	"ndtwin.dev/core/internal/config"
	"ndtwin.dev/core/internal/devicestatus"
	"ndtwin.dev/core/internal/dispatch"
	"ndtwin.dev/core/internal/eventbus"
	"ndtwin.dev/core/internal/graph"
	"ndtwin.dev/core/internal/logging"
	"ndtwin.dev/core/internal/metricsexport"
	"ndtwin.dev/core/internal/sflow"
	"ndtwin.dev/core/internal/topology"
)

func main() {
	configPath := flag.String("config", "", "path to the process config YAML file")
	flag.Parse()

	logger := logging.New(logging.DefaultConfig())

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			logger.Error("failed to load config, aborting startup", "path", *configPath, "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("ndtcored exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logging.Logger) error {
	bus := eventbus.New()
	store := graph.New(logger)
	persister := topology.NewFilePersister(cfg.Topology.FilePath)
	store.SetNamePersister(persister)

	if data, err := os.ReadFile(cfg.Topology.FilePath); err == nil {
		if err := topology.Load(data, store); err != nil {
			logger.Error("failed to load topology file, starting from an empty graph", "err", err)
		}
	} else {
		logger.Warn("no topology file found, starting from an empty graph", "path", cfg.Topology.FilePath)
	}

	collector := sflow.NewCollector(clock.System, bus, store, logger)
	pathMap := sflow.NewPathMap()
	classifierTable := classifier.New(logger)

	listener, err := sflow.NewListener(cfg.SFlow.Port, logger)
	if err != nil {
		return fmt.Errorf("sflow listener: %w", err)
	}

	var adapter devicestatus.DeviceAdapter
	if cfg.Mode == "testbed" {
		adapter = devicestatus.NewTestbedAdapter()
	} else {
		adapter = devicestatus.NewSimulatedAdapter()
	}
	poller := devicestatus.NewPoller(store, adapter, logger)
	pinger := devicestatus.NewPinger(clock.System, bus, store, logger, cfg.Mode != "testbed", nil)

	sender := func(dpid uint64, burst []dispatch.FlowJob) []error {
		errs := make([]error, len(burst))
		for i, job := range burst {
			logger.Debug("dispatching flow job", "dpid", dpid, "op", job.Op.String(), "corr_id", job.CorrID)
			errs[i] = nil
		}
		return errs
	}
	dispatcher := dispatch.New(sender, logger, dispatch.WithBurstSize(cfg.Dispatch.BurstSize))

	metrics := metricsexport.New()
	if err := metrics.Register(); err != nil {
		logger.Warn("failed to register metrics", "err", err)
	}
	metricsCollector := metricsexport.NewCollector(metrics, collector, classifierTable, dispatcher, cfg.Metrics.SampleInterval.Duration())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan struct{})
	var httpServer *http.Server
	if cfg.Metrics.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		httpServer = &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics http server exited", "err", err)
			}
		}()
	}

	tasks := []func(){
		func() {
			if err := listener.Run(stop, collector.HandleFlowSample, collector.HandleCounterSample); err != nil {
				logger.Error("sflow ingest task exited", "err", err)
			}
		},
		func() { collector.RunPeriodicRateTask(stop) },
		func() { collector.RunImmediateRateTask(stop) },
		func() { collector.RunIdlePurgeTask(stop) },
		func() { runPathAttributionTask(stop, collector, pathMap, store, classifierTable) },
		func() { pinger.Run(stop) },
		func() { poller.RunStatusTask(ctx, stop) },
		func() { poller.RunFlowTableTask(ctx, stop) },
		func() { topology.RunTTLSweeper(store, clock.System, cfg.Topology.EdgeFlowTTL.Duration(), stop) },
		func() { metricsCollector.Run(stop) },
	}

	done := make(chan struct{}, len(tasks))
	for _, task := range tasks {
		go func(t func()) {
			t()
			done <- struct{}{}
		}(task)
	}

	logger.Info("ndtcored started",
		"mode", cfg.Mode,
		"sflow_port", cfg.SFlow.Port,
		"metrics_addr", cfg.Metrics.ListenAddr,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	cancel()
	close(stop)
	listener.Close()
	dispatcher.Stop()
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}

	joinTimeout := time.After(5 * time.Second)
	for i := 0; i < len(tasks); i++ {
		select {
		case <-done:
		case <-joinTimeout:
			logger.Warn("not all tasks joined within 5s, exiting anyway")
			return nil
		}
	}
	logger.Info("ndtcored stopped cleanly")
	return nil
}

// runPathAttributionTask ticks at 1ms, resolving and caching the
// classifier-driven forward path for every flow not yet cached for its
// (srcIP, dstIP) pair (spec §5 task inventory).
func runPathAttributionTask(stop <-chan struct{}, collector *sflow.Collector, pathMap *sflow.PathMap, store *graph.Store, classifierTable *classifier.Classifier) {
	ticker := time.NewTicker(1 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, key := range collector.Keys() {
				pathMap.ResolveAndCache(store, classifierTable, key)
			}
		}
	}
}
