//go:build linux

package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"time"

	"github.com/ardnew/axififo/devnode"
	"github.com/ardnew/axififo/driver"
	"github.com/ardnew/axififo/pkg"
	"github.com/ardnew/axififo/pkg/config"
	"github.com/ardnew/axififo/pkg/metrics"
	"github.com/ardnew/axififo/pkg/prof"
	"github.com/ardnew/axififo/platform"
)

// hotplugQueue is the number of uevents buffered for the driver.
const hotplugQueue = 16

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 5 * time.Second

// runServe publishes the device node and blocks until ctx is done.
func runServe(ctx context.Context, cfg config.Config, args []string, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	metricsAddr := fs.String("metrics", cfg.Metrics.Addr, "Serve Prometheus metrics on `ADDR` (empty disables)")
	nodeDir := fs.String("dir", cfg.Device.NodeDir, "Directory for device nodes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fw := devnode.New(*nodeDir)
	defer fw.Close()

	d, bus := newDriver(cfg, fw)
	if err := d.Init(ctx); err != nil {
		return err
	}
	defer func() { err = errors.Join(err, d.Close()) }()

	if *metricsAddr != "" {
		srv := startMetrics(*metricsAddr)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				pkg.LogWarn(pkg.ComponentCLI, "metrics shutdown failed", "error", err)
			}
		}()
	}

	if bus != nil && cfg.Discovery.Hotplug && d.Session().Origin() == driver.OriginDiscovered {
		if stop := watchHotplug(ctx, d); stop != nil {
			defer stop()
		}
	}

	pkg.LogInfo(pkg.ComponentCLI, "serving device",
		"node", d.Node(),
		"origin", d.Session().Origin().String())

	<-ctx.Done()
	pkg.LogInfo(pkg.ComponentCLI, "shutting down")
	return nil
}

// startMetrics serves Prometheus metrics, and pprof in profile builds, on
// addr in the background.
func startMetrics(addr string) *http.Server {
	metrics.RegisterMetrics()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	prof.Register(mux)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			pkg.LogError(pkg.ComponentCLI, "metrics server failed", "addr", addr, "error", err)
		}
	}()

	pkg.LogInfo(pkg.ComponentCLI, "metrics listening", "addr", addr)
	return srv
}

// watchHotplug feeds kernel uevents to the driver until ctx is done. The
// returned function waits for the monitor to stop and closes it. It returns
// nil when the uevent socket cannot be opened.
func watchHotplug(ctx context.Context, d *driver.Driver) func() {
	mon, err := platform.NewMonitor()
	if err != nil {
		pkg.LogWarn(pkg.ComponentCLI, "hotplug monitor unavailable", "error", err)
		return nil
	}

	events := make(chan platform.Event, hotplugQueue)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := mon.Run(ctx, events); err != nil {
			pkg.LogWarn(pkg.ComponentCLI, "hotplug monitor stopped", "error", err)
		}
	}()
	go d.Watch(ctx, events)

	return func() {
		<-done
		mon.Close()
	}
}
