//go:build linux

// Command axififo drives the AXI FIFO register window from userspace.
//
// Usage:
//
//	axififo [flags] serve [-metrics ADDR] [-dir DIR]
//	axififo [flags] read
//	axififo [flags] write VALUE
//	axififo [flags] shell
//	axififo [flags] probe
//
// The serve command publishes the device as named pipes under DIR until it
// receives SIGINT or SIGTERM:
//
//	cat /run/axififo/axi_fifo/read
//	echo 0x1A2B3C4D > /run/axififo/axi_fifo/write
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardnew/axififo/driver"
	"github.com/ardnew/axififo/pkg"
	"github.com/ardnew/axififo/pkg/config"
	"github.com/ardnew/axififo/pkg/prof"
	"github.com/ardnew/axififo/platform"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usageText = `Usage: axififo [flags] COMMAND [ARGS]

Commands:
  serve        Publish the device as named pipes until interrupted
  read         Read the READ_DATA register once
  write VALUE  Write an integer literal to the WRITE_DATA register
  shell        Interactive read/write prompt
  probe        Report the discovered register resource

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line args and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("axififo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Configuration file (.toml, .yaml, .yml)")
	verbose := fs.Bool("v", false, "Enable verbose logging")
	jsonOut := fs.Bool("json", false, "Output logs as JSON")
	sim := fs.Bool("sim", false, "Simulate the register window in memory")
	cpuProfile := fs.String("cpuprofile", "", "Write a CPU profile to `FILE` (profile builds)")
	memProfile := fs.String("memprofile", "", "Write a heap profile to `FILE` on exit (profile builds)")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usageText)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "axififo: %v\n", err)
		return exitError
	}
	if *sim {
		cfg.Device.Simulate = true
		cfg.Discovery.Enabled = false
	}
	if *jsonOut {
		cfg.Log.Format = "json"
	}
	format := setupLogging(cfg, *verbose, stderr)

	if *cpuProfile != "" {
		if err := prof.StartCPU(*cpuProfile); err != nil {
			fmt.Fprintf(stderr, "axififo: %v\n", err)
			return exitError
		}
	}
	defer stopProfiles(*memProfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "serve":
		err = runServe(ctx, cfg, cmdArgs, stderr)
	case "read":
		err = runRead(ctx, cfg, stdout)
	case "write":
		if len(cmdArgs) != 1 {
			fmt.Fprintln(stderr, "usage: axififo write VALUE")
			return exitUsage
		}
		err = runWrite(ctx, cfg, cmdArgs[0])
	case "shell":
		err = runShell(ctx, cfg, format, stdin, stdout, stderr)
	case "probe":
		err = runProbe(cfg, stdout)
	default:
		fmt.Fprintf(stderr, "axififo: unknown command %q\n", cmd)
		fs.Usage()
		return exitUsage
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		pkg.LogError(pkg.ComponentCLI, "command failed", "command", cmd, "error", err)
		if errno := pkg.Errno(err); errno != "" {
			fmt.Fprintf(stderr, "axififo: %s: %s: %v\n", cmd, errno, err)
		} else {
			fmt.Fprintf(stderr, "axififo: %s: %v\n", cmd, err)
		}
		return exitError
	}
	return exitOK
}

// setupLogging applies the configured level and format to the default
// logger. The -v flag forces debug level.
func setupLogging(cfg config.Config, verbose bool, w io.Writer) pkg.LogFormat {
	level, _ := pkg.ParseLogLevel(cfg.Log.Level)
	if verbose {
		level = slog.LevelDebug
	}
	format, _ := pkg.ParseLogFormat(cfg.Log.Format)

	pkg.SetLogLevel(level)
	pkg.SetLogOutput(w, format)
	return format
}

// stopProfiles ends CPU profiling and writes the heap profile, if requested.
func stopProfiles(memProfile string) {
	if err := prof.StopCPU(); err != nil {
		pkg.LogWarn(pkg.ComponentCLI, "cpu profile failed", "error", err)
	}
	if memProfile == "" {
		return
	}
	if err := prof.Snapshot(prof.ProfileHeap, memProfile); err != nil {
		pkg.LogWarn(pkg.ComponentCLI, "heap profile failed", "error", err)
	}
}

// =============================================================================
// Driver Construction
// =============================================================================

// newDriver builds a driver from cfg. The returned bus is nil when discovery
// is disabled.
func newDriver(cfg config.Config, fw driver.Framework) (*driver.Driver, *platform.Bus) {
	binder := driver.Binder{
		Compatible:   cfg.Discovery.Compatible,
		FallbackBase: uint64(cfg.Device.FallbackBase),
		FallbackSize: int(cfg.Device.FallbackSize),
	}

	var bus *platform.Bus
	if cfg.Discovery.Enabled {
		bus = platform.NewBus(cfg.Discovery.SysfsRoot, cfg.Discovery.DevRoot, cfg.Device.DevMem)
		binder.Discovery = bus
	}
	if cfg.Device.Simulate {
		binder.Fallback = driver.SimulatedFallback()
	} else {
		binder.Fallback = driver.DevMemFallback(cfg.Device.DevMem)
	}

	return driver.New(driver.Options{
		Name:      cfg.Device.Name,
		Binder:    binder,
		Framework: fw,
	}), bus
}

// openDriver initializes a driver without a device node for one-shot
// commands.
func openDriver(ctx context.Context, cfg config.Config) (*driver.Driver, error) {
	d, _ := newDriver(cfg, nil)
	if err := d.Init(ctx); err != nil {
		return nil, err
	}
	return d, nil
}
