//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ardnew/axififo/driver"
	"github.com/ardnew/axififo/pkg"
	"github.com/ardnew/axififo/pkg/config"
	"github.com/ardnew/axififo/platform"
)

// runRead prints one READ_DATA line.
func runRead(ctx context.Context, cfg config.Config, stdout io.Writer) (err error) {
	d, err := openDriver(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, d.Close()) }()

	line, err := readOnce(d.Device())
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, line)
	return err
}

// runWrite stores value in WRITE_DATA.
func runWrite(ctx context.Context, cfg config.Config, value string) (err error) {
	d, err := openDriver(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, d.Close()) }()

	return writeOnce(d.Device(), value)
}

// runProbe reports every compatible resource and the fallback that would be
// used without one.
func runProbe(cfg config.Config, stdout io.Writer) error {
	bus := platform.NewBus(cfg.Discovery.SysfsRoot, cfg.Discovery.DevRoot, cfg.Device.DevMem)
	found, err := bus.Scan(cfg.Discovery.Compatible)
	if err != nil {
		return err
	}

	pkg.LogDebug(pkg.ComponentCLI, "probe complete",
		"compatible", cfg.Discovery.Compatible,
		"found", len(found))

	if len(found) == 0 {
		fmt.Fprintf(stdout, "no %q device found\n", cfg.Discovery.Compatible)
		fmt.Fprintf(stdout, "fallback: %s size %s\n", cfg.Device.FallbackBase, cfg.Device.FallbackSize)
		return nil
	}
	for _, res := range found {
		fmt.Fprintln(stdout, res.String())
	}
	return nil
}

// readOnce opens the device, reads one line, and closes it.
func readOnce(dev *driver.Device) (string, error) {
	f, err := dev.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeOnce opens the device, writes value, and closes it.
func writeOnce(dev *driver.Device, value string) error {
	f, err := dev.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.WriteString(f, value)
	return err
}
