//go:build linux

package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/axififo/driver"
	"github.com/ardnew/axififo/mmio"
	"github.com/ardnew/axififo/pkg"
	"github.com/ardnew/axififo/pkg/config"
)

// simConfig returns a configuration that needs no hardware.
func simConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Device.Simulate = true
	cfg.Device.NodeDir = t.TempDir()
	cfg.Discovery.Enabled = false
	cfg.Discovery.SysfsRoot = t.TempDir()
	return cfg
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv(config.EnvNodeDir, t.TempDir())
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "Commands:")

	code, _, stderr = runCLI(t, "-sim", "frobnicate")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)

	code, _, _ = runCLI(t, "-sim", "write")
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI(t, "-bogus")
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI(t, "-h")
	assert.Equal(t, exitOK, code)
}

func TestRun_ReadSimulated(t *testing.T) {
	code, stdout, stderr := runCLI(t, "-sim", "read")
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "READ_DATA: 0x00000000\n", stdout)
}

func TestRun_WriteSimulated(t *testing.T) {
	code, _, stderr := runCLI(t, "-sim", "write", "0x1A2B3C4D")
	assert.Equal(t, exitOK, code, stderr)

	code, _, stderr = runCLI(t, "-sim", "write", "not_a_number")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "EINVAL")
}

func TestRun_ConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "axififo.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"loud\"\n"), 0o644))

	code, _, stderr := runCLI(t, "-config", path, "read")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "log.level")
}

func TestRunProbe(t *testing.T) {
	cfg := simConfig(t)
	var out bytes.Buffer
	require.NoError(t, runProbe(cfg, &out))
	assert.Contains(t, out.String(), `no "xlnx,AXI-FIFO-1.0" device found`)
	assert.Contains(t, out.String(), "fallback: 0xa0020000 size 0x10000")
}

func TestRunServe(t *testing.T) {
	cfg := simConfig(t)
	node := filepath.Join(cfg.Device.NodeDir, cfg.Device.Name)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg, nil, &bytes.Buffer{}) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(node, "write"))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	data, err := os.ReadFile(filepath.Join(node, "read"))
	require.NoError(t, err)
	assert.Equal(t, "READ_DATA: 0x00000000\n", string(data))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}

	_, err = os.Stat(node)
	assert.True(t, os.IsNotExist(err))
}

func TestShell_Exec(t *testing.T) {
	w := mmio.NewWindow(driver.DefaultFallbackBase, make([]byte, 16), nil)
	d := driver.New(driver.Options{
		Binder: driver.Binder{
			Fallback: driver.FallbackFunc(func(uint64, int) (*mmio.Window, error) {
				return w, nil
			}),
			FallbackBase: driver.DefaultFallbackBase,
			FallbackSize: 16,
		},
	})
	require.NoError(t, d.Init(context.Background()))
	defer d.Close()

	var out bytes.Buffer
	sh := &shell{driver: d, out: &out}

	w.Write32(mmio.RegReadData, 0xDEADBEEF)
	assert.True(t, sh.exec("read"))
	assert.Equal(t, "READ_DATA: 0xDEADBEEF\n", out.String())

	out.Reset()
	assert.True(t, sh.exec("w 0x42"))
	assert.Equal(t, "ok\n", out.String())
	assert.Equal(t, uint32(0x42), w.Read32(mmio.RegWriteData))

	out.Reset()
	assert.True(t, sh.exec("write nope"))
	assert.Contains(t, out.String(), "EINVAL")

	out.Reset()
	assert.True(t, sh.exec("write"))
	assert.Contains(t, out.String(), "usage")

	out.Reset()
	assert.True(t, sh.exec("status"))
	assert.Contains(t, out.String(), "state:  bound")
	assert.Contains(t, out.String(), "origin: fallback")

	out.Reset()
	assert.True(t, sh.exec("   "))
	assert.True(t, sh.exec("dance"))
	assert.Contains(t, out.String(), `unknown command "dance"`)

	assert.False(t, sh.exec("quit"))
	assert.False(t, sh.exec("EXIT"))

	d.Session().Teardown()
	out.Reset()
	sh.exec("read")
	assert.Contains(t, out.String(), "ENODEV")
}

func TestSetupLogging(t *testing.T) {
	defer func() {
		pkg.SetLogLevel(slog.LevelWarn)
		pkg.SetLogOutput(os.Stderr, pkg.LogFormatText)
	}()

	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Log.Format = "json"
	format := setupLogging(cfg, true, &buf)
	assert.Equal(t, pkg.LogFormatJSON, format)

	pkg.LogDebug(pkg.ComponentCLI, "probe")
	assert.Contains(t, buf.String(), `"msg":"probe"`)
	assert.Contains(t, buf.String(), `"component":"cli"`)
}

func TestRedirectLogs(t *testing.T) {
	var prompt, stderr bytes.Buffer
	defer pkg.SetLogOutput(os.Stderr, pkg.LogFormatText)

	restore := redirectLogs(&prompt, &stderr, pkg.LogFormatText)
	pkg.LogWarn(pkg.ComponentCLI, "during shell")
	restore()
	pkg.LogWarn(pkg.ComponentCLI, "after shell")

	assert.Contains(t, prompt.String(), "during shell")
	assert.NotContains(t, prompt.String(), "after shell")
	assert.Contains(t, stderr.String(), "after shell")
	assert.NotContains(t, stderr.String(), "during shell")
}
