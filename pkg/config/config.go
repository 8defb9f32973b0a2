// Package config loads axififo settings from TOML or YAML files and the
// environment.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ardnew/axififo/devnode"
	"github.com/ardnew/axififo/driver"
	"github.com/ardnew/axififo/pkg"
	"github.com/ardnew/axififo/platform"
)

// Environment variables that override file settings.
const (
	EnvLogLevel     = "AXIFIFO_LOG_LEVEL"
	EnvLogFormat    = "AXIFIFO_LOG_FORMAT"
	EnvFallbackBase = "AXIFIFO_FALLBACK_BASE"
	EnvNodeDir      = "AXIFIFO_NODE_DIR"
)

// Config holds every setting of the axififo command.
type Config struct {
	Log       LogConfig       `toml:"log" yaml:"log"`
	Device    DeviceConfig    `toml:"device" yaml:"device"`
	Discovery DiscoveryConfig `toml:"discovery" yaml:"discovery"`
	Metrics   MetricsConfig   `toml:"metrics" yaml:"metrics"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`   // debug, info, warn, error
	Format string `toml:"format" yaml:"format"` // text or json
}

// DeviceConfig describes the device node and the fallback register range.
type DeviceConfig struct {
	Name         string  `toml:"name" yaml:"name"`
	NodeDir      string  `toml:"node_dir" yaml:"node_dir"`
	FallbackBase Address `toml:"fallback_base" yaml:"fallback_base"`
	FallbackSize Address `toml:"fallback_size" yaml:"fallback_size"`
	DevMem       string  `toml:"dev_mem" yaml:"dev_mem"`
	Simulate     bool    `toml:"simulate" yaml:"simulate"` // Anonymous memory instead of /dev/mem
}

// DiscoveryConfig controls the sysfs device tree search.
type DiscoveryConfig struct {
	Enabled    bool   `toml:"enabled" yaml:"enabled"`
	Compatible string `toml:"compatible" yaml:"compatible"`
	SysfsRoot  string `toml:"sysfs_root" yaml:"sysfs_root"`
	DevRoot    string `toml:"dev_root" yaml:"dev_root"`
	Hotplug    bool   `toml:"hotplug" yaml:"hotplug"`
}

// MetricsConfig configures the Prometheus listener. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Device: DeviceConfig{
			Name:         driver.DefaultName,
			NodeDir:      devnode.DefaultDir,
			FallbackBase: driver.DefaultFallbackBase,
			FallbackSize: driver.DefaultFallbackSize,
			DevMem:       platform.DefaultDevMem,
		},
		Discovery: DiscoveryConfig{
			Enabled:    true,
			Compatible: platform.DefaultCompatible,
			SysfsRoot:  platform.DefaultSysfsRoot,
			DevRoot:    platform.DefaultDevRoot,
			Hotplug:    true,
		},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load returns the defaults overlaid with the file at path, when path is not
// empty, and then with the environment. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeFile decodes path into cfg, choosing the format by extension. Keys
// absent from the file keep their current values.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	default:
		return fmt.Errorf("%w: unsupported config format %q", pkg.ErrInvalidConfig, ext)
	}

	pkg.LogDebug(pkg.ComponentCLI, "config loaded", "path", path)
	return nil
}

// applyEnv overlays environment overrides read through lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.Log.Level = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogFormat); ok && strings.TrimSpace(v) != "" {
		c.Log.Format = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvFallbackBase); ok && strings.TrimSpace(v) != "" {
		if err := c.Device.FallbackBase.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvFallbackBase, err)
		}
	}
	if v, ok := lookup(EnvNodeDir); ok && strings.TrimSpace(v) != "" {
		c.Device.NodeDir = strings.TrimSpace(v)
	}
	return nil
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks every setting. Errors wrap [pkg.ErrInvalidConfig] and name
// the failing key.
func (c Config) Validate() error {
	if _, ok := pkg.ParseLogLevel(c.Log.Level); !ok {
		return invalid("log.level", "unknown level %q", c.Log.Level)
	}
	if _, ok := pkg.ParseLogFormat(c.Log.Format); !ok {
		return invalid("log.format", "unknown format %q", c.Log.Format)
	}

	name := strings.TrimSpace(c.Device.Name)
	if name == "" || strings.ContainsRune(name, '/') {
		return invalid("device.name", "invalid device name %q", c.Device.Name)
	}
	if strings.TrimSpace(c.Device.NodeDir) == "" {
		return invalid("device.node_dir", "missing directory")
	}
	if c.Device.FallbackBase%4 != 0 {
		return invalid("device.fallback_base", "%s is not 4-byte aligned", c.Device.FallbackBase)
	}
	if c.Device.FallbackSize < Address(driver.MinWindowSize) {
		return invalid("device.fallback_size", "%s is smaller than %#x", c.Device.FallbackSize, driver.MinWindowSize)
	}
	if !c.Device.Simulate && strings.TrimSpace(c.Device.DevMem) == "" {
		return invalid("device.dev_mem", "missing path")
	}

	if c.Discovery.Enabled {
		if strings.TrimSpace(c.Discovery.Compatible) == "" {
			return invalid("discovery.compatible", "missing compatible string")
		}
		if strings.TrimSpace(c.Discovery.SysfsRoot) == "" {
			return invalid("discovery.sysfs_root", "missing path")
		}
		if strings.TrimSpace(c.Discovery.DevRoot) == "" {
			return invalid("discovery.dev_root", "missing path")
		}
	}
	return nil
}

func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", pkg.ErrInvalidConfig, key, fmt.Sprintf(format, args...))
}

// Template returns the configuration c encoded as TOML.
func (c Config) Template() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return buf.String(), nil
}

// =============================================================================
// Address
// =============================================================================

// Address is an unsigned quantity written as a C-style integer literal in
// configuration files, for example 0xA0020000.
type Address uint64

// UnmarshalText parses a decimal, 0x-prefixed hexadecimal, 0o or leading-0
// octal, or 0b binary literal. Underscores between digits are allowed.
func (a *Address) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(strings.TrimSpace(string(text)), 0, 64)
	if err != nil {
		return fmt.Errorf("%w: address %q", pkg.ErrInvalidConfig, text)
	}
	*a = Address(v)
	return nil
}

// MarshalText formats the address in hexadecimal.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// String returns the address in hexadecimal.
func (a Address) String() string {
	return fmt.Sprintf("%#x", uint64(a))
}
