// Package pkg provides shared utilities for the axififo driver.
//
// This package contains common functionality used by the register window,
// the discovery collaborator, the driver core, and the device nodes:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error values for binding, decoding, and transfer failures
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with driver-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentBinder, "using fallback mapping", "phys", "0xa0020000")
//
// # Errors
//
// Driver errors are defined as sentinel values and always wrapped with %w:
//
//	if errors.Is(err, pkg.ErrDeviceUnavailable) {
//	    // No register window is bound
//	}
package pkg
