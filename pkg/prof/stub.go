//go:build !profile

package prof

import "net/http"

// Enabled reports whether profiling support is compiled in.
const Enabled = false

// Profiling errors, never returned without the "profile" tag.
var (
	ErrCPUProfileActive error
	ErrInvalidProfile   error
)

// StartCPU does nothing.
func StartCPU(string) error { return nil }

// StopCPU does nothing.
func StopCPU() error { return nil }

// Active always reports false.
func Active() bool { return false }

// Snapshot does nothing.
func Snapshot(Profile, string) error { return nil }

// SetContentionRates does nothing.
func SetContentionRates(int, int) {}

// Register mounts nothing.
func Register(*http.ServeMux) {}
