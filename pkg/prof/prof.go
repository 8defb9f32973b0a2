//go:build profile

package prof

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	runpprof "runtime/pprof"
	"sync"
)

// Enabled reports whether profiling support is compiled in.
const Enabled = true

// Profiling errors.
var (
	// ErrCPUProfileActive indicates CPU profiling is already running.
	ErrCPUProfileActive = errors.New("cpu profile already active")

	// ErrInvalidProfile indicates an unknown profile, or the CPU profile
	// passed to Snapshot.
	ErrInvalidProfile = errors.New("invalid profile")
)

var (
	cpuMu   sync.Mutex
	cpuFile *os.File // Destination of the running CPU profile, nil when idle
)

// StartCPU starts CPU profiling into a new file at path.
func StartCPU(path string) error {
	cpuMu.Lock()
	defer cpuMu.Unlock()

	if cpuFile != nil {
		return ErrCPUProfileActive
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cpu profile: %w", err)
	}
	if err := runpprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("start cpu profile: %w", err)
	}
	cpuFile = f
	return nil
}

// StopCPU stops CPU profiling and closes the profile file. It does nothing
// when no profile is running.
func StopCPU() error {
	cpuMu.Lock()
	defer cpuMu.Unlock()

	if cpuFile == nil {
		return nil
	}
	runpprof.StopCPUProfile()
	err := cpuFile.Close()
	cpuFile = nil
	return err
}

// Active reports whether CPU profiling is running.
func Active() bool {
	cpuMu.Lock()
	defer cpuMu.Unlock()
	return cpuFile != nil
}

// Snapshot writes a point-in-time profile to a new file at path. The heap
// profile is preceded by a garbage collection so it reflects live objects.
func Snapshot(profile Profile, path string) error {
	if profile == ProfileCPU {
		return fmt.Errorf("%w: %s is not a snapshot profile", ErrInvalidProfile, profile)
	}
	p := runpprof.Lookup(string(profile))
	if p == nil {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, profile)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s profile: %w", profile, err)
	}
	if profile == ProfileHeap {
		runtime.GC()
	}
	if err := p.WriteTo(f, 0); err != nil {
		f.Close()
		return fmt.Errorf("write %s profile: %w", profile, err)
	}
	return f.Close()
}

// SetContentionRates enables block and mutex profiling. A rate of 0
// disables the respective profile.
func SetContentionRates(block, mutex int) {
	runtime.SetBlockProfileRate(block)
	runtime.SetMutexProfileFraction(mutex)
}

// Register mounts the pprof HTTP handlers under /debug/pprof/ on mux.
func Register(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}
