//go:build linux

package driver

import "github.com/ardnew/axififo/mmio"

// DevMemFallback maps the fallback range through the memory device at path.
func DevMemFallback(path string) FallbackMapper {
	return FallbackFunc(func(phys uint64, size int) (*mmio.Window, error) {
		return mmio.MapPhys(path, phys, size)
	})
}

// SimulatedFallback maps anonymous memory in place of the fallback range.
// The window reads back whatever was last written to each register.
func SimulatedFallback() FallbackMapper {
	return FallbackFunc(mmio.MapAnonymous)
}
