package driver

import (
	"errors"
	"fmt"

	"github.com/ardnew/axififo/mmio"
	"github.com/ardnew/axififo/pkg"
	"github.com/ardnew/axififo/platform"
)

// Fallback register window, used when discovery finds no resource.
const (
	DefaultFallbackBase = 0xA0020000
	DefaultFallbackSize = 0x10000
)

// MinWindowSize is the smallest window covering every register.
const MinWindowSize = int(mmio.RegStatus) + mmio.RegisterSize

// Discoverer is the discovery collaborator. Windows returned by Map remain
// owned by the Discoverer.
type Discoverer interface {
	Lookup(compatible string) (platform.Resource, error)
	Map(res platform.Resource) (*mmio.Window, error)
}

// FallbackMapper maps a fixed physical range on behalf of the driver. The
// driver owns and unmaps the returned window.
type FallbackMapper interface {
	MapPhys(phys uint64, size int) (*mmio.Window, error)
}

// FallbackFunc adapts a function to the FallbackMapper interface.
type FallbackFunc func(phys uint64, size int) (*mmio.Window, error)

// MapPhys calls f(phys, size).
func (f FallbackFunc) MapPhys(phys uint64, size int) (*mmio.Window, error) {
	return f(phys, size)
}

// Binding is the result of a successful bind.
type Binding struct {
	Window   *mmio.Window
	Origin   Origin
	Resource platform.Resource
}

// Binder resolves and maps the register window. Discovery is attempted once;
// if it yields nothing usable the fallback range is mapped.
type Binder struct {
	Discovery    Discoverer     // Optional; nil skips discovery
	Fallback     FallbackMapper // Maps the fallback range
	Compatible   string         // Device tree compatible string
	FallbackBase uint64         // Physical base of the fallback range
	FallbackSize int            // Size of the fallback range in bytes
}

// Bind returns a mapped window. It fails with an error wrapping
// [pkg.ErrMappingFailed] when neither discovery nor the fallback produce one.
func (b *Binder) Bind() (Binding, error) {
	if binding, ok := b.bindDiscovered(); ok {
		return binding, nil
	}
	return b.bindFallback()
}

// bindDiscovered looks up and maps the discovered resource.
func (b *Binder) bindDiscovered() (Binding, bool) {
	if b.Discovery == nil {
		pkg.LogDebug(pkg.ComponentBinder, "discovery disabled")
		return Binding{}, false
	}

	compatible := b.Compatible
	if compatible == "" {
		compatible = platform.DefaultCompatible
	}

	res, err := b.Discovery.Lookup(compatible)
	if err != nil {
		if errors.Is(err, pkg.ErrNoResource) {
			pkg.LogWarn(pkg.ComponentBinder, "no device tree entry found, using fallback mapping",
				"compatible", compatible)
		} else {
			pkg.LogWarn(pkg.ComponentBinder, "discovery failed, using fallback mapping",
				"compatible", compatible,
				"error", err)
		}
		return Binding{}, false
	}

	w, err := b.Discovery.Map(res)
	if err != nil {
		pkg.LogWarn(pkg.ComponentBinder, "failed to map discovered resource",
			"resource", res.String(),
			"error", err)
		return Binding{}, false
	}
	if w.Size() < MinWindowSize {
		pkg.LogWarn(pkg.ComponentBinder, "discovered resource too small",
			"resource", res.String(),
			"size", w.Size())
		return Binding{}, false
	}

	pkg.LogInfo(pkg.ComponentBinder, "mapped discovered resource",
		"resource", res.String(),
		"phys", fmt.Sprintf("%#x", w.Phys()))
	return Binding{Window: w, Origin: OriginDiscovered, Resource: res}, true
}

// bindFallback maps the configured fallback range.
func (b *Binder) bindFallback() (Binding, error) {
	base, size := b.FallbackBase, b.FallbackSize
	if size < MinWindowSize {
		return Binding{}, fmt.Errorf("%w: fallback size %#x below %#x",
			pkg.ErrMappingFailed, size, MinWindowSize)
	}
	if b.Fallback == nil {
		return Binding{}, fmt.Errorf("%w: no fallback mapper", pkg.ErrMappingFailed)
	}

	w, err := b.Fallback.MapPhys(base, size)
	if err != nil {
		pkg.LogError(pkg.ComponentBinder, "failed to manually map memory",
			"phys", fmt.Sprintf("%#x", base),
			"error", err)
		return Binding{}, fmt.Errorf("%w: fallback %#x: %v", pkg.ErrMappingFailed, base, err)
	}

	pkg.LogInfo(pkg.ComponentBinder, "manually mapped memory",
		"phys", fmt.Sprintf("%#x", base),
		"size", fmt.Sprintf("%#x", size))
	return Binding{
		Window: w,
		Origin: OriginFallback,
		Resource: platform.Resource{
			Name:  "fallback",
			Start: base,
			Size:  uint64(size),
		},
	}, nil
}
