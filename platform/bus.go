//go:build linux

package platform

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/ardnew/axififo/mmio"
	"github.com/ardnew/axififo/pkg"
)

// Bus is the discovery collaborator. It finds memory resources in sysfs and
// maps them on the caller's behalf, keeping ownership of every mapping.
type Bus struct {
	sysfsRoot string
	devRoot   string
	devMem    string

	mu      sync.Mutex
	managed map[string]*mmio.Window
}

// NewBus creates a bus reading sysfs at sysfsRoot and opening device nodes
// under devRoot, mapping non-UIO resources through devMem. Empty arguments
// select the system defaults.
func NewBus(sysfsRoot, devRoot, devMem string) *Bus {
	if sysfsRoot == "" {
		sysfsRoot = DefaultSysfsRoot
	}
	if devRoot == "" {
		devRoot = DefaultDevRoot
	}
	if devMem == "" {
		devMem = DefaultDevMem
	}
	return &Bus{
		sysfsRoot: sysfsRoot,
		devRoot:   devRoot,
		devMem:    devMem,
		managed:   make(map[string]*mmio.Window),
	}
}

// =============================================================================
// Discovery
// =============================================================================

// Scan returns every resource compatible with compatible, UIO devices first.
func (b *Bus) Scan(compatible string) ([]Resource, error) {
	uio, err := scanUIO(b.sysfsRoot, compatible)
	if err != nil {
		return nil, fmt.Errorf("scan uio: %w", err)
	}
	plat, err := scanPlatform(b.sysfsRoot, compatible)
	if err != nil {
		return nil, fmt.Errorf("scan platform: %w", err)
	}
	return append(uio, plat...), nil
}

// Lookup returns the first resource compatible with compatible, or an error
// wrapping [pkg.ErrNoResource] when none exists.
func (b *Bus) Lookup(compatible string) (Resource, error) {
	found, err := b.Scan(compatible)
	if err != nil {
		return Resource{}, err
	}
	if len(found) == 0 {
		return Resource{}, fmt.Errorf("%w: %s", pkg.ErrNoResource, compatible)
	}

	pkg.LogDebug(pkg.ComponentPlatform, "resource found",
		"resource", found[0].String(),
		"candidates", len(found))
	return found[0], nil
}

// =============================================================================
// Managed Mappings
// =============================================================================

// Map maps res and records the window as owned by the bus. Mapping the same
// resource twice returns the existing window.
func (b *Bus) Map(res Resource) (*mmio.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w, ok := b.managed[res.key()]; ok && w.Mapped() {
		return w, nil
	}

	var (
		w   *mmio.Window
		err error
	)
	if res.IsUIO() {
		node := filepath.Join(b.devRoot, res.UIOName)
		offset := int64(res.UIOIndex) * int64(unix.Getpagesize())
		w, err = mmio.MapFile(node, offset, res.Start, int(res.Size))
	} else {
		w, err = mmio.MapPhys(b.devMem, res.Start, int(res.Size))
	}
	if err != nil {
		return nil, err
	}

	b.managed[res.key()] = w
	pkg.LogInfo(pkg.ComponentPlatform, "resource mapped",
		"resource", res.String(),
		"uio", res.IsUIO())
	return w, nil
}

// Remove releases the mapping of res, if the bus holds one.
func (b *Bus) Remove(res Resource) error {
	b.mu.Lock()
	w, ok := b.managed[res.key()]
	delete(b.managed, res.key())
	b.mu.Unlock()

	if !ok {
		return nil
	}
	pkg.LogInfo(pkg.ComponentPlatform, "resource released", "resource", res.String())
	return w.Unmap()
}

// Release unmaps every window the bus holds.
func (b *Bus) Release() error {
	b.mu.Lock()
	managed := b.managed
	b.managed = make(map[string]*mmio.Window)
	b.mu.Unlock()

	var errs []error
	for key, w := range managed {
		if err := w.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	if len(managed) > 0 {
		pkg.LogDebug(pkg.ComponentPlatform, "managed mappings released", "count", len(managed))
	}
	return errors.Join(errs...)
}

// Managed returns the number of windows currently owned by the bus.
func (b *Bus) Managed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.managed)
}
