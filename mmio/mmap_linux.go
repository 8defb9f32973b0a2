//go:build linux

package mmio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DevMem is the default physical memory device.
const DevMem = "/dev/mem"

// MapPhys maps size bytes of physical memory starting at phys through the
// memory device at path (normally [DevMem]). The base need not be page
// aligned; the mapping is widened to whole pages and the window is sliced
// back to the requested range.
func MapPhys(path string, phys uint64, size int) (*Window, error) {
	page := uint64(unix.Getpagesize())
	aligned := phys &^ (page - 1)
	delta := int(phys - aligned)

	w, err := mapDevice(path, unix.O_RDWR|unix.O_SYNC, int64(aligned), delta, size)
	if err != nil {
		return nil, fmt.Errorf("map %s at %#x: %w", path, phys, err)
	}
	w.phys = phys
	return w, nil
}

// MapFile maps size bytes of the device node at path starting at the page
// aligned file offset. It is used for UIO nodes, where map N lives at offset
// N * pagesize. The phys argument only labels the window.
func MapFile(path string, offset int64, phys uint64, size int) (*Window, error) {
	if offset%int64(unix.Getpagesize()) != 0 {
		return nil, fmt.Errorf("map %s: offset %#x not page aligned", path, offset)
	}
	w, err := mapDevice(path, unix.O_RDWR, offset, 0, size)
	if err != nil {
		return nil, fmt.Errorf("map %s at offset %#x: %w", path, offset, err)
	}
	w.phys = phys
	return w, nil
}

// MapAnonymous maps size bytes of zeroed anonymous memory labelled with the
// physical address phys. The window behaves like plain RAM and is used to
// simulate the peripheral.
func MapAnonymous(phys uint64, size int) (*Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("map anonymous: invalid size %d", size)
	}
	mem, err := unix.Mmap(-1, 0, pageRound(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("map anonymous: %w", err)
	}
	return NewWindow(phys, mem[:size], func() error {
		return unix.Munmap(mem)
	}), nil
}

// mapDevice opens path and maps delta+size bytes at offset, returning a
// window over [delta, delta+size) of the mapping.
func mapDevice(path string, flags int, offset int64, delta, size int) (*Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid size %d", size)
	}

	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	// The mapping stays valid after the descriptor is closed.
	defer unix.Close(fd)

	mem, err := unix.Mmap(fd, offset, pageRound(delta+size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}

	return NewWindow(0, mem[delta:delta+size], func() error {
		return unix.Munmap(mem)
	}), nil
}

// pageRound rounds n up to a whole number of pages.
func pageRound(n int) int {
	page := unix.Getpagesize()
	return (n + page - 1) &^ (page - 1)
}
