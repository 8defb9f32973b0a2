package mmio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Window is a mapped register range.
//
// A Window is valid from the moment it is mapped until Unmap is called.
// Accessing an unmapped Window panics. Window performs no locking of its own;
// callers serialize Unmap against register accesses.
type Window struct {
	phys    uint64       // Physical base address (informational)
	mem     []byte       // Mapped range, nil after Unmap
	release func() error // Releases the mapping, may be nil

	once sync.Once
	err  error
}

// NewWindow wraps mem as a register window located at physical address
// phys. The release function is called at most once by Unmap.
func NewWindow(phys uint64, mem []byte, release func() error) *Window {
	return &Window{
		phys:    phys,
		mem:     mem,
		release: release,
	}
}

// Phys returns the physical base address of the window.
func (w *Window) Phys() uint64 {
	return w.phys
}

// Size returns the window size in bytes, or 0 once unmapped.
func (w *Window) Size() int {
	return len(w.mem)
}

// Mapped reports whether the window still holds its mapping.
func (w *Window) Mapped() bool {
	return w.mem != nil
}

// Read32 reads the 32-bit register at off.
func (w *Window) Read32(off Offset) uint32 {
	return atomic.LoadUint32(w.word(off))
}

// Write32 writes v to the 32-bit register at off.
func (w *Window) Write32(off Offset, v uint32) {
	atomic.StoreUint32(w.word(off), v)
}

// Unmap releases the mapping. Calls after the first return the first result.
func (w *Window) Unmap() error {
	w.once.Do(func() {
		w.mem = nil
		if w.release != nil {
			w.err = w.release()
		}
	})
	return w.err
}

// String returns a short description of the window.
func (w *Window) String() string {
	return fmt.Sprintf("mmio.Window{phys: %#x, size: %#x}", w.phys, len(w.mem))
}

// word returns a pointer to the register at off.
func (w *Window) word(off Offset) *uint32 {
	if w.mem == nil {
		panic("mmio: register access on unmapped window")
	}
	if off%RegisterSize != 0 || uint64(off)+RegisterSize > uint64(len(w.mem)) {
		panic(fmt.Sprintf("mmio: register offset %#x outside window of %#x bytes", uint32(off), len(w.mem)))
	}
	return (*uint32)(unsafe.Pointer(&w.mem[off]))
}
