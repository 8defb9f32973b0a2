package platform

import (
	"fmt"
	"path/filepath"
)

// Resource describes a memory resource found by discovery.
type Resource struct {
	Name       string // Device name in sysfs (e.g. "a0020000.axi_fifo")
	Compatible string // Compatible string that matched
	Start      uint64 // Physical base address
	Size       uint64 // Length in bytes
	DevPath    string // Kernel devpath, relative to the sysfs root

	// UIO-specific
	UIOName  string // UIO device name (e.g. "uio0"), empty for platform devices
	UIOIndex int    // Index of the UIO map holding the registers
}

// IsUIO reports whether the resource is reached through a UIO device node.
func (r Resource) IsUIO() bool {
	return r.UIOName != ""
}

// Matches reports whether a hotplug event refers to this resource.
func (r Resource) Matches(ev Event) bool {
	if ev.DevPath == "" {
		return false
	}
	if r.DevPath != "" && ev.DevPath == r.DevPath {
		return true
	}
	base := filepath.Base(ev.DevPath)
	return base == r.Name || (r.UIOName != "" && base == r.UIOName)
}

// key identifies the resource in the bus mapping table.
func (r Resource) key() string {
	if r.IsUIO() {
		return r.UIOName
	}
	return fmt.Sprintf("%s@%x", r.Name, r.Start)
}

// String returns a short description of the resource.
func (r Resource) String() string {
	if r.IsUIO() {
		return fmt.Sprintf("%s (%s map%d) [%#x-%#x]",
			r.Name, r.UIOName, r.UIOIndex, r.Start, r.Start+r.Size-1)
	}
	return fmt.Sprintf("%s [%#x-%#x]", r.Name, r.Start, r.Start+r.Size-1)
}
