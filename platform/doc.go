// Package platform locates the AXI FIFO register resource and owns mappings
// made on its behalf.
//
// Discovery reads the device tree as exported by Linux through sysfs. It is
// pure Go with no cgo dependencies.
//
// # Discovery Sources
//
// [Bus.Lookup] searches, in order:
//   - UIO devices (/sys/class/uio/uio*), whose register maps can be mapped
//     through /dev/uioN without access to /dev/mem
//   - Platform devices (/sys/bus/platform/devices/*), whose of_node reg
//     property gives the physical register range
//
// A device matches when any entry of its of_node compatible list equals the
// requested compatible string, for example [DefaultCompatible].
//
// # Managed Mappings
//
// Windows returned by [Bus.Map] belong to the bus. They are released by
// [Bus.Remove] when the device goes away and by [Bus.Release] when the bus
// scope ends; callers must not unmap them.
//
// # Hotplug
//
// [Monitor] listens for kernel uevents on a netlink socket and reports
// platform and UIO device events, so the driver can drop a discovered
// window when its device is unbound or removed.
package platform
