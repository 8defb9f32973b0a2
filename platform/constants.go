package platform

// DefaultCompatible is the device tree compatible string of the AXI FIFO.
const DefaultCompatible = "xlnx,AXI-FIFO-1.0"

// =============================================================================
// System Paths
// =============================================================================

// Default filesystem roots.
const (
	DefaultSysfsRoot = "/sys"
	DefaultDevRoot   = "/dev"
	DefaultDevMem    = "/dev/mem"
)

// Sysfs locations relative to the sysfs root.
const (
	sysfsUIOClass        = "class/uio"
	sysfsPlatformDevices = "bus/platform/devices"
)

// =============================================================================
// Device Tree
// =============================================================================

// Device tree cell defaults when the parent node omits #address-cells or
// #size-cells.
const (
	defaultAddressCells = 2
	defaultSizeCells    = 1
)

// maxCells bounds #address-cells and #size-cells; larger values cannot be
// represented in 64 bits.
const maxCells = 2

// =============================================================================
// Netlink
// =============================================================================

// UEventBufferSize is the receive buffer size for kernel uevents.
const UEventBufferSize = 8192

// Subsystems reported by the hotplug monitor.
const (
	SubsystemPlatform = "platform"
	SubsystemUIO      = "uio"
)
