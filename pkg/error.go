package pkg

import "errors"

// Binding errors.
var (
	// ErrNoResource indicates discovery found no memory resource for the
	// requested compatible string.
	ErrNoResource = errors.New("no memory resource found")

	// ErrMappingFailed indicates neither the discovered resource nor the
	// fallback address could be mapped.
	ErrMappingFailed = errors.New("register window mapping failed")

	// ErrAlreadyBound indicates a session already holds a register window.
	ErrAlreadyBound = errors.New("session already bound")
)

// Transfer errors.
var (
	// ErrInvalidFormat indicates a write payload is not an integer literal.
	ErrInvalidFormat = errors.New("invalid data format")

	// ErrDeviceUnavailable indicates no register window is bound.
	ErrDeviceUnavailable = errors.New("hardware not available")

	// ErrFault indicates bytes could not be moved to or from the caller.
	ErrFault = errors.New("bad address")

	// ErrClosed indicates an operation on a closed file or node.
	ErrClosed = errors.New("file already closed")
)

// Framework and configuration errors.
var (
	// ErrNotRegistered indicates an unknown device framework handle.
	ErrNotRegistered = errors.New("device not registered")

	// ErrBusy indicates the device framework already holds a registration.
	ErrBusy = errors.New("resource busy")

	// ErrInvalidConfig indicates a configuration value failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Errno returns the errno name a character device would report for err.
// Errors outside the driver taxonomy report "EIO".
func Errno(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidFormat):
		return "EINVAL"
	case errors.Is(err, ErrDeviceUnavailable), errors.Is(err, ErrNoResource):
		return "ENODEV"
	case errors.Is(err, ErrFault):
		return "EFAULT"
	case errors.Is(err, ErrMappingFailed):
		return "ENOMEM"
	case errors.Is(err, ErrBusy), errors.Is(err, ErrAlreadyBound):
		return "EBUSY"
	default:
		return "EIO"
	}
}
