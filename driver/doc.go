// Package driver implements the AXI FIFO character-stream driver.
//
// The driver binds one register window, either from a resource supplied by
// device discovery or from a statically configured fallback address, and
// exposes it as a text stream:
//
//   - Reading an open file samples READ_DATA once and returns the line
//     "READ_DATA: 0xXXXXXXXX\n"; further reads on the same file report EOF.
//   - Writing an integer literal ("0x1A2B3C4D", "12345", "017") stores the
//     value in WRITE_DATA.
//
// # Lifecycle
//
// A [Session] starts Unbound. [Session.Bind] moves it to Bound with a window
// whose [Origin] records who owns the mapping: discovered windows belong to
// the discovery collaborator, fallback windows belong to the session and are
// unmapped by [Session.Teardown]. Register access on an Unbound session
// fails with [pkg.ErrDeviceUnavailable].
//
// [Driver] is the owning context tying the session to a device framework
// node and to hotplug notifications.
//
// # Concurrency
//
// The session serializes register access and lifecycle changes with a mutex.
// Each [File] tracks its own read position and must not be shared between
// goroutines.
package driver
