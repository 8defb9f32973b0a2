// Package mmio provides typed 32-bit access to a memory-mapped register
// window.
//
// A [Window] wraps a mapped address range together with the function that
// releases it. Register accesses go through [sync/atomic] so every read and
// write reaches the mapping exactly once, in program order, without being
// cached in a register or merged with neighbouring accesses.
//
// # Mapping
//
// Windows are normally obtained from one of the mappers:
//
//   - [MapPhys] maps physical memory through /dev/mem
//   - [MapFile] maps a device node such as /dev/uio0 at a given offset
//   - [MapAnonymous] maps zeroed anonymous memory for simulated hardware
//
// [NewWindow] wraps memory obtained elsewhere.
//
// # Offsets
//
// Register offsets are compile-time constants. An offset outside the window
// or not aligned to 4 bytes is a programming error and panics.
package mmio
