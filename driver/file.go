package driver

import (
	"fmt"
	"io"

	"github.com/ardnew/axififo/mmio"
	"github.com/ardnew/axififo/pkg"
	"github.com/ardnew/axififo/pkg/metrics"
)

// Device exposes a session through character-stream file operations.
type Device struct {
	session *Session
}

// NewDevice creates a device backed by s.
func NewDevice(s *Session) *Device {
	return &Device{session: s}
}

// Open returns a new file positioned at the start of the stream. Open does
// not require a bound window; the error result satisfies FileOperations and
// is always nil.
func (d *Device) Open() (io.ReadWriteCloser, error) {
	pkg.LogDebug(pkg.ComponentDevice, "device opened")
	return &File{dev: d}, nil
}

// File is one open instance of the device.
type File struct {
	dev    *Device
	offset int64
	closed bool
}

// Read samples READ_DATA and copies as much of the report line as fits in p.
// Only the first Read of a file samples the register; every later Read
// returns 0, io.EOF.
func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, pkg.ErrClosed
	}
	if f.offset > 0 {
		return 0, io.EOF
	}

	v, err := f.dev.session.ReadRegister(mmio.RegReadData)
	if err != nil {
		pkg.LogError(pkg.ComponentDevice, "hardware not available", "error", err)
		metrics.RecordTransferError(metrics.OpRead, err)
		return 0, err
	}

	n := copy(p, EncodeRead(v))
	f.offset += int64(n)

	pkg.LogDebug(pkg.ComponentDevice, "read data register",
		"value", fmt.Sprintf("0x%08X", v),
		"bytes", n)
	return n, nil
}

// Write decodes p and stores the value in WRITE_DATA. Bytes beyond
// MaxWriteLen are consumed and ignored, so a successful Write reports len(p).
// Decoding is checked before the session: a malformed payload fails with
// [pkg.ErrInvalidFormat] even when no window is bound.
func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, pkg.ErrClosed
	}

	v, err := DecodeWrite(p)
	if err != nil {
		pkg.LogError(pkg.ComponentCodec, "invalid data format", "error", err)
		metrics.RecordTransferError(metrics.OpWrite, err)
		return 0, err
	}

	if err := f.dev.session.WriteRegister(mmio.RegWriteData, v); err != nil {
		pkg.LogError(pkg.ComponentDevice, "hardware not available", "error", err)
		metrics.RecordTransferError(metrics.OpWrite, err)
		return 0, err
	}

	pkg.LogInfo(pkg.ComponentDevice, "wrote data register",
		"value", fmt.Sprintf("0x%08X", v))
	return len(p), nil
}

// Close releases the file. Closing twice returns [pkg.ErrClosed].
func (f *File) Close() error {
	if f.closed {
		return pkg.ErrClosed
	}
	f.closed = true
	pkg.LogDebug(pkg.ComponentDevice, "device closed")
	return nil
}
