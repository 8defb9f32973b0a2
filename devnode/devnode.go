//go:build linux

package devnode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/ardnew/axififo/driver"
	"github.com/ardnew/axififo/pkg"
	"github.com/ardnew/axififo/pkg/metrics"
)

// DefaultDir is the default directory holding device nodes.
const DefaultDir = "/run/axififo"

// FIFO file names.
const (
	FifoRead  = "read"
	FifoWrite = "write"
)

// Permissions of created directories and FIFOs.
const (
	dirMode  = 0o755
	fifoMode = 0o660
)

// chunkSize bounds a single read from the write FIFO. It matches PIPE_BUF,
// the largest write a client can make atomically.
const chunkSize = 4096

// Framework implements [driver.Framework] with named pipes under a directory.
type Framework struct {
	dir string

	mu      sync.Mutex
	next    driver.Handle
	devices map[driver.Handle]*device
}

// New creates a framework that places device nodes under dir.
func New(dir string) *Framework {
	if dir == "" {
		dir = DefaultDir
	}
	return &Framework{
		dir:     dir,
		devices: make(map[driver.Handle]*device),
	}
}

// Dir returns the directory holding device nodes.
func (fw *Framework) Dir() string {
	return fw.dir
}

// =============================================================================
// driver.Framework
// =============================================================================

// Register reserves a device called name. Names must be usable as a single
// path element and unique within the framework.
func (fw *Framework) Register(name string, ops driver.FileOperations) (driver.Handle, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, os.PathSeparator) {
		return 0, fmt.Errorf("register %q: invalid device name", name)
	}
	if ops == nil {
		return 0, fmt.Errorf("register %q: no file operations", name)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	for _, d := range fw.devices {
		if d.name == name {
			return 0, fmt.Errorf("register %q: %w", name, pkg.ErrBusy)
		}
	}

	fw.next++
	fw.devices[fw.next] = &device{
		name: name,
		ops:  ops,
		dir:  filepath.Join(fw.dir, name),
	}

	pkg.LogDebug(pkg.ComponentDevnode, "device registered", "name", name, "handle", int(fw.next))
	return fw.next, nil
}

// CreateNode creates the device directory and its FIFOs and starts serving
// them. It returns the device directory.
func (fw *Framework) CreateNode(h driver.Handle) (string, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	d, ok := fw.devices[h]
	if !ok {
		return "", pkg.ErrNotRegistered
	}
	if d.started {
		return "", fmt.Errorf("create node %q: %w", d.name, pkg.ErrBusy)
	}

	if err := os.MkdirAll(d.dir, dirMode); err != nil {
		return "", fmt.Errorf("create node dir: %w", err)
	}
	for _, name := range []string{FifoRead, FifoWrite} {
		if err := createFIFO(filepath.Join(d.dir, name)); err != nil {
			os.RemoveAll(d.dir)
			return "", err
		}
	}

	if err := d.start(); err != nil {
		os.RemoveAll(d.dir)
		return "", err
	}

	pkg.LogInfo(pkg.ComponentDevnode, "device node created", "path", d.dir)
	return d.dir, nil
}

// Teardown stops serving the device, removes its directory, and releases
// the handle.
func (fw *Framework) Teardown(h driver.Handle) error {
	fw.mu.Lock()
	d, ok := fw.devices[h]
	delete(fw.devices, h)
	fw.mu.Unlock()

	if !ok {
		return pkg.ErrNotRegistered
	}

	err := d.stop()
	pkg.LogDebug(pkg.ComponentDevnode, "device torn down", "name", d.name)
	return err
}

// Close tears down every registered device.
func (fw *Framework) Close() error {
	fw.mu.Lock()
	handles := make([]driver.Handle, 0, len(fw.devices))
	for h := range fw.devices {
		handles = append(handles, h)
	}
	fw.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := fw.Teardown(h); err != nil && !errors.Is(err, pkg.ErrNotRegistered) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// createFIFO creates a named pipe at path, replacing a stale one.
func createFIFO(path string) error {
	if err := unix.Mkfifo(path, fifoMode); err != nil {
		if !errors.Is(err, unix.EEXIST) {
			return fmt.Errorf("mkfifo %s: %w", filepath.Base(path), err)
		}
		var st unix.Stat_t
		if err := unix.Stat(path, &st); err != nil {
			return fmt.Errorf("stat %s: %w", filepath.Base(path), err)
		}
		if st.Mode&unix.S_IFMT != unix.S_IFIFO {
			return fmt.Errorf("mkfifo %s: %w", filepath.Base(path), unix.EEXIST)
		}
	}
	return nil
}

// =============================================================================
// Node Service
// =============================================================================

// device is a registered device and, once created, its served node.
type device struct {
	name string
	ops  driver.FileOperations
	dir  string

	started bool
	watch   *closeWatch // Reader closes of the read FIFO

	mu     sync.Mutex
	closed bool
	active map[string]*os.File // Client connection per FIFO
	wg     sync.WaitGroup
}

func (d *device) start() error {
	watch, err := newCloseWatch(filepath.Join(d.dir, FifoRead))
	if err != nil {
		return err
	}

	d.started = true
	d.watch = watch
	d.active = make(map[string]*os.File)

	d.wg.Add(2)
	go d.serve(FifoRead, os.O_WRONLY, d.serveRead, watch)
	go d.serve(FifoWrite, os.O_RDONLY, d.serveWrite, nil)
	return nil
}

// serve accepts clients of one FIFO until the device stops. Opening the
// server end blocks until a client opens the other end. With a non-nil
// watch, each client session lasts until the client closes its end.
func (d *device) serve(name string, flag int, handle func(*os.File), watch *closeWatch) {
	defer d.wg.Done()

	path := filepath.Join(d.dir, name)
	for {
		if watch != nil {
			watch.drain()
		}

		f, err := os.OpenFile(path, flag, 0)
		if err != nil {
			if !d.stopping() {
				pkg.LogError(pkg.ComponentDevnode, "open fifo failed", "fifo", name, "error", err)
			}
			return
		}
		if !d.accept(name, f) {
			f.Close()
			return
		}

		handle(f)

		d.mu.Lock()
		delete(d.active, name)
		d.mu.Unlock()
		f.Close()

		if watch != nil && !watch.wait(d.stopping) {
			return
		}
	}
}

// accept records f as the client connection of the named FIFO. It reports
// false once the device is stopping.
func (d *device) accept(name string, f *os.File) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.active[name] = f
	return true
}

// serveRead delivers one device read to a client of the read FIFO.
func (d *device) serveRead(pipe *os.File) {
	file, err := d.ops.Open()
	if err != nil {
		pkg.LogError(pkg.ComponentDevnode, "open device failed", "error", err)
		return
	}
	defer file.Close()

	buf := make([]byte, driver.MaxReadLen)
	n, err := file.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		pkg.LogWarn(pkg.ComponentDevnode, "read failed",
			"fifo", FifoRead,
			"errno", pkg.Errno(err),
			"error", err)
		return
	}
	if n == 0 {
		return
	}

	if _, err := pipe.Write(buf[:n]); err != nil {
		err = fmt.Errorf("deliver read: %w: %w", pkg.ErrFault, err)
		pkg.LogWarn(pkg.ComponentDevnode, "read failed",
			"fifo", FifoRead,
			"errno", pkg.Errno(err),
			"error", err)
		metrics.RecordTransferError(metrics.OpRead, err)
	}
}

// serveWrite passes every chunk a client writes to the device.
func (d *device) serveWrite(pipe *os.File) {
	file, err := d.ops.Open()
	if err != nil {
		pkg.LogError(pkg.ComponentDevnode, "open device failed", "error", err)
		return
	}
	defer file.Close()

	buf := make([]byte, chunkSize)
	for {
		n, err := pipe.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				pkg.LogWarn(pkg.ComponentDevnode, "write failed",
					"fifo", FifoWrite,
					"errno", pkg.Errno(werr),
					"error", werr)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				err = fmt.Errorf("accept write: %w: %w", pkg.ErrFault, err)
				pkg.LogWarn(pkg.ComponentDevnode, "write failed",
					"fifo", FifoWrite,
					"errno", pkg.Errno(err),
					"error", err)
				metrics.RecordTransferError(metrics.OpWrite, err)
			}
			return
		}
	}
}

func (d *device) stopping() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// stop ends both serve loops and removes the node directory. A loop blocked
// opening its FIFO is released by holding the FIFO open read-write until the
// loop has returned.
func (d *device) stop() error {
	if !d.started {
		return nil
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for _, f := range d.active {
		f.Close()
	}
	d.mu.Unlock()

	var wakers []*os.File
	for _, name := range []string{FifoRead, FifoWrite} {
		f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_RDWR, 0)
		if err != nil {
			pkg.LogWarn(pkg.ComponentDevnode, "wake fifo failed", "fifo", name, "error", err)
			continue
		}
		wakers = append(wakers, f)
	}

	d.wg.Wait()

	for _, f := range wakers {
		f.Close()
	}
	d.watch.Close()

	if err := os.RemoveAll(d.dir); err != nil {
		return fmt.Errorf("remove node dir: %w", err)
	}
	pkg.LogInfo(pkg.ComponentDevnode, "device node removed", "path", d.dir)
	return nil
}
