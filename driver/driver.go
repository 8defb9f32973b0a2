package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ardnew/axififo/pkg"
	"github.com/ardnew/axififo/platform"
)

// DefaultName is the default device name.
const DefaultName = "axi_fifo"

// Options configures a Driver.
type Options struct {
	Name      string    // Device name; DefaultName if empty
	Binder    Binder    // Resolves the register window
	Framework Framework // Optional; nil skips node creation
}

// Driver owns a session, its device, and the device node.
type Driver struct {
	opts    Options
	session *Session
	device  *Device

	mu         sync.Mutex
	handle     Handle
	registered bool
	node       string
	closed     bool
}

// New creates an uninitialized driver with an Unbound session.
func New(opts Options) *Driver {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	s := NewSession()
	return &Driver{
		opts:    opts,
		session: s,
		device:  NewDevice(s),
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

// Init registers the device, creates its node, and binds the register
// window. On failure every completed step is undone.
func (d *Driver) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return pkg.ErrClosed
	}
	if d.registered || d.session.State() == StateBound {
		return pkg.ErrAlreadyBound
	}

	pkg.LogInfo(pkg.ComponentDevice, "initializing driver", "name", d.opts.Name)

	if fw := d.opts.Framework; fw != nil {
		h, err := fw.Register(d.opts.Name, d.device)
		if err != nil {
			return fmt.Errorf("register device: %w", err)
		}
		node, err := fw.CreateNode(h)
		if err != nil {
			d.teardownFramework(h)
			return fmt.Errorf("create node: %w", err)
		}
		d.handle, d.registered, d.node = h, true, node
	}

	binding, err := d.session.Bind(&d.opts.Binder)
	if err != nil {
		d.release()
		if d.registered {
			d.teardownFramework(d.handle)
			d.registered, d.node = false, ""
		}
		return err
	}

	pkg.LogInfo(pkg.ComponentDevice, "driver initialized",
		"origin", binding.Origin.String(),
		"node", d.node)
	return nil
}

// Close tears down the session, ends the discovery scope, and removes the
// device node. Close is idempotent.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	pkg.LogInfo(pkg.ComponentDevice, "exiting driver", "name", d.opts.Name)

	d.session.Teardown()

	var errs []error
	if err := d.release(); err != nil {
		errs = append(errs, err)
	}
	if d.registered {
		if err := d.opts.Framework.Teardown(d.handle); err != nil {
			errs = append(errs, fmt.Errorf("teardown device: %w", err))
		}
		d.registered, d.node = false, ""
	}

	pkg.LogInfo(pkg.ComponentDevice, "driver exited")
	return errors.Join(errs...)
}

// Watch tears the session down when a departure event names the bound
// discovered resource. It returns when ctx is done or events is closed.
func (d *Driver) Watch(ctx context.Context, events <-chan platform.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			d.handleEvent(evt)
		}
	}
}

// handleEvent applies a single hotplug event.
func (d *Driver) handleEvent(evt platform.Event) {
	if !evt.Action.IsDeparture() {
		return
	}
	res, ok := d.session.TeardownDiscovered(evt)
	if !ok {
		return
	}

	pkg.LogWarn(pkg.ComponentDevice, "removed device",
		"action", evt.Action.String(),
		"devpath", evt.DevPath)

	if r, ok := d.opts.Binder.Discovery.(Remover); ok {
		if err := r.Remove(res); err != nil {
			pkg.LogWarn(pkg.ComponentDevice, "release discovered resource failed", "error", err)
		}
	}
}

// =============================================================================
// Accessors
// =============================================================================

// Session returns the driver session.
func (d *Driver) Session() *Session {
	return d.session
}

// Device returns the driver's file operations.
func (d *Driver) Device() *Device {
	return d.device
}

// Node returns the path of the device node, or "" when none exists.
func (d *Driver) Node() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.node
}

// =============================================================================
// Helpers
// =============================================================================

// release ends the discovery collaborator's mapping scope.
func (d *Driver) release() error {
	r, ok := d.opts.Binder.Discovery.(Releaser)
	if !ok {
		return nil
	}
	if err := r.Release(); err != nil {
		return fmt.Errorf("release discovery: %w", err)
	}
	return nil
}

func (d *Driver) teardownFramework(h Handle) {
	if err := d.opts.Framework.Teardown(h); err != nil {
		pkg.LogWarn(pkg.ComponentDevice, "teardown device failed", "error", err)
	}
}
