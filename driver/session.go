package driver

import (
	"fmt"
	"sync"

	"github.com/ardnew/axififo/mmio"
	"github.com/ardnew/axififo/pkg"
	"github.com/ardnew/axififo/pkg/metrics"
	"github.com/ardnew/axififo/platform"
)

// Session tracks the register window and who owns it.
//
// The window is present exactly while the session is Bound.
type Session struct {
	mu       sync.Mutex
	state    State
	window   *mmio.Window
	origin   Origin
	resource platform.Resource
}

// NewSession creates an Unbound session.
func NewSession() *Session {
	return &Session{}
}

// =============================================================================
// Lifecycle
// =============================================================================

// Bind binds a window produced by b. It fails with [pkg.ErrAlreadyBound]
// without consulting b when the session is already Bound.
func (s *Session) Bind(b *Binder) (Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateBound {
		return Binding{}, pkg.ErrAlreadyBound
	}

	binding, err := b.Bind()
	if err != nil {
		return Binding{}, err
	}
	s.attach(binding)
	return binding, nil
}

// Attach binds an already mapped window.
func (s *Session) Attach(binding Binding) error {
	if binding.Window == nil || !binding.Window.Mapped() {
		return fmt.Errorf("attach: %w", pkg.ErrDeviceUnavailable)
	}
	if binding.Origin == OriginNone {
		return fmt.Errorf("attach: window without origin")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateBound {
		return pkg.ErrAlreadyBound
	}
	s.attach(binding)
	return nil
}

func (s *Session) attach(binding Binding) {
	s.state = StateBound
	s.window = binding.Window
	s.origin = binding.Origin
	s.resource = binding.Resource
	metrics.RecordBind(binding.Origin.String())

	pkg.LogDebug(pkg.ComponentSession, "session bound",
		"origin", binding.Origin.String(),
		"window", binding.Window.String())
}

// Teardown returns the session to Unbound. Fallback windows are unmapped;
// discovered windows are left to the discovery collaborator. Calling
// Teardown on an Unbound session does nothing.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown()
}

// TeardownDiscovered tears down a window bound from discovery whose resource
// matches evt, and returns that resource. The match and the teardown are
// atomic with respect to Bind.
func (s *Session) TeardownDiscovered(evt platform.Event) (platform.Resource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateBound || s.origin != OriginDiscovered || !s.resource.Matches(evt) {
		return platform.Resource{}, false
	}
	res := s.resource
	s.teardown()
	return res, true
}

func (s *Session) teardown() {
	if s.state == StateUnbound {
		return
	}

	if s.origin.DriverOwned() {
		if err := s.window.Unmap(); err != nil {
			pkg.LogWarn(pkg.ComponentSession, "unmap failed", "error", err)
		} else {
			pkg.LogInfo(pkg.ComponentSession, "unmapped manually mapped memory",
				"phys", fmt.Sprintf("%#x", s.resource.Start))
		}
	}

	s.state = StateUnbound
	s.window = nil
	s.origin = OriginNone
	s.resource = platform.Resource{}
	metrics.RecordTeardown()
}

// =============================================================================
// Accessors
// =============================================================================

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Origin returns the origin of the bound window, or OriginNone.
func (s *Session) Origin() Origin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin
}

// Resource returns the resource backing the bound window.
func (s *Session) Resource() platform.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resource
}

// =============================================================================
// Register Access
// =============================================================================

// ReadRegister reads the register at off. It fails with
// [pkg.ErrDeviceUnavailable] while Unbound.
func (s *Session) ReadRegister(off mmio.Offset) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateBound {
		return 0, fmt.Errorf("read %v: %w", off, pkg.ErrDeviceUnavailable)
	}
	v := s.window.Read32(off)
	metrics.RecordRegisterAccess(off.String(), metrics.OpRead)
	return v, nil
}

// WriteRegister writes v to the register at off. It fails with
// [pkg.ErrDeviceUnavailable] while Unbound, without touching any window.
func (s *Session) WriteRegister(off mmio.Offset, v uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateBound {
		return fmt.Errorf("write %v: %w", off, pkg.ErrDeviceUnavailable)
	}
	s.window.Write32(off, v)
	metrics.RecordRegisterAccess(off.String(), metrics.OpWrite)
	return nil
}
