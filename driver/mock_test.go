package driver

import (
	"github.com/stretchr/testify/mock"

	"github.com/ardnew/axififo/mmio"
	"github.com/ardnew/axififo/platform"
)

// =============================================================================
// Collaborator Mocks
// =============================================================================

type mockDiscoverer struct {
	mock.Mock
}

func (m *mockDiscoverer) Lookup(compatible string) (platform.Resource, error) {
	args := m.Called(compatible)
	return args.Get(0).(platform.Resource), args.Error(1)
}

func (m *mockDiscoverer) Map(res platform.Resource) (*mmio.Window, error) {
	args := m.Called(res)
	w, _ := args.Get(0).(*mmio.Window)
	return w, args.Error(1)
}

func (m *mockDiscoverer) Release() error {
	return m.Called().Error(0)
}

func (m *mockDiscoverer) Remove(res platform.Resource) error {
	return m.Called(res).Error(0)
}

type mockFallback struct {
	mock.Mock
}

func (m *mockFallback) MapPhys(phys uint64, size int) (*mmio.Window, error) {
	args := m.Called(phys, size)
	w, _ := args.Get(0).(*mmio.Window)
	return w, args.Error(1)
}

// testWindow is a RAM-backed window that counts how often it is unmapped.
type testWindow struct {
	*mmio.Window
	unmaps int
}

func newTestWindow(phys uint64, size int) *testWindow {
	tw := &testWindow{}
	tw.Window = mmio.NewWindow(phys, make([]byte, size), func() error {
		tw.unmaps++
		return nil
	})
	return tw
}

var testResource = platform.Resource{
	Name:       "a0020000.axi_fifo",
	Compatible: platform.DefaultCompatible,
	Start:      0xA0020000,
	Size:       0x10000,
	DevPath:    "/devices/platform/amba_pl@0/a0020000.axi_fifo",
}
