package platform

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// Fake Sysfs Tree
// =============================================================================

// fakeSysfs builds a minimal sysfs/devicetree layout under t.TempDir().
type fakeSysfs struct {
	t    *testing.T
	root string // sysfs root
	bus  string // device tree bus node
}

// newFakeSysfs creates a tree with an amba_pl bus node declaring the given
// cell counts. Zero cell counts leave the property absent.
func newFakeSysfs(t *testing.T, addrCells, sizeCells uint32) *fakeSysfs {
	t.Helper()
	root := filepath.Join(t.TempDir(), "sys")
	bus := filepath.Join(root, "firmware", "devicetree", "base", "amba_pl@0")
	mustMkdir(t, bus)
	mustMkdir(t, filepath.Join(root, "bus", "platform", "devices"))
	mustMkdir(t, filepath.Join(root, "class", "uio"))

	if addrCells != 0 {
		mustWrite(t, filepath.Join(bus, "#address-cells"), beCells(addrCells))
	}
	if sizeCells != 0 {
		mustWrite(t, filepath.Join(bus, "#size-cells"), beCells(sizeCells))
	}
	return &fakeSysfs{t: t, root: root, bus: bus}
}

// addPlatform adds a platform device with the given compatible list and reg
// cells, returning the device name.
func (f *fakeSysfs) addPlatform(node string, compatible string, reg ...uint32) string {
	f.t.Helper()
	ofNode := filepath.Join(f.bus, node)
	mustMkdir(f.t, ofNode)
	mustWrite(f.t, filepath.Join(ofNode, "compatible"), []byte(compatible+"\x00"))
	mustWrite(f.t, filepath.Join(ofNode, "reg"), beCells(reg...))

	// Platform devices are named "<unit-address>.<node-name>"
	name := node
	if base, unit, ok := strings.Cut(node, "@"); ok {
		name = unit + "." + base
	}

	devDir := filepath.Join(f.root, "devices", "platform", "amba_pl@0", name)
	mustMkdir(f.t, devDir)
	mustSymlink(f.t, ofNode, filepath.Join(devDir, "of_node"))
	mustSymlink(f.t, devDir, filepath.Join(f.root, "bus", "platform", "devices", name))
	return name
}

// addUIO adds a UIO device bound to the platform device name.
func (f *fakeSysfs) addUIO(uio, name string, addr, size string) {
	f.t.Helper()
	devDir := filepath.Join(f.root, "devices", "platform", "amba_pl@0", name)
	uioDir := filepath.Join(devDir, "uio", uio)
	mapDir := filepath.Join(uioDir, "maps", "map0")
	mustMkdir(f.t, mapDir)
	mustWrite(f.t, filepath.Join(mapDir, "addr"), []byte(addr+"\n"))
	mustWrite(f.t, filepath.Join(mapDir, "size"), []byte(size+"\n"))
	mustWrite(f.t, filepath.Join(uioDir, "name"), []byte("axi_fifo\n"))
	mustSymlink(f.t, devDir, filepath.Join(uioDir, "device"))
	mustSymlink(f.t, uioDir, filepath.Join(f.root, "class", "uio", uio))
}

func beCells(cells ...uint32) []byte {
	b := make([]byte, 4*len(cells))
	for i, c := range cells {
		binary.BigEndian.PutUint32(b[4*i:], c)
	}
	return b
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

func mustWrite(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func mustSymlink(t *testing.T, target, link string) {
	t.Helper()
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}
}
