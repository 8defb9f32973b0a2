package platform

import (
	"path/filepath"
	"testing"
)

// =============================================================================
// Platform Scan Tests
// =============================================================================

func TestScanPlatform_TwoCells(t *testing.T) {
	fs := newFakeSysfs(t, 2, 2)
	name := fs.addPlatform("axi_fifo@a0020000", DefaultCompatible, 0, 0xA0020000, 0, 0x10000)
	fs.addPlatform("gpio@a0030000", "xlnx,xps-gpio-1.00.a", 0, 0xA0030000, 0, 0x1000)

	found, err := scanPlatform(fs.root, DefaultCompatible)
	if err != nil {
		t.Fatalf("scanPlatform() error = %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("scanPlatform() found %d resources, want 1", len(found))
	}

	res := found[0]
	if res.Name != name {
		t.Errorf("Name = %q, want %q", res.Name, name)
	}
	if res.Start != 0xA0020000 || res.Size != 0x10000 {
		t.Errorf("range = %#x+%#x, want 0xa0020000+0x10000", res.Start, res.Size)
	}
	if res.IsUIO() {
		t.Error("platform resource reported as UIO")
	}
	if want := "/devices/platform/amba_pl@0/" + name; res.DevPath != want {
		t.Errorf("DevPath = %q, want %q", res.DevPath, want)
	}
}

func TestScanPlatform_CellDefaults(t *testing.T) {
	tests := []struct {
		name      string
		addrCells uint32
		sizeCells uint32
		reg       []uint32
		wantStart uint64
		wantSize  uint64
	}{
		{"one/one", 1, 1, []uint32{0x43C00000, 0x10000}, 0x43C00000, 0x10000},
		{"defaults 2/1", 0, 0, []uint32{0x4, 0x00001000, 0x2000}, 0x400001000, 0x2000},
		{"two/one", 2, 1, []uint32{0, 0xA0020000, 0x10000}, 0xA0020000, 0x10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeSysfs(t, tt.addrCells, tt.sizeCells)
			fs.addPlatform("axi_fifo@0", DefaultCompatible, tt.reg...)

			found, err := scanPlatform(fs.root, DefaultCompatible)
			if err != nil {
				t.Fatalf("scanPlatform() error = %v", err)
			}
			if len(found) != 1 {
				t.Fatalf("found %d resources, want 1", len(found))
			}
			if found[0].Start != tt.wantStart || found[0].Size != tt.wantSize {
				t.Errorf("range = %#x+%#x, want %#x+%#x",
					found[0].Start, found[0].Size, tt.wantStart, tt.wantSize)
			}
		})
	}
}

func TestScanPlatform_SkipsBadReg(t *testing.T) {
	fs := newFakeSysfs(t, 2, 2)
	fs.addPlatform("axi_fifo@0", DefaultCompatible, 0, 0xA0020000) // truncated
	fs.addPlatform("axi_fifo@1", DefaultCompatible, 0, 0xA0040000, 0, 0) // zero size

	found, err := scanPlatform(fs.root, DefaultCompatible)
	if err != nil {
		t.Fatalf("scanPlatform() error = %v", err)
	}
	if len(found) != 0 {
		t.Errorf("found %d resources, want 0", len(found))
	}
}

func TestScanPlatform_MissingBus(t *testing.T) {
	found, err := scanPlatform(t.TempDir(), DefaultCompatible)
	if err != nil || found != nil {
		t.Errorf("scanPlatform() on empty root = (%v, %v), want (nil, nil)", found, err)
	}
}

// =============================================================================
// UIO Scan Tests
// =============================================================================

func TestScanUIO(t *testing.T) {
	fs := newFakeSysfs(t, 2, 2)
	name := fs.addPlatform("axi_fifo@a0020000", DefaultCompatible, 0, 0xA0020000, 0, 0x10000)
	fs.addUIO("uio0", name, "0xa0020000", "0x0000000000010000")

	found, err := scanUIO(fs.root, DefaultCompatible)
	if err != nil {
		t.Fatalf("scanUIO() error = %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("scanUIO() found %d resources, want 1", len(found))
	}

	res := found[0]
	if !res.IsUIO() || res.UIOName != "uio0" || res.UIOIndex != 0 {
		t.Errorf("UIO fields = (%q, %d)", res.UIOName, res.UIOIndex)
	}
	if res.Name != name {
		t.Errorf("Name = %q, want %q", res.Name, name)
	}
	if res.Start != 0xA0020000 || res.Size != 0x10000 {
		t.Errorf("range = %#x+%#x", res.Start, res.Size)
	}
}

func TestScanUIO_IncompatibleSkipped(t *testing.T) {
	fs := newFakeSysfs(t, 2, 2)
	name := fs.addPlatform("gpio@a0030000", "xlnx,xps-gpio-1.00.a", 0, 0xA0030000, 0, 0x1000)
	fs.addUIO("uio0", name, "0xa0030000", "0x1000")

	found, err := scanUIO(fs.root, DefaultCompatible)
	if err != nil {
		t.Fatalf("scanUIO() error = %v", err)
	}
	if len(found) != 0 {
		t.Errorf("found %d resources, want 0", len(found))
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestSplitStringList(t *testing.T) {
	got := splitStringList([]byte("xlnx,AXI-FIFO-1.0\x00generic-fifo\x00"))
	if len(got) != 2 || got[0] != "xlnx,AXI-FIFO-1.0" || got[1] != "generic-fifo" {
		t.Errorf("splitStringList() = %q", got)
	}
	if got := splitStringList(nil); got != nil {
		t.Errorf("splitStringList(nil) = %q, want nil", got)
	}
}

func TestDecodeCells(t *testing.T) {
	tests := []struct {
		cells []uint32
		want  uint64
	}{
		{[]uint32{0xA0020000}, 0xA0020000},
		{[]uint32{0x1, 0x2}, 0x100000002},
		{[]uint32{0, 0x10000}, 0x10000},
	}

	for _, tt := range tests {
		if got := decodeCells(beCells(tt.cells...)); got != tt.want {
			t.Errorf("decodeCells(%x) = %#x, want %#x", tt.cells, got, tt.want)
		}
	}
}

func TestReadSysfsHex(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		content string
		want    uint64
		wantErr bool
	}{
		{"0xa0020000\n", 0xA0020000, false},
		{"0X10000", 0x10000, false},
		{"ffff", 0xFFFF, false},
		{"zz", 0, true},
	}

	for i, tt := range tests {
		path := filepath.Join(dir, "attr"+string(rune('a'+i)))
		mustWrite(t, path, []byte(tt.content))
		got, err := readSysfsHex(path)
		if (err != nil) != tt.wantErr {
			t.Errorf("readSysfsHex(%q) error = %v, wantErr %v", tt.content, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("readSysfsHex(%q) = %#x, want %#x", tt.content, got, tt.want)
		}
	}
}
