package platform

import (
	"testing"
)

// =============================================================================
// uevent Parsing Tests
// =============================================================================

func TestParseUEvent_PlatformUnbind(t *testing.T) {
	data := []byte(
		"unbind@/devices/platform/amba_pl@0/a0020000.axi_fifo\x00" +
			"ACTION=unbind\x00" +
			"DEVPATH=/devices/platform/amba_pl@0/a0020000.axi_fifo\x00" +
			"SUBSYSTEM=platform\x00" +
			"OF_NAME=axi_fifo\x00" +
			"OF_FULLNAME=/amba_pl@0/axi_fifo@a0020000\x00" +
			"OF_COMPATIBLE_0=xlnx,AXI-FIFO-1.0\x00" +
			"OF_COMPATIBLE_1=generic-uio\x00" +
			"OF_COMPATIBLE_N=2\x00" +
			"MODALIAS=of:Naxi_fifoT(null)Cxlnx,AXI-FIFO-1.0\x00",
	)

	evt := ParseUEvent(data)

	if evt.Action != ActionUnbind {
		t.Errorf("Action = %v, want unbind", evt.Action)
	}
	if evt.DevPath != "/devices/platform/amba_pl@0/a0020000.axi_fifo" {
		t.Errorf("DevPath = %q, unexpected value", evt.DevPath)
	}
	if evt.Subsystem != SubsystemPlatform {
		t.Errorf("Subsystem = %q, want %q", evt.Subsystem, SubsystemPlatform)
	}
	if evt.OFName != "axi_fifo" {
		t.Errorf("OFName = %q, want axi_fifo", evt.OFName)
	}
	if len(evt.Compatible) != 2 || evt.Compatible[1] != "generic-uio" {
		t.Errorf("Compatible = %q", evt.Compatible)
	}
	if !evt.HasCompatible(DefaultCompatible) {
		t.Error("HasCompatible(DefaultCompatible) = false")
	}
	if !evt.Action.IsDeparture() {
		t.Error("unbind should be a departure")
	}
}

func TestParseUEvent_HeaderOnly(t *testing.T) {
	evt := ParseUEvent([]byte("remove@/devices/platform/amba_pl@0/a0020000.axi_fifo/uio/uio0\x00"))

	if evt.Action != ActionRemove {
		t.Errorf("Action = %v, want remove", evt.Action)
	}
	if evt.DevPath != "/devices/platform/amba_pl@0/a0020000.axi_fifo/uio/uio0" {
		t.Errorf("DevPath = %q", evt.DevPath)
	}
}

func TestParseUEvent_UdevPrefixIgnored(t *testing.T) {
	// libudev messages start with a binary header that has no '@' action
	evt := ParseUEvent([]byte("libudev\x00ACTION=add\x00SUBSYSTEM=uio\x00DRIVER=uio_pdrv_genirq\x00"))

	if evt.Action != ActionAdd {
		t.Errorf("Action = %v, want add", evt.Action)
	}
	if evt.Subsystem != SubsystemUIO || evt.Driver != "uio_pdrv_genirq" {
		t.Errorf("Subsystem/Driver = %q/%q", evt.Subsystem, evt.Driver)
	}
}

func TestParseUEvent_CompatibleGap(t *testing.T) {
	evt := ParseUEvent([]byte("OF_COMPATIBLE_0=a\x00OF_COMPATIBLE_2=c\x00"))
	if len(evt.Compatible) != 1 || evt.Compatible[0] != "a" {
		t.Errorf("Compatible = %q, want [a]", evt.Compatible)
	}
}

func TestAction_String(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionAdd, "add"},
		{ActionRemove, "remove"},
		{ActionChange, "change"},
		{ActionBind, "bind"},
		{ActionUnbind, "unbind"},
		{ActionUnknown, "unknown"},
	}

	for _, tt := range tests {
		if got := tt.action.String(); got != tt.want {
			t.Errorf("Action(%d).String() = %q, want %q", tt.action, got, tt.want)
		}
		if got := parseAction(tt.want); tt.action != ActionUnknown && got != tt.action {
			t.Errorf("parseAction(%q) = %v", tt.want, got)
		}
	}
}

// =============================================================================
// Resource Matching Tests
// =============================================================================

func TestResource_Matches(t *testing.T) {
	res := Resource{
		Name:    "a0020000.axi_fifo",
		DevPath: "/devices/platform/amba_pl@0/a0020000.axi_fifo",
		UIOName: "uio0",
	}

	tests := []struct {
		name    string
		devpath string
		want    bool
	}{
		{"exact devpath", "/devices/platform/amba_pl@0/a0020000.axi_fifo", true},
		{"uio child", "/devices/platform/amba_pl@0/a0020000.axi_fifo/uio/uio0", true},
		{"same name elsewhere", "/devices/platform/a0020000.axi_fifo", true},
		{"other device", "/devices/platform/amba_pl@0/a0030000.gpio", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := res.Matches(Event{DevPath: tt.devpath}); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.devpath, got, tt.want)
			}
		})
	}
}
