package platform

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// UIO Scanning
// =============================================================================

// scanUIO returns UIO devices whose of_node is compatible with compatible.
func scanUIO(sysfsRoot, compatible string) ([]Resource, error) {
	dir := filepath.Join(sysfsRoot, sysfsUIOClass)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // UIO not enabled
		}
		return nil, err
	}

	var found []Resource
	for _, entry := range sortedNames(entries) {
		if !strings.HasPrefix(entry, "uio") {
			continue
		}
		uioPath := filepath.Join(dir, entry)
		devPath := filepath.Join(uioPath, "device")

		compat, err := readCompatible(filepath.Join(devPath, "of_node"))
		if err != nil || !containsString(compat, compatible) {
			continue
		}

		res, err := parseUIOMap(uioPath, 0)
		if err != nil {
			continue // Skip devices we can't parse
		}
		res.Compatible = compatible
		res.UIOName = entry
		res.Name = deviceName(devPath)
		res.DevPath = relativeDevPath(sysfsRoot, devPath)
		found = append(found, res)
	}

	return found, nil
}

// parseUIOMap reads maps/map<index>/{addr,size} of a UIO device.
func parseUIOMap(uioPath string, index int) (Resource, error) {
	mapDir := filepath.Join(uioPath, "maps", "map"+strconv.Itoa(index))

	addr, err := readSysfsHex(filepath.Join(mapDir, "addr"))
	if err != nil {
		return Resource{}, err
	}
	size, err := readSysfsHex(filepath.Join(mapDir, "size"))
	if err != nil {
		return Resource{}, err
	}
	if size == 0 {
		return Resource{}, fmt.Errorf("%s: zero size", mapDir)
	}

	return Resource{Start: addr, Size: size, UIOIndex: index}, nil
}

// =============================================================================
// Platform Device Scanning
// =============================================================================

// scanPlatform returns platform devices whose of_node is compatible with
// compatible and carries a reg property.
func scanPlatform(sysfsRoot, compatible string) ([]Resource, error) {
	dir := filepath.Join(sysfsRoot, sysfsPlatformDevices)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var found []Resource
	for _, name := range sortedNames(entries) {
		devPath := filepath.Join(dir, name)
		ofNode := filepath.Join(devPath, "of_node")

		compat, err := readCompatible(ofNode)
		if err != nil || !containsString(compat, compatible) {
			continue
		}

		start, size, err := parseReg(ofNode)
		if err != nil {
			continue
		}

		found = append(found, Resource{
			Name:       name,
			Compatible: compatible,
			Start:      start,
			Size:       size,
			DevPath:    relativeDevPath(sysfsRoot, devPath),
		})
	}

	return found, nil
}

// parseReg decodes the first (address, size) pair of a node's reg property,
// using the cell counts declared by the parent node.
func parseReg(ofNode string) (start, size uint64, err error) {
	node, err := filepath.EvalSymlinks(ofNode)
	if err != nil {
		return 0, 0, err
	}
	parent := filepath.Dir(node)

	addrCells := readCells(filepath.Join(parent, "#address-cells"), defaultAddressCells)
	sizeCells := readCells(filepath.Join(parent, "#size-cells"), defaultSizeCells)
	if addrCells < 1 || addrCells > maxCells || sizeCells < 1 || sizeCells > maxCells {
		return 0, 0, fmt.Errorf("%s: unsupported cells %d/%d", node, addrCells, sizeCells)
	}

	reg, err := os.ReadFile(filepath.Join(node, "reg"))
	if err != nil {
		return 0, 0, err
	}
	need := 4 * (addrCells + sizeCells)
	if len(reg) < need {
		return 0, 0, fmt.Errorf("%s: reg too short (%d < %d)", node, len(reg), need)
	}

	start = decodeCells(reg[:4*addrCells])
	size = decodeCells(reg[4*addrCells : need])
	if size == 0 {
		return 0, 0, fmt.Errorf("%s: zero size", node)
	}
	return start, size, nil
}

// =============================================================================
// Device Tree Helpers
// =============================================================================

// readCompatible reads the NUL-separated compatible list of a device node.
func readCompatible(ofNode string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(ofNode, "compatible"))
	if err != nil {
		return nil, err
	}
	return splitStringList(data), nil
}

// splitStringList splits a device tree string-list property.
func splitStringList(data []byte) []string {
	var list []string
	for _, s := range strings.Split(string(data), "\x00") {
		if s != "" {
			list = append(list, s)
		}
	}
	return list
}

// readCells reads a single big-endian cell property, returning def when the
// property is absent or malformed.
func readCells(path string, def int) int {
	data, err := os.ReadFile(path)
	if err != nil || len(data) != 4 {
		return def
	}
	return int(binary.BigEndian.Uint32(data))
}

// decodeCells decodes one or two big-endian cells into a 64-bit value.
func decodeCells(b []byte) uint64 {
	var v uint64
	for i := 0; i+4 <= len(b); i += 4 {
		v = v<<32 | uint64(binary.BigEndian.Uint32(b[i:]))
	}
	return v
}

// =============================================================================
// Sysfs Read Helpers
// =============================================================================

// readSysfsString reads a string from a sysfs attribute file.
func readSysfsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// readSysfsHex reads a hexadecimal value from a sysfs attribute file.
func readSysfsHex(path string) (uint64, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	// Remove any "0x" prefix
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, 64)
}

// =============================================================================
// Path Helpers
// =============================================================================

// deviceName returns the name of the device a sysfs link points at.
func deviceName(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return filepath.Base(path)
}

// relativeDevPath converts a sysfs path to a kernel devpath relative to root.
func relativeDevPath(sysfsRoot, path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	root, err := filepath.EvalSymlinks(sysfsRoot)
	if err != nil {
		root = sysfsRoot
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || strings.HasPrefix(rel, "..") {
		return resolved
	}
	return "/" + filepath.ToSlash(rel)
}

func sortedNames(entries []os.DirEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
