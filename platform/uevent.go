package platform

import (
	"bytes"
	"strconv"
	"strings"
)

// =============================================================================
// UEvent Types
// =============================================================================

// Action is a kernel uevent action.
type Action uint8

// UEvent actions.
const (
	ActionUnknown Action = iota
	ActionAdd
	ActionRemove
	ActionChange
	ActionBind
	ActionUnbind
)

// String returns the kernel name of the action.
func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionChange:
		return "change"
	case ActionBind:
		return "bind"
	case ActionUnbind:
		return "unbind"
	default:
		return "unknown"
	}
}

// IsDeparture reports whether the action takes a device away from its
// driver.
func (a Action) IsDeparture() bool {
	return a == ActionRemove || a == ActionUnbind
}

// Event is a parsed kernel uevent.
type Event struct {
	Action     Action
	DevPath    string   // DEVPATH value
	Subsystem  string   // SUBSYSTEM value
	Driver     string   // DRIVER value
	OFName     string   // OF_NAME value
	Compatible []string // OF_COMPATIBLE_<n> values, in index order
}

// HasCompatible reports whether the event carries compatible.
func (e Event) HasCompatible(compatible string) bool {
	return containsString(e.Compatible, compatible)
}

// =============================================================================
// UEvent Parsing
// =============================================================================

// ParseUEvent parses a netlink uevent message.
func ParseUEvent(data []byte) Event {
	evt := Event{}
	compat := map[int]string{}

	for _, line := range bytes.Split(data, []byte{0}) {
		if len(line) == 0 {
			continue
		}

		s := string(line)

		idx := strings.IndexByte(s, '=')
		if idx < 0 {
			// Header line: action@devpath
			if at := strings.IndexByte(s, '@'); at > 0 {
				if a := parseAction(s[:at]); a != ActionUnknown {
					evt.Action = a
					evt.DevPath = s[at+1:]
				}
			}
			continue
		}

		key := s[:idx]
		value := s[idx+1:]

		switch {
		case key == "ACTION":
			if a := parseAction(value); a != ActionUnknown {
				evt.Action = a
			}
		case key == "DEVPATH":
			evt.DevPath = value
		case key == "SUBSYSTEM":
			evt.Subsystem = value
		case key == "DRIVER":
			evt.Driver = value
		case key == "OF_NAME":
			evt.OFName = value
		case strings.HasPrefix(key, "OF_COMPATIBLE_") && key != "OF_COMPATIBLE_N":
			if n, err := strconv.Atoi(key[len("OF_COMPATIBLE_"):]); err == nil {
				compat[n] = value
			}
		}
	}

	for i := 0; i < len(compat); i++ {
		v, ok := compat[i]
		if !ok {
			break
		}
		evt.Compatible = append(evt.Compatible, v)
	}

	return evt
}

// parseAction converts a uevent action name.
func parseAction(s string) Action {
	switch s {
	case "add":
		return ActionAdd
	case "remove":
		return ActionRemove
	case "change":
		return ActionChange
	case "bind":
		return ActionBind
	case "unbind":
		return ActionUnbind
	default:
		return ActionUnknown
	}
}
