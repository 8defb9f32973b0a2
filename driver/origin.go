package driver

// Origin records which subsystem established a register window and is
// therefore responsible for releasing it.
type Origin uint8

// Mapping origins.
const (
	OriginNone       Origin = iota // No window bound
	OriginDiscovered               // Mapped and owned by the discovery collaborator
	OriginFallback                 // Mapped and owned by the driver
)

// String returns the origin name.
func (o Origin) String() string {
	switch o {
	case OriginDiscovered:
		return "discovered"
	case OriginFallback:
		return "fallback"
	default:
		return "none"
	}
}

// DriverOwned reports whether the driver must unmap windows of this origin.
func (o Origin) DriverOwned() bool {
	return o == OriginFallback
}

// State is the session lifecycle state.
type State uint8

// Session states.
const (
	StateUnbound State = iota
	StateBound
)

// String returns the state name.
func (s State) String() string {
	if s == StateBound {
		return "bound"
	}
	return "unbound"
}
