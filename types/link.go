package types

// ------------------------
// Wireless link
// ------------------------

// LinkEventKind is the closed set of link event variants. Connect,
// disconnect and inbound data all arrive through the same queue so the
// bridge observes them in invocation order.
type LinkEventKind uint8

const (
	LinkConnected LinkEventKind = iota
	LinkDisconnected
	LinkData
)

func (k LinkEventKind) String() string {
	switch k {
	case LinkConnected:
		return "connected"
	case LinkDisconnected:
		return "disconnected"
	default:
		return "data"
	}
}

// LinkEvent is published on topic link/ev. Data is owned by the receiver
// (producers must hand over a private copy).
type LinkEvent struct {
	Kind LinkEventKind
	Data []byte
	TS   int64 // ms since boot
}

// Link is the outbound half of the wireless transport.
type Link interface {
	// Advertise (re)starts accepting new connections. Called exactly once
	// per observed disconnect.
	Advertise() error
	// Notify sends a value to the connected central, if any.
	Notify(p []byte) error
}
