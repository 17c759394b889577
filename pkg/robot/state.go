package robot

// ConnectionState is the state of the link with the robot.
type ConnectionState int

// Connection states.
const (
	Idle ConnectionState = iota
	Attached
	Handshaking
	Connected
	Disconnected
)

// String implements fmt.Stringer.
func (s ConnectionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attached:
		return "attached"
	case Handshaking:
		return "handshaking"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}

// Exchanging indicates frames are being exchanged in this state.
func (s ConnectionState) Exchanging() bool {
	return s == Handshaking || s == Connected
}
