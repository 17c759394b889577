package comm

// ByteChannel is the duplex byte transport to the robot.
type ByteChannel interface {
	// IsOpen indicates the channel can be used for read/write.
	IsOpen() bool
	// Available returns the number of bytes buffered for Read.
	Available() int
	// Read reads buffered bytes.
	Read(p []byte) (int, error)
	// Write writes all bytes. It doesn't wait for the peer.
	Write(p []byte) error
	// Disable tears down the link.
	Disable() error
}

// EventKind is the kind of transport event.
type EventKind int

// Transport events.
const (
	EventAttached EventKind = iota
	EventLinkReady
	EventDataAvailable
	EventDetached
)

// String implements fmt.Stringer.
func (k EventKind) String() string {
	switch k {
	case EventAttached:
		return "attached"
	case EventLinkReady:
		return "link-ready"
	case EventDataAvailable:
		return "data-available"
	case EventDetached:
		return "detached"
	}
	return "unknown"
}

// Event is a notification from the transport.
type Event struct {
	Kind EventKind
	// Version is the negotiated version string with EventLinkReady.
	Version string
}

// EventHandler is called when transport events happen.
type EventHandler interface {
	HandleEvent(Event)
}

// HandleEventFunc is func type of EventHandler.
type HandleEventFunc func(Event)

// HandleEvent implements EventHandler.
func (f HandleEventFunc) HandleEvent(ev Event) {
	f(ev)
}

// ReadFrame reads exactly one frame of size n if it's fully buffered.
// It returns nil without error if fewer than n bytes are available.
func ReadFrame(ch ByteChannel, n int) ([]byte, error) {
	if ch.Available() < n {
		return nil, nil
	}
	frame := make([]byte, n)
	got, err := ch.Read(frame)
	if err != nil {
		return nil, err
	}
	if got < n {
		return nil, &FrameError{Want: n, Got: got}
	}
	return frame, nil
}
