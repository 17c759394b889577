package comm

// Frame lengths. Only the leading bytes are meaningful, the rest is padding.
const (
	RecvFrameLen = 63
	SendFrameLen = 63
)

// Kind is the discriminator in the first byte of a frame.
type Kind byte

// Frame kinds.
const (
	KindStateUpdate   Kind = 0x04
	KindAppConnect    Kind = 0xfe
	KindAppDisconnect Kind = 0xff
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindStateUpdate:
		return "state-update"
	case KindAppConnect:
		return "app-connect"
	case KindAppDisconnect:
		return "app-disconnect"
	}
	return "unknown"
}

// HandshakeFrame builds the 2-byte control frame for app connect/disconnect.
func HandshakeFrame(kind Kind) []byte {
	return []byte{byte(kind), 0}
}
