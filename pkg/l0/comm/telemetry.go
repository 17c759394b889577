package comm

import "encoding/binary"

// StatusFlags is the status byte reported by the robot.
type StatusFlags byte

// Status bits.
const (
	StatusCharging       StatusFlags = 1 << 5
	StatusCharged        StatusFlags = 1 << 6
	StatusOdomCalibrated StatusFlags = 1 << 7
)

// ChargeState is derived from the charging bits of StatusFlags.
type ChargeState int

// Charge states.
const (
	NotCharging ChargeState = iota
	Charging
	Charged
)

// String implements fmt.Stringer.
func (s ChargeState) String() string {
	switch s {
	case Charging:
		return "charging"
	case Charged:
		return "charged"
	}
	return "not-charging"
}

// ChargeState decodes the charge state. The charged bit only counts
// while the charging bit is set.
func (s StatusFlags) ChargeState() ChargeState {
	if s&StatusCharging == 0 {
		return NotCharging
	}
	if s&StatusCharged != 0 {
		return Charged
	}
	return Charging
}

// OdomCalibrated indicates the firmware finished odometry calibration.
func (s StatusFlags) OdomCalibrated() bool {
	return s&StatusOdomCalibrated != 0
}

// Telemetry is the decoded content of a state update frame.
type Telemetry struct {
	// FrontProx is front proximity, higher means nearer.
	// Sensor index layout (top view): 1 2 in front of 0 3.
	FrontProx    [4]uint8
	FrontAmbient [4]uint8
	// GroundProx is ground proximity, darker surface or cliff reads lower.
	GroundProx    [4]uint8
	GroundAmbient [4]uint8
	Battery       uint8
	Status        StatusFlags
	// Left and Right are either encoder deltas or measured speed (mm/s)
	// depending on the firmware.
	Left  int16
	Right int16
}

// byte offsets in a state update frame.
const (
	offFrontProx     = 1
	offFrontAmbient  = 5
	offGroundProx    = 9
	offGroundAmbient = 13
	offBattery       = 17
	offStatus        = 18
	offLeft          = 19
	offRight         = 21
)

// DecodeTelemetry decodes a received frame.
// ok is false if the frame is not a state update, and the frame should
// be dropped without touching any state.
func DecodeTelemetry(frame []byte) (t Telemetry, ok bool, err error) {
	if len(frame) < RecvFrameLen {
		err = ErrShortFrame
		return
	}
	if Kind(frame[0]) != KindStateUpdate {
		return
	}
	copy(t.FrontProx[:], frame[offFrontProx:])
	copy(t.FrontAmbient[:], frame[offFrontAmbient:])
	copy(t.GroundProx[:], frame[offGroundProx:])
	copy(t.GroundAmbient[:], frame[offGroundAmbient:])
	t.Battery = frame[offBattery]
	t.Status = StatusFlags(frame[offStatus])
	t.Left = int16(binary.LittleEndian.Uint16(frame[offLeft:]))
	t.Right = int16(binary.LittleEndian.Uint16(frame[offRight:]))
	return t, true, nil
}

// Bytes encodes telemetry into a state update frame.
func (t *Telemetry) Bytes() []byte {
	b := make([]byte, RecvFrameLen)
	b[0] = byte(KindStateUpdate)
	copy(b[offFrontProx:], t.FrontProx[:])
	copy(b[offFrontAmbient:], t.FrontAmbient[:])
	copy(b[offGroundProx:], t.GroundProx[:])
	copy(b[offGroundAmbient:], t.GroundAmbient[:])
	b[offBattery] = t.Battery
	b[offStatus] = byte(t.Status)
	binary.LittleEndian.PutUint16(b[offLeft:], uint16(t.Left))
	binary.LittleEndian.PutUint16(b[offRight:], uint16(t.Right))
	return b
}
