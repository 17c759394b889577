package comm

// ControlFlags is the flag byte sent to the robot.
type ControlFlags byte

// Control bits.
const (
	FlagSpeedControl ControlFlags = 1 << iota
	FlagSoftAcceleration
	FlagObstacleAvoidance
	FlagCliffAvoidance
	// FlagCalibrateSensors and FlagCalibrateOdometry are one-shot requests,
	// they are cleared once sent.
	FlagCalibrateSensors
	FlagCalibrateOdometry

	OneShotFlags = FlagCalibrateSensors | FlagCalibrateOdometry
	// DefaultControlFlags has the speed controller enabled.
	DefaultControlFlags = FlagSpeedControl
)

// Has checks if all bits in mask are set.
func (f ControlFlags) Has(mask ControlFlags) bool {
	return f&mask == mask
}

// With sets or clears bits in mask.
func (f ControlFlags) With(mask ControlFlags, on bool) ControlFlags {
	if on {
		return f | mask
	}
	return f &^ mask
}

// Raw speed range in device units.
const (
	RawSpeedMin = -127
	RawSpeedMax = 127
)

// ClampRaw clamps a raw speed into device range.
func ClampRaw(v int) int8 {
	if v < RawSpeedMin {
		return RawSpeedMin
	}
	if v > RawSpeedMax {
		return RawSpeedMax
	}
	return int8(v)
}

// SpeedScale converts speed in mm/s into device units.
type SpeedScale struct {
	// Max is the symmetric limit in mm/s.
	Max int
	// MMPerSecToRaw is the divisor from mm/s to device units.
	MMPerSecToRaw float64
}

// Clamp limits v into [-Max, Max].
func (s SpeedScale) Clamp(v int) int {
	if v < -s.Max {
		return -s.Max
	}
	if v > s.Max {
		return s.Max
	}
	return v
}

// ToRaw clamps v and converts it to device units, truncating toward zero.
func (s SpeedScale) ToRaw(v int) int8 {
	return ClampRaw(int(float64(s.Clamp(v)) / s.MMPerSecToRaw))
}

// Command is the content of an outbound state update frame.
type Command struct {
	Left  int8
	Right int8
	Flags ControlFlags
}

// Bytes encodes the command into a frame.
func (c Command) Bytes() []byte {
	b := make([]byte, SendFrameLen)
	b[0] = byte(KindStateUpdate)
	b[1], b[2], b[3] = byte(c.Left), byte(c.Right), byte(c.Flags)
	return b
}

// DecodeCommand decodes a command frame, used by the robot side.
// ok is false if the frame is not a state update.
func DecodeCommand(frame []byte) (c Command, ok bool, err error) {
	if len(frame) < 4 {
		err = ErrShortFrame
		return
	}
	if Kind(frame[0]) != KindStateUpdate {
		return
	}
	c.Left, c.Right, c.Flags = int8(frame[1]), int8(frame[2]), ControlFlags(frame[3])
	return c, true, nil
}

// CommandEncoder keeps the current command and produces outbound frames.
type CommandEncoder struct {
	Command
}

// NewCommandEncoder creates an encoder with default flags.
func NewCommandEncoder() *CommandEncoder {
	return &CommandEncoder{Command: Command{Flags: DefaultControlFlags}}
}

// Encode produces the next frame and clears one-shot flags, so each
// request reaches the robot at most once.
func (e *CommandEncoder) Encode() []byte {
	b := e.Command.Bytes()
	e.Flags &^= OneShotFlags
	return b
}
