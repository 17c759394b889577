package msgs

import (
	"errors"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/wheelphone.go/pkg/framework"
)

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct {
}

// NewCommandOK creates a CommandOK.
func NewCommandOK() *CommandOK {
	return &CommandOK{}
}

// NewMessage implements Message.
func (m *CommandOK) NewMessage() fx.Message { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// Serializable implements SerializableMessage.
func (m *CommandOK) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandOK) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandOK) Reset() { *m = CommandOK{} }

// String implements proto.Message.
func (m *CommandOK) String() string { return proto.CompactTextString(m) }

// CommandErr is the generic message representing command error.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return NewCommandErrFromMsg(err.Error())
}

// NewCommandErrFromMsg creates a CommandErr.
func NewCommandErrFromMsg(message string) *CommandErr {
	return &CommandErr{Message: message}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() fx.Message { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// Serializable implements SerializableMessage.
func (m *CommandErr) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandErr) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandErr) Reset() { *m = CommandErr{} }

// String implements proto.Message.
func (m *CommandErr) String() string { return proto.CompactTextString(m) }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// Nav2DCapsQuery command.
type Nav2DCapsQuery struct {
}

// NewMessage implements Message.
func (m *Nav2DCapsQuery) NewMessage() fx.Message { return &Nav2DCapsQuery{} }

// TypeID implements SerializableMessage.
func (m *Nav2DCapsQuery) TypeID() uint32 { return Nav2DCapsQueryTypeID }

// Serializable implements SerializableMessage.
func (m *Nav2DCapsQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Nav2DCapsQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Nav2DCapsQuery) Reset() { *m = Nav2DCapsQuery{} }

// String implements proto.Message.
func (m *Nav2DCapsQuery) String() string { return proto.CompactTextString(m) }

// Nav2DCaps response.
type Nav2DCaps struct {
	// MaxSpeed is in mm/s.
	MaxSpeed float32 `protobuf:"fixed32,1,opt,name=max_speed,proto3" json:"max_speed,omitempty"`
	// MaxTurnSpeed is in radians/s.
	MaxTurnSpeed float32 `protobuf:"fixed32,2,opt,name=max_turn_speed,proto3" json:"max_turn_speed,omitempty"`
	// Accelation indicates soft acceleration is supported.
	Accelation bool `protobuf:"varint,3,opt,name=accelation,proto3" json:"accelation,omitempty"`
}

// NewMessage implements Message.
func (m *Nav2DCaps) NewMessage() fx.Message { return &Nav2DCaps{} }

// TypeID implements SerializableMessage.
func (m *Nav2DCaps) TypeID() uint32 { return Nav2DCapsTypeID }

// Serializable implements SerializableMessage.
func (m *Nav2DCaps) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Nav2DCaps) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Nav2DCaps) Reset() { *m = Nav2DCaps{} }

// String implements proto.Message.
func (m *Nav2DCaps) String() string { return proto.CompactTextString(m) }

// Nav2DDrive command drives straight.
type Nav2DDrive struct {
	// Speed is in mm/s.
	Speed float32 `protobuf:"fixed32,1,opt,name=speed,proto3" json:"speed,omitempty"`
	// Accelation is in mm/s^2, 0 for immediate change.
	Accelation float32 `protobuf:"fixed32,2,opt,name=accelation,proto3" json:"accelation,omitempty"`
}

// NewMessage implements Message.
func (m *Nav2DDrive) NewMessage() fx.Message { return &Nav2DDrive{} }

// TypeID implements SerializableMessage.
func (m *Nav2DDrive) TypeID() uint32 { return Nav2DDriveTypeID }

// Serializable implements SerializableMessage.
func (m *Nav2DDrive) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Nav2DDrive) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Nav2DDrive) Reset() { *m = Nav2DDrive{} }

// String implements proto.Message.
func (m *Nav2DDrive) String() string { return proto.CompactTextString(m) }

// Nav2DTurn command turns in place.
type Nav2DTurn struct {
	// Speed is in radians/s, positive is counter-clockwise.
	Speed float32 `protobuf:"fixed32,1,opt,name=speed,proto3" json:"speed,omitempty"`
}

// NewMessage implements Message.
func (m *Nav2DTurn) NewMessage() fx.Message { return &Nav2DTurn{} }

// TypeID implements SerializableMessage.
func (m *Nav2DTurn) TypeID() uint32 { return Nav2DTurnTypeID }

// Serializable implements SerializableMessage.
func (m *Nav2DTurn) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Nav2DTurn) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Nav2DTurn) Reset() { *m = Nav2DTurn{} }

// String implements proto.Message.
func (m *Nav2DTurn) String() string { return proto.CompactTextString(m) }

// TypeID Groups
const (
	GroupCommand uint32 = 0x00000000
	GroupNav2D   uint32 = 0x00020000
	GroupCustom  uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	CommandOKTypeID      uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID     uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	Nav2DCapsQueryTypeID uint32 = GroupNav2D | 0x0000
	Nav2DCapsTypeID      uint32 = Nav2DCapsQueryTypeID | TypeIDMaskReply
	Nav2DDriveTypeID     uint32 = GroupNav2D | 0x0001
	Nav2DTurnTypeID      uint32 = GroupNav2D | 0x0002
)

var (
	// ErrUnknownCommand indicates the command is unknown.
	ErrUnknownCommand = errors.New("unknown command")
)
