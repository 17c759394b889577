package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/wheelphone.go/pkg/framework"
	"github.com/robotalks/wheelphone.go/pkg/l1/msgs"
)

// WheelphoneStatusQuery queries the robot status.
type WheelphoneStatusQuery struct {
}

// NewMessage implements Message.
func (m *WheelphoneStatusQuery) NewMessage() fx.Message { return &WheelphoneStatusQuery{} }

// TypeID implements SerializableMessage.
func (m *WheelphoneStatusQuery) TypeID() uint32 { return WheelphoneStatusQueryTypeID }

// Serializable implements SerializableMessage.
func (m *WheelphoneStatusQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *WheelphoneStatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *WheelphoneStatusQuery) Reset() { *m = WheelphoneStatusQuery{} }

// String implements proto.Message.
func (m *WheelphoneStatusQuery) String() string { return proto.CompactTextString(m) }

// WheelphoneStatusReply is the response for WheelphoneStatusQuery.
type WheelphoneStatusReply struct {
	Status *WheelphoneStatus `protobuf:"bytes,1,opt,name=status,proto3" json:"status,omitempty"`
}

// NewMessage implements Message.
func (m *WheelphoneStatusReply) NewMessage() fx.Message { return &WheelphoneStatusReply{} }

// TypeID implements SerializableMessage.
func (m *WheelphoneStatusReply) TypeID() uint32 { return WheelphoneStatusReplyTypeID }

// Serializable implements SerializableMessage.
func (m *WheelphoneStatusReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *WheelphoneStatusReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *WheelphoneStatusReply) Reset() { *m = WheelphoneStatusReply{} }

// String implements proto.Message.
func (m *WheelphoneStatusReply) String() string { return proto.CompactTextString(m) }

// WheelphoneStatus is an Event message reflecting robot status.
// It's also carried by WheelphoneStatusReply.
type WheelphoneStatus struct {
	State     string `protobuf:"bytes,1,opt,name=state,proto3" json:"state,omitempty"`
	Version   string `protobuf:"bytes,2,opt,name=version,proto3" json:"version,omitempty"`
	Connected bool   `protobuf:"varint,3,opt,name=connected,proto3" json:"connected,omitempty"`
	// UpdatedAt is the unix time in milliseconds of the last telemetry.
	UpdatedAt     int64    `protobuf:"varint,4,opt,name=updated_at,proto3" json:"updated_at,omitempty"`
	FrontProx     []uint32 `protobuf:"varint,5,rep,packed,name=front_prox,proto3" json:"front_prox,omitempty"`
	FrontAmbient  []uint32 `protobuf:"varint,6,rep,packed,name=front_ambient,proto3" json:"front_ambient,omitempty"`
	GroundProx    []uint32 `protobuf:"varint,7,rep,packed,name=ground_prox,proto3" json:"ground_prox,omitempty"`
	GroundAmbient []uint32 `protobuf:"varint,8,rep,packed,name=ground_ambient,proto3" json:"ground_ambient,omitempty"`
	Battery        uint32  `protobuf:"varint,9,opt,name=battery,proto3" json:"battery,omitempty"`
	BatteryVoltage float32 `protobuf:"fixed32,10,opt,name=battery_voltage,proto3" json:"battery_voltage,omitempty"`
	BatteryCharge  uint32  `protobuf:"varint,11,opt,name=battery_charge,proto3" json:"battery_charge,omitempty"`
	BatteryLow     bool    `protobuf:"varint,12,opt,name=battery_low,proto3" json:"battery_low,omitempty"`
	ChargeState    string  `protobuf:"bytes,13,opt,name=charge_state,proto3" json:"charge_state,omitempty"`
	// LeftSpeed and RightSpeed are reported wheel values.
	LeftSpeed  int32 `protobuf:"varint,14,opt,name=left_speed,proto3" json:"left_speed,omitempty"`
	RightSpeed int32 `protobuf:"varint,15,opt,name=right_speed,proto3" json:"right_speed,omitempty"`
	// X, Y in mm and Theta in radians.
	X     float32 `protobuf:"fixed32,16,opt,name=x,proto3" json:"x,omitempty"`
	Y     float32 `protobuf:"fixed32,17,opt,name=y,proto3" json:"y,omitempty"`
	Theta float32 `protobuf:"fixed32,18,opt,name=theta,proto3" json:"theta,omitempty"`
	// Left, Right and Flags are the last command.
	Left               int32  `protobuf:"varint,19,opt,name=left,proto3" json:"left,omitempty"`
	Right              int32  `protobuf:"varint,20,opt,name=right,proto3" json:"right,omitempty"`
	Flags              uint32 `protobuf:"varint,21,opt,name=flags,proto3" json:"flags,omitempty"`
	Calibrating        bool   `protobuf:"varint,22,opt,name=calibrating,proto3" json:"calibrating,omitempty"`
	OdometryCalibrated bool   `protobuf:"varint,23,opt,name=odometry_calibrated,proto3" json:"odometry_calibrated,omitempty"`
}

// NewMessage implements Message.
func (m *WheelphoneStatus) NewMessage() fx.Message { return &WheelphoneStatus{} }

// TypeID implements SerializableMessage.
func (m *WheelphoneStatus) TypeID() uint32 { return WheelphoneStatusEventTypeID }

// Serializable implements SerializableMessage.
func (m *WheelphoneStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *WheelphoneStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *WheelphoneStatus) Reset() { *m = WheelphoneStatus{} }

// String implements proto.Message.
func (m *WheelphoneStatus) String() string { return proto.CompactTextString(m) }

// WheelphoneDrive sets wheel speeds.
type WheelphoneDrive struct {
	// Left and Right are in mm/s, or device units if Raw is set.
	Left  int32 `protobuf:"varint,1,opt,name=left,proto3" json:"left,omitempty"`
	Right int32 `protobuf:"varint,2,opt,name=right,proto3" json:"right,omitempty"`
	Raw   bool  `protobuf:"varint,3,opt,name=raw,proto3" json:"raw,omitempty"`
}

// NewMessage implements Message.
func (m *WheelphoneDrive) NewMessage() fx.Message { return &WheelphoneDrive{} }

// TypeID implements SerializableMessage.
func (m *WheelphoneDrive) TypeID() uint32 { return WheelphoneDriveTypeID }

// Serializable implements SerializableMessage.
func (m *WheelphoneDrive) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *WheelphoneDrive) ProtoMessage() {}

// Reset implements proto.Message.
func (m *WheelphoneDrive) Reset() { *m = WheelphoneDrive{} }

// String implements proto.Message.
func (m *WheelphoneDrive) String() string { return proto.CompactTextString(m) }

// WheelphoneFeatures sets the firmware features.
type WheelphoneFeatures struct {
	SpeedControl  bool `protobuf:"varint,1,opt,name=speed_control,proto3" json:"speed_control,omitempty"`
	SoftAccel     bool `protobuf:"varint,2,opt,name=soft_accel,proto3" json:"soft_accel,omitempty"`
	ObstacleAvoid bool `protobuf:"varint,3,opt,name=obstacle_avoid,proto3" json:"obstacle_avoid,omitempty"`
	CliffAvoid    bool `protobuf:"varint,4,opt,name=cliff_avoid,proto3" json:"cliff_avoid,omitempty"`
}

// NewMessage implements Message.
func (m *WheelphoneFeatures) NewMessage() fx.Message { return &WheelphoneFeatures{} }

// TypeID implements SerializableMessage.
func (m *WheelphoneFeatures) TypeID() uint32 { return WheelphoneFeaturesTypeID }

// Serializable implements SerializableMessage.
func (m *WheelphoneFeatures) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *WheelphoneFeatures) ProtoMessage() {}

// Reset implements proto.Message.
func (m *WheelphoneFeatures) Reset() { *m = WheelphoneFeatures{} }

// String implements proto.Message.
func (m *WheelphoneFeatures) String() string { return proto.CompactTextString(m) }

// WheelphoneCalibrate requests calibrations.
type WheelphoneCalibrate struct {
	Sensors  bool `protobuf:"varint,1,opt,name=sensors,proto3" json:"sensors,omitempty"`
	Odometry bool `protobuf:"varint,2,opt,name=odometry,proto3" json:"odometry,omitempty"`
}

// NewMessage implements Message.
func (m *WheelphoneCalibrate) NewMessage() fx.Message { return &WheelphoneCalibrate{} }

// TypeID implements SerializableMessage.
func (m *WheelphoneCalibrate) TypeID() uint32 { return WheelphoneCalibrateTypeID }

// Serializable implements SerializableMessage.
func (m *WheelphoneCalibrate) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *WheelphoneCalibrate) ProtoMessage() {}

// Reset implements proto.Message.
func (m *WheelphoneCalibrate) Reset() { *m = WheelphoneCalibrate{} }

// String implements proto.Message.
func (m *WheelphoneCalibrate) String() string { return proto.CompactTextString(m) }

// WheelphoneSetOdometry overrides the pose, or resets it to origin.
type WheelphoneSetOdometry struct {
	X     float32 `protobuf:"fixed32,1,opt,name=x,proto3" json:"x,omitempty"`
	Y     float32 `protobuf:"fixed32,2,opt,name=y,proto3" json:"y,omitempty"`
	Theta float32 `protobuf:"fixed32,3,opt,name=theta,proto3" json:"theta,omitempty"`
	// ResetPose resets to origin, X, Y and Theta are ignored.
	ResetPose bool `protobuf:"varint,4,opt,name=reset,proto3" json:"reset,omitempty"`
}

// NewMessage implements Message.
func (m *WheelphoneSetOdometry) NewMessage() fx.Message { return &WheelphoneSetOdometry{} }

// TypeID implements SerializableMessage.
func (m *WheelphoneSetOdometry) TypeID() uint32 { return WheelphoneSetOdometryTypeID }

// Serializable implements SerializableMessage.
func (m *WheelphoneSetOdometry) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *WheelphoneSetOdometry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *WheelphoneSetOdometry) Reset() { *m = WheelphoneSetOdometry{} }

// String implements proto.Message.
func (m *WheelphoneSetOdometry) String() string { return proto.CompactTextString(m) }

// GroupWheelphone defines the custom group.
const GroupWheelphone = msgs.GroupCustom

// TypeIDs
const (
	WheelphoneStatusEventTypeID uint32 = GroupWheelphone | msgs.TypeIDKindEvent | 0x0000
	WheelphoneStatusQueryTypeID uint32 = GroupWheelphone | 0x0000
	WheelphoneStatusReplyTypeID uint32 = GroupWheelphone | msgs.TypeIDMaskReply | 0x0000
	WheelphoneDriveTypeID       uint32 = GroupWheelphone | 0x0001
	WheelphoneFeaturesTypeID    uint32 = GroupWheelphone | 0x0002
	WheelphoneCalibrateTypeID   uint32 = GroupWheelphone | 0x0003
	WheelphoneSetOdometryTypeID uint32 = GroupWheelphone | 0x0004
)

func init() {
	msgs.Register(
		(*WheelphoneStatus)(nil),
		(*WheelphoneStatusQuery)(nil),
		(*WheelphoneStatusReply)(nil),
		(*WheelphoneDrive)(nil),
		(*WheelphoneFeatures)(nil),
		(*WheelphoneCalibrate)(nil),
		(*WheelphoneSetOdometry)(nil),
	)
}
