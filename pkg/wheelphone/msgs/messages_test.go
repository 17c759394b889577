package msgs

import (
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/wheelphone.go/pkg/l1/msgs"
)

func TestRegisteredTypes(t *testing.T) {
	testCases := []struct {
		name  string
		msg   msgs.SerializableMessage
		event bool
		reply bool
	}{
		{name: "status", msg: &WheelphoneStatus{}, event: true},
		{name: "query", msg: &WheelphoneStatusQuery{}},
		{name: "reply", msg: &WheelphoneStatusReply{}, reply: true},
		{name: "drive", msg: &WheelphoneDrive{}},
		{name: "features", msg: &WheelphoneFeatures{}},
		{name: "calibrate", msg: &WheelphoneCalibrate{}},
		{name: "odometry", msg: &WheelphoneSetOdometry{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Contains(t, msgs.MessageTypes, tc.msg.TypeID())
			typed, err := msgs.TypedFrom(tc.msg)
			require.NoError(t, err)
			require.Equal(t, tc.event, typed.IsEvent())
			require.Equal(t, tc.reply, typed.IsReply())
		})
	}
}

func TestStatusReplyOverWire(t *testing.T) {
	reply := &WheelphoneStatusReply{Status: &WheelphoneStatus{
		State:      "connected",
		Version:    "3.0",
		Connected:  true,
		FrontProx:  []uint32{1, 2, 3, 200},
		Battery:    140,
		LeftSpeed:  -42,
		X:          12.5,
		Theta:      -1.5,
		Flags:      1,
		BatteryLow: true,
	}}
	typed, err := msgs.TypedFrom(reply)
	require.NoError(t, err)
	typed.Sequence = 9
	data, err := typed.Encode()
	require.NoError(t, err)

	decoded, err := msgs.DecodeTyped(data)
	require.NoError(t, err)
	require.Equal(t, uint32(9), decoded.Sequence)
	msg, err := decoded.Decode()
	require.NoError(t, err)
	require.Equal(t, reply, msg)
}

func TestSetOdometryResetOverWire(t *testing.T) {
	data, err := proto.Marshal(&WheelphoneSetOdometry{ResetPose: true})
	require.NoError(t, err)
	// field 4, varint.
	require.Equal(t, []byte{0x20, 0x01}, data)

	typed, err := msgs.TypedFrom(&WheelphoneSetOdometry{ResetPose: true})
	require.NoError(t, err)
	msg, err := typed.Decode()
	require.NoError(t, err)
	require.Equal(t, &WheelphoneSetOdometry{ResetPose: true}, msg)

	msg.(*WheelphoneSetOdometry).Reset()
	require.False(t, msg.(*WheelphoneSetOdometry).ResetPose)
}
