package wheelphone

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/wheelphone.go/pkg/wheelphone/msgs"
)

func TestParseFeatures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want msgs.WheelphoneFeatures
		err  bool
	}{
		{name: "none", args: nil},
		{name: "speed and soft", args: []string{"speed", "SOFT"}, want: msgs.WheelphoneFeatures{SpeedControl: true, SoftAccel: true}},
		{name: "avoidance", args: []string{"obstacle", "cliff"}, want: msgs.WheelphoneFeatures{ObstacleAvoid: true, CliffAvoid: true}},
		{name: "unknown", args: []string{"turbo"}, err: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := ParseFeatures(tc.args)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, *msg)
		})
	}
}

func TestParseOdometry(t *testing.T) {
	msg, err := ParseOdometry([]string{"reset"})
	require.NoError(t, err)
	require.True(t, msg.ResetPose)

	msg, err = ParseOdometry([]string{"10", "-20", "90"})
	require.NoError(t, err)
	require.False(t, msg.ResetPose)
	require.Equal(t, float32(10), msg.X)
	require.Equal(t, float32(-20), msg.Y)
	require.InDelta(t, math.Pi/2, msg.Theta, 1e-6)

	_, err = ParseOdometry([]string{"1", "2"})
	require.Error(t, err)
	_, err = ParseOdometry([]string{"1", "x", "2"})
	require.Error(t, err)
}

func TestParseSpeeds(t *testing.T) {
	var msg msgs.WheelphoneDrive
	require.NoError(t, parseSpeeds([]string{"100"}, &msg))
	require.Equal(t, int32(100), msg.Left)
	require.Equal(t, int32(100), msg.Right)
	require.NoError(t, parseSpeeds([]string{"-50", "50"}, &msg))
	require.Equal(t, int32(-50), msg.Left)
	require.Equal(t, int32(50), msg.Right)
	require.Error(t, parseSpeeds(nil, &msg))
}

func TestFormatStatus(t *testing.T) {
	now := time.Unix(1000, 0)
	out := FormatStatus(&msgs.WheelphoneStatus{State: "Disconnected"}, now)
	require.Contains(t, out, "state:     Disconnected\n")
	require.Contains(t, out, "updated:   never\n")
	require.NotContains(t, out, "battery")

	out = FormatStatus(&msgs.WheelphoneStatus{
		State:          "Connected",
		Version:        "4.0",
		UpdatedAt:      now.Add(-3*time.Second).UnixNano() / 1e6,
		Battery:        152,
		BatteryVoltage: 4.2,
		BatteryCharge:  100,
		ChargeState:    "Charged",
		X:              1234.5,
		Theta:          math.Pi,
	}, now)
	require.Contains(t, out, "state:     Connected (firmware 4.0)\n")
	require.Contains(t, out, "updated:   3 seconds ago\n")
	require.Contains(t, out, "battery:   100% 4.2V raw 152 Charged\n")
	require.Contains(t, out, "x 1,234.5mm")
	require.Contains(t, out, "theta 180°")
}
