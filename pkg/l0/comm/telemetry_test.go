package comm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func stateUpdateFrame(payload ...byte) []byte {
	frame := make([]byte, RecvFrameLen)
	frame[0] = byte(KindStateUpdate)
	copy(frame[1:], payload)
	return frame
}

func TestDecodeTelemetry(t *testing.T) {
	frame := stateUpdateFrame(
		0x01, 0x80, 0xfe, 0xff, // front prox
		10, 20, 30, 40, // front ambient
		200, 201, 202, 203, // ground prox
		0, 127, 128, 255, // ground ambient
		152,        // battery
		0xe0,       // status
		0x34, 0x12, // left
		0xfe, 0xff, // right
	)
	tm, ok, err := DecodeTelemetry(frame)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, [4]uint8{1, 128, 254, 255}, tm.FrontProx)
	require.Equal(t, [4]uint8{10, 20, 30, 40}, tm.FrontAmbient)
	require.Equal(t, [4]uint8{200, 201, 202, 203}, tm.GroundProx)
	require.Equal(t, [4]uint8{0, 127, 128, 255}, tm.GroundAmbient)
	require.Equal(t, uint8(152), tm.Battery)
	require.Equal(t, StatusFlags(0xe0), tm.Status)
	require.Equal(t, int16(0x1234), tm.Left)
	require.Equal(t, int16(-2), tm.Right)
}

func TestDecodeTelemetryAllBytes(t *testing.T) {
	for v := 0; v < 256; v++ {
		payload := make([]byte, 22)
		for i := range payload {
			payload[i] = byte(v)
		}
		tm, ok, err := DecodeTelemetry(stateUpdateFrame(payload...))
		require.NoError(t, err)
		require.True(t, ok)
		for i := 0; i < 4; i++ {
			require.Equal(t, uint8(v), tm.FrontProx[i])
			require.Equal(t, uint8(v), tm.FrontAmbient[i])
			require.Equal(t, uint8(v), tm.GroundProx[i])
			require.Equal(t, uint8(v), tm.GroundAmbient[i])
		}
		require.Equal(t, uint8(v), tm.Battery)
		expect := int16(uint16(v) | uint16(v)<<8)
		require.Equal(t, expect, tm.Left)
		require.Equal(t, expect, tm.Right)
	}
}

func TestDecodeTelemetryUnknownKind(t *testing.T) {
	frame := stateUpdateFrame(1, 2, 3)
	frame[0] = 0x05
	tm, ok, err := DecodeTelemetry(frame)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, Telemetry{}, tm)
}

func TestDecodeTelemetryShortFrame(t *testing.T) {
	_, ok, err := DecodeTelemetry(stateUpdateFrame()[:22])
	require.Equal(t, ErrShortFrame, err)
	require.False(t, ok)
}

func TestTelemetryBytes(t *testing.T) {
	tm := Telemetry{
		FrontProx:  [4]uint8{1, 2, 3, 4},
		GroundProx: [4]uint8{250, 251, 252, 253},
		Battery:    99,
		Status:     StatusCharging | StatusOdomCalibrated,
		Left:       -300,
		Right:      300,
	}
	decoded, ok, err := DecodeTelemetry(tm.Bytes())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, tm, decoded)
}

func TestChargeState(t *testing.T) {
	testCases := []struct {
		status StatusFlags
		expect ChargeState
	}{
		{0, NotCharging},
		{StatusCharged, NotCharging},
		{StatusCharging, Charging},
		{StatusCharging | StatusCharged, Charged},
		{StatusCharging | StatusOdomCalibrated, Charging},
	}
	for _, tc := range testCases {
		t.Run(tc.expect.String(), func(t *testing.T) {
			require.Equal(t, tc.expect, tc.status.ChargeState())
		})
	}
	require.True(t, StatusOdomCalibrated.OdomCalibrated())
	require.False(t, StatusCharging.OdomCalibrated())
}
