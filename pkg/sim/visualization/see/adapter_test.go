package see

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/wheelphone.go/pkg/odometry"
)

func TestPoseObject(t *testing.T) {
	obj := PoseObject("robot", "sim/truth", odometry.Pose{X: 10, Y: -5, Theta: math.Pi / 2}, 55)
	require.Equal(t, "sim.truth", obj.ID())
	require.Equal(t, "robot", obj[PropType])
	require.Equal(t, &Pos{X: 10, Y: -5}, obj[PropOrigin])
	require.Equal(t, 55.0, obj[PropRadius])
	require.InDelta(t, 90, obj[PropRotate], 1e-9)
}

func TestAdapterChanges(t *testing.T) {
	var objs []Object
	a := NewAdapter(NewConfig())
	a.Add(SourceFunc(func() []Object { return objs }))

	objs = []Object{PoseObject("robot", "a", odometry.Pose{}, 1)}
	msgs, err := a.Changes()
	require.NoError(t, err)
	require.Len(t, msgs, 6)
	require.Equal(t, ActionReset, msgs[0].Action)
	require.Equal(t, "a", msgs[5].Object.ID())

	msgs, err = a.Changes()
	require.NoError(t, err)
	require.Empty(t, msgs)

	objs = []Object{
		PoseObject("robot", "a", odometry.Pose{X: 1}, 1),
		PoseObject("robot", "b", odometry.Pose{}, 1),
	}
	msgs, err = a.Changes()
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	objs = objs[1:]
	msgs, err = a.Changes()
	require.NoError(t, err)
	require.Equal(t, []Message{{Action: ActionRemove, RemoveID: "a"}}, msgs)
}

func TestAdapterReportChanges(t *testing.T) {
	var out bytes.Buffer
	a := NewAdapter(&Config{W: 100, H: 100})
	a.Output = &out
	require.NoError(t, a.ReportChanges(nil))
	var msgs []Message
	require.NoError(t, json.Unmarshal(out.Bytes(), &msgs))
	require.Len(t, msgs, 5)
	require.Equal(t, ActionReset, msgs[0].Action)

	out.Reset()
	require.NoError(t, a.ReportChanges(nil))
	require.Empty(t, out.String())
}
