// Package wheelphone exposes a Wheelphone robot as an L1 controller.
package wheelphone

import (
	"context"
	"math"

	"github.com/golang/glog"

	fx "github.com/robotalks/wheelphone.go/pkg/framework"
	"github.com/robotalks/wheelphone.go/pkg/l0/comm"
	"github.com/robotalks/wheelphone.go/pkg/l1"
	l1msgs "github.com/robotalks/wheelphone.go/pkg/l1/msgs"
	"github.com/robotalks/wheelphone.go/pkg/odometry"
	"github.com/robotalks/wheelphone.go/pkg/robot"
	"github.com/robotalks/wheelphone.go/pkg/wheelphone/msgs"
)

// ControllerType is the L1 controller type.
const ControllerType = "wheelphone"

// Controller translates L1 commands into robot operations and
// publishes status events when the robot reports.
type Controller struct {
	Robot     *robot.Robot
	Registrar l1.Registrar
	// UpdateLabels is called when the firmware version becomes known.
	UpdateLabels func(map[string]string)

	status        msgs.WheelphoneStatus
	statusChanged bool
	version       string
}

// NewController creates a Controller.
func NewController(r *robot.Robot, reg l1.Registrar) *Controller {
	return &Controller{Robot: r, Registrar: reg}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(c)
	loop.AddController(fx.PrLvControl, c)
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(c.notifyStatusChange))
}

// Run implements Runnable. Robot notifications are forwarded into the
// loop until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	post := func(s robot.Snapshot) {
		loopCtl.PostMessage(&statusMsg{snapshot: s})
		loopCtl.TriggerNext()
	}
	sub := c.Robot.Subscribe(robot.ListenerFuncs{Updated: post, Disconnected: post})
	defer sub.Close()
	post(c.Robot.Snapshot())
	<-ctx.Done()
	return ctx.Err()
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch msg := mctx.CurrentMessage().(type) {
		case *l1.CommandMsg:
			if reply := c.handleCommand(msg.Command.Msg()); reply != nil {
				mctx.MessageTaken()
				if err := msg.Command.Done(reply); err != nil {
					glog.Warningf("reply error: %v", err)
				}
			}
		case *statusMsg:
			mctx.MessageTaken()
			c.updateStatus(msg.snapshot)
		}
	}))
	return nil
}

// handleCommand returns nil if the command is not handled here.
func (c *Controller) handleCommand(cmd fx.Message) fx.Message {
	r := c.Robot
	switch m := cmd.(type) {
	case *msgs.WheelphoneStatusQuery:
		status := StatusFrom(r.Snapshot(), r.Profile())
		return &msgs.WheelphoneStatusReply{Status: status}
	case *msgs.WheelphoneDrive:
		if m.Raw {
			r.SetRawSpeed(int(m.Left), int(m.Right))
		} else {
			r.SetSpeed(int(m.Left), int(m.Right))
		}
	case *msgs.WheelphoneFeatures:
		flags := r.Flags().
			With(comm.FlagSpeedControl, m.SpeedControl).
			With(comm.FlagSoftAcceleration, m.SoftAccel).
			With(comm.FlagObstacleAvoidance, m.ObstacleAvoid).
			With(comm.FlagCliffAvoidance, m.CliffAvoid)
		r.SetFlags(flags)
	case *msgs.WheelphoneCalibrate:
		if !r.IsConnected() {
			return l1msgs.NewCommandErr(robot.ErrNotConnected)
		}
		if m.Sensors {
			r.CalibrateSensors()
		}
		if m.Odometry {
			r.CalibrateOdometry()
		}
	case *msgs.WheelphoneSetOdometry:
		if m.ResetPose {
			r.ResetOdometry()
		} else {
			r.SetOdometry(odometry.Pose{X: float64(m.X), Y: float64(m.Y), Theta: float64(m.Theta)})
		}
	case *l1msgs.Nav2DCapsQuery:
		return Nav2DCaps(r.Profile())
	case *l1msgs.Nav2DDrive:
		c.setSoftAcceleration(m.Accelation != 0)
		v := int(m.Speed)
		r.SetSpeed(v, v)
	case *l1msgs.Nav2DTurn:
		v := int(math.Round(float64(m.Speed) * halfWheelBaseMM(r.Profile())))
		r.SetSpeed(-v, v)
	default:
		return nil
	}
	return l1msgs.NewCommandOK()
}

func (c *Controller) setSoftAcceleration(on bool) {
	if on {
		c.Robot.EnableSoftAcceleration()
	} else {
		c.Robot.DisableSoftAcceleration()
	}
}

func (c *Controller) updateStatus(s robot.Snapshot) {
	c.status = *StatusFrom(s, c.Robot.Profile())
	c.statusChanged = true
	if s.Version != "" && s.Version != c.version {
		c.version = s.Version
		if fn := c.UpdateLabels; fn != nil {
			fn(map[string]string{
				"firmware": s.Version,
				"profile":  c.Robot.Profile().Name,
			})
		}
	}
}

func (c *Controller) notifyStatusChange(cc fx.ControlContext) error {
	changed := c.statusChanged
	c.statusChanged = false
	if changed && c.Registrar != nil {
		status := c.status
		return c.Registrar.SendEvent(cc.Context(), &status)
	}
	return nil
}

func halfWheelBaseMM(p robot.Profile) float64 {
	return p.Odometry.WheelBase * 1000 / 2
}

// Nav2DCaps reports the drive capabilities of the profile.
func Nav2DCaps(p robot.Profile) *l1msgs.Nav2DCaps {
	return &l1msgs.Nav2DCaps{
		MaxSpeed:     float32(p.Speed.Max),
		MaxTurnSpeed: float32(float64(p.Speed.Max) / halfWheelBaseMM(p)),
		Accelation:   true,
	}
}

// StatusFrom converts a snapshot into the status message.
func StatusFrom(s robot.Snapshot, p robot.Profile) *msgs.WheelphoneStatus {
	t := s.Telemetry
	status := &msgs.WheelphoneStatus{
		State:              s.State.String(),
		Version:            s.Version,
		Connected:          s.State == robot.Connected,
		FrontProx:          values(t.FrontProx),
		FrontAmbient:       values(t.FrontAmbient),
		GroundProx:         values(t.GroundProx),
		GroundAmbient:      values(t.GroundAmbient),
		ChargeState:        t.Status.ChargeState().String(),
		LeftSpeed:          int32(t.Left),
		RightSpeed:         int32(t.Right),
		X:                  float32(s.Pose.X),
		Y:                  float32(s.Pose.Y),
		Theta:              float32(s.Pose.Theta),
		Left:               int32(s.Command.Left),
		Right:              int32(s.Command.Right),
		Flags:              uint32(s.Command.Flags),
		Calibrating:        s.Calibrating,
		OdometryCalibrated: s.OdometryCalibrated,
	}
	if !s.UpdatedAt.IsZero() {
		status.UpdatedAt = s.UpdatedAt.UnixNano() / 1e6
		status.Battery = uint32(t.Battery)
		status.BatteryVoltage = float32(p.Battery.Voltage(t.Battery))
		status.BatteryCharge = uint32(p.Battery.Charge(t.Battery))
		status.BatteryLow = p.Battery.IsLow(t.Battery)
	}
	return status
}

func values(v [4]uint8) []uint32 {
	return []uint32{uint32(v[0]), uint32(v[1]), uint32(v[2]), uint32(v[3])}
}

type statusMsg struct {
	snapshot robot.Snapshot
}

func (m *statusMsg) NewMessage() fx.Message { return &statusMsg{} }
