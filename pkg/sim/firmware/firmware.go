// Package firmware simulates a Wheelphone robot behind a comm.ByteChannel.
// Each received command frame advances the simulation and is answered
// with exactly one state update frame.
package firmware

import (
	"bytes"
	"context"
	"math"
	"sync"
	"time"

	"github.com/felixge/pidctrl"
	"github.com/golang/glog"

	"github.com/robotalks/wheelphone.go/pkg/l0/comm"
	"github.com/robotalks/wheelphone.go/pkg/odometry"
	"github.com/robotalks/wheelphone.go/pkg/robot"
)

// Defaults.
const (
	DefaultVersion = "4.0"
	// DefaultOdomCalibrationFrames is the number of frames before the
	// calibrated bit is raised after a request.
	DefaultOdomCalibrationFrames = 20
	// DefaultStep is the simulated time of the first command.
	DefaultStep = 50 * time.Millisecond
	// MaxStep limits the simulated time between commands.
	MaxStep = 200 * time.Millisecond

	// accelerations in mm/s^2.
	hardAccel = 4000
	softAccel = 500
)

// Sensors is the fixed sensor readings of the simulated robot.
type Sensors struct {
	FrontProx     [4]uint8
	FrontAmbient  [4]uint8
	GroundProx    [4]uint8
	GroundAmbient [4]uint8
	Battery       uint8
	Charging      bool
	Charged       bool
}

// Robot is the simulated robot. It implements comm.ByteChannel.
type Robot struct {
	Version string
	Profile robot.Profile
	Handler comm.EventHandler
	Clock   func() time.Time
	// OdomCalibrationFrames is the delay to complete odometry calibration.
	OdomCalibrationFrames int

	lock       sync.Mutex
	open       bool
	done       chan struct{}
	cmdCh      chan []byte
	rx         bytes.Buffer
	appConn    bool
	sensors    Sensors
	cmd        comm.Command
	wheels     [2]wheel
	lastCmdAt  time.Time
	pose       odometry.Pose
	odomWait   int
	odomDone   bool
	sensorCals int
	frames     int
}

type wheel struct {
	pid   *pidctrl.PIDController
	speed float64
}

// New creates a simulated robot.
func New(version string, profile robot.Profile) *Robot {
	r := &Robot{
		Version:               version,
		Profile:               profile,
		Clock:                 time.Now,
		OdomCalibrationFrames: DefaultOdomCalibrationFrames,
	}
	r.sensors.Battery = uint8(profile.Battery.Max)
	for n := range r.wheels {
		r.wheels[n].pid = pidctrl.NewPIDController(20, 0, 0)
	}
	return r
}

// IsOpen implements comm.ByteChannel.
func (r *Robot) IsOpen() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.open
}

// Available implements comm.ByteChannel.
func (r *Robot) Available() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.rx.Len()
}

// Read implements comm.ByteChannel.
func (r *Robot) Read(p []byte) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if !r.open {
		return 0, comm.ErrNotOpen
	}
	return r.rx.Read(p)
}

// Write implements comm.ByteChannel.
func (r *Robot) Write(p []byte) error {
	r.lock.Lock()
	if !r.open {
		r.lock.Unlock()
		return comm.ErrNotOpen
	}
	cmdCh, done := r.cmdCh, r.done
	r.lock.Unlock()
	frame := make([]byte, len(p))
	copy(frame, p)
	select {
	case cmdCh <- frame:
		return nil
	case <-done:
		return comm.ErrNotOpen
	}
}

// Disable implements comm.ByteChannel.
func (r *Robot) Disable() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.closeLocked()
	return nil
}

func (r *Robot) closeLocked() {
	if r.open {
		r.open = false
		close(r.done)
	}
}

// SetSensors updates sensor readings.
func (r *Robot) SetSensors(s Sensors) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.sensors = s
}

// Pose returns the ground truth pose in mm and radians.
func (r *Robot) Pose() odometry.Pose {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.pose
}

// Speeds returns the current wheel speeds in mm/s.
func (r *Robot) Speeds() (left, right float64) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.wheels[0].speed, r.wheels[1].speed
}

// SensorCalibrations returns the number of sensor calibration requests.
func (r *Robot) SensorCalibrations() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.sensorCals
}

// Frames returns the number of state updates sent.
func (r *Robot) Frames() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.frames
}

// Run attaches the robot and processes commands until ctx is cancelled
// or the link is closed. It can be called again to simulate a replug.
func (r *Robot) Run(ctx context.Context) error {
	r.lock.Lock()
	r.open, r.appConn = true, false
	r.done, r.cmdCh = make(chan struct{}), make(chan []byte, 16)
	r.rx.Reset()
	r.lastCmdAt = time.Time{}
	done, cmdCh := r.done, r.cmdCh
	r.lock.Unlock()

	r.notify(comm.Event{Kind: comm.EventAttached})
	r.notify(comm.Event{Kind: comm.EventLinkReady, Version: r.Version})

	defer r.notify(comm.Event{Kind: comm.EventDetached})
	for {
		select {
		case <-ctx.Done():
			r.Disable()
			return ctx.Err()
		case <-done:
			return nil
		case frame := <-cmdCh:
			if r.process(frame) {
				r.notify(comm.Event{Kind: comm.EventDataAvailable})
			}
		}
	}
}

func (r *Robot) process(frame []byte) (replied bool) {
	if len(frame) == 0 {
		return false
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	legacy := r.Profile.IsLegacy(comm.MajorVersion(r.Version))
	switch comm.Kind(frame[0]) {
	case comm.KindAppConnect:
		r.appConn = true
		glog.V(2).Info("sim: app connected")
		return false
	case comm.KindAppDisconnect:
		r.appConn = false
		glog.V(2).Info("sim: app disconnected")
		if legacy {
			r.closeLocked()
		}
		return false
	}
	cmd, ok, err := comm.DecodeCommand(frame)
	if err != nil || !ok {
		return false
	}
	if legacy && !r.appConn {
		return false
	}
	r.applyLocked(cmd)
	t := r.telemetryLocked()
	r.rx.Write(t.Bytes())
	r.frames++
	return true
}

func (r *Robot) applyLocked(cmd comm.Command) {
	now := r.Clock()
	dt := DefaultStep
	if !r.lastCmdAt.IsZero() {
		if dt = now.Sub(r.lastCmdAt); dt > MaxStep {
			dt = MaxStep
		}
	}
	r.lastCmdAt = now
	r.cmd = cmd

	if cmd.Flags.Has(comm.FlagCalibrateSensors) {
		r.sensorCals++
	}
	if cmd.Flags.Has(comm.FlagCalibrateOdometry) {
		r.odomDone, r.odomWait = false, r.OdomCalibrationFrames
	} else if r.odomWait > 0 {
		if r.odomWait--; r.odomWait == 0 {
			r.odomDone = true
		}
	}

	accel := float64(hardAccel)
	if cmd.Flags.Has(comm.FlagSoftAcceleration) {
		accel = softAccel
	}
	targets := [2]int8{cmd.Left, cmd.Right}
	var dist [2]float64
	for n := range r.wheels {
		w := &r.wheels[n]
		target := float64(targets[n]) * r.Profile.Speed.MMPerSecToRaw
		w.pid.SetOutputLimits(-accel, accel)
		w.pid.Set(target)
		prev := w.speed
		w.speed += w.pid.UpdateDuration(w.speed, dt) * dt.Seconds()
		dist[n] = (prev + w.speed) / 2 * dt.Seconds()
	}

	wheelBase := r.Profile.Odometry.WheelBase * 1000
	center := (dist[0] + dist[1]) / 2
	r.pose.X += center * math.Cos(r.pose.Theta)
	r.pose.Y += center * math.Sin(r.pose.Theta)
	r.pose.Theta += (dist[1] - dist[0]) / wheelBase
}

func (r *Robot) telemetryLocked() comm.Telemetry {
	s := r.sensors
	t := comm.Telemetry{
		FrontProx:     s.FrontProx,
		FrontAmbient:  s.FrontAmbient,
		GroundProx:    s.GroundProx,
		GroundAmbient: s.GroundAmbient,
		Battery:       s.Battery,
	}
	if s.Charging {
		t.Status |= comm.StatusCharging
	}
	if s.Charged {
		t.Status |= comm.StatusCharged
	}
	if r.odomDone {
		t.Status |= comm.StatusOdomCalibrated
	}
	scale := r.Profile.Odometry.Scale
	if scale == 0 {
		scale = 1
	}
	t.Left = int16(math.Round(r.wheels[0].speed / scale))
	t.Right = int16(math.Round(r.wheels[1].speed / scale))
	return t
}

func (r *Robot) notify(ev comm.Event) {
	if h := r.Handler; h != nil {
		h.HandleEvent(ev)
	}
}
