// Package calibration tracks the sensor and odometry calibration
// procedures requested from the robot.
package calibration

import (
	"github.com/robotalks/wheelphone.go/pkg/l0/comm"
)

// DefaultSensorCycles is the number of exchanged frames the sensor
// calibration request lasts.
const DefaultSensorCycles = 2

// Phase is the sensor calibration phase.
type Phase int

// Sensor calibration phases.
const (
	PhaseIdle Phase = iota
	PhaseSensorCalibrating
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	if p == PhaseSensorCalibrating {
		return "calibrating"
	}
	return "idle"
}

// OdometryPhase is the odometry calibration phase.
type OdometryPhase int

// Odometry calibration phases.
const (
	OdometryIdle OdometryPhase = iota
	OdometryCalibrating
)

// String implements fmt.Stringer.
func (p OdometryPhase) String() string {
	if p == OdometryCalibrating {
		return "calibrating"
	}
	return "idle"
}

// Baseline is the sensor readings captured when calibration starts.
type Baseline struct {
	FrontProx  [4]uint8
	GroundProx [4]uint8
}

// Controller is the calibration state machine. It's not safe for
// concurrent use, the owner serializes access.
type Controller struct {
	SensorCycles int

	phase     Phase
	remaining int
	baseline  Baseline

	odomPhase    OdometryPhase
	odomComplete bool
	lastStatus   bool
}

// New creates a Controller with default settings.
func New() *Controller {
	return &Controller{SensorCycles: DefaultSensorCycles}
}

// RequestSensor starts sensor calibration with the current proximity
// readings as baseline. It returns the flag to assert on the next command.
func (c *Controller) RequestSensor(front, ground [4]uint8) comm.ControlFlags {
	c.baseline = Baseline{FrontProx: front, GroundProx: ground}
	c.remaining = c.SensorCycles
	if c.remaining <= 0 {
		c.remaining = DefaultSensorCycles
	}
	c.phase = PhaseSensorCalibrating
	return comm.FlagCalibrateSensors
}

// Step advances the sensor calibration by one exchanged frame.
// It returns true when calibration finishes on this step.
func (c *Controller) Step() bool {
	if c.phase != PhaseSensorCalibrating {
		return false
	}
	c.remaining--
	if c.remaining > 0 {
		return false
	}
	c.remaining = 0
	c.phase = PhaseIdle
	return true
}

// Phase returns the sensor calibration phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// IsCalibrating indicates sensor calibration is in progress.
func (c *Controller) IsCalibrating() bool {
	return c.phase == PhaseSensorCalibrating
}

// Baseline returns the readings captured by the last RequestSensor.
func (c *Controller) Baseline() Baseline {
	return c.baseline
}

// RequestOdometry starts odometry calibration. It returns the flag to
// assert on the next command.
func (c *Controller) RequestOdometry() comm.ControlFlags {
	c.odomComplete = false
	c.odomPhase = OdometryCalibrating
	return comm.FlagCalibrateOdometry
}

// Observe consumes the status flags of each received telemetry frame.
// It returns true on the rising edge of the odometry-calibrated bit while
// odometry calibration is pending.
func (c *Controller) Observe(status comm.StatusFlags) bool {
	done := status.OdomCalibrated()
	rising := done && !c.lastStatus
	c.lastStatus = done
	if c.odomPhase != OdometryCalibrating || !rising {
		return false
	}
	c.odomComplete = true
	c.odomPhase = OdometryIdle
	return true
}

// OdometryPhase returns the odometry calibration phase.
func (c *Controller) OdometryPhase() OdometryPhase {
	return c.odomPhase
}

// OdometryComplete indicates the last odometry calibration finished.
func (c *Controller) OdometryComplete() bool {
	return c.odomComplete
}

// Reset returns to idle, used when a new session starts.
func (c *Controller) Reset() {
	c.phase, c.remaining = PhaseIdle, 0
	c.odomPhase, c.odomComplete, c.lastStatus = OdometryIdle, false, false
}
