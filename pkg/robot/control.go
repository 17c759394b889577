package robot

import (
	"time"

	"github.com/robotalks/wheelphone.go/pkg/l0/comm"
	"github.com/robotalks/wheelphone.go/pkg/odometry"
)

// Commands take effect on the next exchanged frame.

// SetSpeed sets both wheel speeds in mm/s.
func (r *Robot) SetSpeed(left, right int) {
	r.lock.Lock()
	r.encoder.Left = r.profile.Speed.ToRaw(left)
	r.encoder.Right = r.profile.Speed.ToRaw(right)
	r.lock.Unlock()
}

// SetLeftSpeed sets left wheel speed in mm/s.
func (r *Robot) SetLeftSpeed(speed int) {
	r.lock.Lock()
	r.encoder.Left = r.profile.Speed.ToRaw(speed)
	r.lock.Unlock()
}

// SetRightSpeed sets right wheel speed in mm/s.
func (r *Robot) SetRightSpeed(speed int) {
	r.lock.Lock()
	r.encoder.Right = r.profile.Speed.ToRaw(speed)
	r.lock.Unlock()
}

// SetRawSpeed sets both wheel speeds in firmware units.
func (r *Robot) SetRawSpeed(left, right int) {
	r.lock.Lock()
	r.encoder.Left, r.encoder.Right = comm.ClampRaw(left), comm.ClampRaw(right)
	r.lock.Unlock()
}

// SetRawLeftSpeed sets left wheel speed in firmware units.
func (r *Robot) SetRawLeftSpeed(speed int) {
	r.lock.Lock()
	r.encoder.Left = comm.ClampRaw(speed)
	r.lock.Unlock()
}

// SetRawRightSpeed sets right wheel speed in firmware units.
func (r *Robot) SetRawRightSpeed(speed int) {
	r.lock.Lock()
	r.encoder.Right = comm.ClampRaw(speed)
	r.lock.Unlock()
}

// SetFlags replaces the whole control flag byte.
func (r *Robot) SetFlags(flags comm.ControlFlags) {
	r.lock.Lock()
	r.encoder.Flags = flags
	r.lock.Unlock()
}

// Flags returns the control flags to be sent.
func (r *Robot) Flags() comm.ControlFlags {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.encoder.Flags
}

func (r *Robot) setFlag(mask comm.ControlFlags, on bool) {
	r.lock.Lock()
	r.encoder.Flags = r.encoder.Flags.With(mask, on)
	r.lock.Unlock()
}

// EnableSpeedControl turns on the firmware speed loop.
func (r *Robot) EnableSpeedControl() { r.setFlag(comm.FlagSpeedControl, true) }

// DisableSpeedControl turns off the firmware speed loop.
func (r *Robot) DisableSpeedControl() { r.setFlag(comm.FlagSpeedControl, false) }

// EnableSoftAcceleration turns on soft acceleration.
func (r *Robot) EnableSoftAcceleration() { r.setFlag(comm.FlagSoftAcceleration, true) }

// DisableSoftAcceleration turns off soft acceleration.
func (r *Robot) DisableSoftAcceleration() { r.setFlag(comm.FlagSoftAcceleration, false) }

// EnableObstacleAvoidance turns on obstacle avoidance.
func (r *Robot) EnableObstacleAvoidance() { r.setFlag(comm.FlagObstacleAvoidance, true) }

// DisableObstacleAvoidance turns off obstacle avoidance.
func (r *Robot) DisableObstacleAvoidance() { r.setFlag(comm.FlagObstacleAvoidance, false) }

// EnableCliffAvoidance turns on cliff avoidance.
func (r *Robot) EnableCliffAvoidance() { r.setFlag(comm.FlagCliffAvoidance, true) }

// DisableCliffAvoidance turns off cliff avoidance.
func (r *Robot) DisableCliffAvoidance() { r.setFlag(comm.FlagCliffAvoidance, false) }

// CalibrateSensors requests sensor calibration using the current
// proximity readings as baseline.
func (r *Robot) CalibrateSensors() {
	r.lock.Lock()
	r.encoder.Flags |= r.calib.RequestSensor(r.telemetry.FrontProx, r.telemetry.GroundProx)
	r.lock.Unlock()
}

// IsCalibrating indicates sensor calibration is in progress.
func (r *Robot) IsCalibrating() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.calib.IsCalibrating()
}

// CalibrateOdometry requests odometry calibration.
func (r *Robot) CalibrateOdometry() {
	r.lock.Lock()
	r.encoder.Flags |= r.calib.RequestOdometry()
	r.lock.Unlock()
}

// OdometryCalibrationTerminated indicates the last odometry calibration
// completed.
func (r *Robot) OdometryCalibrationTerminated() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.calib.OdometryComplete()
}

// FrontProxCalibration returns the calibration baseline of front
// proximity sensor n, 0 if n is out of range.
func (r *Robot) FrontProxCalibration(n int) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return valueAt(r.calib.Baseline().FrontProx, n)
}

// GroundProxCalibration returns the calibration baseline of ground
// proximity sensor n, 0 if n is out of range.
func (r *Robot) GroundProxCalibration(n int) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return valueAt(r.calib.Baseline().GroundProx, n)
}

// Odometry returns the estimated pose.
func (r *Robot) Odometry() odometry.Pose {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.odom.Pose()
}

// SetOdometry overrides the estimated pose.
func (r *Robot) SetOdometry(pose odometry.Pose) {
	r.lock.Lock()
	r.odom.Set(pose)
	r.lock.Unlock()
}

// ResetOdometry moves the estimated pose to origin.
func (r *Robot) ResetOdometry() {
	r.lock.Lock()
	r.odom.Reset()
	r.lock.Unlock()
}

// SetOdometryParams sets the wheel calibration used by odometry.
func (r *Robot) SetOdometryParams(leftDiamCoeff, rightDiamCoeff, wheelBase float64) {
	r.lock.Lock()
	r.odom.SetParams(leftDiamCoeff, rightDiamCoeff, wheelBase)
	r.lock.Unlock()
}

// SetCommTimeout sets how long without telemetry the link is considered
// lost. It's rounded down to ticks, at least one.
func (r *Robot) SetCommTimeout(timeout time.Duration) {
	r.lock.Lock()
	r.missLimit = missLimitFor(timeout)
	r.lock.Unlock()
}

// CommTimeoutTicks returns the number of missed ticks before disconnect.
func (r *Robot) CommTimeoutTicks() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.missLimit
}

// IsConnected indicates frames are being exchanged.
func (r *Robot) IsConnected() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.state == Connected
}

// State returns the connection state.
func (r *Robot) State() ConnectionState {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.state
}

// FirmwareVersion returns the version reported on link ready.
func (r *Robot) FirmwareVersion() string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.version
}

// Telemetry returns the latest decoded telemetry and when it's received.
func (r *Robot) Telemetry() (comm.Telemetry, time.Time) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.telemetry, r.updatedAt
}

// FrontProx returns front proximity n, 0 if n is out of range.
func (r *Robot) FrontProx(n int) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return valueAt(r.telemetry.FrontProx, n)
}

// FrontAmbient returns front ambient n, 0 if n is out of range.
func (r *Robot) FrontAmbient(n int) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return valueAt(r.telemetry.FrontAmbient, n)
}

// GroundProx returns ground proximity n, 0 if n is out of range.
func (r *Robot) GroundProx(n int) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return valueAt(r.telemetry.GroundProx, n)
}

// GroundAmbient returns ground ambient n, 0 if n is out of range.
func (r *Robot) GroundAmbient(n int) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return valueAt(r.telemetry.GroundAmbient, n)
}

func valueAt(values [4]uint8, n int) int {
	if n < 0 || n >= len(values) {
		return 0
	}
	return int(values[n])
}

// Battery returns the raw battery reading.
func (r *Robot) Battery() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return int(r.telemetry.Battery)
}

// BatteryVoltage returns the battery voltage.
func (r *Robot) BatteryVoltage() float64 {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.profile.Battery.Voltage(r.telemetry.Battery)
}

// BatteryCharge returns the battery charge in percentage.
func (r *Robot) BatteryCharge() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.profile.Battery.Charge(r.telemetry.Battery)
}

// BatteryIsLow indicates the battery needs charging.
func (r *Robot) BatteryIsLow() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.profile.Battery.IsLow(r.telemetry.Battery)
}

// ChargeState returns the charging state.
func (r *Robot) ChargeState() comm.ChargeState {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.telemetry.Status.ChargeState()
}

// IsCharging indicates the robot is on the charger.
func (r *Robot) IsCharging() bool {
	return r.ChargeState() != comm.NotCharging
}

// IsCharged indicates the robot is fully charged.
func (r *Robot) IsCharged() bool {
	return r.ChargeState() == comm.Charged
}

// Snapshot returns a consistent copy of the state.
func (r *Robot) Snapshot() Snapshot {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.snapshotLocked()
}

func (r *Robot) snapshotLocked() Snapshot {
	return Snapshot{
		State:              r.state,
		Version:            r.version,
		Telemetry:          r.telemetry,
		UpdatedAt:          r.updatedAt,
		Pose:               r.odom.Pose(),
		Command:            r.encoder.Command,
		Calibrating:        r.calib.IsCalibrating(),
		OdometryCalibrated: r.calib.OdometryComplete(),
	}
}
