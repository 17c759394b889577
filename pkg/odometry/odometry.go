// Package odometry estimates the pose of a differential drive robot by
// dead reckoning over the wheel values reported in telemetry.
package odometry

import (
	"math"
	"time"
)

// Defaults shared by all firmware variants.
const (
	DefaultWheelBase = 0.087 // meters
	// EncoderToMMPerSec converts encoder deltas to mm/s.
	EncoderToMMPerSec = 0.709
	// SpeedNoiseThreshold is the measured speed (mm/s) below which the
	// value is taken as 0.
	SpeedNoiseThreshold = 3
)

// Params configures the Integrator.
type Params struct {
	// Scale converts a reported wheel value into mm/s.
	Scale float64
	// NoiseThreshold zeroes values whose magnitude is below it.
	NoiseThreshold float64
	// LeftDiamCoeff and RightDiamCoeff correct per-wheel diameter.
	LeftDiamCoeff  float64
	RightDiamCoeff float64
	// WheelBase is the distance between wheels in meters.
	WheelBase float64
}

// EncoderParams is for firmware reporting encoder deltas.
func EncoderParams() Params {
	return Params{
		Scale:          EncoderToMMPerSec,
		LeftDiamCoeff:  1,
		RightDiamCoeff: 1,
		WheelBase:      DefaultWheelBase,
	}
}

// SpeedParams is for firmware reporting measured speed in mm/s.
func SpeedParams() Params {
	return Params{
		Scale:          1,
		NoiseThreshold: SpeedNoiseThreshold,
		LeftDiamCoeff:  1,
		RightDiamCoeff: 1,
		WheelBase:      DefaultWheelBase,
	}
}

// Pose is the estimated pose, X/Y in mm and Theta in radians.
// Theta is not normalized.
type Pose struct {
	X     float64
	Y     float64
	Theta float64
}

// Project projects dist along the heading of the pose.
func (p Pose) Project(dist float64) (dx, dy float64) {
	return dist * math.Cos(p.Theta), dist * math.Sin(p.Theta)
}

// Integrator accumulates wheel distances and the pose.
type Integrator struct {
	Params Params

	pose      Pose
	leftDist  float64
	rightDist float64
	last      time.Time
	started   bool
}

// New creates an Integrator.
func New(params Params) *Integrator {
	return &Integrator{Params: params}
}

// Update integrates one pair of wheel values reported at time at.
// The first update only records the time.
func (i *Integrator) Update(left, right int16, at time.Time) Pose {
	var elapsedMs float64
	if i.started {
		elapsedMs = float64(at.Sub(i.last)) / float64(time.Millisecond)
	}
	i.last, i.started = at, true

	leftIncr := i.increment(left, elapsedMs, i.Params.LeftDiamCoeff)
	rightIncr := i.increment(right, elapsedMs, i.Params.RightDiamCoeff)
	i.leftDist += leftIncr
	i.rightDist += rightIncr

	deltaDist := (rightIncr + leftIncr) / 2
	dx, dy := i.pose.Project(deltaDist)
	i.pose.X += dx
	i.pose.Y += dy
	// heading comes from the absolute distance difference, assuming no slip.
	i.pose.Theta = (i.rightDist - i.leftDist) / i.Params.WheelBase / 1000
	return i.pose
}

func (i *Integrator) increment(value int16, elapsedMs, coeff float64) float64 {
	v := float64(value)
	if math.Abs(v) < i.Params.NoiseThreshold {
		return 0
	}
	return v * i.Params.Scale * elapsedMs / 1000 * coeff
}

// Pose returns the current pose.
func (i *Integrator) Pose() Pose {
	return i.pose
}

// Set overrides the pose. Accumulated distances are kept, so Theta is
// recomputed from them on the next update.
func (i *Integrator) Set(pose Pose) {
	i.pose = pose
}

// Reset moves the pose to origin and clears accumulated distances.
func (i *Integrator) Reset() {
	i.pose = Pose{}
	i.leftDist, i.rightDist = 0, 0
}

// Distances returns the accumulated wheel distances in mm.
func (i *Integrator) Distances() (left, right float64) {
	return i.leftDist, i.rightDist
}

// SetParams updates the wheel calibration.
func (i *Integrator) SetParams(leftDiamCoeff, rightDiamCoeff, wheelBase float64) {
	i.Params.LeftDiamCoeff = leftDiamCoeff
	i.Params.RightDiamCoeff = rightDiamCoeff
	i.Params.WheelBase = wheelBase
}
