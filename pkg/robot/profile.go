package robot

import (
	"github.com/robotalks/wheelphone.go/pkg/l0/comm"
	"github.com/robotalks/wheelphone.go/pkg/odometry"
)

// BatteryModel converts the raw battery reading.
type BatteryModel struct {
	// Offset and FullScale map raw to voltage:
	// 4.2 * (raw + Offset) / FullScale.
	Offset    float64
	FullScale float64
	// Max is the raw value considered fully charged.
	Max int
	// Low is the raw value below which the battery is low.
	Low int
}

// MaxVoltage is the voltage of a fully charged cell.
const MaxVoltage = 4.2

// Voltage converts raw into volts.
func (m BatteryModel) Voltage(raw uint8) float64 {
	return MaxVoltage * (float64(raw) + m.Offset) / m.FullScale
}

// Charge converts raw into percentage, capped at 100.
func (m BatteryModel) Charge(raw uint8) int {
	if m.Max <= 0 {
		return 0
	}
	charge := int(raw) * 100 / m.Max
	if charge > 100 {
		charge = 100
	}
	return charge
}

// IsLow indicates raw is below the low level.
func (m BatteryModel) IsLow(raw uint8) bool {
	return int(raw) < m.Low
}

// Profile is the set of firmware dependent protocol parameters.
type Profile struct {
	Name     string
	Speed    comm.SpeedScale
	Odometry odometry.Params
	Battery  BatteryModel
	// LegacyVersions are the major versions expecting the
	// app-connect/app-disconnect frames.
	LegacyVersions []int
}

// IsLegacy indicates major expects handshake frames.
func (p *Profile) IsLegacy(major int) bool {
	for _, v := range p.LegacyVersions {
		if v == major {
			return true
		}
	}
	return false
}

// EncoderProfile is for firmware reporting encoder deltas.
func EncoderProfile() Profile {
	return Profile{
		Name:     "encoder",
		Speed:    comm.SpeedScale{Max: 300, MMPerSecToRaw: 2.4},
		Odometry: odometry.EncoderParams(),
		Battery: BatteryModel{
			Offset:    800,
			FullScale: 900,
			Max:       100,
			Low:       15,
		},
		LegacyVersions: []int{2, 3},
	}
}

// SpeedProfile is for firmware reporting measured speed.
func SpeedProfile() Profile {
	return Profile{
		Name:     "speed",
		Speed:    comm.SpeedScale{Max: 350, MMPerSecToRaw: 2.8},
		Odometry: odometry.SpeedParams(),
		Battery: BatteryModel{
			Offset:    763,
			FullScale: 915,
			Max:       152,
			Low:       23,
		},
		LegacyVersions: []int{2, 3},
	}
}

// ProfileByName returns the named profile.
func ProfileByName(name string) (Profile, bool) {
	switch name {
	case "encoder":
		return EncoderProfile(), true
	case "speed", "":
		return SpeedProfile(), true
	}
	return Profile{}, false
}
