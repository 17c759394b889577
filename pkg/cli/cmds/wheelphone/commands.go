// Package wheelphone provides shell commands for the wheelphone controller.
package wheelphone

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	humanize "github.com/dustin/go-humanize"

	"github.com/robotalks/wheelphone.go/pkg/cli/sh"
	"github.com/robotalks/wheelphone.go/pkg/wheelphone/msgs"
)

var (
	// StatusCmd exposes WheelphoneStatusQuery command.
	StatusCmd = ishell.Cmd{
		Name:    "wp.status",
		Aliases: []string{"wps"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			res, err := sh.Result(c, &msgs.WheelphoneStatusQuery{})
			if err != nil {
				c.Err(err)
				return
			}
			reply, ok := res.(*msgs.WheelphoneStatusReply)
			if !ok || reply.Status == nil || sh.ShellFrom(c).OutputJSON {
				if err = sh.PrintMessage(c, res); err != nil {
					c.Err(err)
				}
				return
			}
			c.Print(FormatStatus(reply.Status, time.Now()))
		}),
	}

	// DriveCmd exposes WheelphoneDrive command.
	DriveCmd = ishell.Cmd{
		Name:    "wp.drive",
		Aliases: []string{"wpd"},
		Help:    "LEFT(mm/s) [RIGHT(mm/s)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var msg msgs.WheelphoneDrive
			if err := parseSpeeds(c.Args, &msg); err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, &msg)
		}),
	}

	// RawDriveCmd exposes WheelphoneDrive command with raw values.
	RawDriveCmd = ishell.Cmd{
		Name:    "wp.raw",
		Aliases: []string{"wpr"},
		Help:    "LEFT(-127..127) [RIGHT(-127..127)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg := msgs.WheelphoneDrive{Raw: true}
			if err := parseSpeeds(c.Args, &msg); err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, &msg)
		}),
	}

	// StopCmd stops both wheels.
	StopCmd = ishell.Cmd{
		Name:    "wp.stop",
		Aliases: []string{"wpx"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.WheelphoneDrive{})
		}),
	}

	// FeaturesCmd exposes WheelphoneFeatures command.
	FeaturesCmd = ishell.Cmd{
		Name:    "wp.features",
		Aliases: []string{"wpf"},
		Help:    "[speed] [soft] [obstacle] [cliff]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseFeatures(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// CalibrateCmd exposes WheelphoneCalibrate command.
	CalibrateCmd = ishell.Cmd{
		Name:    "wp.calibrate",
		Aliases: []string{"wpc"},
		Help:    "[sensors] [odometry]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var msg msgs.WheelphoneCalibrate
			if len(c.Args) == 0 {
				msg.Sensors, msg.Odometry = true, true
			}
			for _, arg := range c.Args {
				switch arg {
				case "sensors":
					msg.Sensors = true
				case "odometry", "odom":
					msg.Odometry = true
				default:
					c.Err(fmt.Errorf("unknown calibration %q", arg))
					return
				}
			}
			sh.DoCommand(c, &msg)
		}),
	}

	// OdometryCmd exposes WheelphoneSetOdometry command.
	OdometryCmd = ishell.Cmd{
		Name:    "wp.odom",
		Aliases: []string{"wpo"},
		Help:    "reset | X(mm) Y(mm) THETA(degrees)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseOdometry(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}
)

func parseSpeeds(args []string, msg *msgs.WheelphoneDrive) error {
	if len(args) < 1 {
		return fmt.Errorf("LEFT required")
	}
	left, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("Invalid LEFT: %v", err)
	}
	right := left
	if len(args) > 1 {
		if right, err = strconv.ParseInt(args[1], 10, 32); err != nil {
			return fmt.Errorf("Invalid RIGHT: %v", err)
		}
	}
	msg.Left, msg.Right = int32(left), int32(right)
	return nil
}

// ParseFeatures builds WheelphoneFeatures from feature names.
// Features not named are disabled.
func ParseFeatures(args []string) (*msgs.WheelphoneFeatures, error) {
	msg := &msgs.WheelphoneFeatures{}
	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "speed":
			msg.SpeedControl = true
		case "soft":
			msg.SoftAccel = true
		case "obstacle":
			msg.ObstacleAvoid = true
		case "cliff":
			msg.CliffAvoid = true
		case "none":
		default:
			return nil, fmt.Errorf("unknown feature %q", arg)
		}
	}
	return msg, nil
}

// ParseOdometry builds WheelphoneSetOdometry from arguments.
func ParseOdometry(args []string) (*msgs.WheelphoneSetOdometry, error) {
	if len(args) == 1 && args[0] == "reset" {
		return &msgs.WheelphoneSetOdometry{ResetPose: true}, nil
	}
	if len(args) != 3 {
		return nil, fmt.Errorf("expect reset or X Y THETA")
	}
	var vals [3]float64
	for n, arg := range args {
		val, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return nil, fmt.Errorf("Invalid value %q: %v", arg, err)
		}
		vals[n] = val
	}
	return &msgs.WheelphoneSetOdometry{
		X:     float32(vals[0]),
		Y:     float32(vals[1]),
		Theta: float32(vals[2] * math.Pi / 180),
	}, nil
}

// FormatStatus renders the status for display.
func FormatStatus(s *msgs.WheelphoneStatus, now time.Time) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "state:     %s", s.State)
	if s.Version != "" {
		fmt.Fprintf(&w, " (firmware %s)", s.Version)
	}
	w.WriteString("\n")
	if s.UpdatedAt == 0 {
		w.WriteString("updated:   never\n")
	} else {
		at := time.Unix(0, s.UpdatedAt*int64(time.Millisecond))
		fmt.Fprintf(&w, "updated:   %s\n", humanize.RelTime(at, now, "ago", "from now"))
		fmt.Fprintf(&w, "battery:   %d%% %sV raw %d %s",
			s.BatteryCharge, humanize.Ftoa(round2(s.BatteryVoltage)), s.Battery, s.ChargeState)
		if s.BatteryLow {
			w.WriteString(" LOW")
		}
		w.WriteString("\n")
	}
	fmt.Fprintf(&w, "speed:     %d %d\n", s.LeftSpeed, s.RightSpeed)
	fmt.Fprintf(&w, "command:   %d %d flags 0x%02x\n", s.Left, s.Right, s.Flags)
	fmt.Fprintf(&w, "pose:      x %smm y %smm theta %s°\n",
		humanize.CommafWithDigits(float64(s.X), 1),
		humanize.CommafWithDigits(float64(s.Y), 1),
		humanize.Ftoa(math.Round(float64(s.Theta)*1800/math.Pi)/10))
	fmt.Fprintf(&w, "front:     prox %v ambient %v\n", s.FrontProx, s.FrontAmbient)
	fmt.Fprintf(&w, "ground:    prox %v ambient %v\n", s.GroundProx, s.GroundAmbient)
	fmt.Fprintf(&w, "calibrate: sensors %v odometry %v\n", s.Calibrating, s.OdometryCalibrated)
	return w.String()
}

func round2(v float32) float64 {
	return math.Round(float64(v)*100) / 100
}

func init() {
	sh.AddCmds(
		&StatusCmd,
		&DriveCmd,
		&RawDriveCmd,
		&StopCmd,
		&FeaturesCmd,
		&CalibrateCmd,
		&OdometryCmd,
	)
}
