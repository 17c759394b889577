package wheelphone

import (
	"flag"
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/wheelphone.go/pkg/l0/comm"
	"github.com/robotalks/wheelphone.go/pkg/l0/serial"
	"github.com/robotalks/wheelphone.go/pkg/robot"
)

// Duration is time.Duration parsed from strings like "500ms" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %v", value.Line, value.Value, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// OdometryConfig overrides the wheel calibration. Zero values keep
// profile defaults.
type OdometryConfig struct {
	LeftDiamCoeff  float64 `yaml:"left_diam_coeff"`
	RightDiamCoeff float64 `yaml:"right_diam_coeff"`
	WheelBase      float64 `yaml:"wheel_base"`
}

// FeaturesConfig sets the initial control flags.
type FeaturesConfig struct {
	SpeedControl      bool `yaml:"speed_control"`
	SoftAcceleration  bool `yaml:"soft_acceleration"`
	ObstacleAvoidance bool `yaml:"obstacle_avoidance"`
	CliffAvoidance    bool `yaml:"cliff_avoidance"`
}

// Flags converts to control flags.
func (f FeaturesConfig) Flags() comm.ControlFlags {
	return comm.ControlFlags(0).
		With(comm.FlagSpeedControl, f.SpeedControl).
		With(comm.FlagSoftAcceleration, f.SoftAcceleration).
		With(comm.FlagObstacleAvoidance, f.ObstacleAvoidance).
		With(comm.FlagCliffAvoidance, f.CliffAvoidance)
}

// Config defines the robot side configurations.
type Config struct {
	// Profile is "speed" or "encoder".
	Profile         string         `yaml:"profile"`
	Serial          serial.Config  `yaml:"serial"`
	CommTimeout     Duration       `yaml:"comm_timeout"`
	ShutdownRetries int            `yaml:"shutdown_retries"`
	Odometry        OdometryConfig `yaml:"odometry"`
	Features        FeaturesConfig `yaml:"features"`
}

var defaultConfig = Config{
	Profile:         "speed",
	Serial:          serial.DefaultConfig(),
	CommTimeout:     Duration(robot.DefaultCommTimeout),
	ShutdownRetries: robot.DefaultShutdownRetries,
	Features:        FeaturesConfig{SpeedControl: true},
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Profile, "profile", defaultConfig.Profile, "Protocol profile: speed or encoder")
	flag.StringVar(&defaultConfig.Serial.Port, "port", defaultConfig.Serial.Port, "Serial port of the robot")
	flag.IntVar(&defaultConfig.Serial.Baud, "baud", defaultConfig.Serial.Baud, "Serial baud rate")
	flag.StringVar(&defaultConfig.Serial.Version, "firmware", defaultConfig.Serial.Version, "Firmware version of the robot")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadConfigFile loads YAML file over the config.
func (c *Config) LoadConfigFile(fn string) error {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return err
	}
	return c.LoadYAML(data)
}

// LoadYAML loads YAML content over the config.
func (c *Config) LoadYAML(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("invalid config: %v", err)
	}
	return nil
}

// RobotProfile resolves the profile with odometry overrides.
func (c *Config) RobotProfile() (robot.Profile, error) {
	p, ok := robot.ProfileByName(c.Profile)
	if !ok {
		return p, fmt.Errorf("unknown profile %q", c.Profile)
	}
	if v := c.Odometry.LeftDiamCoeff; v > 0 {
		p.Odometry.LeftDiamCoeff = v
	}
	if v := c.Odometry.RightDiamCoeff; v > 0 {
		p.Odometry.RightDiamCoeff = v
	}
	if v := c.Odometry.WheelBase; v > 0 {
		p.Odometry.WheelBase = v
	}
	return p, nil
}

// NewRobot creates a Robot over channel using the config.
func (c *Config) NewRobot(channel comm.ByteChannel) (*robot.Robot, error) {
	p, err := c.RobotProfile()
	if err != nil {
		return nil, err
	}
	r := robot.New(channel, p)
	if c.CommTimeout > 0 {
		r.SetCommTimeout(time.Duration(c.CommTimeout))
	}
	if c.ShutdownRetries > 0 {
		r.ShutdownRetries = c.ShutdownRetries
	}
	r.SetFlags(c.Features.Flags())
	return r, nil
}
