// Package serial opens a serial port as a comm.StreamChannel.
package serial

import (
	"errors"
	"time"

	"github.com/golang/glog"
	"github.com/tarm/serial"

	"github.com/robotalks/wheelphone.go/pkg/l0/comm"
)

// Defaults.
const (
	DefaultBaud        = 115200
	DefaultReadTimeout = 100 * time.Millisecond
	DefaultVersion     = "3.0"
)

// ErrNoPort indicates the port name is not specified.
var ErrNoPort = errors.New("serial port not specified")

// Config defines the serial link.
type Config struct {
	Port        string        `yaml:"port"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"-"`
	// Version is the firmware version reported on link ready, the
	// serial link has no way to query it.
	Version string `yaml:"version"`
}

// DefaultConfig returns Config with defaults.
func DefaultConfig() Config {
	return Config{
		Baud:        DefaultBaud,
		ReadTimeout: DefaultReadTimeout,
		Version:     DefaultVersion,
	}
}

// Validate checks and fills defaults.
func (c *Config) Validate() error {
	if c.Port == "" {
		return ErrNoPort
	}
	if c.Baud <= 0 {
		c.Baud = DefaultBaud
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	return nil
}

// Open opens the port. The returned channel reports events after
// its Run is started.
func Open(conf Config) (*comm.StreamChannel, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        conf.Port,
		Baud:        conf.Baud,
		ReadTimeout: conf.ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	glog.Infof("serial port %s opened at %d baud", conf.Port, conf.Baud)
	return comm.NewStreamChannel(port, conf.Version), nil
}
