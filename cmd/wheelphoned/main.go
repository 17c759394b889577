package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/wheelphone.go/pkg/framework"
	"github.com/robotalks/wheelphone.go/pkg/l0/comm"
	"github.com/robotalks/wheelphone.go/pkg/l0/serial"
	"github.com/robotalks/wheelphone.go/pkg/l1"
	env "github.com/robotalks/wheelphone.go/pkg/l1/env/controller"
	"github.com/robotalks/wheelphone.go/pkg/robot"
	"github.com/robotalks/wheelphone.go/pkg/sim/firmware"
	"github.com/robotalks/wheelphone.go/pkg/sim/visualization/see"
	"github.com/robotalks/wheelphone.go/pkg/wheelphone"
)

const (
	closeTimeout = 3 * time.Second
	replugDelay  = time.Second
	robotRadius  = 55
)

var (
	configFile string
	simulate   bool
	simVersion = firmware.DefaultVersion
	visualize  bool

	errTransportClosed = errors.New("transport closed")
)

func init() {
	env.SetControllerType(wheelphone.ControllerType, l1.ControllerMeta{Description: "Wheelphone robot"})
	env.SetupFlags()
	wheelphone.SetupFlags()
	see.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "YAML config file, overrides flags")
	flag.BoolVar(&simulate, "sim", simulate, "Use a simulated robot instead of the serial port")
	flag.StringVar(&simVersion, "sim-firmware", simVersion, "Firmware version of the simulated robot")
	flag.BoolVar(&visualize, "see", visualize, "Print poses of the simulated robot for visualization")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := wheelphone.Default()
	if configFile != "" {
		if err := conf.LoadConfigFile(configFile); err != nil {
			glog.Exitf("load %s: %v", configFile, err)
		}
	}

	env := env.NewConfig().MustNewEnv()
	loop := fx.NewLoop()

	var r *robot.Robot
	var transport fx.Runnable
	if simulate {
		profile, err := conf.RobotProfile()
		if err != nil {
			glog.Exit(err)
		}
		fw := firmware.New(simVersion, profile)
		r = mustNewRobot(conf, fw)
		fw.Handler = r
		transport = fx.RunFunc(func(ctx context.Context) error {
			return runReplug(ctx, fw, r)
		})
		if visualize {
			loop.Add(see.NewConfig().NewAdapter().Add(see.SourceFunc(func() []see.Object {
				return []see.Object{
					see.PoseObject("robot", "wheelphone/truth", fw.Pose(), robotRadius).With(see.PropStyle, "truth"),
					see.PoseObject("robot", "wheelphone/odometry", r.Snapshot().Pose, robotRadius).With(see.PropStyle, "odometry"),
				}
			})))
		}
	} else {
		ch, err := serial.Open(conf.Serial)
		if err != nil {
			glog.Exit(err)
		}
		r = mustNewRobot(conf, ch)
		ch.Handler = r
		transport = ch
	}

	ctl := wheelphone.NewController(r, env.Registrar)
	ctl.UpdateLabels = env.UpdateLabels
	loop.Add(env, ctl)

	// the transport outlives the loop so Close can still talk to the robot.
	transportCtx, stopTransport := context.WithCancel(context.Background())
	transportDone := make(chan struct{})
	var transportErr error
	go func() {
		transportErr = transport.Run(transportCtx)
		close(transportDone)
	}()

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("loop", loop))
	runner.Go(fx.NamedRun("transport", fx.RunFunc(func(ctx context.Context) error {
		select {
		case <-transportDone:
			if transportErr == nil {
				return errTransportClosed
			}
			return transportErr
		case <-ctx.Done():
			return ctx.Err()
		}
	})))
	err := runner.Wait()
	if err == fx.ErrForcedExit {
		glog.Exit(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	if e := r.Close(ctx); e != nil && e != robot.ErrNotConnected {
		glog.Warningf("close robot: %v", e)
	}
	cancel()
	stopTransport()
	<-transportDone
	if err != nil {
		glog.Exit(err)
	}
}

func mustNewRobot(conf *wheelphone.Config, ch comm.ByteChannel) *robot.Robot {
	r, err := conf.NewRobot(ch)
	if err != nil {
		glog.Exit(err)
	}
	return r
}

// runReplug runs the simulated robot and plugs it again whenever the
// link is closed by the robot.
func runReplug(ctx context.Context, fw *firmware.Robot, r *robot.Robot) error {
	for {
		err := fw.Run(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return err
		}
		glog.Info("simulated robot unplugged")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(replugDelay):
		}
		r.Restart()
	}
}
