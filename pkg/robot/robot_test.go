package robot

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/wheelphone.go/pkg/l0/comm"
	"github.com/robotalks/wheelphone.go/pkg/odometry"
)

type fakeChannel struct {
	lock     sync.Mutex
	open     bool
	in       bytes.Buffer
	writes   [][]byte
	disabled int
	// closeOnAppDisconnect closes the link when app-disconnect is written.
	closeOnAppDisconnect bool
}

func (c *fakeChannel) IsOpen() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.open
}

func (c *fakeChannel) Available() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.in.Len()
}

func (c *fakeChannel) Read(p []byte) (int, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.in.Read(p)
}

func (c *fakeChannel) Write(p []byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.open {
		return comm.ErrNotOpen
	}
	c.writes = append(c.writes, append([]byte(nil), p...))
	if c.closeOnAppDisconnect && comm.Kind(p[0]) == comm.KindAppDisconnect {
		c.open = false
	}
	return nil
}

func (c *fakeChannel) Disable() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.open = false
	c.disabled++
	return nil
}

func (c *fakeChannel) push(b []byte) {
	c.lock.Lock()
	c.in.Write(b)
	c.lock.Unlock()
}

func (c *fakeChannel) takeWrites() [][]byte {
	c.lock.Lock()
	defer c.lock.Unlock()
	writes := c.writes
	c.writes = nil
	return writes
}

type manualScheduler struct {
	started int
	stopped int
	tick    func()
}

func (s *manualScheduler) Start(tick func()) func() {
	s.started++
	s.tick = tick
	return func() { s.stopped++ }
}

type testEnv struct {
	t         *testing.T
	channel   *fakeChannel
	scheduler *manualScheduler
	robot     *Robot
	now       time.Time

	updates      []Snapshot
	disconnects  []Snapshot
	subscription *Subscription
}

func newTestEnv(t *testing.T, profile Profile) *testEnv {
	env := &testEnv{
		t:         t,
		channel:   &fakeChannel{open: true},
		scheduler: &manualScheduler{},
		now:       time.Unix(1000, 0),
	}
	env.robot = New(env.channel, profile)
	env.robot.Scheduler = env.scheduler
	env.robot.Clock = func() time.Time { return env.now }
	env.robot.ShutdownInterval = time.Millisecond
	env.subscription = env.robot.Subscribe(ListenerFuncs{
		Updated:      func(s Snapshot) { env.updates = append(env.updates, s) },
		Disconnected: func(s Snapshot) { env.disconnects = append(env.disconnects, s) },
	})
	return env
}

func (e *testEnv) connect(version string) {
	e.robot.HandleEvent(comm.Event{Kind: comm.EventAttached})
	require.Equal(e.t, Attached, e.robot.State())
	e.robot.HandleEvent(comm.Event{Kind: comm.EventLinkReady, Version: version})
	require.Equal(e.t, Connected, e.robot.State())
	require.Equal(e.t, 1, e.scheduler.started)
}

// receive delivers one telemetry frame and advances the clock by a tick.
func (e *testEnv) receive(t comm.Telemetry) {
	e.now = e.now.Add(TickInterval)
	e.channel.push(t.Bytes())
	e.robot.HandleEvent(comm.Event{Kind: comm.EventDataAvailable})
}

// exchange runs a tick and returns the decoded command it sent.
func (e *testEnv) exchange() comm.Command {
	e.scheduler.tick()
	writes := e.channel.takeWrites()
	require.Len(e.t, writes, 1)
	require.Len(e.t, writes[0], comm.SendFrameLen)
	cmd, ok, err := comm.DecodeCommand(writes[0])
	require.NoError(e.t, err)
	require.True(e.t, ok)
	return cmd
}

func TestHandshakeByVersion(t *testing.T) {
	tests := []struct {
		version   string
		handshake bool
	}{
		{"2.1", true},
		{"3.0", true},
		{"4.0", false},
		{"1.5", false},
		{"", false},
		{"x.1", false},
	}
	for _, test := range tests {
		t.Run("version "+test.version, func(t *testing.T) {
			env := newTestEnv(t, SpeedProfile())
			env.connect(test.version)
			require.Equal(t, test.version, env.robot.FirmwareVersion())
			writes := env.channel.takeWrites()
			if test.handshake {
				require.Equal(t, [][]byte{{0xfe, 0}}, writes)
			} else {
				require.Empty(t, writes)
			}
			require.True(t, env.robot.IsConnected())
		})
	}
}

func TestSynchronizedExchange(t *testing.T) {
	env := newTestEnv(t, SpeedProfile())
	env.connect("4.0")

	// the first tick sends without waiting for telemetry.
	cmd := env.exchange()
	require.Equal(t, comm.Command{Flags: comm.DefaultControlFlags}, cmd)

	// nothing received, nothing sent.
	env.scheduler.tick()
	require.Empty(t, env.channel.takeWrites())

	env.robot.SetRawSpeed(10, -10)
	env.receive(comm.Telemetry{Battery: 100})
	cmd = env.exchange()
	require.Equal(t, int8(10), cmd.Left)
	require.Equal(t, int8(-10), cmd.Right)
	require.Len(t, env.updates, 1)
	require.Equal(t, uint8(100), env.updates[0].Telemetry.Battery)
}

func TestCommTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		limit   int
	}{
		{"default", 0, 20},
		{"200ms", 200 * time.Millisecond, 4},
		{"below one tick", 10 * time.Millisecond, 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			env := newTestEnv(t, SpeedProfile())
			if test.timeout > 0 {
				env.robot.SetCommTimeout(test.timeout)
			}
			require.Equal(t, test.limit, env.robot.CommTimeoutTicks())
			env.connect("4.0")
			env.exchange()
			for n := 1; n < test.limit; n++ {
				env.scheduler.tick()
				require.Equal(t, Connected, env.robot.State())
			}
			env.scheduler.tick()
			require.Equal(t, Disconnected, env.robot.State())
			require.Equal(t, 1, env.channel.disabled)
			require.Equal(t, 1, env.scheduler.stopped)
			require.Len(t, env.disconnects, 1)

			// the session is over.
			env.scheduler.tick()
			env.robot.HandleEvent(comm.Event{Kind: comm.EventDetached})
			require.Equal(t, 1, env.channel.disabled)
			require.Len(t, env.disconnects, 1)
		})
	}
}

func TestReceiveResetsMisses(t *testing.T) {
	env := newTestEnv(t, SpeedProfile())
	env.robot.SetCommTimeout(150 * time.Millisecond)
	env.connect("4.0")
	env.exchange()
	for n := 0; n < 10; n++ {
		env.scheduler.tick()
		env.scheduler.tick()
		env.receive(comm.Telemetry{})
		env.exchange()
	}
	require.Equal(t, Connected, env.robot.State())
}

func TestPartialFrames(t *testing.T) {
	env := newTestEnv(t, SpeedProfile())
	env.connect("4.0")
	env.exchange()

	frame := (&comm.Telemetry{GroundProx: [4]uint8{1, 2, 3, 4}}).Bytes()
	env.channel.push(frame[:30])
	env.robot.HandleEvent(comm.Event{Kind: comm.EventDataAvailable})
	require.Empty(t, env.updates)
	env.scheduler.tick()
	require.Empty(t, env.channel.takeWrites())

	next := (&comm.Telemetry{Battery: 9, GroundProx: [4]uint8{1, 2, 3, 4}}).Bytes()
	env.channel.push(append(frame[30:], next...))
	env.robot.HandleEvent(comm.Event{Kind: comm.EventDataAvailable})
	require.Len(t, env.updates, 1)
	require.Equal(t, uint8(9), env.updates[0].Telemetry.Battery)
	require.Equal(t, 3, env.robot.GroundProx(2))
	require.Zero(t, env.channel.Available())
}

func TestUnknownKind(t *testing.T) {
	env := newTestEnv(t, SpeedProfile())
	env.connect("4.0")
	env.exchange()
	env.receive(comm.Telemetry{Battery: 50})

	frame := make([]byte, comm.RecvFrameLen)
	frame[0] = 7
	frame[17] = 99
	env.channel.push(frame)
	env.robot.HandleEvent(comm.Event{Kind: comm.EventDataAvailable})
	require.Len(t, env.updates, 1)
	require.Equal(t, 50, env.robot.Battery())
	// the frame still counts as received.
	env.exchange()
}

func TestSensorCalibration(t *testing.T) {
	env := newTestEnv(t, SpeedProfile())
	env.connect("4.0")
	env.exchange()
	env.receive(comm.Telemetry{FrontProx: [4]uint8{10, 20, 30, 40}, GroundProx: [4]uint8{5}})

	env.robot.CalibrateSensors()
	require.True(t, env.robot.IsCalibrating())
	require.Equal(t, 30, env.robot.FrontProxCalibration(2))
	require.Equal(t, 5, env.robot.GroundProxCalibration(0))
	require.Zero(t, env.robot.FrontProxCalibration(4))

	cmd := env.exchange()
	require.True(t, cmd.Flags.Has(comm.FlagCalibrateSensors))
	require.True(t, env.robot.IsCalibrating())

	// missed ticks don't count.
	env.scheduler.tick()
	require.True(t, env.robot.IsCalibrating())

	env.receive(comm.Telemetry{})
	cmd = env.exchange()
	require.False(t, cmd.Flags.Has(comm.FlagCalibrateSensors))
	require.True(t, cmd.Flags.Has(comm.FlagSpeedControl))
	require.False(t, env.robot.IsCalibrating())
}

func TestOdometryCalibration(t *testing.T) {
	env := newTestEnv(t, SpeedProfile())
	env.connect("4.0")
	env.exchange()
	env.receive(comm.Telemetry{Left: 100, Right: 100})
	env.receive(comm.Telemetry{Left: 100, Right: 100})
	require.NotZero(t, env.robot.Odometry().X)

	env.robot.CalibrateOdometry()
	require.False(t, env.robot.OdometryCalibrationTerminated())
	cmd := env.exchange()
	require.True(t, cmd.Flags.Has(comm.FlagCalibrateOdometry))

	env.receive(comm.Telemetry{Left: 100, Right: 100})
	cmd = env.exchange()
	require.False(t, cmd.Flags.Has(comm.FlagCalibrateOdometry))
	require.False(t, env.robot.OdometryCalibrationTerminated())

	env.receive(comm.Telemetry{Status: comm.StatusOdomCalibrated})
	require.True(t, env.robot.OdometryCalibrationTerminated())
	require.Equal(t, odometry.Pose{}, env.robot.Odometry())
	require.True(t, env.updates[len(env.updates)-1].OdometryCalibrated)
}

func TestOdometry(t *testing.T) {
	env := newTestEnv(t, SpeedProfile())
	env.connect("4.0")
	env.exchange()
	env.receive(comm.Telemetry{Left: 200, Right: 200})
	for n := 0; n < 10; n++ {
		env.receive(comm.Telemetry{Left: 200, Right: 200})
	}
	pose := env.robot.Odometry()
	// 200 mm/s for 10 ticks.
	require.InDelta(t, 100, pose.X, 1e-9)
	require.Zero(t, pose.Theta)

	env.robot.SetOdometry(odometry.Pose{X: 1, Y: 2, Theta: 3})
	require.Equal(t, odometry.Pose{X: 1, Y: 2, Theta: 3}, env.robot.Odometry())
	env.robot.ResetOdometry()
	require.Equal(t, odometry.Pose{}, env.robot.Odometry())
}

func TestSpeedSetters(t *testing.T) {
	tests := []struct {
		name        string
		profile     Profile
		left, right int
		rawL, rawR  int8
	}{
		{"encoder clamp", EncoderProfile(), 300, -1000, 125, -125},
		{"encoder", EncoderProfile(), 100, -50, 41, -20},
		{"speed clamp", SpeedProfile(), 1000, -350, 125, -125},
		{"speed", SpeedProfile(), 100, 0, 35, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			env := newTestEnv(t, test.profile)
			env.connect("4.0")
			env.robot.SetSpeed(test.left, test.right)
			cmd := env.exchange()
			require.Equal(t, test.rawL, cmd.Left)
			require.Equal(t, test.rawR, cmd.Right)

			env.robot.SetLeftSpeed(test.right)
			env.robot.SetRightSpeed(test.left)
			snapshot := env.robot.Snapshot()
			require.Equal(t, test.rawR, snapshot.Command.Left)
			require.Equal(t, test.rawL, snapshot.Command.Right)
		})
	}
}

func TestRawSpeedAndFlags(t *testing.T) {
	env := newTestEnv(t, SpeedProfile())
	env.connect("4.0")
	env.robot.SetRawSpeed(200, -200)
	env.robot.SetRawLeftSpeed(-5)
	env.robot.EnableObstacleAvoidance()
	env.robot.EnableCliffAvoidance()
	env.robot.EnableSoftAcceleration()
	env.robot.DisableSpeedControl()
	cmd := env.exchange()
	require.Equal(t, int8(-5), cmd.Left)
	require.Equal(t, int8(-127), cmd.Right)
	require.Equal(t, comm.FlagObstacleAvoidance|comm.FlagCliffAvoidance|comm.FlagSoftAcceleration, cmd.Flags)

	env.robot.SetFlags(comm.FlagSpeedControl | comm.FlagCalibrateOdometry)
	env.robot.SetRawRightSpeed(300)
	env.robot.DisableObstacleAvoidance()
	env.receive(comm.Telemetry{})
	cmd = env.exchange()
	require.Equal(t, int8(127), cmd.Right)
	require.Equal(t, comm.FlagSpeedControl|comm.FlagCalibrateOdometry, cmd.Flags)
	require.Equal(t, comm.FlagSpeedControl, env.robot.Flags())
}

func TestBattery(t *testing.T) {
	env := newTestEnv(t, SpeedProfile())
	env.connect("4.0")
	env.exchange()

	env.receive(comm.Telemetry{Battery: 152, Status: comm.StatusCharging | comm.StatusCharged})
	require.Equal(t, 152, env.robot.Battery())
	require.Equal(t, 100, env.robot.BatteryCharge())
	require.InDelta(t, 4.2, env.robot.BatteryVoltage(), 1e-9)
	require.False(t, env.robot.BatteryIsLow())
	require.True(t, env.robot.IsCharging())
	require.True(t, env.robot.IsCharged())

	env.receive(comm.Telemetry{Battery: 22})
	require.Equal(t, 14, env.robot.BatteryCharge())
	require.True(t, env.robot.BatteryIsLow())
	require.False(t, env.robot.IsCharging())
	require.Equal(t, comm.NotCharging, env.robot.ChargeState())
}

func TestDetach(t *testing.T) {
	env := newTestEnv(t, SpeedProfile())
	env.connect("3.0")
	require.Equal(t, [][]byte{{0xfe, 0}}, env.channel.takeWrites())
	env.exchange()
	env.robot.HandleEvent(comm.Event{Kind: comm.EventDetached})
	require.Equal(t, Disconnected, env.robot.State())
	require.Equal(t, 1, env.scheduler.stopped)
	require.Len(t, env.disconnects, 1)
	env.scheduler.tick()
	require.Empty(t, env.channel.takeWrites())

	// a new link isn't accepted until restart.
	env.robot.HandleEvent(comm.Event{Kind: comm.EventLinkReady, Version: "3.0"})
	require.Equal(t, Disconnected, env.robot.State())
	require.Equal(t, 1, env.scheduler.started)
}

func TestDetachBeforeLinkReady(t *testing.T) {
	env := newTestEnv(t, SpeedProfile())
	env.robot.HandleEvent(comm.Event{Kind: comm.EventAttached})
	env.robot.HandleEvent(comm.Event{Kind: comm.EventDetached})
	require.Equal(t, Idle, env.robot.State())
	require.Zero(t, env.scheduler.stopped)
	require.Empty(t, env.disconnects)

	// the next link is accepted without restart.
	env.connect("4.0")
	require.True(t, env.robot.IsConnected())
	env.exchange()
}

func TestRestart(t *testing.T) {
	env := newTestEnv(t, SpeedProfile())
	env.connect("4.0")
	env.exchange()
	env.receive(comm.Telemetry{Left: 100, Right: 100})
	env.receive(comm.Telemetry{Left: 100, Right: 100})
	env.robot.HandleEvent(comm.Event{Kind: comm.EventDetached})
	staleTick := env.scheduler.tick

	env.robot.Restart()
	require.Equal(t, Idle, env.robot.State())
	require.Equal(t, odometry.Pose{}, env.robot.Odometry())

	env.robot.HandleEvent(comm.Event{Kind: comm.EventLinkReady, Version: "4.0"})
	require.Equal(t, Connected, env.robot.State())
	require.Equal(t, 2, env.scheduler.started)
	staleTick()
	require.Empty(t, env.channel.takeWrites())
	env.exchange()
}

func TestClose(t *testing.T) {
	t.Run("legacy closes", func(t *testing.T) {
		env := newTestEnv(t, SpeedProfile())
		env.channel.closeOnAppDisconnect = true
		env.connect("3.0")
		env.channel.takeWrites()
		require.NoError(t, env.robot.Close(context.Background()))
		require.Equal(t, [][]byte{{0xff, 0}}, env.channel.takeWrites())
		require.Equal(t, Disconnected, env.robot.State())
		require.Equal(t, 1, env.channel.disabled)
		require.Equal(t, 1, env.scheduler.stopped)
		require.Len(t, env.disconnects, 1)
	})
	t.Run("legacy timeout", func(t *testing.T) {
		env := newTestEnv(t, SpeedProfile())
		env.robot.ShutdownRetries = 2
		env.connect("2.0")
		env.channel.takeWrites()
		require.Equal(t, ErrShutdownTimeout, env.robot.Close(context.Background()))
		require.Equal(t, [][]byte{{0xff, 0}}, env.channel.takeWrites())
		require.False(t, env.channel.IsOpen())
	})
	t.Run("cancelled", func(t *testing.T) {
		env := newTestEnv(t, SpeedProfile())
		env.robot.ShutdownInterval = time.Hour
		env.connect("2.0")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.Equal(t, context.Canceled, env.robot.Close(ctx))
		require.Equal(t, 1, env.channel.disabled)
	})
	t.Run("no handshake", func(t *testing.T) {
		env := newTestEnv(t, SpeedProfile())
		env.connect("4.0")
		require.NoError(t, env.robot.Close(context.Background()))
		require.Empty(t, env.channel.takeWrites())
		require.Equal(t, 1, env.channel.disabled)
	})
	t.Run("not connected", func(t *testing.T) {
		env := newTestEnv(t, SpeedProfile())
		require.Equal(t, ErrNotConnected, env.robot.Close(context.Background()))
	})
}

func TestSubscription(t *testing.T) {
	env := newTestEnv(t, SpeedProfile())
	var order []int
	env.robot.Subscribe(ListenerFuncs{Updated: func(Snapshot) { order = append(order, 1) }})
	env.robot.Subscribe(ListenerFuncs{Updated: func(Snapshot) { order = append(order, 2) }})
	env.connect("4.0")
	env.receive(comm.Telemetry{})
	require.Equal(t, []int{1, 2}, order)
	require.Len(t, env.updates, 1)

	require.NoError(t, env.subscription.Close())
	env.receive(comm.Telemetry{})
	require.Equal(t, []int{1, 2, 1, 2}, order)
	require.Len(t, env.updates, 1)
}

func TestProfileByName(t *testing.T) {
	p, ok := ProfileByName("encoder")
	require.True(t, ok)
	require.Equal(t, 300, p.Speed.Max)
	p, ok = ProfileByName("")
	require.True(t, ok)
	require.Equal(t, "speed", p.Name)
	_, ok = ProfileByName("unknown")
	require.False(t, ok)
	require.True(t, p.IsLegacy(2))
	require.False(t, p.IsLegacy(4))
}
