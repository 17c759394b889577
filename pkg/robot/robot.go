// Package robot runs the frame exchange with a Wheelphone robot and
// keeps the latest decoded state.
package robot

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/wheelphone.go/pkg/calibration"
	"github.com/robotalks/wheelphone.go/pkg/l0/comm"
	"github.com/robotalks/wheelphone.go/pkg/odometry"
)

// Defaults.
const (
	DefaultCommTimeout      = time.Second
	DefaultShutdownRetries  = 5
	DefaultShutdownInterval = 100 * time.Millisecond
)

// Robot is the controller side of the link with one robot.
// It implements comm.EventHandler.
type Robot struct {
	// Scheduler drives Tick once the link is ready.
	Scheduler Scheduler
	// Clock timestamps received frames.
	Clock func() time.Time
	// ShutdownRetries bounds polling in Close.
	ShutdownRetries int
	// ShutdownInterval is the polling interval in Close.
	ShutdownInterval time.Duration

	channel comm.ByteChannel
	profile Profile

	lock      sync.Mutex
	state     ConnectionState
	attached  bool
	version   string
	major     int
	session   uint64
	stopTick  func()
	received  bool
	misses    int
	missLimit int

	encoder   *comm.CommandEncoder
	telemetry comm.Telemetry
	updatedAt time.Time
	odom      *odometry.Integrator
	calib     *calibration.Controller

	subs []*Subscription
}

// New creates a Robot talking over channel. The returned Robot must be
// registered as the event handler of the channel.
func New(channel comm.ByteChannel, profile Profile) *Robot {
	r := &Robot{
		Scheduler:        &LoopScheduler{Interval: TickInterval},
		Clock:            time.Now,
		ShutdownRetries:  DefaultShutdownRetries,
		ShutdownInterval: DefaultShutdownInterval,
		channel:          channel,
		profile:          profile,
		encoder:          comm.NewCommandEncoder(),
		odom:             odometry.New(profile.Odometry),
		calib:            calibration.New(),
	}
	r.missLimit = missLimitFor(DefaultCommTimeout)
	return r
}

func missLimitFor(timeout time.Duration) int {
	limit := int(timeout / TickInterval)
	if limit < 1 {
		limit = 1
	}
	return limit
}

// Profile returns the protocol profile.
func (r *Robot) Profile() Profile {
	return r.profile
}

// HandleEvent implements comm.EventHandler.
func (r *Robot) HandleEvent(ev comm.Event) {
	glog.V(3).Infof("transport event: %s %s", ev.Kind, ev.Version)
	switch ev.Kind {
	case comm.EventAttached:
		r.attach()
	case comm.EventLinkReady:
		r.linkReady(ev.Version)
	case comm.EventDataAvailable:
		r.receive()
	case comm.EventDetached:
		r.detach()
	}
}

func (r *Robot) attach() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.attached = true
	if r.state == Idle {
		r.state = Attached
	}
}

func (r *Robot) linkReady(version string) {
	r.lock.Lock()
	if r.state != Idle && r.state != Attached {
		glog.Warningf("link ready ignored in state %s", r.state)
		r.lock.Unlock()
		return
	}
	r.session++
	session := r.session
	r.version, r.major = version, comm.MajorVersion(version)
	r.state = Handshaking
	r.received, r.misses = true, 0
	r.stopTick = r.Scheduler.Start(func() { r.tick(session) })
	legacy := r.profile.IsLegacy(r.major)
	r.lock.Unlock()

	glog.Infof("link ready, firmware version %q", version)
	if legacy {
		if err := r.channel.Write(comm.HandshakeFrame(comm.KindAppConnect)); err != nil {
			glog.Warningf("write app-connect error: %v", err)
		}
	}

	r.lock.Lock()
	if r.session == session && r.state == Handshaking {
		r.state = Connected
		glog.Infof("connected")
	}
	r.lock.Unlock()
}

// Tick runs one exchange step of the current session. It's invoked by
// the Scheduler and exposed for driving the exchange manually.
func (r *Robot) Tick() {
	r.lock.Lock()
	session := r.session
	r.lock.Unlock()
	r.tick(session)
}

func (r *Robot) tick(session uint64) {
	r.lock.Lock()
	if r.session != session || !r.state.Exchanging() {
		r.lock.Unlock()
		return
	}
	if r.received {
		r.received, r.misses = false, 0
		frame := r.encoder.Encode()
		r.calib.Step()
		r.lock.Unlock()
		if err := r.channel.Write(frame); err != nil {
			glog.Warningf("write command error: %v", err)
		}
		return
	}
	r.misses++
	if r.misses < r.missLimit {
		r.lock.Unlock()
		return
	}
	glog.Warningf("no data from robot in %d ticks, disconnect", r.misses)
	stop := r.endSessionLocked()
	snapshot, subs := r.snapshotLocked(), r.subs
	r.lock.Unlock()

	stop()
	if err := r.channel.Disable(); err != nil {
		glog.Warningf("disable link error: %v", err)
	}
	r.notify(notifyDisconnected, snapshot, subs)
}

// endSessionLocked moves to Disconnected and returns the func to
// stop ticking, which must be called without the lock.
func (r *Robot) endSessionLocked() func() {
	r.state = Disconnected
	stop := r.stopTick
	r.stopTick = nil
	if stop == nil {
		stop = func() {}
	}
	return stop
}

func (r *Robot) receive() {
	var updated bool
	r.lock.Lock()
	for r.channel.Available() >= comm.RecvFrameLen {
		frame, err := comm.ReadFrame(r.channel, comm.RecvFrameLen)
		if err != nil {
			glog.Warningf("read frame error: %v", err)
			break
		}
		if frame == nil {
			break
		}
		r.received = true
		t, ok, err := comm.DecodeTelemetry(frame)
		if err != nil || !ok {
			glog.V(3).Infof("frame of kind %s dropped", comm.Kind(frame[0]))
			continue
		}
		r.decodedLocked(t)
		updated = true
	}
	if !updated {
		r.lock.Unlock()
		return
	}
	snapshot, subs := r.snapshotLocked(), r.subs
	r.lock.Unlock()
	r.notify(notifyUpdated, snapshot, subs)
}

func (r *Robot) decodedLocked(t comm.Telemetry) {
	r.telemetry = t
	r.updatedAt = r.Clock()
	r.odom.Update(t.Left, t.Right, r.updatedAt)
	if r.calib.Observe(t.Status) {
		glog.Info("odometry calibration completed")
		r.odom.Reset()
	}
	glog.V(4).Infof("telemetry %+v pose %+v", t, r.odom.Pose())
}

func (r *Robot) detach() {
	r.lock.Lock()
	r.attached = false
	wasExchanging := r.state.Exchanging()
	if r.state == Disconnected {
		r.lock.Unlock()
		return
	}
	stop := r.endSessionLocked()
	if !wasExchanging {
		// no session was started, ready for the next attach.
		r.state = Idle
	}
	snapshot, subs := r.snapshotLocked(), r.subs
	r.lock.Unlock()

	stop()
	glog.Infof("robot detached")
	if wasExchanging {
		r.notify(notifyDisconnected, snapshot, subs)
	}
}

// Close ends the session. Legacy firmware is told the app disconnects
// and the link is given a bounded time to close by itself before it's
// disabled.
func (r *Robot) Close(ctx context.Context) error {
	r.lock.Lock()
	if !r.state.Exchanging() {
		r.lock.Unlock()
		return ErrNotConnected
	}
	legacy := r.profile.IsLegacy(r.major)
	stop := r.endSessionLocked()
	snapshot, subs := r.snapshotLocked(), r.subs
	r.lock.Unlock()
	stop()

	var err error
	if legacy {
		if err = r.channel.Write(comm.HandshakeFrame(comm.KindAppDisconnect)); err != nil {
			glog.Warningf("write app-disconnect error: %v", err)
			err = nil
		} else {
			err = r.waitClosed(ctx)
		}
	}
	if e := r.channel.Disable(); e != nil {
		glog.Warningf("disable link error: %v", e)
	}
	r.notify(notifyDisconnected, snapshot, subs)
	return err
}

func (r *Robot) waitClosed(ctx context.Context) error {
	retries := r.ShutdownRetries
	if retries <= 0 {
		retries = DefaultShutdownRetries
	}
	for n := 0; r.channel.IsOpen(); n++ {
		if n >= retries {
			return ErrShutdownTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.ShutdownInterval):
		}
	}
	return nil
}

// Restart returns to Idle so the next transport events start a new
// session. Odometry and calibration start over.
func (r *Robot) Restart() {
	r.lock.Lock()
	stop := r.endSessionLocked()
	r.session++
	r.state = Idle
	r.received, r.misses = false, 0
	r.telemetry, r.updatedAt = comm.Telemetry{}, time.Time{}
	r.odom = odometry.New(r.odom.Params)
	r.calib.Reset()
	r.lock.Unlock()
	stop()
}
