package robot

import (
	"time"

	"github.com/robotalks/wheelphone.go/pkg/l0/comm"
	"github.com/robotalks/wheelphone.go/pkg/odometry"
)

// Snapshot is a consistent copy of the robot state.
type Snapshot struct {
	State              ConnectionState
	Version            string
	Telemetry          comm.Telemetry
	UpdatedAt          time.Time
	Pose               odometry.Pose
	Command            comm.Command
	Calibrating        bool
	OdometryCalibrated bool
}

// Listener receives robot notifications. Callbacks are invoked without
// holding the robot lock, so they may call back into the robot.
type Listener interface {
	// RobotUpdated is called after telemetry frames are decoded.
	RobotUpdated(Snapshot)
	// RobotDisconnected is called when the session ends.
	RobotDisconnected(Snapshot)
}

// ListenerFuncs is the func form of Listener. Nil funcs are skipped.
type ListenerFuncs struct {
	Updated      func(Snapshot)
	Disconnected func(Snapshot)
}

// RobotUpdated implements Listener.
func (f ListenerFuncs) RobotUpdated(s Snapshot) {
	if f.Updated != nil {
		f.Updated(s)
	}
}

// RobotDisconnected implements Listener.
func (f ListenerFuncs) RobotDisconnected(s Snapshot) {
	if f.Disconnected != nil {
		f.Disconnected(s)
	}
}

// Subscription is a registered Listener.
type Subscription struct {
	robot    *Robot
	listener Listener
}

// Close unsubscribes the listener.
func (s *Subscription) Close() error {
	s.robot.unsubscribe(s)
	return nil
}

// Subscribe registers a listener. Listeners are notified in
// registration order.
func (r *Robot) Subscribe(listener Listener) *Subscription {
	sub := &Subscription{robot: r, listener: listener}
	r.lock.Lock()
	r.subs = append(r.subs, sub)
	r.lock.Unlock()
	return sub
}

func (r *Robot) unsubscribe(sub *Subscription) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for n, s := range r.subs {
		if s == sub {
			subs := make([]*Subscription, 0, len(r.subs)-1)
			subs = append(subs, r.subs[:n]...)
			r.subs = append(subs, r.subs[n+1:]...)
			return
		}
	}
}

type notification int

const (
	notifyNone notification = iota
	notifyUpdated
	notifyDisconnected
)

// notify must be called without holding the lock.
func (r *Robot) notify(what notification, snapshot Snapshot, subs []*Subscription) {
	for _, sub := range subs {
		switch what {
		case notifyUpdated:
			sub.listener.RobotUpdated(snapshot)
		case notifyDisconnected:
			sub.listener.RobotDisconnected(snapshot)
		}
	}
}
