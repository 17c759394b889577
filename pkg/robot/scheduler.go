package robot

import (
	"context"
	"time"

	"github.com/robotalks/wheelphone.go/pkg/framework"
)

// TickInterval is the cadence of the frame exchange.
const TickInterval = 50 * time.Millisecond

// Scheduler invokes the exchange tick periodically.
type Scheduler interface {
	// Start invokes tick periodically, one at a time, until stop is
	// called. stop must not wait for a running tick to return.
	Start(tick func()) (stop func())
}

// LoopScheduler runs the tick as the only controller of a framework.Loop.
type LoopScheduler struct {
	Interval time.Duration
}

// Start implements Scheduler.
func (s *LoopScheduler) Start(tick func()) func() {
	loop := framework.NewLoop()
	loop.Interval = s.Interval
	if loop.Interval <= 0 {
		loop.Interval = TickInterval
	}
	loop.AddController(framework.PrLvControl, framework.ControlFunc(func(framework.ControlContext) error {
		tick()
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	return cancel
}
