package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	id int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

func TestLoopPriorities(t *testing.T) {
	loop := NewLoop()
	var order []int
	for _, lv := range []int{PrLvPostProc, PrLvSense, PrLvControl} {
		level := lv
		loop.AddController(level, ControlFunc(func(cc ControlContext) error {
			require.Equal(t, level, cc.PriorityLevel())
			order = append(order, level)
			return nil
		}))
	}
	loop.RunOnce(context.Background())
	require.Equal(t, []int{PrLvSense, PrLvControl, PrLvPostProc}, order)
	require.Equal(t, uint64(1), loop.Iterations())
}

func TestLoopHooks(t *testing.T) {
	loop := NewLoop()
	var calls []string
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		calls = append(calls, "ctl")
		cc.PostRun(ControlFunc(func(ControlContext) error {
			calls = append(calls, "post")
			return nil
		}))
		return errors.New("logged")
	}))
	loop.PreRunAt(PrLvControl, ControlFunc(func(ControlContext) error {
		calls = append(calls, "pre")
		return nil
	}))
	loop.RunOnce(context.Background())
	require.Equal(t, []string{"pre", "ctl", "post"}, calls)
	calls = nil
	loop.RunOnce(context.Background())
	require.Equal(t, []string{"ctl", "post"}, calls)
}

func TestLoopMessages(t *testing.T) {
	loop := NewLoop()
	var taken, seen []int
	loop.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			msg := mc.CurrentMessage().(*testMsg)
			if msg.id%2 == 0 {
				taken = append(taken, msg.id)
				mc.MessageTaken()
			}
			if msg.id == 4 {
				mc.AddMessages(&testMsg{id: 10})
				mc.StopProcessing()
			}
		}))
		return nil
	}))
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			seen = append(seen, mc.CurrentMessage().(*testMsg).id)
		}))
		return nil
	}))
	for n := 1; n <= 6; n++ {
		loop.PostMessage(&testMsg{id: n})
	}
	loop.RunOnce(context.Background())
	require.Equal(t, []int{2, 4}, taken)
	require.Equal(t, []int{1, 3, 5, 6, 10}, seen)
}

func TestLoopRun(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Millisecond
	ticks := make(chan struct{}, 16)
	loop.AddController(PrLvControl, ControlFunc(func(ControlContext) error {
		select {
		case ticks <- struct{}{}:
		default:
		}
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	for n := 0; n < 3; n++ {
		select {
		case <-ticks:
		case <-time.After(time.Second):
			t.Fatal("loop not running")
		}
	}
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("loop not stopped")
	}
}

func TestRunnerAggregate(t *testing.T) {
	runner := NewRunner()
	runner.Go(
		NamedRun("ok", RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
		NamedRun("bad", RunFunc(func(context.Context) error {
			return errors.New("failed")
		})),
	)
	err := runner.Wait()
	require.Error(t, err)
	require.Equal(t, "bad: failed", err.Error())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	e1 := errors.New("e1")
	require.Equal(t, e1, errs.Add(e1).Aggregate())
	err := errs.Add(errors.New("e2")).Aggregate()
	require.Equal(t, "Multiple errors:\n  e1\n  e2", err.Error())
}

func TestRunWithContextCloser(t *testing.T) {
	closer := &countCloser{}
	err := RunWithContextCloser(context.Background(), closer, func() error { return nil })
	require.NoError(t, err)
	require.Equal(t, 1, closer.count)
}

type countCloser struct {
	count int
}

func (c *countCloser) Close() error {
	c.count++
	return nil
}

func TestRunWithContextCancel(t *testing.T) {
	errBoom := errors.New("boom")
	require.Equal(t, errBoom, RunWithContextCancel(context.Background(), nil, func() error { return errBoom }))

	ctx, cancel := context.WithCancel(context.Background())
	unblock := make(chan struct{})
	cancelled := false
	cancel()
	err := RunWithContextCancel(ctx, func() {
		cancelled = true
		close(unblock)
	}, func() error {
		<-unblock
		return nil
	})
	require.Equal(t, context.Canceled, err)
	require.True(t, cancelled)
}
