package framework

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPeriodFromHz(t *testing.T) {
	testCases := []struct {
		hz     uint
		expect time.Duration
	}{
		{0, 10 * time.Millisecond},
		{100, 10 * time.Millisecond},
		{10, 100 * time.Millisecond},
		{1, time.Second},
		{30, 33 * time.Millisecond},
	}
	for n, tc := range testCases {
		require.Equalf(t, tc.expect, PeriodFromHz(tc.hz), "case[%d] period mismatch", n)
	}
}

func TestLoopStageOrder(t *testing.T) {
	var order []string
	stage := func(name string) Controller {
		return ControlFunc(func(cc ControlContext) error {
			order = append(order, name)
			return nil
		})
	}
	loop := NewLoop()
	loop.AddController(PrLvActuate, stage("dispatch"))
	loop.AddController(PrLvReceive, stage("receive"))
	loop.AddController(PrLvSense, stage("sample"))
	loop.AddController(PrLvEmit, stage("emit"))
	loop.Step(context.Background())
	require.Equal(t, []string{"sample", "emit", "receive", "dispatch"}, order)
}

func TestLoopFrameCounterWraps(t *testing.T) {
	var frames []uint64
	loop := NewLoop()
	loop.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		frames = append(frames, cc.Frame())
		return nil
	}))
	loop.SetFrame(math.MaxUint64 - 1)
	for i := 0; i < 3; i++ {
		loop.Step(context.Background())
	}
	require.Equal(t, []uint64{math.MaxUint64 - 1, math.MaxUint64, 0}, frames)
	require.Equal(t, uint64(1), loop.Frame())
	require.Equal(t, uint64(3), loop.Stats().Iterations)
}

func TestLoopControllerErrorsDontStop(t *testing.T) {
	var calls int
	loop := NewLoop()
	loop.AddController(PrLvSense, ControlFunc(func(ControlContext) error {
		return errors.New("sensor failure")
	}))
	loop.AddController(PrLvActuate, ControlFunc(func(ControlContext) error {
		calls++
		return nil
	}))
	loop.Step(context.Background())
	loop.Step(context.Background())
	require.Equal(t, 2, calls)
	require.Equal(t, uint64(2), loop.Stats().Errors)
}

type countingRunnable struct {
	started chan struct{}
}

func (r *countingRunnable) Run(ctx context.Context) error {
	close(r.started)
	<-ctx.Done()
	return ctx.Err()
}

func TestLoopRunKeepsPeriod(t *testing.T) {
	loop := NewLoopWithHz(100)
	runnable := &countingRunnable{started: make(chan struct{})}
	loop.AddRunnable(runnable)
	ctx, cancel := context.WithTimeout(context.Background(), 105*time.Millisecond)
	defer cancel()
	err := loop.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	<-runnable.started
	iterations := loop.Stats().Iterations
	require.GreaterOrEqual(t, iterations, uint64(5))
	require.LessOrEqual(t, iterations, uint64(12))
	require.Equal(t, iterations, loop.Frame())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errA := errors.New("a")
	errs.Add(errA, nil)
	require.Equal(t, errA, errs.Aggregate())
	errs.Add(context.Canceled)
	require.Len(t, errs.Errors, 2)
	require.Equal(t, "Multiple errors:\na\ncontext canceled", errs.Aggregate().Error())
	require.ErrorIs(t, errs.Aggregate(), context.Canceled)
}
