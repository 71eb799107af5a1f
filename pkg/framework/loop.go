package framework

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// DefaultBurstHz is the sampling frequency used when none is configured.
const DefaultBurstHz = 100

// PeriodFromHz converts a burst frequency into the iteration period.
func PeriodFromHz(hz uint) time.Duration {
	if hz == 0 {
		hz = DefaultBurstHz
	}
	return time.Duration(1000/hz) * time.Millisecond
}

// LoopStats counts loop iterations.
type LoopStats struct {
	// Iterations is the number of completed iterations.
	Iterations uint64
	// Overruns is the number of iterations exceeding Interval.
	Overruns uint64
	// Errors is the number of errors returned by controllers.
	Errors uint64
}

// Loop runs controllers by priority once per Interval.
// All controllers are invoked from the goroutine calling Run or Step.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	frame      atomic.Uint64
	iterations atomic.Uint64
	overruns   atomic.Uint64
	errors     atomic.Uint64
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	ctx           context.Context
	time          time.Time
	frame         uint64
	priorityLevel int
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: PeriodFromHz(DefaultBurstHz)}
}

// NewLoopWithHz creates a Loop running at the burst frequency.
func NewLoopWithHz(hz uint) *Loop {
	return &Loop{Interval: PeriodFromHz(hz)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Frame returns the frame number of the next iteration.
func (l *Loop) Frame() uint64 {
	return l.frame.Load()
}

// SetFrame sets the frame number of the next iteration.
func (l *Loop) SetFrame(frame uint64) {
	l.frame.Store(frame)
}

// Stats returns a snapshot of the counters. It is safe to call from
// any goroutine.
func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Iterations: l.iterations.Load(),
		Overruns:   l.overruns.Load(),
		Errors:     l.errors.Load(),
	}
}

// Run implements Runnable. Each iteration is followed by a sleep for
// the remainder of Interval. Run returns when ctx is cancelled or one
// of the Runnables added to the loop fails.
func (l *Loop) Run(ctx context.Context) error {
	runner := NewRunnerWith(ctx)
	runner.Go(l.runners...)
	err := l.run(runner.Context)
	runner.Cancel()
	if runErr := runner.Wait(); runErr != nil && ctx.Err() == nil {
		return runErr
	}
	return err
}

func (l *Loop) run(ctx context.Context) error {
	interval := l.Interval
	if interval <= 0 {
		interval = PeriodFromHz(DefaultBurstHz)
	}
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		start := time.Now()
		l.Step(ctx)
		elapsed := time.Since(start)
		remains := interval - elapsed
		if remains < 0 {
			l.overruns.Add(1)
			glog.V(2).Infof("iteration overrun %v", elapsed)
			remains = 0
		}
		timer.Reset(remains)
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail(ctx context.Context) {
	if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalln(err)
	}
}

// Step runs a single iteration and advances the frame counter. The
// counter wraps around silently.
func (l *Loop) Step(ctx context.Context) {
	iter := &loopIteration{ctx: ctx, time: time.Now(), frame: l.frame.Load()}
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		for _, ctl := range l.controllers[i] {
			if err := ctl.Control(iter); err != nil {
				l.errors.Add(1)
				glog.Errorf("controller error: %v", err)
			}
		}
	}
	l.frame.Store(iter.frame + 1)
	l.iterations.Add(1)
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}

func (t *loopIteration) Frame() uint64 {
	return t.frame
}
