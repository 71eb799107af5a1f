package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errListen = errors.New("listen failed")

type failingRunnable struct{}

func (failingRunnable) Run(context.Context) error {
	return errListen
}

func TestRunnerFailureStopsOthers(t *testing.T) {
	blocked := &countingRunnable{started: make(chan struct{})}
	runner := NewRunner().Go(NamedRun("blocked", blocked), NamedRun("failing", failingRunnable{}))
	done := make(chan error, 1)
	go func() { done <- runner.Wait() }()
	select {
	case err := <-done:
		require.ErrorIs(t, err, errListen)
	case <-time.After(time.Second):
		t.Fatal("runner not stopped")
	}
}

func TestRunnerCancel(t *testing.T) {
	runner := NewRunner()
	runner.Go(&countingRunnable{started: make(chan struct{})}, &countingRunnable{started: make(chan struct{})})
	runner.Cancel()
	require.NoError(t, runner.Wait())
}

func TestLoopStopsOnRunnableFailure(t *testing.T) {
	loop := NewLoop().AddRunnable(failingRunnable{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.ErrorIs(t, loop.Run(ctx), errListen)
	require.NoError(t, ctx.Err())
}

func TestRunWithContextCloser(t *testing.T) {
	closer := &countingCloser{}
	err := RunWithContextCloser(context.Background(), closer, func() error { return errListen })
	require.ErrorIs(t, err, errListen)
	require.Equal(t, 1, closer.closed)

	ctx, cancel := context.WithCancel(context.Background())
	closer = &countingCloser{ch: make(chan struct{})}
	go cancel()
	err = RunWithContextCloser(ctx, closer, func() error {
		<-closer.ch
		return errors.New("closed")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, closer.closed)
}

type countingCloser struct {
	ch     chan struct{}
	closed int
}

func (c *countingCloser) Close() error {
	c.closed++
	if c.ch != nil {
		close(c.ch)
	}
	return nil
}
