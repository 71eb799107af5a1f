package transport

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/neurobridge/pkg/l0/comm"
)

type chanLink struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
}

func newChanLink() *chanLink {
	return &chanLink{
		in:     make(chan []byte, 4),
		out:    make(chan []byte, 4),
		closed: make(chan struct{}),
	}
}

func (l *chanLink) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-l.in:
		return pkt, nil
	case <-l.closed:
		return nil, io.EOF
	}
}

func (l *chanLink) WritePacket(pkt []byte) error {
	l.out <- append([]byte(nil), pkt...)
	return nil
}

func (l *chanLink) Close() error {
	select {
	case <-l.closed:
	default:
		close(l.closed)
	}
	return nil
}

func TestPipeMergesUnpolledBytes(t *testing.T) {
	p := NewPipe()
	buf := []byte{0x02, 0x02}
	p.Deliver(buf)
	buf[0], buf[1] = 0x08, 0x01
	p.Deliver(buf)
	pkt, err := p.Poll(0)
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 0x02, 0x08, 0x01}, pkt)

	pkt, err = p.Poll(time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, pkt)
}

func TestPipeDropsWhenFull(t *testing.T) {
	p := NewPipe()
	p.MaxPending = 4
	p.Deliver([]byte{1, 2, 3})
	p.Deliver([]byte{4, 5})
	require.Equal(t, uint64(3), p.Dropped())
	pkt, err := p.Poll(0)
	require.NoError(t, err)
	require.Equal(t, []byte{4, 5}, pkt)
}

func TestPipeSendWithoutLink(t *testing.T) {
	p := NewPipe()
	require.False(t, p.Connected())
	require.ErrorIs(t, p.Send([]byte{1}), comm.ErrNotConnected)
}

func TestPipeServe(t *testing.T) {
	p := NewPipe()
	link := newChanLink()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Serve(ctx, link) }()

	link.in <- []byte{0x05, 0x00}
	pkt, err := p.Poll(time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte{0x05, 0x00}, pkt)

	require.Eventually(t, p.Connected, time.Second, time.Millisecond)
	require.NoError(t, p.Send([]byte("{}\n")))
	require.Equal(t, []byte("{}\n"), <-link.out)

	cancel()
	err = <-errCh
	require.True(t, errors.Is(err, context.Canceled) || errors.Is(err, io.EOF))
	require.False(t, p.Connected())
}

func TestPipeNewLinkReplacesPrevious(t *testing.T) {
	p := NewPipe()
	first, second := newChanLink(), newChanLink()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstDone := make(chan error, 1)
	go func() { firstDone <- p.Serve(ctx, first) }()
	require.Eventually(t, p.Connected, time.Second, time.Millisecond)
	go p.Serve(ctx, second)

	select {
	case <-firstDone:
	case <-time.After(time.Second):
		t.Fatal("first link not closed")
	}
	require.Eventually(t, p.Connected, time.Second, time.Millisecond)
	require.NoError(t, p.Send([]byte{1}))
	require.Equal(t, []byte{1}, <-second.out)
}

// stalledLink never accepts a write before its deadline.
type stalledLink struct {
	deadline time.Time
	closed   bool
}

func (l *stalledLink) WritePacket([]byte) error {
	if l.deadline.IsZero() {
		return errors.New("no deadline")
	}
	time.Sleep(time.Until(l.deadline))
	return os.ErrDeadlineExceeded
}

func (l *stalledLink) SetWriteDeadline(t time.Time) error {
	l.deadline = t
	return nil
}

func (l *stalledLink) Close() error {
	l.closed = true
	return nil
}

func TestPipeSendTimeoutClosesStalledLink(t *testing.T) {
	p := NewPipe()
	p.SetSendTimeout(5 * time.Millisecond)
	require.Equal(t, 5*time.Millisecond, p.SendTimeout())
	link := &stalledLink{}
	p.attach(link)

	start := time.Now()
	err := p.Send([]byte{1})
	require.ErrorIs(t, err, comm.ErrSendTimeout)
	require.Less(t, time.Since(start), time.Second)
	require.True(t, link.closed)
	require.False(t, p.Connected())
	require.ErrorIs(t, p.Send([]byte{1}), comm.ErrNotConnected)
}

func TestPipeConcurrentDeliver(t *testing.T) {
	p := NewPipe()
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 500; n++ {
				p.Deliver([]byte{1})
			}
		}()
	}
	wg.Wait()
	pkt, err := p.Poll(0)
	require.NoError(t, err)
	require.Len(t, pkt, 1000)
	require.Zero(t, p.Dropped())
}
