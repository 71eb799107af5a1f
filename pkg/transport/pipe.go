package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/neurobridge/pkg/framework"
	"github.com/robotalks/neurobridge/pkg/l0/comm"
)

// DefaultMaxPending bounds the bytes received but not yet polled.
const DefaultMaxPending = 4096

// Pipe hands packets read by a background goroutine to the control
// loop through a single-slot mailbox. Bytes not yet polled are merged
// with new ones so nothing is lost until MaxPending is exceeded, in
// which case the unpolled bytes are dropped.
//
// Send writes on the caller's goroutine. When the link supports write
// deadlines, a write is bounded by the send timeout and a link that
// doesn't accept it in time is closed, as a partial message may have
// been written.
//
// Pipe implements comm.Transport and comm.SendTimeouter.
type Pipe struct {
	MaxPending int

	inbox       *comm.Mailbox[[]byte]
	deliverLock sync.Mutex
	dropped     atomic.Uint64
	sendTimeout atomic.Int64

	sendLock sync.Mutex
	lock     sync.Mutex
	writer   PacketWriter
}

// WriteDeadliner is implemented by links with bounded writes.
type WriteDeadliner interface {
	SetWriteDeadline(time.Time) error
}

// NewPipe creates a Pipe.
func NewPipe() *Pipe {
	p := &Pipe{MaxPending: DefaultMaxPending, inbox: comm.NewMailbox[[]byte]()}
	p.sendTimeout.Store(int64(comm.DefaultSendTimeout))
	return p
}

// SetSendTimeout implements comm.SendTimeouter.
func (p *Pipe) SetSendTimeout(timeout time.Duration) {
	p.sendTimeout.Store(int64(timeout))
}

// SendTimeout returns the bound of a single Send.
func (p *Pipe) SendTimeout() time.Duration {
	return time.Duration(p.sendTimeout.Load())
}

// Serve attaches rw as the current link and reads packets until it
// fails or ctx is cancelled. A previously attached link is closed.
func (p *Pipe) Serve(ctx context.Context, rw PacketReadWriter) error {
	p.attach(rw)
	defer p.detach(rw)
	return fx.RunWithContextCancel(ctx, func() { closeLink(rw) }, func() error {
		for {
			pkt, err := rw.ReadPacket()
			if err != nil {
				return err
			}
			p.Deliver(pkt)
		}
	})
}

// Deliver queues received bytes. A replaced link may still be
// delivering while the new one starts, so calls are serialized.
func (p *Pipe) Deliver(pkt []byte) {
	if len(pkt) == 0 {
		return
	}
	p.deliverLock.Lock()
	defer p.deliverLock.Unlock()
	pending, ok := p.inbox.Take()
	if ok && len(pending)+len(pkt) > p.maxPending() {
		p.dropped.Add(uint64(len(pending)))
		glog.Warningf("receive queue full, %d bytes dropped", len(pending))
		pending = nil
	}
	// pkt may be reused by the reader.
	pkt = append(pending, pkt...)
	p.inbox.Put(pkt)
}

// Poll implements comm.Poller.
func (p *Pipe) Poll(timeout time.Duration) ([]byte, error) {
	pkt, _ := p.inbox.Wait(context.Background(), timeout)
	return pkt, nil
}

// Send implements comm.Sender.
func (p *Pipe) Send(b []byte) error {
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	p.lock.Lock()
	w := p.writer
	p.lock.Unlock()
	if w == nil {
		return comm.ErrNotConnected
	}
	if d, ok := w.(WriteDeadliner); ok {
		if timeout := p.SendTimeout(); timeout > 0 {
			d.SetWriteDeadline(time.Now().Add(timeout))
		}
	}
	err := w.WritePacket(b)
	if isTimeout(err) {
		glog.Warningf("peer stalled, link closed: %v", err)
		p.detach(w)
		closeLink(w)
		return comm.ErrSendTimeout
	}
	return err
}

// Connected indicates a link is attached.
func (p *Pipe) Connected() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.writer != nil
}

// Dropped returns the number of received bytes dropped.
func (p *Pipe) Dropped() uint64 {
	return p.dropped.Load()
}

// Close closes the current link.
func (p *Pipe) Close() error {
	p.lock.Lock()
	w := p.writer
	p.writer = nil
	p.lock.Unlock()
	return closeLink(w)
}

func (p *Pipe) maxPending() int {
	if p.MaxPending > 0 {
		return p.MaxPending
	}
	return DefaultMaxPending
}

func (p *Pipe) attach(w PacketWriter) {
	p.lock.Lock()
	prev := p.writer
	p.writer = w
	p.lock.Unlock()
	if prev != nil {
		glog.Info("link replaced")
		closeLink(prev)
	}
}

func (p *Pipe) detach(w PacketWriter) {
	p.lock.Lock()
	if p.writer == w {
		p.writer = nil
	}
	p.lock.Unlock()
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func closeLink(w interface{}) error {
	if closer, ok := w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
