package comm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/neurobridge/pkg/framework"
)

// MaxMessageSize bounds a newline-delimited message from the device.
const MaxMessageSize = 4096

// Result is the result of a request using Do.
type Result struct {
	Err  error
	Data []byte
}

// Request represents a pending request waiting for reply.
type Request struct {
	resultCh chan Result
	next     *Request
}

// ResultChan returns the chan to retrieve result.
func (r *Request) ResultChan() <-chan Result {
	return r.resultCh
}

// Client is the brain side of the protocol over a byte stream.
// Commands are written as frames, and newline-delimited messages from
// the device are sorted into replies and sensory events.
type Client struct {
	rw       io.ReadWriter
	events   *Mailbox[[]byte]
	sendLock sync.Mutex

	reqsHead *Request
	reqsTail *Request
	reqsLock sync.Mutex
	closed   bool
}

// NewClient creates client and wraps the stream.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{rw: rw, events: NewMailbox[[]byte]()}
}

// EventChan retrieves the chan of sensory packets. Only the latest
// packet is kept if the reader falls behind.
func (c *Client) EventChan() <-chan []byte {
	return c.events.C()
}

// DroppedEvents returns the number of sensory packets overwritten
// before being read.
func (c *Client) DroppedEvents() uint64 {
	return c.events.Overwrites()
}

// Send writes a command without waiting for a reply.
func (c *Client) Send(cmd Command) error {
	f, err := NewFrame(cmd)
	if err != nil {
		return err
	}
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	_, err = f.WriteTo(c.rw)
	return err
}

// Do sends a command which expects a reply. Only GetCapabilities is
// answered by the device.
func (c *Client) Do(cmd Command) *Request {
	req := &Request{resultCh: make(chan Result, 1)}
	c.reqsLock.Lock()
	defer c.reqsLock.Unlock()
	if c.closed {
		req.resultCh <- Result{Err: ErrNotConnected}
		return req
	}
	if err := c.Send(cmd); err != nil {
		req.resultCh <- Result{Err: err}
		return req
	}
	if c.reqsHead == nil {
		c.reqsHead = req
	} else {
		c.reqsTail.next = req
	}
	c.reqsTail = req
	return req
}

// Capabilities requests the capabilities reply.
func (c *Client) Capabilities() *Request {
	return c.Do(GetCapabilities{})
}

// HandleMessage sorts one message received from the device.
func (c *Client) HandleMessage(msg []byte) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return
	}
	var probe struct {
		Sensors json.RawMessage `json:"sensors"`
	}
	if err := json.Unmarshal(msg, &probe); err != nil {
		glog.V(2).Infof("ignore message: %v", err)
		return
	}
	if probe.Sensors == nil {
		c.events.Put(msg)
		return
	}
	c.reqsLock.Lock()
	req := c.reqsHead
	if req != nil {
		if c.reqsHead = req.next; c.reqsHead == nil {
			c.reqsTail = nil
		}
		req.next = nil
	}
	c.reqsLock.Unlock()
	if req == nil {
		glog.V(2).Info("unsolicited reply")
		return
	}
	req.resultCh <- Result{Data: msg}
}

// Run reads messages until the stream fails or ctx is cancelled.
// Pending requests fail with ErrNotConnected afterwards.
func (c *Client) Run(ctx context.Context) error {
	defer c.failPending()
	scanner := bufio.NewScanner(c.rw)
	scanner.Buffer(make([]byte, 0, 512), MaxMessageSize)
	return fx.RunWithContextCancel(ctx, func() {
		if closer, ok := c.rw.(io.Closer); ok {
			closer.Close()
		}
	}, func() error {
		for scanner.Scan() {
			// Scanner reuses its buffer.
			c.HandleMessage(append([]byte(nil), scanner.Bytes()...))
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		return io.EOF
	})
}

func (c *Client) failPending() {
	c.reqsLock.Lock()
	head := c.reqsHead
	c.reqsHead, c.reqsTail, c.closed = nil, nil, true
	c.reqsLock.Unlock()
	for ; head != nil; head = head.next {
		head.resultCh <- Result{Err: ErrNotConnected}
	}
}
