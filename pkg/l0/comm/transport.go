package comm

import (
	"io"
	"time"
)

// DefaultPollTimeout bounds every transport read made by the loop.
const DefaultPollTimeout = 10 * time.Millisecond

// DefaultSendTimeout bounds every transport write made by the loop.
const DefaultSendTimeout = 10 * time.Millisecond

// Poller reads received bytes, waiting at most timeout.
// A timeout with no data returns (nil, nil).
type Poller interface {
	Poll(timeout time.Duration) ([]byte, error)
}

// Sender transmits a complete outbound message.
type Sender interface {
	Send([]byte) error
}

// Transport is a bi-directional byte link to the brain.
type Transport interface {
	Poller
	Sender
	io.Closer
}

// SendTimeouter is implemented by transports whose Send can be bounded.
// A Send not completed within the timeout fails with ErrSendTimeout.
type SendTimeouter interface {
	SetSendTimeout(time.Duration)
}

// PollFunc is the func form of Poller.
type PollFunc func(time.Duration) ([]byte, error)

// Poll implements Poller.
func (f PollFunc) Poll(timeout time.Duration) ([]byte, error) {
	return f(timeout)
}

// SendFunc is the func form of Sender.
type SendFunc func([]byte) error

// Send implements Sender.
func (f SendFunc) Send(b []byte) error {
	return f(b)
}
