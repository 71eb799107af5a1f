package mqtt

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/neurobridge/pkg/l0/comm"
	"github.com/robotalks/neurobridge/pkg/transport"
)

// PublishTimeout bounds waiting for a publish to be handed to the broker.
const PublishTimeout = 100 * time.Millisecond

// Topics under <prefix><device>/.
const (
	TopicMotor   = "motor"
	TopicSensory = "sensory"
	TopicMeta    = "meta"
)

// Topic composes the topic of a device.
func Topic(device, name string) string {
	return device + "/" + name
}

// Link is the device side: it receives motor frames on
// <device>/motor, publishes sensory packets on <device>/sensory and
// keeps the capabilities retained on <device>/meta while connected.
//
// Link implements comm.Transport.
type Link struct {
	Queue  *Queue
	Device string
	// Meta is published retained when connected.
	Meta []byte
	*transport.Pipe
}

// NewLink creates a Link from broker URL.
func NewLink(brokerURL, device string) (*Link, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+Topic(device, TopicMeta), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("feagi:" + device)
	}
	l := &Link{Queue: NewQueue(opts, topicPrefix), Device: device, Pipe: transport.NewPipe()}
	l.SetSendTimeout(PublishTimeout)
	l.Queue.OnConnect = func(q *Queue) {
		if l.Meta != nil {
			q.PubWith(Topic(l.Device, TopicMeta), l.Meta, 1, true)
		}
	}
	return l, nil
}

// Run implements Runnable.
func (l *Link) Run(ctx context.Context) error {
	l.Queue.Sub(Topic(l.Device, TopicMotor), func(_ string, payload []byte) {
		l.Deliver(payload)
	})
	if token := l.Queue.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	<-ctx.Done()
	l.Queue.PubWith(Topic(l.Device, TopicMeta), nil, 1, true).WaitTimeout(PublishTimeout)
	l.Queue.Close()
	return ctx.Err()
}

// Send implements comm.Sender. It waits at most the send timeout,
// PublishTimeout unless set otherwise; a publish still pending is left
// to the client.
func (l *Link) Send(b []byte) error {
	token := l.Queue.Pub(Topic(l.Device, TopicSensory), b)
	if !token.WaitTimeout(l.SendTimeout()) {
		glog.V(2).Info("sensory publish pending")
		return nil
	}
	return token.Error()
}

// Close implements io.Closer.
func (l *Link) Close() error {
	return l.Queue.Close()
}

// BrainConn is the brain side of a Link as an io.ReadWriteCloser, so
// comm.Client works over MQTT. Each Write publishes one motor message.
// Sensory messages are returned by Read, newline-terminated.
type BrainConn struct {
	Queue  *Queue
	Device string

	msgCh   chan []byte
	pending []byte
	once    sync.Once
	closeCh chan struct{}
}

// DialBrain connects to the broker and subscribes to the device.
func DialBrain(brokerURL, device string) (*BrainConn, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	c := &BrainConn{
		Queue:   NewQueue(opts, topicPrefix),
		Device:  device,
		msgCh:   make(chan []byte, 16),
		closeCh: make(chan struct{}),
	}
	if token := c.Queue.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	token := c.Queue.Sub(Topic(device, TopicSensory), c.handleMsg)
	if token.Wait() && token.Error() != nil {
		c.Queue.Close()
		return nil, token.Error()
	}
	return c, nil
}

// Meta fetches the retained capabilities of the device.
func (c *BrainConn) Meta(ctx context.Context) ([]byte, error) {
	metaCh := make(chan []byte, 1)
	token := c.Queue.Sub(Topic(c.Device, TopicMeta), func(_ string, payload []byte) {
		select {
		case metaCh <- payload:
		default:
		}
	})
	if token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	select {
	case meta := <-metaCh:
		return meta, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Read implements io.Reader.
func (c *BrainConn) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		select {
		case msg := <-c.msgCh:
			c.pending = msg
		case <-c.closeCh:
			return 0, io.EOF
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Write implements io.Writer.
func (c *BrainConn) Write(p []byte) (int, error) {
	token := c.Queue.Pub(Topic(c.Device, TopicMotor), append([]byte(nil), p...))
	if token.Wait() && token.Error() != nil {
		return 0, token.Error()
	}
	return len(p), nil
}

// Close implements io.Closer.
func (c *BrainConn) Close() error {
	c.once.Do(func() {
		close(c.closeCh)
		c.Queue.Close()
	})
	return nil
}

func (c *BrainConn) handleMsg(_ string, payload []byte) {
	msg := append([]byte(nil), payload...)
	if !bytes.HasSuffix(msg, []byte("\n")) {
		msg = append(msg, '\n')
	}
	select {
	case c.msgCh <- msg:
	default:
		glog.V(2).Info("sensory message dropped")
	}
}

var _ comm.Transport = (*Link)(nil)
