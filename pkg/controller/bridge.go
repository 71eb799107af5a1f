// Package controller wires the protocol core to pins, display and
// transport, and runs them as stages of the control loop.
package controller

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/neurobridge/pkg/dispatch"
	"github.com/robotalks/neurobridge/pkg/display"
	fx "github.com/robotalks/neurobridge/pkg/framework"
	"github.com/robotalks/neurobridge/pkg/gpio"
	"github.com/robotalks/neurobridge/pkg/l0/comm"
	"github.com/robotalks/neurobridge/pkg/sensory"
)

// BannerDuration is how long each banner letter is shown.
const BannerDuration = 500 * time.Millisecond

// Stats is a snapshot of all counters of a Bridge.
type Stats struct {
	Decoder  comm.DecoderStats
	Dispatch dispatch.Stats
	// SampleErrors is the number of failed pin reads.
	SampleErrors uint64
	// Sent is the number of messages handed to the transport.
	Sent uint64
	// SendErrors is the number of failed sends, excluding those
	// without a connected brain.
	SendErrors uint64
	// PollErrors is the number of failed transport reads.
	PollErrors uint64
	// Received is the number of bytes received.
	Received uint64
}

// Bridge connects the sampler, encoder, decoder and dispatcher of a
// device to its transport. Except for Stats, all methods must be
// called from the loop goroutine.
type Bridge struct {
	Config     *DeviceConfig
	Table      *gpio.Table
	Driver     gpio.Driver
	Transport  comm.Transport
	Matrix     *display.Matrix
	Renderer   display.Renderer
	Decoder    *comm.Decoder
	Dispatcher *dispatch.Dispatcher
	Sampler    *sensory.Sampler
	Encoder    *sensory.Encoder
	// PollTimeout bounds the transport read of each iteration.
	PollTimeout time.Duration

	interval time.Duration
	samples  []sensory.Sample
	caps     []byte
	stats    Stats
	snapshot atomic.Pointer[Stats]
}

// NewBridge creates a Bridge. The pins in the table are set up on drv.
func NewBridge(conf *DeviceConfig, drv gpio.Driver, transport comm.Transport) (*Bridge, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	table, err := conf.Table()
	if err != nil {
		return nil, err
	}
	if err := gpio.Setup(drv, table); err != nil {
		return nil, err
	}
	b := &Bridge{
		Config:      conf,
		Table:       table,
		Driver:      drv,
		Transport:   transport,
		Matrix:      &display.Matrix{},
		Renderer:    &display.LogRenderer{},
		Sampler:     sensory.NewSampler(table, drv),
		Encoder:     &sensory.Encoder{Device: conf.DeviceID},
		PollTimeout: comm.DefaultPollTimeout,
		caps:        conf.Capabilities(table).Encode(),
	}
	b.Dispatcher = dispatch.NewWithQueueSize(table, drv, b.Matrix, conf.CommandQueue)
	b.Dispatcher.Capabilities = b.Capabilities
	b.Decoder = comm.NewDecoder(conf.ReceiveBuffer, b.Dispatcher)
	b.snapshot.Store(&Stats{})
	return b, nil
}

// Capabilities returns the encoded capabilities reply.
func (b *Bridge) Capabilities() []byte {
	return b.caps
}

// AddToLoop implements fx.LoopAdder.
func (b *Bridge) AddToLoop(loop *fx.Loop) {
	b.interval = loop.Interval
	loop.AddController(fx.PrLvSense, fx.ControlFunc(b.Sense))
	loop.AddController(fx.PrLvEmit, fx.ControlFunc(b.Emit))
	loop.AddController(fx.PrLvReceive, fx.ControlFunc(b.Receive))
	loop.AddController(fx.PrLvActuate, fx.ControlFunc(b.Actuate))
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(b.PostProc))
	if t, ok := b.Transport.(comm.SendTimeouter); ok && loop.Interval > 0 {
		t.SetSendTimeout(sendTimeout(loop.Interval))
	}
	if r, ok := b.Transport.(fx.Runnable); ok {
		loop.AddRunnable(r)
	}
}

// sendTimeout leaves half of the period to the poll, split between the
// two messages Emit may send.
func sendTimeout(interval time.Duration) time.Duration {
	return interval / 4
}

// ShowBanner shows the boot banner on the display.
func (b *Bridge) ShowBanner(ctx context.Context) error {
	return display.ShowText(ctx, b.Matrix, b.Renderer, display.Banner, BannerDuration)
}

// Stats returns the snapshot taken at the end of the last iteration.
// It is safe to call from any goroutine.
func (b *Bridge) Stats() Stats {
	return *b.snapshot.Load()
}

// Sense samples the input pins.
func (b *Bridge) Sense(fx.ControlContext) error {
	var err error
	b.samples, err = b.Sampler.Sample(b.samples[:0])
	b.stats.SampleErrors = b.Sampler.Errors()
	if err != nil {
		glog.V(2).Infof("sample: %v", err)
	}
	return nil
}

// Emit sends the sensory packet of this iteration, followed by a
// pending reply.
func (b *Bridge) Emit(cc fx.ControlContext) error {
	if pkt := b.encode(cc.Frame()); pkt != nil {
		b.send(pkt)
	}
	if reply, ok := b.Dispatcher.Replies.Take(); ok {
		b.send(reply)
	}
	return nil
}

// Receive reads from the transport and decodes complete frames into
// the command queue.
func (b *Bridge) Receive(cc fx.ControlContext) error {
	if b.Transport == nil {
		return nil
	}
	pkt, err := b.Transport.Poll(b.pollTimeout(cc))
	if err != nil {
		b.stats.PollErrors++
		glog.V(2).Infof("poll: %v", err)
		return nil
	}
	if len(pkt) > 0 {
		b.stats.Received += uint64(len(pkt))
		b.Decoder.Ingest(pkt)
	}
	return nil
}

// Actuate applies the queued commands and refreshes the display.
func (b *Bridge) Actuate(fx.ControlContext) error {
	b.Dispatcher.DispatchPending()
	if b.Matrix.TakeDirty() && b.Renderer != nil {
		return b.Renderer.Render(b.Matrix.Frame())
	}
	return nil
}

// PostProc publishes the counters.
func (b *Bridge) PostProc(fx.ControlContext) error {
	stats := b.stats
	stats.Decoder = b.Decoder.Stats()
	stats.Dispatch = b.Dispatcher.Stats()
	b.snapshot.Store(&stats)
	return nil
}

func (b *Bridge) encode(frame uint64) []byte {
	if b.Config.Format != FormatProto {
		return b.Encoder.Encode(b.samples, frame)
	}
	pkt, err := sensory.EncodeProto(b.samples, frame, b.Encoder.Device, sensory.MaxPacketSize)
	if err != nil {
		glog.Warningf("encode: %v", err)
		return nil
	}
	return pkt
}

func (b *Bridge) send(msg []byte) {
	if b.Transport == nil {
		return
	}
	err := b.Transport.Send(msg)
	switch {
	case err == nil:
		b.stats.Sent++
	case errors.Is(err, comm.ErrNotConnected):
	default:
		b.stats.SendErrors++
		glog.V(1).Infof("send: %v", err)
	}
}

// pollTimeout keeps the read within half of the period so the
// iteration doesn't overrun while waiting for data.
func (b *Bridge) pollTimeout(cc fx.ControlContext) time.Duration {
	timeout := b.PollTimeout
	if b.interval > 0 {
		if remains := b.interval/2 - time.Since(cc.Time()); remains < timeout {
			timeout = remains
		}
	}
	if timeout < 0 {
		timeout = 0
	}
	return timeout
}
