package controller

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/neurobridge/pkg/framework"
	"github.com/robotalks/neurobridge/pkg/gpio"
	"github.com/robotalks/neurobridge/pkg/l0/comm"
	"github.com/robotalks/neurobridge/pkg/sensory"
)

type fakeTransport struct {
	in          [][]byte
	sent        [][]byte
	sendErr     error
	sendTimeout time.Duration
}

func (t *fakeTransport) SetSendTimeout(timeout time.Duration) {
	t.sendTimeout = timeout
}

func (t *fakeTransport) Poll(time.Duration) ([]byte, error) {
	if len(t.in) == 0 {
		return nil, nil
	}
	pkt := t.in[0]
	t.in = t.in[1:]
	return pkt, nil
}

func (t *fakeTransport) Send(b []byte) error {
	if t.sendErr != nil {
		return t.sendErr
	}
	t.sent = append(t.sent, append([]byte(nil), b...))
	return nil
}

func (t *fakeTransport) Close() error {
	return nil
}

func testDeviceConfig() *DeviceConfig {
	conf := DefaultDeviceConfig()
	conf.DeviceID = "dev1"
	conf.Display.Matrix = true
	conf.GPIO = []gpio.PinConfig{
		{Pin: 2, Mode: gpio.DigitalOutput, CorticalMapping: "opu:2"},
		{Pin: 4, Mode: gpio.DigitalInput, CorticalMapping: "ipu:4"},
		{Pin: 5, Mode: gpio.PwmOutput},
		{Pin: 34, Mode: gpio.AnalogInput, CorticalMapping: "7"},
	}
	return conf
}

func handle(t *testing.T, b *Bridge, pin uint32) gpio.Handle {
	entry, ok := b.Table.Lookup(pin)
	require.True(t, ok)
	return entry.Handle
}

func marshalFrames(t *testing.T, cmds ...comm.Command) []byte {
	var out []byte
	for _, cmd := range cmds {
		b, err := comm.MarshalFrame(cmd)
		require.NoError(t, err)
		out = append(out, b...)
	}
	return out
}

func TestBridgeIteration(t *testing.T) {
	mem := gpio.NewMemory()
	ft := &fakeTransport{}
	b, err := NewBridge(testDeviceConfig(), mem, ft)
	require.NoError(t, err)
	mode, ok := mem.ModeOf(handle(t, b, 34))
	require.True(t, ok)
	require.Equal(t, gpio.AnalogInput, mode)

	loop := fx.NewLoop()
	loop.Add(b)

	mem.SetLevel(handle(t, b, 4), true)
	mem.SetAnalog(handle(t, b, 34), 300)
	stream := marshalFrames(t,
		comm.GetCapabilities{},
		comm.SetGpio{Pin: 2, Value: true},
		comm.SetPwm{Pin: 5, Duty: 128},
		comm.SetGpio{Pin: 4, Value: true},
		comm.NeuronFiring{Coordinates: []comm.Coord{{X: 1, Y: 1}}},
	)
	// split across two reads
	ft.in = [][]byte{stream[:7], stream[7:]}

	ctx := context.Background()
	loop.Step(ctx)
	require.Len(t, ft.sent, 1)
	pkt, err := sensory.DecodePacket(ft.sent[0])
	require.NoError(t, err)
	require.Equal(t, &sensory.Packet{Data: [][2]uint32{{4, 1}, {7, 0}}, Device: "dev1", Frame: 0}, pkt)
	require.Equal(t, 1, b.Decoder.Buffered())

	loop.Step(ctx)
	require.True(t, mem.Level(handle(t, b, 2)))
	require.Equal(t, uint8(128), mem.Duty(handle(t, b, 5)))
	require.True(t, b.Matrix.Frame().Lit(1, 1))
	require.Equal(t, 1, b.Matrix.Frame().Count())
	require.Len(t, ft.sent, 3)
	caps, err := sensory.DecodeCapabilities(ft.sent[2])
	require.NoError(t, err)
	require.Equal(t, 1, caps.GPIO.DigitalInput)
	require.Equal(t, 1, caps.GPIO.DigitalOutput)
	require.Equal(t, 1, caps.GPIO.Analog)
	require.Equal(t, 1, caps.GPIO.Pwm)
	require.True(t, bytes.HasSuffix(ft.sent[2], []byte("\n")))

	loop.Step(ctx)
	require.Len(t, ft.sent, 4)
	pkt, err = sensory.DecodePacket(ft.sent[3])
	require.NoError(t, err)
	require.Equal(t, uint64(2), pkt.Frame)

	stats := b.Stats()
	require.Equal(t, uint64(5), stats.Decoder.Commands)
	require.Equal(t, uint64(4), stats.Dispatch.Dispatched)
	require.Equal(t, uint64(1), stats.Dispatch.Unmapped)
	require.Equal(t, uint64(1), stats.Dispatch.Replies)
	require.Equal(t, uint64(4), stats.Sent)
	require.Equal(t, uint64(len(stream)), stats.Received)
	require.Equal(t, uint64(3), loop.Frame())
}

func TestBridgeWithoutBrain(t *testing.T) {
	ft := &fakeTransport{sendErr: comm.ErrNotConnected}
	b, err := NewBridge(testDeviceConfig(), gpio.NewMemory(), ft)
	require.NoError(t, err)
	loop := fx.NewLoop()
	loop.Add(b)
	loop.Step(context.Background())
	stats := b.Stats()
	require.Zero(t, stats.Sent)
	require.Zero(t, stats.SendErrors)
	require.Zero(t, loop.Stats().Errors)
}

func TestBridgeBoundsSendByPeriod(t *testing.T) {
	ft := &fakeTransport{}
	b, err := NewBridge(testDeviceConfig(), gpio.NewMemory(), ft)
	require.NoError(t, err)
	loop := fx.NewLoopWithHz(100)
	loop.Add(b)
	require.Equal(t, 2500*time.Microsecond, ft.sendTimeout)
}

func TestBridgeCountsSendTimeout(t *testing.T) {
	ft := &fakeTransport{sendErr: comm.ErrSendTimeout}
	b, err := NewBridge(testDeviceConfig(), gpio.NewMemory(), ft)
	require.NoError(t, err)
	loop := fx.NewLoop()
	loop.Add(b)
	loop.Step(context.Background())
	stats := b.Stats()
	require.Zero(t, stats.Sent)
	require.Equal(t, uint64(1), stats.SendErrors)
	require.Zero(t, loop.Stats().Errors)
}

func TestBridgeProtoFormat(t *testing.T) {
	conf := testDeviceConfig()
	conf.Format = FormatProto
	mem := gpio.NewMemory()
	ft := &fakeTransport{}
	b, err := NewBridge(conf, mem, ft)
	require.NoError(t, err)
	mem.SetAnalog(handle(t, b, 34), 4095)
	loop := fx.NewLoop()
	loop.Add(b)
	loop.Step(context.Background())
	require.Len(t, ft.sent, 1)
	frame, err := sensory.DecodeProto(ft.sent[0])
	require.NoError(t, err)
	require.Equal(t, "dev1", frame.Device)
	require.Len(t, frame.Neurons, 2)
	require.Equal(t, uint32(7), frame.Neurons[1].Id)
	require.True(t, frame.Neurons[1].Fired)
}

func TestNewBridgeRejectsBadPins(t *testing.T) {
	conf := testDeviceConfig()
	conf.GPIO = append(conf.GPIO, gpio.PinConfig{Pin: 99, Mode: gpio.DigitalInput})
	_, err := NewBridge(conf, gpio.NewMemory(), &fakeTransport{})
	require.ErrorIs(t, err, gpio.ErrUnknownPin)
}
