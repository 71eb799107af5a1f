package sensory

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/neurobridge/pkg/gpio"
)

func TestEncode(t *testing.T) {
	testCases := []struct {
		samples []Sample
		frame   uint64
		expect  string
	}{
		{
			nil, 0,
			`{"data":[],"device":"dev","frame":0}` + "\n",
		},
		{
			[]Sample{{1, 1}, {7, 0.5}, {9, 0.51}, {12, 0}},
			42,
			`{"data":[[1,1],[7,0],[9,1],[12,0]],"device":"dev","frame":42}` + "\n",
		},
		{
			[]Sample{{4294967295, 1}},
			math.MaxUint64,
			`{"data":[[4294967295,1]],"device":"dev","frame":18446744073709551615}` + "\n",
		},
	}
	for n, tc := range testCases {
		out := Encode(tc.samples, tc.frame, "dev")
		require.Equalf(t, tc.expect, string(out), "case[%d] packet mismatch", n)
		p, err := DecodePacket(out)
		require.NoError(t, err)
		require.Equalf(t, tc.frame, p.Frame, "case[%d] frame mismatch", n)
		require.Lenf(t, p.Data, len(tc.samples), "case[%d] data length mismatch", n)
	}
}

func TestEncodeEscapesDevice(t *testing.T) {
	out := Encode(nil, 1, `a"b`)
	p, err := DecodePacket(out)
	require.NoError(t, err)
	require.Equal(t, `a"b`, p.Device)
}

func TestEncodeTruncates(t *testing.T) {
	samples := make([]Sample, 200)
	for i := range samples {
		samples[i] = Sample{NeuronID: uint32(100000 + i), Potential: float32(i % 2)}
	}
	out := Encode(samples, 123456789, "FEAGI-microbit")
	require.LessOrEqual(t, len(out), MaxPacketSize)
	require.True(t, bytes.HasSuffix(out, []byte("}\n")))
	require.Equal(t, 1, bytes.Count(out, []byte("\n")))

	p, err := DecodePacket(out)
	require.NoError(t, err)
	require.NotEmpty(t, p.Data)
	require.Less(t, len(p.Data), len(samples))
	for n, item := range p.Data {
		require.Equalf(t, samples[n].NeuronID, item[0], "item[%d] id mismatch", n)
	}
	// Pure: identical input gives identical output.
	require.Equal(t, out, Encode(samples, 123456789, "FEAGI-microbit"))

	enc := &Encoder{Device: "d", MaxSize: 64}
	small := enc.Encode(samples, 1)
	require.LessOrEqual(t, len(small), 64)
	require.True(t, strings.HasPrefix(string(small), `{"data":[[100000,0]`))
}

func TestEncodeRaisesSmallMaxSize(t *testing.T) {
	samples := []Sample{{1, 1}, {2, 0}}
	device := strings.Repeat("x", 100)
	for _, size := range []int{1, 20, MinPacketSize - 1} {
		enc := &Encoder{Device: device, MaxSize: size}
		out := enc.Encode(samples, math.MaxUint64)
		require.LessOrEqualf(t, len(out), MinPacketSize, "size[%d] packet too large", size)
		p, err := DecodePacket(out)
		require.NoErrorf(t, err, "size[%d] decode", size)
		require.Equalf(t, uint64(math.MaxUint64), p.Frame, "size[%d] frame mismatch", size)
		require.Emptyf(t, p.Device, "size[%d] device kept", size)
	}
}

func TestEncodeProto(t *testing.T) {
	samples := []Sample{{1, 0.75}, {2, 0.25}, {3, 1}}
	b, err := EncodeProto(samples, 99, "dev", 0)
	require.NoError(t, err)
	m, err := DecodeProto(b)
	require.NoError(t, err)
	require.Equal(t, "dev", m.Device)
	require.Equal(t, uint64(99), m.Frame)
	require.Equal(t, samples, m.Samples())
	require.True(t, m.Neurons[0].Fired)
	require.False(t, m.Neurons[1].Fired)

	many := make([]Sample, 500)
	for i := range many {
		many[i] = Sample{NeuronID: uint32(i + 1), Potential: 1}
	}
	b, err = EncodeProto(many, 1, "dev", 128)
	require.NoError(t, err)
	require.LessOrEqual(t, len(b), 128)
	m, err = DecodeProto(b)
	require.NoError(t, err)
	require.NotEmpty(t, m.Neurons)
	require.Equal(t, uint32(1), m.Neurons[0].Id)
}

type failingDriver struct {
	*gpio.Memory
	fail gpio.Handle
}

func (d *failingDriver) DigitalRead(h gpio.Handle) (bool, error) {
	if h == d.fail {
		return false, errors.New("bus error")
	}
	return d.Memory.DigitalRead(h)
}

func TestSampler(t *testing.T) {
	board, err := gpio.LookupBoard(gpio.ModelMicrobitV2)
	require.NoError(t, err)
	table, err := gpio.NewTable(board, []gpio.PinConfig{
		{Pin: 0, Mode: gpio.AnalogInput, CorticalMapping: "ipu:10"},
		{Pin: 1, Mode: gpio.DigitalInput, CorticalMapping: "11"},
		{Pin: 2, Mode: gpio.DigitalInput, CorticalMapping: "12"},
		{Pin: 8, Mode: gpio.DigitalInput},
		{Pin: 13, Mode: gpio.DigitalOutput, CorticalMapping: "13"},
	})
	require.NoError(t, err)
	mem := gpio.NewMemory()
	h0, _ := board.Handle(0)
	h1, _ := board.Handle(1)
	h2, _ := board.Handle(2)
	mem.SetAnalog(h0, 1023)
	mem.SetLevel(h1, true)

	s := NewSampler(table, mem)
	samples, err := s.Sample(nil)
	require.NoError(t, err)
	require.Equal(t, []Sample{{10, 1}, {11, 1}, {12, 0}}, samples)

	mem.SetAnalog(h0, 300)
	drv := &failingDriver{Memory: mem, fail: h2}
	s = NewSampler(table, drv)
	samples, err = s.Sample(samples[:0])
	require.Error(t, err)
	require.Len(t, samples, 2)
	require.False(t, samples[0].Fired())
	require.Equal(t, uint64(1), s.Errors())
}

func TestCapabilities(t *testing.T) {
	board, err := gpio.LookupBoard(gpio.ModelMicrobitV2)
	require.NoError(t, err)
	table, err := gpio.NewTable(board, []gpio.PinConfig{
		{Pin: 0, Mode: gpio.AnalogInput},
		{Pin: 1, Mode: gpio.DigitalInput},
		{Pin: 8, Mode: gpio.DigitalOutput},
		{Pin: 13, Mode: gpio.PwmOutput},
		{Pin: 14, Mode: gpio.PwmOutput},
	})
	require.NoError(t, err)
	caps := NewCapabilities(SensorFlags{Accel: true, Buttons: true}, table, true)
	out := caps.Encode()
	require.Equal(t,
		`{"sensors":{"accel":true,"mag":false,"temp":false,"buttons":true},`+
			`"gpio":{"digital":2,"analog":1,"pwm":2,"digital_input":1,"digital_output":1},`+
			`"display":{"matrix":true}}`+"\n",
		string(out))
	decoded, err := DecodeCapabilities(out)
	require.NoError(t, err)
	require.Equal(t, caps, decoded)
}
