package gpio

import (
	"fmt"
	"sort"
)

// Handle is the physical resource behind a logical pin.
type Handle struct {
	Port uint8
	Line uint8
}

// String implements fmt.Stringer.
func (h Handle) String() string {
	return fmt.Sprintf("P%d.%02d", h.Port, h.Line)
}

// PinInfo describes a pin in a board catalogue.
type PinInfo struct {
	Handle Handle
	Caps   Caps
}

// Board is the pin catalogue of a device model.
type Board struct {
	Model string
	// AnalogMax is the full-scale reading of the analog inputs.
	AnalogMax uint16

	pins map[uint32]PinInfo
}

// Board models.
const (
	ModelMicrobitV2    = "microbit-v2"
	ModelESP32DevKitV1 = "esp32-devkit-v1"
	ModelRaspberryPi   = "raspberrypi"
)

var boards = map[string]*Board{
	ModelMicrobitV2: {
		Model:     ModelMicrobitV2,
		AnalogMax: 1023,
		pins: map[uint32]PinInfo{
			0:  {Handle{0, 2}, CapDigital | CapPwm | CapAnalogIn},
			1:  {Handle{0, 3}, CapDigital | CapPwm | CapAnalogIn},
			2:  {Handle{0, 4}, CapDigital | CapPwm | CapAnalogIn},
			8:  {Handle{0, 10}, CapDigital | CapPwm},
			13: {Handle{0, 17}, CapDigital | CapPwm},
			14: {Handle{0, 1}, CapDigital | CapPwm},
			15: {Handle{0, 13}, CapDigital | CapPwm},
			16: {Handle{1, 2}, CapDigital | CapPwm},
		},
	},
	ModelESP32DevKitV1: esp32DevKitV1(),
	ModelRaspberryPi:   raspberryPi(),
}

func esp32DevKitV1() *Board {
	b := &Board{Model: ModelESP32DevKitV1, AnalogMax: 4095, pins: make(map[uint32]PinInfo)}
	for _, n := range []uint8{0, 2, 4, 5, 12, 13, 14, 15, 16, 17, 18, 19, 21, 22, 23, 25, 26, 27, 32, 33} {
		b.pins[uint32(n)] = PinInfo{Handle{0, n}, CapDigital | CapPwm}
	}
	// ADC channels.
	for _, n := range []uint32{0, 2, 4, 12, 13, 14, 15, 25, 26, 27, 32, 33} {
		info := b.pins[n]
		info.Caps |= CapAnalogIn
		b.pins[n] = info
	}
	// Input only.
	for _, n := range []uint8{34, 35, 36, 39} {
		b.pins[uint32(n)] = PinInfo{Handle{0, n}, CapDigitalIn | CapAnalogIn}
	}
	return b
}

func raspberryPi() *Board {
	b := &Board{Model: ModelRaspberryPi, pins: make(map[uint32]PinInfo)}
	for n := uint8(2); n <= 27; n++ {
		caps := CapDigital
		switch n {
		case 12, 13, 18, 19:
			caps |= CapPwm
		}
		b.pins[uint32(n)] = PinInfo{Handle{0, n}, caps}
	}
	return b
}

// LookupBoard finds the catalogue of a board model.
func LookupBoard(model string) (*Board, error) {
	if b, ok := boards[model]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBoard, model)
}

// Models lists the supported board models.
func Models() []string {
	models := make([]string, 0, len(boards))
	for model := range boards {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// Handle translates a logical pin number into its physical resource.
// Pins outside the catalogue are not addressable.
func (b *Board) Handle(pin uint32) (Handle, bool) {
	info, ok := b.pins[pin]
	return info.Handle, ok
}

// Pin returns the catalogue entry of a pin.
func (b *Board) Pin(pin uint32) (PinInfo, bool) {
	info, ok := b.pins[pin]
	return info, ok
}

// Pins lists the logical pin numbers in ascending order.
func (b *Board) Pins() []uint32 {
	pins := make([]uint32, 0, len(b.pins))
	for pin := range b.pins {
		pins = append(pins, pin)
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i] < pins[j] })
	return pins
}
