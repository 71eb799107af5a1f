package gpio

import (
	"fmt"
)

// Mode is the configured function of a pin.
type Mode int

// Pin modes.
const (
	Disabled Mode = iota
	DigitalInput
	DigitalOutput
	AnalogInput
	PwmOutput
)

var modeNames = [...]string{
	Disabled:      "disabled",
	DigitalInput:  "digital_input",
	DigitalOutput: "digital_output",
	AnalogInput:   "analog_input",
	PwmOutput:     "pwm_output",
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses the name of a mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return Mode(m), nil
		}
	}
	return Disabled, fmt.Errorf("invalid pin mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// IsInput indicates the mode is sampled as a sensor.
func (m Mode) IsInput() bool {
	return m == DigitalInput || m == AnalogInput
}

// IsOutput indicates the mode is driven by commands.
func (m Mode) IsOutput() bool {
	return m == DigitalOutput || m == PwmOutput
}

// Caps is a set of pin capabilities.
type Caps uint8

// Pin capabilities.
const (
	CapDigitalIn Caps = 1 << iota
	CapDigitalOut
	CapAnalogIn
	CapPwm

	CapDigital = CapDigitalIn | CapDigitalOut
)

// Has checks all capabilities in c are present.
func (c Caps) Has(caps Caps) bool {
	return c&caps == caps
}

// Supports checks the capabilities allow the mode.
func (c Caps) Supports(m Mode) bool {
	switch m {
	case Disabled:
		return true
	case DigitalInput:
		return c.Has(CapDigitalIn)
	case DigitalOutput:
		return c.Has(CapDigitalOut)
	case AnalogInput:
		return c.Has(CapAnalogIn)
	case PwmOutput:
		return c.Has(CapPwm)
	}
	return false
}
