// Package rpio drives Raspberry Pi pins through /dev/gpiomem.
package rpio

import (
	"errors"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/robotalks/neurobridge/pkg/gpio"
)

// pwmClock is the PWM clock frequency; with 256 cycles per period the
// output runs at ~37.5kHz.
const pwmClock = 9600000

// ErrNoAnalog indicates the board has no ADC.
var ErrNoAnalog = errors.New("analog input not available")

// Driver implements gpio.Driver using BCM pin numbers, which are the
// handle lines of the raspberrypi board catalogue.
type Driver struct{}

// Open maps the GPIO memory range.
func Open() (*Driver, error) {
	if err := rpio.Open(); err != nil {
		return nil, err
	}
	return &Driver{}, nil
}

// Close implements io.Closer.
func (d *Driver) Close() error {
	return rpio.Close()
}

// Setup implements gpio.Driver.
func (d *Driver) Setup(h gpio.Handle, mode gpio.Mode) error {
	pin := rpio.Pin(h.Line)
	switch mode {
	case gpio.DigitalInput:
		pin.Input()
		pin.PullDown()
	case gpio.DigitalOutput:
		pin.Output()
		pin.Low()
	case gpio.PwmOutput:
		pin.Pwm()
		pin.Freq(pwmClock)
		pin.DutyCycle(0, 255)
	case gpio.AnalogInput:
		return ErrNoAnalog
	}
	return nil
}

// DigitalRead implements gpio.Driver.
func (d *Driver) DigitalRead(h gpio.Handle) (bool, error) {
	return rpio.Pin(h.Line).Read() == rpio.High, nil
}

// AnalogRead implements gpio.Driver.
func (d *Driver) AnalogRead(gpio.Handle) (uint16, error) {
	return 0, ErrNoAnalog
}

// DigitalWrite implements gpio.Driver.
func (d *Driver) DigitalWrite(h gpio.Handle, value bool) error {
	if value {
		rpio.Pin(h.Line).High()
	} else {
		rpio.Pin(h.Line).Low()
	}
	return nil
}

// PwmWrite implements gpio.Driver.
func (d *Driver) PwmWrite(h gpio.Handle, duty uint8) error {
	rpio.Pin(h.Line).DutyCycle(uint32(duty), 255)
	return nil
}
