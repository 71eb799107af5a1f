package sensory

import (
	"encoding/json"

	"github.com/robotalks/neurobridge/pkg/gpio"
)

// SensorFlags lists the sensor categories present on the device.
type SensorFlags struct {
	Accel   bool `yaml:"accel" json:"accel"`
	Mag     bool `yaml:"mag" json:"mag"`
	Temp    bool `yaml:"temp" json:"temp"`
	Buttons bool `yaml:"buttons" json:"buttons"`
}

// GPIOCounts counts configured pins.
type GPIOCounts struct {
	Digital       int `json:"digital"`
	Analog        int `json:"analog"`
	Pwm           int `json:"pwm"`
	DigitalInput  int `json:"digital_input"`
	DigitalOutput int `json:"digital_output"`
}

// DisplayCaps describes the display.
type DisplayCaps struct {
	Matrix bool `json:"matrix"`
}

// Capabilities is the reply to GetCapabilities.
type Capabilities struct {
	Sensors SensorFlags `json:"sensors"`
	GPIO    GPIOCounts  `json:"gpio"`
	Display DisplayCaps `json:"display"`
}

// NewCapabilities summarizes the device configuration.
func NewCapabilities(sensors SensorFlags, table *gpio.Table, matrix bool) *Capabilities {
	c := &Capabilities{Sensors: sensors, Display: DisplayCaps{Matrix: matrix}}
	if table != nil {
		c.GPIO.DigitalInput = table.Count(gpio.DigitalInput)
		c.GPIO.DigitalOutput = table.Count(gpio.DigitalOutput)
		c.GPIO.Digital = c.GPIO.DigitalInput + c.GPIO.DigitalOutput
		c.GPIO.Analog = table.Count(gpio.AnalogInput)
		c.GPIO.Pwm = table.Count(gpio.PwmOutput)
	}
	return c
}

// Encode returns the newline-terminated JSON reply.
func (c *Capabilities) Encode() []byte {
	b, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	return append(b, '\n')
}

// DecodeCapabilities parses a capabilities reply.
func DecodeCapabilities(b []byte) (*Capabilities, error) {
	var c Capabilities
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
