package controller

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/neurobridge/pkg/dispatch"
	"github.com/robotalks/neurobridge/pkg/gpio"
	"github.com/robotalks/neurobridge/pkg/l0/comm"
	"github.com/robotalks/neurobridge/pkg/sensory"
)

// MaxDeviceIDLen bounds the device id carried in every sensory packet.
const MaxDeviceIDLen = 64

// TruncateDeviceID cuts id to at most MaxDeviceIDLen bytes without
// splitting a UTF-8 sequence.
func TruncateDeviceID(id string) string {
	if len(id) <= MaxDeviceIDLen {
		return id
	}
	n := MaxDeviceIDLen
	for n > 0 && !utf8.RuneStart(id[n]) {
		n--
	}
	return id[:n]
}

// Sensory packet formats.
const (
	FormatJSON  = "json"
	FormatProto = "proto"
)

// DisplayConfig describes the display hardware.
type DisplayConfig struct {
	Matrix bool `yaml:"matrix"`
}

// DeviceConfig is the boot-time configuration of a device. The JSON
// files used by the firmware build load unchanged.
type DeviceConfig struct {
	Model string `yaml:"model"`
	// BurstFrequency is the sampling frequency in Hz.
	BurstFrequency uint                `yaml:"burst_frequency"`
	DeviceID       string              `yaml:"device_id"`
	Sensors        sensory.SensorFlags `yaml:"sensors"`
	Display        DisplayConfig       `yaml:"display"`
	GPIO           []gpio.PinConfig    `yaml:"gpio"`
	// Format is the encoding of sensory packets, json or proto.
	Format string `yaml:"format"`
	// ReceiveBuffer is the accumulator capacity in bytes.
	ReceiveBuffer int `yaml:"receive_buffer"`
	// CommandQueue is the number of commands kept per cycle.
	CommandQueue int `yaml:"command_queue"`
}

// DefaultDeviceConfig returns the configuration used without a file.
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Model:          gpio.ModelESP32DevKitV1,
		BurstFrequency: 100,
		Format:         FormatJSON,
		ReceiveBuffer:  comm.DefaultAccumulatorCapacity,
		CommandQueue:   dispatch.DefaultQueueSize,
	}
}

// LoadDeviceConfig reads a YAML or JSON configuration file on top of
// the defaults.
func LoadDeviceConfig(fn string) (*DeviceConfig, error) {
	content, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	conf, err := ParseDeviceConfig(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return conf, nil
}

// ParseDeviceConfig parses configuration content on top of the defaults.
func ParseDeviceConfig(content []byte) (*DeviceConfig, error) {
	conf := DefaultDeviceConfig()
	if err := yaml.Unmarshal(content, conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks the settings which don't depend on the board.
func (c *DeviceConfig) Validate() error {
	if c.BurstFrequency == 0 || c.BurstFrequency > 1000 {
		return fmt.Errorf("burst_frequency %d out of range 1..1000", c.BurstFrequency)
	}
	if len(c.DeviceID) > MaxDeviceIDLen {
		return fmt.Errorf("device_id longer than %d", MaxDeviceIDLen)
	}
	switch c.Format {
	case "", FormatJSON, FormatProto:
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	if c.ReceiveBuffer < 0 || c.CommandQueue < 0 {
		return errors.New("buffer sizes must not be negative")
	}
	return nil
}

// Table validates the pins against the board catalogue.
func (c *DeviceConfig) Table() (*gpio.Table, error) {
	board, err := gpio.LookupBoard(c.Model)
	if err != nil {
		return nil, err
	}
	return gpio.NewTable(board, c.GPIO)
}

// Capabilities summarizes the device for GetCapabilities.
func (c *DeviceConfig) Capabilities(table *gpio.Table) *sensory.Capabilities {
	return sensory.NewCapabilities(c.Sensors, table, c.Display.Matrix)
}
