package controller

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/robotalks/neurobridge/pkg/env"
	fx "github.com/robotalks/neurobridge/pkg/framework"
	"github.com/robotalks/neurobridge/pkg/gpio"
	"github.com/robotalks/neurobridge/pkg/gpio/rpio"
	"github.com/robotalks/neurobridge/pkg/l0/comm"
	"github.com/robotalks/neurobridge/pkg/transport/mqtt"
	"github.com/robotalks/neurobridge/pkg/transport/serial"
	"github.com/robotalks/neurobridge/pkg/transport/stream"
	"github.com/robotalks/neurobridge/pkg/transport/websocket"
)

// Transports.
const (
	TransportSerial    = "serial"
	TransportTCP       = "tcp"
	TransportWebsocket = "websocket"
	TransportMQTT      = "mqtt"
)

// Drivers.
const (
	DriverMemory = "memory"
	DriverRPIO   = "rpio"
)

// Config provides common options to setup an env for the device.
type Config struct {
	// DeviceConfigFile is the YAML/JSON device configuration.
	DeviceConfigFile string
	// DeviceID is used when the device configuration doesn't specify one.
	DeviceID string

	Transport  string
	SerialPort string
	BaudRate   int
	// ListenAddr is the address of tcp and websocket transports.
	ListenAddr string
	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string

	Driver string
	// MetricsAddr serves Prometheus metrics when not empty.
	MetricsAddr string
	Banner      bool
}

var defaultConfig = Config{
	Transport:     TransportTCP,
	SerialPort:    "/dev/ttyUSB0",
	BaudRate:      serial.DefaultBaudRate,
	ListenAddr:    ":9030",
	MQTTBrokerURL: "mqtt://localhost:1883/feagi/",
	Driver:        DriverMemory,
	Banner:        true,
}

func init() {
	if val := os.Getenv("NEUROBRIDGE_CONFIG"); val != "" {
		defaultConfig.DeviceConfigFile = val
	}
	if val := os.Getenv("NEUROBRIDGE_TRANSPORT"); val != "" {
		defaultConfig.Transport = val
	}
	if val := os.Getenv("NEUROBRIDGE_SERIAL_PORT"); val != "" {
		defaultConfig.SerialPort = val
	}
	if val := os.Getenv("NEUROBRIDGE_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("NEUROBRIDGE_DEVICE_ID"); val != "" {
		defaultConfig.DeviceID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.DeviceConfigFile, "config", defaultConfig.DeviceConfigFile, "Device configuration file")
	flag.StringVar(&defaultConfig.DeviceID, "id", defaultConfig.DeviceID, "Device ID, default derived from machine id")
	flag.StringVar(&defaultConfig.Transport, "transport", defaultConfig.Transport, "Transport: serial, tcp, websocket, mqtt")
	flag.StringVar(&defaultConfig.SerialPort, "serial", defaultConfig.SerialPort, "Serial port")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate")
	flag.StringVar(&defaultConfig.ListenAddr, "listen", defaultConfig.ListenAddr, "Listen address of tcp/websocket transport")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.Driver, "driver", defaultConfig.Driver, "GPIO driver: memory, rpio")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics", defaultConfig.MetricsAddr, "Serve Prometheus metrics on address")
	flag.BoolVar(&defaultConfig.Banner, "banner", defaultConfig.Banner, "Show boot banner")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env is the assembled device.
type Env struct {
	Config *Config
	Device *DeviceConfig
	Bridge *Bridge

	closers []io.Closer
}

// LoadDevice loads the device configuration and fills in the device id.
func (c *Config) LoadDevice() (*DeviceConfig, error) {
	dev := DefaultDeviceConfig()
	if c.DeviceConfigFile != "" {
		var err error
		if dev, err = LoadDeviceConfig(c.DeviceConfigFile); err != nil {
			return nil, err
		}
	}
	if dev.DeviceID == "" {
		dev.DeviceID = c.DeviceID
	}
	if dev.DeviceID == "" {
		dev.DeviceID = env.DeviceID()
	}
	dev.DeviceID = TruncateDeviceID(dev.DeviceID)
	if dev.Format == FormatProto && !c.messageOriented() {
		return nil, fmt.Errorf("format %s requires a message transport, not %s", FormatProto, c.Transport)
	}
	return dev, nil
}

// NewDriver opens the GPIO driver.
func (c *Config) NewDriver() (gpio.Driver, io.Closer, error) {
	switch c.Driver {
	case DriverMemory:
		return gpio.NewMemory(), nil, nil
	case DriverRPIO:
		drv, err := rpio.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("open rpio: %w", err)
		}
		return drv, drv, nil
	default:
		return nil, nil, fmt.Errorf("unknown driver %q", c.Driver)
	}
}

// NewTransport opens the transport to the brain.
func (c *Config) NewTransport(dev *DeviceConfig) (comm.Transport, error) {
	switch c.Transport {
	case TransportSerial:
		port, err := serial.Open(c.SerialPort, c.BaudRate)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", c.SerialPort, err)
		}
		return port, nil
	case TransportTCP:
		return stream.NewServer(c.ListenAddr), nil
	case TransportWebsocket:
		return websocket.NewServer(c.ListenAddr), nil
	case TransportMQTT:
		link, err := mqtt.NewLink(c.MQTTBrokerURL, dev.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("create MQTT link error: %w", err)
		}
		return link, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", c.Transport)
	}
}

func (c *Config) messageOriented() bool {
	return c.Transport == TransportMQTT || c.Transport == TransportWebsocket
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	dev, err := c.LoadDevice()
	if err != nil {
		return nil, err
	}
	e := &Env{Config: c, Device: dev}
	drv, closer, err := c.NewDriver()
	if err != nil {
		return nil, err
	}
	if closer != nil {
		e.closers = append(e.closers, closer)
	}
	transport, err := c.NewTransport(dev)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.closers = append(e.closers, transport)
	if e.Bridge, err = NewBridge(dev, drv, transport); err != nil {
		e.Close()
		return nil, err
	}
	if link, ok := transport.(*mqtt.Link); ok {
		link.Meta = e.Bridge.Capabilities()
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// AddToLoop adds the bridge to the loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Bridge)
}

// Close releases the transport and the driver.
func (e *Env) Close() error {
	var errs fx.AggregatedError
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs.Add(e.closers[i].Close())
	}
	e.closers = nil
	return errs.Aggregate()
}
