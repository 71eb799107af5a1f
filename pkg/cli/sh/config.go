package sh

import (
	"flag"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/robotalks/neurobridge/pkg/transport/mqtt"
	"github.com/robotalks/neurobridge/pkg/transport/serial"
	"github.com/robotalks/neurobridge/pkg/transport/websocket"
)

// Config provides the options to reach a device.
type Config struct {
	// Target is the URL of the device, one of
	//
	//	tcp://host:port
	//	ws://host:port/feagi
	//	serial:///dev/ttyUSB0?baud=115200
	//	mqtt://broker:1883/feagi/?device=ID
	Target string
}

var defaultConfig = Config{
	Target: "tcp://localhost:9030",
}

func init() {
	if val := os.Getenv("NEUROBRIDGE_TARGET"); val != "" {
		defaultConfig.Target = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Target, "target", defaultConfig.Target, "Device URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Dial opens a stream to the target.
func Dial(target string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "tcp":
		return net.Dial("tcp", u.Host)
	case "ws", "wss":
		conn, err := websocket.Dial(target)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case "serial":
		baud, _ := strconv.Atoi(u.Query().Get("baud"))
		return serial.OpenStream(u.Path, baud)
	case "mqtt", "ssl":
		q := u.Query()
		device := q.Get("device")
		if device == "" {
			return nil, fmt.Errorf("device required in %q", target)
		}
		q.Del("device")
		u.RawQuery = q.Encode()
		conn, err := mqtt.DialBrain(u.String(), device)
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("unsupported target %q", target)
	}
}
