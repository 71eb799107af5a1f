// Package motor exposes the device commands in the shell.
package motor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/neurobridge/pkg/cli/sh"
	"github.com/robotalks/neurobridge/pkg/display"
	"github.com/robotalks/neurobridge/pkg/l0/comm"
	"github.com/robotalks/neurobridge/pkg/sensory"
)

// ParsePin parses a pin number.
func ParsePin(s string) (uint8, error) {
	pin, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("Invalid PIN: %v", err)
	}
	return uint8(pin), nil
}

// ParseLevel parses a digital level: 1/0, on/off, high/low.
func ParseLevel(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "on", "high", "true":
		return true, nil
	case "0", "off", "low", "false":
		return false, nil
	}
	return false, fmt.Errorf("Invalid LEVEL: %q", s)
}

// ParseDuty parses a duty cycle, either raw 0-255 or a percentage.
func ParseDuty(s string) (uint8, error) {
	if pct := strings.TrimSuffix(s, "%"); pct != s {
		val, err := strconv.ParseFloat(pct, 64)
		if err != nil || val < 0 || val > 100 {
			return 0, fmt.Errorf("Invalid DUTY: %q", s)
		}
		return uint8(val*255/100 + 0.5), nil
	}
	val, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("Invalid DUTY: %v", err)
	}
	return uint8(val), nil
}

// ParseCoords parses X,Y pairs.
func ParseCoords(args []string) ([]comm.Coord, error) {
	if len(args) > comm.MaxCoordinates {
		return nil, comm.ErrTooManyCoordinates
	}
	coords := make([]comm.Coord, 0, len(args))
	for _, arg := range args {
		xy := strings.SplitN(arg, ",", 2)
		if len(xy) != 2 {
			return nil, fmt.Errorf("Invalid X,Y: %q", arg)
		}
		x, errX := strconv.ParseUint(xy[0], 10, 8)
		y, errY := strconv.ParseUint(xy[1], 10, 8)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("Invalid X,Y: %q", arg)
		}
		coords = append(coords, comm.Coord{X: uint8(x), Y: uint8(y)})
	}
	return coords, nil
}

// ParseMatrix parses the display content in one of the forms:
// a single glyph character, five rows of '#' and '.', or 25
// brightness values.
func ParseMatrix(args []string) (data [comm.MatrixSize]byte, err error) {
	switch {
	case len(args) == 1 && len([]rune(args[0])) == 1:
		glyph, ok := display.Glyph([]rune(args[0])[0])
		if !ok {
			return data, fmt.Errorf("Unknown glyph %q", args[0])
		}
		return glyph, nil
	case len(args) == comm.MatrixWidth:
		for y, row := range args {
			if len(row) != comm.MatrixWidth {
				return data, fmt.Errorf("Invalid row %q", row)
			}
			for x, c := range row {
				switch c {
				case '#':
					data[y*comm.MatrixWidth+x] = display.Full
				case '.':
				default:
					return data, fmt.Errorf("Invalid row %q", row)
				}
			}
		}
		return data, nil
	case len(args) == comm.MatrixSize:
		for n, arg := range args {
			val, err := strconv.ParseUint(arg, 10, 8)
			if err != nil {
				return data, fmt.Errorf("Invalid brightness %q", arg)
			}
			data[n] = byte(val)
		}
		return data, nil
	}
	return data, fmt.Errorf("GLYPH, 5 ROWS or 25 VALUES required")
}

var (
	// SetGpioCmd exposes SetGpio command.
	SetGpioCmd = ishell.Cmd{
		Name:    "gpio",
		Aliases: []string{"g"},
		Help:    "PIN 0|1",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("PIN and LEVEL required"))
				return
			}
			pin, err := ParsePin(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			level, err := ParseLevel(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, comm.SetGpio{Pin: pin, Value: level})
		}),
	}

	// SetPwmCmd exposes SetPwm command.
	SetPwmCmd = ishell.Cmd{
		Name:    "pwm",
		Aliases: []string{"p"},
		Help:    "PIN DUTY(0-255 or N%)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("PIN and DUTY required"))
				return
			}
			pin, err := ParsePin(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			duty, err := ParseDuty(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, comm.SetPwm{Pin: pin, Duty: duty})
		}),
	}

	// SetLedMatrixCmd exposes SetLedMatrix command.
	SetLedMatrixCmd = ishell.Cmd{
		Name:    "matrix",
		Aliases: []string{"m"},
		Help:    "GLYPH | ROW1..ROW5 | V1..V25",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			data, err := ParseMatrix(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, comm.SetLedMatrix{Data: data})
		}),
	}

	// NeuronFiringCmd exposes NeuronFiring command.
	NeuronFiringCmd = ishell.Cmd{
		Name:    "fire",
		Aliases: []string{"f"},
		Help:    "X,Y ...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			coords, err := ParseCoords(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, comm.NeuronFiring{Coordinates: coords})
		}),
	}

	// CapabilitiesCmd exposes GetCapabilities command.
	CapabilitiesCmd = ishell.Cmd{
		Name:    "caps",
		Aliases: []string{"i"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, comm.GetCapabilities{})
		}),
	}

	// WatchCmd prints sensory packets.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[COUNT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			count := 10
			if len(c.Args) > 0 {
				val, err := strconv.Atoi(c.Args[0])
				if err != nil || val <= 0 {
					c.Err(fmt.Errorf("Invalid COUNT: %q", c.Args[0]))
					return
				}
				count = val
			}
			s := sh.ShellFrom(c)
			events := s.Conn.Client.EventChan()
			for n := 0; n < count; n++ {
				select {
				case msg := <-events:
					if s.OutputJSON {
						c.Println(string(msg))
						continue
					}
					pkt, err := sensory.DecodePacket(msg)
					if err != nil {
						c.Err(err)
						return
					}
					c.Println(FormatPacket(pkt))
				case <-time.After(sh.ReplyTimeout):
					c.Err(fmt.Errorf("no sensory data"))
					return
				}
			}
		}),
	}
)

// FormatPacket prints a sensory packet on one line.
func FormatPacket(pkt *sensory.Packet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s #%d", pkt.Device, pkt.Frame)
	for _, item := range pkt.Data {
		fmt.Fprintf(&sb, " %d=%d", item[0], item[1])
	}
	return sb.String()
}

func init() {
	sh.AddCmds(
		&SetGpioCmd,
		&SetPwmCmd,
		&SetLedMatrixCmd,
		&NeuronFiringCmd,
		&CapabilitiesCmd,
		&WatchCmd,
	)
}
