package comm

import (
	"fmt"
)

// CommandID identifies the command carried by a frame.
type CommandID byte

// Known command ids.
const (
	CmdNeuronFiring    CommandID = 0x01
	CmdSetGpio         CommandID = 0x02
	CmdSetPwm          CommandID = 0x03
	CmdSetLedMatrix    CommandID = 0x04
	CmdGetCapabilities CommandID = 0x05
)

const (
	// MatrixSize is the number of pixels on the 5x5 display.
	MatrixSize = 25
	// MatrixWidth is the number of columns (and rows) of the display.
	MatrixWidth = 5
	// MaxCoordinates is the max number of coordinates in a NeuronFiring.
	MaxCoordinates = 25
)

var commandNames = map[CommandID]string{
	CmdNeuronFiring:    "NeuronFiring",
	CmdSetGpio:         "SetGpio",
	CmdSetPwm:          "SetPwm",
	CmdSetLedMatrix:    "SetLedMatrix",
	CmdGetCapabilities: "GetCapabilities",
}

// String implements fmt.Stringer.
func (id CommandID) String() string {
	if name, ok := commandNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Command(0x%02x)", byte(id))
}

// IsKnown indicates the id is one of the defined commands.
func (id CommandID) IsKnown() bool {
	_, ok := commandNames[id]
	return ok
}

// Command is a decoded motor command. The set of implementations is
// closed: NeuronFiring, SetGpio, SetPwm, SetLedMatrix and GetCapabilities.
type Command interface {
	// ID returns the wire id of the command.
	ID() CommandID
	// AppendPayload appends the encoded payload to b.
	AppendPayload(b []byte) ([]byte, error)

	command()
}

// Coord addresses a neuron on the 5x5 display grid.
type Coord struct {
	X, Y uint8
}

// NeuronFiring lights the pixels of the fired neurons.
type NeuronFiring struct {
	Coordinates []Coord
}

// SetGpio drives a digital output.
type SetGpio struct {
	Pin   uint8
	Value bool
}

// SetPwm sets the duty cycle of a PWM output.
type SetPwm struct {
	Pin  uint8
	Duty uint8
}

// SetLedMatrix replaces the display with row-major brightness values.
type SetLedMatrix struct {
	Data [MatrixSize]byte
}

// GetCapabilities requests the capabilities reply.
type GetCapabilities struct{}

// ID implements Command.
func (NeuronFiring) ID() CommandID { return CmdNeuronFiring }

// ID implements Command.
func (SetGpio) ID() CommandID { return CmdSetGpio }

// ID implements Command.
func (SetPwm) ID() CommandID { return CmdSetPwm }

// ID implements Command.
func (SetLedMatrix) ID() CommandID { return CmdSetLedMatrix }

// ID implements Command.
func (GetCapabilities) ID() CommandID { return CmdGetCapabilities }

func (NeuronFiring) command()    {}
func (SetGpio) command()         {}
func (SetPwm) command()          {}
func (SetLedMatrix) command()    {}
func (GetCapabilities) command() {}

// AppendPayload implements Command.
func (c NeuronFiring) AppendPayload(b []byte) ([]byte, error) {
	if len(c.Coordinates) > MaxCoordinates {
		return b, ErrTooManyCoordinates
	}
	b = append(b, byte(len(c.Coordinates)))
	for _, xy := range c.Coordinates {
		b = append(b, xy.X, xy.Y)
	}
	return b, nil
}

// AppendPayload implements Command.
func (c SetGpio) AppendPayload(b []byte) ([]byte, error) {
	var v byte
	if c.Value {
		v = 1
	}
	return append(b, c.Pin, v), nil
}

// AppendPayload implements Command.
func (c SetPwm) AppendPayload(b []byte) ([]byte, error) {
	return append(b, c.Pin, c.Duty), nil
}

// DutyPercent converts the duty byte into percentage.
func (c SetPwm) DutyPercent() float64 {
	return float64(c.Duty) * 100 / 255
}

// AppendPayload implements Command.
func (c SetLedMatrix) AppendPayload(b []byte) ([]byte, error) {
	return append(b, c.Data[:]...), nil
}

// AppendPayload implements Command.
func (GetCapabilities) AppendPayload(b []byte) ([]byte, error) {
	return b, nil
}

// DecodeCommand converts the payload of a frame into a Command.
// The payload is not retained. ErrUnknownCommand is returned for an
// unrecognized id and *MalformedError for a payload that doesn't fit
// the layout of its command.
//
// GetCapabilities accepts any payload and ignores the bytes.
func DecodeCommand(id CommandID, payload []byte) (Command, error) {
	switch id {
	case CmdNeuronFiring:
		if len(payload) == 0 {
			return nil, &MalformedError{ID: id, Length: len(payload)}
		}
		count := int(payload[0])
		if count > MaxCoordinates || len(payload) != 1+2*count {
			return nil, &MalformedError{ID: id, Length: len(payload)}
		}
		cmd := NeuronFiring{Coordinates: make([]Coord, count)}
		for i := range cmd.Coordinates {
			cmd.Coordinates[i] = Coord{X: payload[1+2*i], Y: payload[2+2*i]}
		}
		return cmd, nil
	case CmdSetGpio:
		if len(payload) != 2 {
			return nil, &MalformedError{ID: id, Length: len(payload)}
		}
		return SetGpio{Pin: payload[0], Value: payload[1] != 0}, nil
	case CmdSetPwm:
		if len(payload) != 2 {
			return nil, &MalformedError{ID: id, Length: len(payload)}
		}
		return SetPwm{Pin: payload[0], Duty: payload[1]}, nil
	case CmdSetLedMatrix:
		if len(payload) != MatrixSize {
			return nil, &MalformedError{ID: id, Length: len(payload)}
		}
		var cmd SetLedMatrix
		copy(cmd.Data[:], payload)
		return cmd, nil
	case CmdGetCapabilities:
		return GetCapabilities{}, nil
	}
	return nil, ErrUnknownCommand
}
