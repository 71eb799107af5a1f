package comm

import (
	"io"
)

// FrameHeaderSize is the size of command id and payload length.
const FrameHeaderSize = 2

// Frame is the wire representation of a command.
type Frame struct {
	ID      CommandID
	Payload []byte
}

// NewFrame encodes a command into a Frame.
func NewFrame(cmd Command) (*Frame, error) {
	payload, err := cmd.AppendPayload(nil)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0xff {
		return nil, ErrPayloadTooLarge
	}
	return &Frame{ID: cmd.ID(), Payload: payload}, nil
}

// Size returns the number of bytes on the wire.
func (f *Frame) Size() int {
	return FrameHeaderSize + len(f.Payload)
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	b := make([]byte, f.Size())
	b[0], b[1] = byte(f.ID), byte(len(f.Payload))
	copy(b[FrameHeaderSize:], f.Payload)
	return b
}

// WriteTo implements io.WriterTo.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// Command decodes the frame.
func (f *Frame) Command() (Command, error) {
	return DecodeCommand(f.ID, f.Payload)
}

// MarshalFrame encodes a command into wire bytes.
func MarshalFrame(cmd Command) ([]byte, error) {
	f, err := NewFrame(cmd)
	if err != nil {
		return nil, err
	}
	return f.Bytes(), nil
}

// WriteFrame encodes a command and writes it in one Write call.
func WriteFrame(w io.Writer, cmd Command) error {
	f, err := NewFrame(cmd)
	if err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
