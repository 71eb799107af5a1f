package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected indicates the peer is not connected.
	ErrNotConnected = errors.New("not connected")
	// ErrNoReply indicates no reply received from peer before timeout.
	ErrNoReply = errors.New("no reply")
	// ErrSendTimeout indicates the peer didn't accept a message in time.
	ErrSendTimeout = errors.New("send timeout")
	// ErrTooManyCoordinates indicates a NeuronFiring carries more
	// coordinates than the display can address.
	ErrTooManyCoordinates = errors.New("too many coordinates")
	// ErrPayloadTooLarge indicates the payload doesn't fit the 1-byte length.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrUnknownCommand indicates the command id is not recognized.
	ErrUnknownCommand = errors.New("unknown command")
)

// MalformedError describes a frame whose payload doesn't match the
// layout of its command.
type MalformedError struct {
	ID     CommandID
	Length int
}

// Error implements error.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s: payload length %d", e.ID, e.Length)
}
