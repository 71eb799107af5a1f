package gpio

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPin indicates the pin is not in the board catalogue.
	ErrUnknownPin = errors.New("unknown pin")
	// ErrUnknownBoard indicates the board model is not supported.
	ErrUnknownBoard = errors.New("unknown board")
	// ErrUnsupportedMode indicates the pin can't operate in the mode.
	ErrUnsupportedMode = errors.New("mode not supported by pin")
	// ErrDuplicatePin indicates a pin is configured more than once.
	ErrDuplicatePin = errors.New("duplicate pin")
)

// PinError annotates an error with the pin it relates to.
type PinError struct {
	Pin uint32
	Err error
}

// Error implements error.
func (e *PinError) Error() string {
	return fmt.Sprintf("pin %d: %v", e.Pin, e.Err)
}

// Unwrap supports errors.Is and errors.As.
func (e *PinError) Unwrap() error {
	return e.Err
}
