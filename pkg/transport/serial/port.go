// Package serial carries the protocol over a UART or USB CDC port.
package serial

import (
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/robotalks/neurobridge/pkg/l0/comm"
)

// DefaultBaudRate is the baud rate used by the firmware.
const DefaultBaudRate = 115200

// Port implements comm.Transport on a serial port. Poll reads the port
// directly with a bounded timeout.
type Port struct {
	port    serial.Port
	buf     []byte
	timeout time.Duration
	lock    sync.Mutex
}

// Open opens the named port.
func Open(name string, baudRate int) (*Port, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, err
	}
	return &Port{port: port, buf: make([]byte, comm.MaxAccumulatorCapacity)}, nil
}

// OpenStream opens the named port as a plain stream, for the brain side.
func OpenStream(name string, baudRate int) (io.ReadWriteCloser, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	return serial.Open(name, &serial.Mode{BaudRate: baudRate})
}

// Ports lists the serial ports of the host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

// Poll implements comm.Poller. The returned bytes are only valid until
// the next Poll.
func (p *Port) Poll(timeout time.Duration) ([]byte, error) {
	if timeout != p.timeout {
		if err := p.port.SetReadTimeout(timeout); err != nil {
			return nil, err
		}
		p.timeout = timeout
	}
	n, err := p.port.Read(p.buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return p.buf[:n], nil
}

// Send implements comm.Sender.
func (p *Port) Send(b []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	_, err := p.port.Write(b)
	return err
}

// Close implements io.Closer.
func (p *Port) Close() error {
	return p.port.Close()
}
