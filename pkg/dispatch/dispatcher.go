// Package dispatch applies decoded commands to the device.
package dispatch

import (
	"github.com/golang/glog"

	"github.com/robotalks/neurobridge/pkg/display"
	"github.com/robotalks/neurobridge/pkg/gpio"
	"github.com/robotalks/neurobridge/pkg/l0/comm"
)

// DefaultQueueSize is the number of commands kept between two
// dispatch stages.
const DefaultQueueSize = 8

// Stats counts dispatched commands.
type Stats struct {
	// Dispatched is the number of commands applied.
	Dispatched uint64
	// Unmapped is the number of GPIO commands for pins not configured
	// in the required mode.
	Unmapped uint64
	// Failed is the number of driver errors.
	Failed uint64
	// Dropped is the number of commands dropped on a full queue.
	Dropped uint64
	// Replies is the number of capability replies produced.
	Replies uint64
}

// Dispatcher routes commands to pins, display and reply slot.
// It is owned by the control loop and not safe for concurrent use.
type Dispatcher struct {
	Table   *gpio.Table
	Driver  gpio.Driver
	Display *display.Matrix
	// Replies receives the capabilities reply.
	Replies *comm.Mailbox[[]byte]
	// Capabilities produces the reply to GetCapabilities.
	Capabilities func() []byte

	queue []comm.Command
	limit int
	stats Stats
}

// New creates a Dispatcher with the default queue size.
func New(table *gpio.Table, drv gpio.Driver, matrix *display.Matrix) *Dispatcher {
	return NewWithQueueSize(table, drv, matrix, DefaultQueueSize)
}

// NewWithQueueSize creates a Dispatcher holding at most size pending commands.
func NewWithQueueSize(table *gpio.Table, drv gpio.Driver, matrix *display.Matrix, size int) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Dispatcher{
		Table:   table,
		Driver:  drv,
		Display: matrix,
		Replies: comm.NewMailbox[[]byte](),
		queue:   make([]comm.Command, 0, size),
		limit:   size,
	}
}

// HandleCommand implements comm.CommandHandler by queueing the command
// for the next DispatchPending.
func (d *Dispatcher) HandleCommand(cmd comm.Command) {
	if len(d.queue) >= d.limit {
		d.stats.Dropped++
		glog.V(2).Infof("command queue full, drop %s", cmd.ID())
		return
	}
	d.queue = append(d.queue, cmd)
}

// Pending returns the number of queued commands.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// DispatchPending applies queued commands in arrival order.
func (d *Dispatcher) DispatchPending() int {
	n := len(d.queue)
	for i, cmd := range d.queue {
		d.Dispatch(cmd)
		d.queue[i] = nil
	}
	d.queue = d.queue[:0]
	return n
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return d.stats
}

// Dispatch applies a single command synchronously. Only commands with
// a side effect count as dispatched.
func (d *Dispatcher) Dispatch(cmd comm.Command) {
	if d.apply(cmd) {
		d.stats.Dispatched++
	}
}

func (d *Dispatcher) apply(cmd comm.Command) bool {
	switch c := cmd.(type) {
	case comm.SetGpio:
		h, ok := d.output(uint32(c.Pin), gpio.DigitalOutput)
		if !ok {
			return false
		}
		if err := d.Driver.DigitalWrite(h, c.Value); err != nil {
			d.failed(cmd, err)
			return false
		}
	case comm.SetPwm:
		h, ok := d.output(uint32(c.Pin), gpio.PwmOutput)
		if !ok {
			return false
		}
		if err := d.Driver.PwmWrite(h, c.Duty); err != nil {
			d.failed(cmd, err)
			return false
		}
	case comm.SetLedMatrix:
		if d.Display == nil {
			return false
		}
		d.Display.SetMatrix(c.Data)
	case comm.NeuronFiring:
		if d.Display == nil {
			return false
		}
		d.Display.ShowNeurons(c.Coordinates)
	case comm.GetCapabilities:
		if d.Capabilities == nil {
			return false
		}
		d.stats.Replies++
		if d.Replies.Put(d.Capabilities()) {
			glog.V(2).Info("unsent capabilities reply replaced")
		}
	default:
		return false
	}
	return true
}

func (d *Dispatcher) output(pin uint32, mode gpio.Mode) (gpio.Handle, bool) {
	if d.Table == nil || d.Driver == nil {
		d.stats.Unmapped++
		return gpio.Handle{}, false
	}
	h, ok := d.Table.Output(pin, mode)
	if !ok {
		d.stats.Unmapped++
		glog.V(3).Infof("pin %d not configured as %s", pin, mode)
	}
	return h, ok
}

func (d *Dispatcher) failed(cmd comm.Command, err error) {
	d.stats.Failed++
	glog.Warningf("%s failed: %v", cmd.ID(), err)
}
