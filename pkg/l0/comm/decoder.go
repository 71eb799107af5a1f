package comm

import (
	"errors"

	"github.com/golang/glog"
)

// CommandHandler receives decoded commands.
type CommandHandler interface {
	HandleCommand(Command)
}

// HandleCommandFunc is the func form of CommandHandler.
type HandleCommandFunc func(Command)

// HandleCommand implements CommandHandler.
func (f HandleCommandFunc) HandleCommand(cmd Command) {
	f(cmd)
}

// DecoderStats counts what the decoder has seen.
type DecoderStats struct {
	// Frames is the number of complete frames extracted.
	Frames uint64
	// Commands is the number of commands handed to the handler.
	Commands uint64
	// Malformed is the number of frames with an invalid payload.
	Malformed uint64
	// Unknown is the number of frames with an unknown command id.
	Unknown uint64
	// Overflows is the number of accumulator resets.
	Overflows uint64
	// BytesDropped is the number of bytes of oversized frames discarded.
	BytesDropped uint64
}

// Decoder extracts frames from a byte stream and decodes them into
// commands. It is not safe for concurrent use; it is owned by the
// control loop.
type Decoder struct {
	Handler CommandHandler

	acc *Accumulator
	// skip is the number of bytes of an oversized frame still to discard.
	skip  int
	stats DecoderStats
}

// NewDecoder creates a Decoder with the accumulator capacity.
func NewDecoder(capacity int, handler CommandHandler) *Decoder {
	return &Decoder{Handler: handler, acc: NewAccumulator(capacity)}
}

// Capacity returns the accumulator capacity.
func (d *Decoder) Capacity() int {
	return d.acc.Cap()
}

// Buffered returns the number of bytes of incomplete frames.
func (d *Decoder) Buffered() int {
	return d.acc.Len()
}

// Stats returns a snapshot of the counters.
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

// Skipping returns the number of bytes of an oversized frame still to
// be discarded before decoding resumes.
func (d *Decoder) Skipping() int {
	return d.skip
}

// Reset clears the accumulator and any pending skip without touching
// the counters.
func (d *Decoder) Reset() {
	d.acc.Reset()
	d.skip = 0
}

// Ingest consumes received bytes. Complete frames are decoded and
// handed to the Handler in arrival order before Ingest returns.
// Partial frames stay buffered for the next call.
//
// When a frame header declares a frame larger than the accumulator,
// the whole declared frame is discarded, including bytes arriving in
// later calls, and decoding resumes at the next frame boundary.
func (d *Decoder) Ingest(p []byte) {
	for len(p) > 0 {
		if d.skip > 0 {
			n := min(d.skip, len(p))
			d.skip -= n
			d.stats.BytesDropped += uint64(n)
			p = p[n:]
			continue
		}
		n := d.acc.Write(p)
		if n == 0 {
			// unreachable after drain, a buffered partial frame always fits.
			d.overflow(d.acc.Len())
			continue
		}
		p = p[n:]
		d.drain()
	}
}

// drain extracts all complete frames. A buffered header declaring a
// frame that can never fit starts skipping it.
func (d *Decoder) drain() {
	for {
		buf := d.acc.Bytes()
		if len(buf) < FrameHeaderSize {
			return
		}
		id := CommandID(buf[0])
		size := frameSize(id, buf[1])
		if size > d.acc.Cap() {
			d.overflow(size)
			return
		}
		if len(buf) < size {
			return
		}
		d.stats.Frames++
		if isCompactFiring(id, buf[1]) {
			d.decodeCompact(buf[1], buf[FrameHeaderSize:size])
		} else {
			d.decode(id, buf[FrameHeaderSize:size])
		}
		d.acc.Consume(size)
	}
}

// frameSize returns the number of bytes the frame occupies.
//
// A NeuronFiring with an even length byte can never carry a valid
// payload (1+2*count is odd). Up to MaxCoordinates, such a frame is
// read in the compact form [0x01][count][x1 y1 ...] sent by older
// brain connectors.
func frameSize(id CommandID, lenOrCount byte) int {
	if isCompactFiring(id, lenOrCount) {
		return FrameHeaderSize + 2*int(lenOrCount)
	}
	return FrameHeaderSize + int(lenOrCount)
}

func isCompactFiring(id CommandID, lenOrCount byte) bool {
	return id == CmdNeuronFiring && lenOrCount%2 == 0 && int(lenOrCount) <= MaxCoordinates
}

func (d *Decoder) decodeCompact(count byte, coords []byte) {
	cmd := NeuronFiring{Coordinates: make([]Coord, count)}
	for i := range cmd.Coordinates {
		cmd.Coordinates[i] = Coord{X: coords[2*i], Y: coords[2*i+1]}
	}
	d.stats.Commands++
	glog.V(4).Infof("decoded compact %s", CmdNeuronFiring)
	if h := d.Handler; h != nil {
		h.HandleCommand(cmd)
	}
}

func (d *Decoder) decode(id CommandID, payload []byte) {
	cmd, err := DecodeCommand(id, payload)
	if err != nil {
		if errors.Is(err, ErrUnknownCommand) {
			d.stats.Unknown++
		} else {
			d.stats.Malformed++
		}
		glog.V(3).Infof("drop frame: %v", err)
		return
	}
	d.stats.Commands++
	glog.V(4).Infof("decoded %s", id)
	if h := d.Handler; h != nil {
		h.HandleCommand(cmd)
	}
}

// overflow drops the buffered bytes of a frame of size bytes and skips
// the rest of it.
func (d *Decoder) overflow(size int) {
	buffered := d.acc.Len()
	d.stats.Overflows++
	d.stats.BytesDropped += uint64(buffered)
	d.skip = size - buffered
	d.acc.Reset()
	glog.Warningf("receive buffer overflow, dropping %d byte frame", size)
}
