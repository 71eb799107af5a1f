package comm

// Accumulator capacity bounds.
const (
	MinAccumulatorCapacity     = 256
	MaxAccumulatorCapacity     = 512
	DefaultAccumulatorCapacity = MinAccumulatorCapacity
)

// Accumulator is a fixed-capacity FIFO of received bytes.
// It never grows beyond the capacity given at creation.
type Accumulator struct {
	buf []byte
	n   int
}

// NewAccumulator creates an Accumulator. The capacity is clamped to
// [MinAccumulatorCapacity, MaxAccumulatorCapacity].
func NewAccumulator(capacity int) *Accumulator {
	if capacity < MinAccumulatorCapacity {
		capacity = MinAccumulatorCapacity
	} else if capacity > MaxAccumulatorCapacity {
		capacity = MaxAccumulatorCapacity
	}
	return &Accumulator{buf: make([]byte, capacity)}
}

// Len returns the number of buffered bytes.
func (a *Accumulator) Len() int {
	return a.n
}

// Cap returns the capacity.
func (a *Accumulator) Cap() int {
	return len(a.buf)
}

// Free returns the number of bytes that can still be appended.
func (a *Accumulator) Free() int {
	return len(a.buf) - a.n
}

// Bytes returns the buffered bytes. The slice is only valid until the
// next mutation.
func (a *Accumulator) Bytes() []byte {
	return a.buf[:a.n]
}

// Write appends as many bytes of p as fit and returns the count.
func (a *Accumulator) Write(p []byte) int {
	n := copy(a.buf[a.n:], p)
	a.n += n
	return n
}

// Consume removes n bytes from the front.
func (a *Accumulator) Consume(n int) {
	if n >= a.n {
		a.n = 0
		return
	}
	copy(a.buf, a.buf[n:a.n])
	a.n -= n
}

// Reset clears the accumulator in place.
func (a *Accumulator) Reset() {
	a.n = 0
}
