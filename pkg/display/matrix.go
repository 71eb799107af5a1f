// Package display models the 5x5 LED matrix.
package display

import (
	"strings"

	"github.com/robotalks/neurobridge/pkg/l0/comm"
)

const (
	// Width is the number of columns and rows.
	Width = comm.MatrixWidth
	// Size is the number of pixels.
	Size = comm.MatrixSize
	// Threshold is the brightness above which a pixel is lit.
	Threshold = 127
	// Full is the brightness of a fired neuron.
	Full = 255
)

// Matrix is the display buffer of brightness values in row-major order.
// It is owned by the control loop and not safe for concurrent use.
type Matrix struct {
	buf   [Size]byte
	dirty bool
}

// Clear turns all pixels off.
func (m *Matrix) Clear() {
	m.buf = [Size]byte{}
	m.dirty = true
}

// SetBrightness sets a single pixel. Out of range coordinates are ignored.
func (m *Matrix) SetBrightness(x, y int, brightness byte) {
	if x < 0 || y < 0 || x >= Width || y >= Width {
		return
	}
	m.buf[y*Width+x] = brightness
	m.dirty = true
}

// SetPixel turns a pixel fully on or off.
func (m *Matrix) SetPixel(x, y int, on bool) {
	var v byte
	if on {
		v = Full
	}
	m.SetBrightness(x, y, v)
}

// SetMatrix overwrites the whole buffer.
func (m *Matrix) SetMatrix(data [Size]byte) {
	m.buf = data
	m.dirty = true
}

// ShowNeurons replaces the buffer with the fired neurons. Coordinates
// outside the grid are ignored.
func (m *Matrix) ShowNeurons(coords []comm.Coord) {
	m.Clear()
	for _, xy := range coords {
		m.SetPixel(int(xy.X), int(xy.Y), true)
	}
}

// Brightness returns the brightness of a pixel.
func (m *Matrix) Brightness(x, y int) byte {
	if x < 0 || y < 0 || x >= Width || y >= Width {
		return 0
	}
	return m.buf[y*Width+x]
}

// Buffer returns a copy of the brightness values.
func (m *Matrix) Buffer() [Size]byte {
	return m.buf
}

// Frame thresholds the buffer into on/off pixels.
func (m *Matrix) Frame() Frame {
	var f Frame
	for i, v := range m.buf {
		if v > Threshold {
			f |= 1 << uint(i)
		}
	}
	return f
}

// TakeDirty reports whether the buffer changed since the last call.
func (m *Matrix) TakeDirty() bool {
	dirty := m.dirty
	m.dirty = false
	return dirty
}

// Frame is an on/off image, bit y*Width+x set for a lit pixel.
type Frame uint32

// Lit checks whether a pixel is on.
func (f Frame) Lit(x, y int) bool {
	if x < 0 || y < 0 || x >= Width || y >= Width {
		return false
	}
	return f&(1<<uint(y*Width+x)) != 0
}

// Count returns the number of lit pixels.
func (f Frame) Count() int {
	var n int
	for i := 0; i < Size; i++ {
		if f&(1<<uint(i)) != 0 {
			n++
		}
	}
	return n
}

// String renders the frame as rows of '#' and '.' separated by '/'.
func (f Frame) String() string {
	var sb strings.Builder
	for y := 0; y < Width; y++ {
		if y > 0 {
			sb.WriteByte('/')
		}
		for x := 0; x < Width; x++ {
			if f.Lit(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
	}
	return sb.String()
}
