package display

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// Renderer puts a frame on the physical display.
type Renderer interface {
	Render(Frame) error
}

// RenderFunc is the func form of Renderer.
type RenderFunc func(Frame) error

// Render implements Renderer.
func (f RenderFunc) Render(frame Frame) error {
	return f(frame)
}

// LogRenderer logs frames, for hosts without a matrix.
type LogRenderer struct {
	last Frame
}

// Render implements Renderer.
func (r *LogRenderer) Render(frame Frame) error {
	if frame != r.last {
		glog.V(1).Infof("display %s", frame)
		r.last = frame
	}
	return nil
}

// ShowText shows each known character of text for dur, then clears
// the display. Unknown characters are skipped.
func ShowText(ctx context.Context, m *Matrix, r Renderer, text string, dur time.Duration) error {
	defer func() {
		m.Clear()
		r.Render(m.Frame())
	}()
	for _, c := range text {
		buf, ok := Glyph(c)
		if !ok {
			continue
		}
		m.SetMatrix(buf)
		if err := r.Render(m.Frame()); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dur):
		}
	}
	return nil
}
