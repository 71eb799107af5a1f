package display

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/neurobridge/pkg/l0/comm"
)

func TestMatrixNeuronsReplaceMatrix(t *testing.T) {
	var m Matrix
	var all [Size]byte
	for i := range all {
		all[i] = 200
	}
	m.SetMatrix(all)
	require.Equal(t, Size, m.Frame().Count())

	m.ShowNeurons([]comm.Coord{{X: 0, Y: 0}, {X: 4, Y: 2}, {X: 5, Y: 1}, {X: 1, Y: 9}})
	f := m.Frame()
	require.Equal(t, 2, f.Count())
	require.True(t, f.Lit(0, 0))
	require.True(t, f.Lit(4, 2))
	require.Equal(t, byte(Full), m.Brightness(4, 2))
	require.Equal(t, byte(0), m.Brightness(1, 1))
}

func TestMatrixThreshold(t *testing.T) {
	var m Matrix
	var data [Size]byte
	data[0], data[1], data[24] = 127, 128, 255
	m.SetMatrix(data)
	f := m.Frame()
	require.False(t, f.Lit(0, 0))
	require.True(t, f.Lit(1, 0))
	require.True(t, f.Lit(4, 4))
	require.Equal(t, ".#.../...../...../...../....#", f.String())
	require.Equal(t, data, m.Buffer())
}

func TestMatrixDirty(t *testing.T) {
	var m Matrix
	require.False(t, m.TakeDirty())
	m.SetPixel(1, 1, true)
	require.True(t, m.TakeDirty())
	require.False(t, m.TakeDirty())
	m.SetPixel(7, 1, true)
	require.False(t, m.TakeDirty())
}

func TestGlyph(t *testing.T) {
	for _, c := range Banner + "♥✓↑" {
		buf, ok := Glyph(c)
		require.Truef(t, ok, "glyph %q missing", c)
		var m Matrix
		m.SetMatrix(buf)
		require.NotZerof(t, m.Frame().Count(), "glyph %q empty", c)
	}
	buf, ok := Glyph('F')
	require.True(t, ok)
	var m Matrix
	m.SetMatrix(buf)
	require.Equal(t, "#####/#..../####./#..../#....", m.Frame().String())
	_, ok = Glyph('Z')
	require.False(t, ok)
}

func TestShowText(t *testing.T) {
	var m Matrix
	var frames []Frame
	r := RenderFunc(func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, ShowText(context.Background(), &m, r, "FZI", 0))
	require.Len(t, frames, 3)
	require.Equal(t, "#####/..#../..#../..#../#####", frames[1].String())
	require.Zero(t, frames[2].Count())
}
