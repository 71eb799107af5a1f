package motor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/neurobridge/pkg/display"
	"github.com/robotalks/neurobridge/pkg/l0/comm"
	"github.com/robotalks/neurobridge/pkg/sensory"
)

func TestParseDuty(t *testing.T) {
	testCases := []struct {
		in     string
		expect uint8
		err    bool
	}{
		{in: "0", expect: 0},
		{in: "255", expect: 255},
		{in: "50%", expect: 128},
		{in: "100%", expect: 255},
		{in: "256", err: true},
		{in: "101%", err: true},
		{in: "x", err: true},
	}
	for n, tc := range testCases {
		duty, err := ParseDuty(tc.in)
		if tc.err {
			require.Errorf(t, err, "case[%d] %q", n, tc.in)
			continue
		}
		require.NoErrorf(t, err, "case[%d] %q", n, tc.in)
		require.Equalf(t, tc.expect, duty, "case[%d] duty mismatch", n)
	}
}

func TestParseLevel(t *testing.T) {
	on, err := ParseLevel("HIGH")
	require.NoError(t, err)
	require.True(t, on)
	on, err = ParseLevel("0")
	require.NoError(t, err)
	require.False(t, on)
	_, err = ParseLevel("2")
	require.Error(t, err)
}

func TestParseCoords(t *testing.T) {
	coords, err := ParseCoords([]string{"1,2", "3,4"})
	require.NoError(t, err)
	require.Equal(t, []comm.Coord{{X: 1, Y: 2}, {X: 3, Y: 4}}, coords)

	_, err = ParseCoords([]string{"1"})
	require.Error(t, err)
	_, err = ParseCoords(make([]string, comm.MaxCoordinates+1))
	require.ErrorIs(t, err, comm.ErrTooManyCoordinates)
}

func TestParseMatrix(t *testing.T) {
	glyph, _ := display.Glyph('A')
	data, err := ParseMatrix([]string{"A"})
	require.NoError(t, err)
	require.Equal(t, glyph, data)

	data, err = ParseMatrix([]string{"#....", ".....", ".....", ".....", "....#"})
	require.NoError(t, err)
	require.Equal(t, byte(display.Full), data[0])
	require.Equal(t, byte(display.Full), data[24])
	require.Zero(t, data[12])

	values := make([]string, comm.MatrixSize)
	for i := range values {
		values[i] = "7"
	}
	data, err = ParseMatrix(values)
	require.NoError(t, err)
	require.Equal(t, byte(7), data[13])

	_, err = ParseMatrix([]string{"#...."})
	require.Error(t, err)
	_, err = ParseMatrix([]string{"Z"})
	require.Error(t, err)
}

func TestFormatPacket(t *testing.T) {
	pkt := &sensory.Packet{Data: [][2]uint32{{4, 1}, {7, 0}}, Device: "dev1", Frame: 9}
	require.Equal(t, "dev1 #9 4=1 7=0", FormatPacket(pkt))
}
