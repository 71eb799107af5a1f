package gpio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveNeuronID(t *testing.T) {
	testCases := []struct {
		mapping string
		id      uint32
		ok      bool
	}{
		{"12", 12, true},
		{"0", 0, true},
		{"4294967295", 4294967295, true},
		{"4294967296", 0, false},
		{"ipu:5", 5, true},
		{"i__inf:opu:17", 17, true},
		{"opu:", 0, false},
		{"opu:x", 0, false},
		{"-1", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{":3", 3, true},
	}
	for n, tc := range testCases {
		id, ok := ResolveNeuronID(tc.mapping)
		require.Equalf(t, tc.ok, ok, "case[%d] %q ok mismatch", n, tc.mapping)
		require.Equalf(t, tc.id, id, "case[%d] %q id mismatch", n, tc.mapping)
	}
}

func TestModeText(t *testing.T) {
	for _, m := range []Mode{Disabled, DigitalInput, DigitalOutput, AnalogInput, PwmOutput} {
		text, err := m.MarshalText()
		require.NoError(t, err)
		var parsed Mode
		require.NoError(t, parsed.UnmarshalText(text))
		require.Equal(t, m, parsed)
	}
	var m Mode
	require.Error(t, m.UnmarshalText([]byte("servo")))
	require.Equal(t, "Mode(9)", Mode(9).String())
}

func TestCapsSupports(t *testing.T) {
	caps := CapDigitalIn | CapAnalogIn
	require.True(t, caps.Supports(Disabled))
	require.True(t, caps.Supports(DigitalInput))
	require.True(t, caps.Supports(AnalogInput))
	require.False(t, caps.Supports(DigitalOutput))
	require.False(t, caps.Supports(PwmOutput))
}
