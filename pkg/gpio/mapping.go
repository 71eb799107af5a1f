package gpio

import (
	"strconv"
	"strings"
)

// ResolveNeuronID extracts the neuron id from a cortical mapping.
// The mapping is either a bare integer ("12") or "<area>:<id>", where
// only the integer after the last colon is meaningful. An empty or
// unparsable mapping means the pin is not mapped.
func ResolveNeuronID(mapping string) (uint32, bool) {
	if id, err := strconv.ParseUint(mapping, 10, 32); err == nil {
		return uint32(id), true
	}
	pos := strings.LastIndexByte(mapping, ':')
	if pos < 0 {
		return 0, false
	}
	id, err := strconv.ParseUint(mapping[pos+1:], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}
