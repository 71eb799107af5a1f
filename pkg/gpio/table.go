package gpio

import (
	"fmt"
	"sort"
)

// PinConfig is the configuration of a single pin.
type PinConfig struct {
	Pin             uint32 `yaml:"pin" json:"pin"`
	Mode            Mode   `yaml:"mode" json:"mode"`
	CorticalMapping string `yaml:"cortical_mapping" json:"cortical_mapping"`
}

// Entry is a validated pin in a Table.
type Entry struct {
	PinConfig
	Handle   Handle
	NeuronID uint32
	// Mapped is false when CorticalMapping doesn't resolve.
	Mapped bool
}

// Table is the immutable pin configuration of a device.
type Table struct {
	board   *Board
	entries []Entry
	byPin   map[uint32]int
}

// NewTable validates the pin configurations against the board.
// Disabled pins are dropped.
func NewTable(board *Board, pins []PinConfig) (*Table, error) {
	t := &Table{board: board, byPin: make(map[uint32]int)}
	for _, conf := range pins {
		if conf.Mode == Disabled {
			continue
		}
		info, ok := board.Pin(conf.Pin)
		if !ok {
			return nil, &PinError{Pin: conf.Pin, Err: ErrUnknownPin}
		}
		if !info.Caps.Supports(conf.Mode) {
			return nil, &PinError{Pin: conf.Pin, Err: fmt.Errorf("%w: %s", ErrUnsupportedMode, conf.Mode)}
		}
		if _, exists := t.byPin[conf.Pin]; exists {
			return nil, &PinError{Pin: conf.Pin, Err: ErrDuplicatePin}
		}
		entry := Entry{PinConfig: conf, Handle: info.Handle}
		entry.NeuronID, entry.Mapped = ResolveNeuronID(conf.CorticalMapping)
		t.entries = append(t.entries, entry)
		t.byPin[conf.Pin] = -1
	}
	sort.SliceStable(t.entries, func(i, j int) bool {
		return t.entries[i].Pin < t.entries[j].Pin
	})
	for n, entry := range t.entries {
		t.byPin[entry.Pin] = n
	}
	return t, nil
}

// Board returns the board the table is validated against.
func (t *Table) Board() *Board {
	return t.board
}

// Lookup finds the entry of a pin.
func (t *Table) Lookup(pin uint32) (Entry, bool) {
	n, ok := t.byPin[pin]
	if !ok {
		return Entry{}, false
	}
	return t.entries[n], true
}

// Entries returns all enabled pins ordered by pin number.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Inputs returns the mapped input pins ordered by pin number.
func (t *Table) Inputs() []Entry {
	var entries []Entry
	for _, entry := range t.entries {
		if entry.Mode.IsInput() && entry.Mapped {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Count returns the number of pins configured in the mode.
func (t *Table) Count(mode Mode) int {
	var count int
	for _, entry := range t.entries {
		if entry.Mode == mode {
			count++
		}
	}
	return count
}

// Output resolves a pin driven by a command. The pin must be
// configured in the mode; otherwise it is treated as unmapped.
func (t *Table) Output(pin uint32, mode Mode) (Handle, bool) {
	entry, ok := t.Lookup(pin)
	if !ok || entry.Mode != mode {
		return Handle{}, false
	}
	return entry.Handle, true
}
