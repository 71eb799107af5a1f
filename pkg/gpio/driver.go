package gpio

import (
	"sync"
)

// Driver performs pin I/O on physical resources.
type Driver interface {
	// Setup configures the pin for the mode.
	Setup(h Handle, mode Mode) error
	// DigitalRead reads the level of an input.
	DigitalRead(h Handle) (bool, error)
	// AnalogRead reads the raw value of an analog input.
	AnalogRead(h Handle) (uint16, error)
	// DigitalWrite sets the level of an output.
	DigitalWrite(h Handle, value bool) error
	// PwmWrite sets the duty cycle, 0-255 for 0-100%.
	PwmWrite(h Handle, duty uint8) error
}

// Setup configures all pins of a table.
func Setup(drv Driver, table *Table) error {
	for _, entry := range table.Entries() {
		if err := drv.Setup(entry.Handle, entry.Mode); err != nil {
			return &PinError{Pin: entry.Pin, Err: err}
		}
	}
	return nil
}

// Memory is an in-memory Driver. Inputs are set by the owner and
// outputs are recorded for inspection. It is safe for concurrent use.
type Memory struct {
	lock    sync.Mutex
	modes   map[Handle]Mode
	levels  map[Handle]bool
	analogs map[Handle]uint16
	duties  map[Handle]uint8
	writes  int
}

// NewMemory creates a Memory driver.
func NewMemory() *Memory {
	return &Memory{
		modes:   make(map[Handle]Mode),
		levels:  make(map[Handle]bool),
		analogs: make(map[Handle]uint16),
		duties:  make(map[Handle]uint8),
	}
}

// Setup implements Driver.
func (m *Memory) Setup(h Handle, mode Mode) error {
	m.lock.Lock()
	m.modes[h] = mode
	m.lock.Unlock()
	return nil
}

// DigitalRead implements Driver.
func (m *Memory) DigitalRead(h Handle) (bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.levels[h], nil
}

// AnalogRead implements Driver.
func (m *Memory) AnalogRead(h Handle) (uint16, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.analogs[h], nil
}

// DigitalWrite implements Driver.
func (m *Memory) DigitalWrite(h Handle, value bool) error {
	m.lock.Lock()
	m.levels[h] = value
	m.writes++
	m.lock.Unlock()
	return nil
}

// PwmWrite implements Driver.
func (m *Memory) PwmWrite(h Handle, duty uint8) error {
	m.lock.Lock()
	m.duties[h] = duty
	m.writes++
	m.lock.Unlock()
	return nil
}

// SetLevel sets the level read from a digital input.
func (m *Memory) SetLevel(h Handle, value bool) {
	m.lock.Lock()
	m.levels[h] = value
	m.lock.Unlock()
}

// SetAnalog sets the value read from an analog input.
func (m *Memory) SetAnalog(h Handle, value uint16) {
	m.lock.Lock()
	m.analogs[h] = value
	m.lock.Unlock()
}

// Level returns the last level of a pin.
func (m *Memory) Level(h Handle) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.levels[h]
}

// Duty returns the last duty cycle written to a pin.
func (m *Memory) Duty(h Handle) uint8 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.duties[h]
}

// ModeOf returns the mode a pin was set up with.
func (m *Memory) ModeOf(h Handle) (Mode, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	mode, ok := m.modes[h]
	return mode, ok
}

// Writes returns the number of output writes.
func (m *Memory) Writes() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.writes
}
