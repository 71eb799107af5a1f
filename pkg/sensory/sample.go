// Package sensory turns pin readings into packets for the brain.
package sensory

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/neurobridge/pkg/gpio"
)

// FiringThreshold is the potential above which a neuron fired.
const FiringThreshold = 0.5

// Sample is a reading attributed to an input neuron.
type Sample struct {
	NeuronID  uint32
	Potential float32
}

// Fired binarizes the potential.
func (s Sample) Fired() bool {
	return s.Potential > FiringThreshold
}

// Sampler reads the mapped input pins.
type Sampler struct {
	Table  *gpio.Table
	Driver gpio.Driver

	inputs []gpio.Entry
	errors uint64
}

// NewSampler creates a Sampler over the input pins of the table.
func NewSampler(table *gpio.Table, drv gpio.Driver) *Sampler {
	return &Sampler{Table: table, Driver: drv, inputs: table.Inputs()}
}

// Sample appends one sample per readable input pin to dst, in pin
// order. Pins failing to read are skipped and the first error is
// returned together with the other samples.
func (s *Sampler) Sample(dst []Sample) ([]Sample, error) {
	var firstErr error
	analogMax := float32(s.Table.Board().AnalogMax)
	for _, in := range s.inputs {
		var potential float32
		switch in.Mode {
		case gpio.DigitalInput:
			on, err := s.Driver.DigitalRead(in.Handle)
			if err != nil {
				firstErr = s.readFailed(firstErr, in, err)
				continue
			}
			if on {
				potential = 1
			}
		case gpio.AnalogInput:
			v, err := s.Driver.AnalogRead(in.Handle)
			if err != nil {
				firstErr = s.readFailed(firstErr, in, err)
				continue
			}
			if analogMax > 0 {
				potential = float32(v) / analogMax
			}
		}
		dst = append(dst, Sample{NeuronID: in.NeuronID, Potential: potential})
	}
	return dst, firstErr
}

// Errors returns the number of failed reads.
func (s *Sampler) Errors() uint64 {
	return s.errors
}

func (s *Sampler) readFailed(firstErr error, in gpio.Entry, err error) error {
	s.errors++
	glog.V(2).Infof("read pin %d (%s) failed: %v", in.Pin, in.Handle, err)
	if firstErr == nil {
		firstErr = fmt.Errorf("read pin %d: %w", in.Pin, err)
	}
	return firstErr
}
