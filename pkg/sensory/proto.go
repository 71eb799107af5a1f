package sensory

import (
	"github.com/golang/protobuf/proto"
)

// NeuronState is the protobuf form of a Sample.
type NeuronState struct {
	Id        uint32  `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Fired     bool    `protobuf:"varint,2,opt,name=fired,proto3" json:"fired,omitempty"`
	Potential float32 `protobuf:"fixed32,3,opt,name=potential,proto3" json:"potential,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *NeuronState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *NeuronState) Reset() { *m = NeuronState{} }

// String implements proto.Message.
func (m *NeuronState) String() string { return proto.CompactTextString(m) }

// SensoryFrame is the protobuf form of a sensory packet, used on
// message-oriented transports.
type SensoryFrame struct {
	Device  string         `protobuf:"bytes,1,opt,name=device,proto3" json:"device,omitempty"`
	Frame   uint64         `protobuf:"varint,2,opt,name=frame,proto3" json:"frame,omitempty"`
	Neurons []*NeuronState `protobuf:"bytes,3,rep,name=neurons,proto3" json:"neurons,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *SensoryFrame) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SensoryFrame) Reset() { *m = SensoryFrame{} }

// String implements proto.Message.
func (m *SensoryFrame) String() string { return proto.CompactTextString(m) }

// Samples converts the neurons back into samples.
func (m *SensoryFrame) Samples() []Sample {
	samples := make([]Sample, len(m.Neurons))
	for n, neuron := range m.Neurons {
		samples[n] = Sample{NeuronID: neuron.Id, Potential: neuron.Potential}
	}
	return samples
}

// EncodeProto encodes samples into a SensoryFrame bounded by maxSize
// bytes (MaxPacketSize if not positive). Trailing samples are dropped
// to fit. Unlike the text form, graded potentials are preserved.
func EncodeProto(samples []Sample, frame uint64, device string, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxPacketSize
	}
	m := &SensoryFrame{Device: device, Frame: frame}
	size := proto.Size(m)
	for _, s := range samples {
		neuron := &NeuronState{Id: s.NeuronID, Fired: s.Fired(), Potential: s.Potential}
		n := proto.Size(neuron)
		n += 1 + proto.SizeVarint(uint64(n))
		if size+n > maxSize {
			break
		}
		size += n
		m.Neurons = append(m.Neurons, neuron)
	}
	return proto.Marshal(m)
}

// DecodeProto parses a SensoryFrame.
func DecodeProto(b []byte) (*SensoryFrame, error) {
	m := &SensoryFrame{}
	if err := proto.Unmarshal(b, m); err != nil {
		return nil, err
	}
	return m, nil
}
