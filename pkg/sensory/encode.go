package sensory

import (
	"encoding/json"
	"strconv"
)

// MaxPacketSize bounds an encoded sensory packet.
const MaxPacketSize = 512

// MinPacketSize is the smallest bound an Encoder honors. It fits a
// packet with no samples, an empty device and any frame number.
const MinPacketSize = 64

// Encoder encodes samples into newline-terminated JSON packets:
//
//	{"data":[[id,0|1],...],"device":"<device>","frame":<n>}\n
type Encoder struct {
	Device string
	// MaxSize defaults to MaxPacketSize and is raised to MinPacketSize.
	MaxSize int
}

// Packet is the decoded form of a sensory packet.
type Packet struct {
	Data   [][2]uint32 `json:"data"`
	Device string      `json:"device"`
	Frame  uint64      `json:"frame"`
}

// Encode encodes samples and the frame number. Trailing samples are
// dropped if the packet would exceed MaxSize.
func (e *Encoder) Encode(samples []Sample, frame uint64) []byte {
	return encode(nil, samples, frame, e.Device, e.maxSize())
}

// AppendEncode is Encode appending to dst.
func (e *Encoder) AppendEncode(dst []byte, samples []Sample, frame uint64) []byte {
	return encode(dst, samples, frame, e.Device, e.maxSize())
}

func (e *Encoder) maxSize() int {
	switch {
	case e.MaxSize <= 0:
		return MaxPacketSize
	case e.MaxSize < MinPacketSize:
		return MinPacketSize
	}
	return e.MaxSize
}

// Encode is the function form of Encoder.Encode with MaxPacketSize.
func Encode(samples []Sample, frame uint64, device string) []byte {
	return encode(nil, samples, frame, device, MaxPacketSize)
}

func encode(dst []byte, samples []Sample, frame uint64, device string, maxSize int) []byte {
	dev, _ := json.Marshal(device)
	var num [20]byte
	frameStr := strconv.AppendUint(num[:0], frame, 10)

	const head, mid, tail = `{"data":[`, `],"device":`, `,"frame":`
	overhead := len(head) + len(mid) + len(dev) + len(tail) + len(frameStr) + len("}\n")
	if overhead > maxSize {
		overhead -= len(dev) - 2
		dev = []byte(`""`)
	}
	budget := maxSize - overhead

	dst = append(dst, head...)
	for n, s := range samples {
		var item [24]byte
		b := item[:0]
		if n > 0 {
			b = append(b, ',')
		}
		b = append(b, '[')
		b = strconv.AppendUint(b, uint64(s.NeuronID), 10)
		if s.Fired() {
			b = append(b, ",1]"...)
		} else {
			b = append(b, ",0]"...)
		}
		if len(b) > budget {
			break
		}
		budget -= len(b)
		dst = append(dst, b...)
	}
	dst = append(dst, mid...)
	dst = append(dst, dev...)
	dst = append(dst, tail...)
	dst = append(dst, frameStr...)
	return append(dst, "}\n"...)
}

// DecodePacket parses a sensory packet.
func DecodePacket(b []byte) (*Packet, error) {
	var p Packet
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
