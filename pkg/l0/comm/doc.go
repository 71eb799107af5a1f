// Package comm provides the L0 motor/sensory protocol support.
package comm

// The L0 protocol is communicated between the brain and the device
// bridge over a transport that only guarantees an ordered byte stream
// (serial port, TCP) or a sequence of datagrams (websocket, MQTT).
// Motor commands flow from the brain to the device, sensory packets
// flow from the device to the brain.
//
// Each motor command is framed as
//
//	[command id: 1 byte][payload length: 1 byte][payload]
//
// There is no checksum and no retransmission. The decoder tolerates
// fragmentation at any byte boundary, consumes frames it does not
// understand, and resets its bounded accumulator when a frame can
// never fit. Delivery is at-most-once and best-effort.
//
// Producer: brain
// Consumer: device bridge
