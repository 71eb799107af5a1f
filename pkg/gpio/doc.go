// Package gpio maps board pins to neuron identifiers and drives them.
//
// A Board is a static catalogue of the pins a device exposes. A Table
// is the validated, immutable per-pin configuration loaded at startup.
// A Driver performs the actual reads and writes.
package gpio
