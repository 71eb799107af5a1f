// Package env provides host facts used as configuration defaults.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// DefaultDeviceID is used when the host can't be identified.
const DefaultDeviceID = "feagi-device"

// deviceIDLen keeps the derived id short enough for topics and logs.
const deviceIDLen = 12

// MachineID retrieves the unique ID identifying the machine.
func MachineID() (string, error) {
	return machineid.ID()
}

// DeviceID derives a stable device id from the machine id without
// exposing it. It falls back to the hostname, then DefaultDeviceID.
func DeviceID() string {
	id, err := machineid.ProtectedID("neurobridge")
	if err == nil && len(id) >= deviceIDLen {
		return "feagi-" + id[:deviceIDLen]
	}
	glog.V(1).Infof("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return DefaultDeviceID
}
