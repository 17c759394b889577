// Package env provides common environment setup for L1 controllers
// and connectors.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID is used to derive the application specific machine ID.
const AppID = "wheelphone"

// MachineID retrieves the unique ID identifying the machine. The raw
// machine ID is hashed with AppID. Hostname is used if machine ID is
// not available.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine ID unavailable: %v", err)
	if id, err = os.Hostname(); err != nil {
		glog.Fatalf("hostname unavailable: %v", err)
	}
	return id
}
