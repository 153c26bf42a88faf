// Package device defines the interface implemented by device drivers and the
// registry that the HAL uses to probe for hardware.
package device

import (
	"io"

	"github.com/onish-cmd/Vibe-OS/kernel"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer in
	// conjunction with a call to kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn is a function that scans for the presence of a particular
// piece of hardware and returns a driver for it. It returns nil if the
// hardware is not present.
type ProbeFn func() Driver

// DetectOrder specifies when a driver is probed relative to other drivers.
// Lower values are probed first.
type DetectOrder int

const (
	// DetectOrderEarly drivers are probed before any other driver.
	DetectOrderEarly DetectOrder = iota - 128

	// DetectOrderNormal is the default order for drivers.
	DetectOrderNormal DetectOrder = 0

	// DetectOrderLast drivers are probed after every other driver.
	DetectOrderLast DetectOrder = 127
)

// DriverInfo is used by drivers to register themselves with the HAL.
type DriverInfo struct {
	// Order specifies at which stage of the hardware detection process
	// this driver is probed.
	Order DetectOrder

	// Probe is invoked by the HAL to detect the hardware that this
	// driver handles.
	Probe ProbeFn
}

// DriverInfoList is a list of registered drivers that implements
// sort.Interface.
type DriverInfoList []*DriverInfo

// Len returns the length of the driver info list.
func (l DriverInfoList) Len() int { return len(l) }

// Swap exchanges 2 elements in the driver info list.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// Less compares 2 elements of the driver info list by their detect order.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

var registeredDrivers DriverInfoList

// RegisterDriver adds the supplied driver info to the list of registered
// drivers. Drivers normally call it from an init() block.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns the list of registered drivers in registration order.
func DriverList() DriverInfoList {
	return registeredDrivers
}
