// Package authz holds the capability predicates shared by the sub-ledgers.
// Every mutating ledger operation consults exactly the predicate its contract
// names; a failed predicate means Unauthorized with no state change.
package authz

import (
	"iotledger/internal/identity"
	"iotledger/pkg/requestcontext"
)

// IsAdmin reports whether the caller holds the admin capability.
func IsAdmin(caller requestcontext.AuthenticatedCaller) bool {
	return caller.Admin
}

// IsController reports whether the caller is the controller of the device.
func IsController(caller requestcontext.AuthenticatedCaller, device *identity.DeviceIdentity) bool {
	if caller.ID.IsZero() {
		return false
	}
	return device.Controller == caller.ID
}

// IsDeviceSelf reports whether the caller authenticated as the device itself.
func IsDeviceSelf(caller requestcontext.AuthenticatedCaller, device *identity.DeviceIdentity) bool {
	if caller.Device.IsZero() {
		return false
	}
	return caller.Device == device.Key
}

// IsActiveDevice reports whether the device is currently active.
func IsActiveDevice(device *identity.DeviceIdentity) bool {
	return device.Active
}

// CanAdminister reports whether the caller may manage the device: its
// controller or an admin.
func CanAdminister(caller requestcontext.AuthenticatedCaller, device *identity.DeviceIdentity) bool {
	return IsAdmin(caller) || IsController(caller, device)
}

// CanWriteFor reports whether the caller may record data on the device's
// behalf: its controller or the device identity itself.
func CanWriteFor(caller requestcontext.AuthenticatedCaller, device *identity.DeviceIdentity) bool {
	return IsController(caller, device) || IsDeviceSelf(caller, device)
}
