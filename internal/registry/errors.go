package registry

import "errors"

// Domain-specific errors for registry operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDeviceNotFound is returned when a device ID does not exist,
	// active or tombstoned.
	ErrDeviceNotFound = errors.New("registry: device not found")

	// ErrInvalidDeviceType is returned when a register request carries
	// an empty device type.
	ErrInvalidDeviceType = errors.New("registry: device type is required")

	// ErrUnknownDeviceType is returned when a register request carries
	// a device type the registry does not recognise.
	ErrUnknownDeviceType = errors.New("registry: unknown device type")

	// ErrPermanentDevice is returned when attempting to unregister a
	// permanent seed device.
	ErrPermanentDevice = errors.New("registry: cannot unregister permanent device")
)
