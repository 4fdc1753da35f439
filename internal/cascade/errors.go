package cascade

import "errors"

// Domain-specific errors for cascade operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNodeNotFound is returned when the toggled node does not exist
	// in the topology.
	ErrNodeNotFound = errors.New("cascade: node not found")

	// ErrPermanentDevice is returned by BuildPlan when asked to switch
	// off a permanent seed device. Toggle treats it as a no-op.
	ErrPermanentDevice = errors.New("cascade: cannot switch off permanent device")
)
