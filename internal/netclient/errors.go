package netclient

import "errors"

// Domain-specific errors for observer-side operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMalformedMessage is surfaced through the error callback when a
	// broadcast frame cannot be decoded. The connection stays open.
	ErrMalformedMessage = errors.New("netclient: malformed snapshot message")

	// ErrRetriesExhausted is the terminal error after the configured
	// number of reconnect attempts has failed. No further attempts are
	// made.
	ErrRetriesExhausted = errors.New("netclient: reconnect attempts exhausted")

	// ErrRequestFailed is returned when the registration API rejects a
	// request or cannot be reached.
	ErrRequestFailed = errors.New("netclient: registration request failed")
)
