package types

import "errors"

// Sentinel errors for the pushhub library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).

// Registry errors - returned by connection registry and façade operations.
var (
	// ErrUnknownClient is returned when a client ID is not present in the registry.
	// The HTTP layer surfaces it as 404; the client must restart from handshake.
	ErrUnknownClient = errors.New("unknown client")

	// ErrForbidden is returned when the calling user does not own the session.
	// The HTTP layer surfaces it as 404 to avoid leaking session existence.
	ErrForbidden = errors.New("user does not own this client")

	// ErrUnknownViewport is returned when a viewport ID is stale or unregistered.
	ErrUnknownViewport = errors.New("unknown viewport")
)

// Lifecycle errors - returned by Manager lifecycle operations.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEngineRequired is returned when the analytics engine is nil.
	ErrEngineRequired = errors.New("analytics engine is required")

	// ErrAlreadyStarted is returned when Start is called on a running manager.
	ErrAlreadyStarted = errors.New("manager already started")

	// ErrNotStarted is returned when the manager is not running: Stop on a
	// manager that hasn't been started, or a handshake after Stop.
	ErrNotStarted = errors.New("manager not started")
)

// Delivery errors.
var (
	// ErrEncoding is returned when an update payload could not be serialized.
	// The update is dropped from the current delivery and logged; the resource
	// remains stale and is re-notified on the next real change.
	ErrEncoding = errors.New("payload encoding failed")
)
