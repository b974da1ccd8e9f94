package pushhub

import "github.com/quantflow/pushhub/types"

// Sentinel errors returned by the Manager. These alias the canonical
// definitions in the types package so callers can use errors.Is against
// either import path.
var (
	// ErrUnknownClient is returned when a client ID is not in the registry.
	ErrUnknownClient = types.ErrUnknownClient

	// ErrForbidden is returned when the calling user does not own the session.
	ErrForbidden = types.ErrForbidden

	// ErrUnknownViewport is returned when a viewport ID is stale or unregistered.
	ErrUnknownViewport = types.ErrUnknownViewport

	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrEngineRequired is returned when the analytics engine is nil.
	ErrEngineRequired = types.ErrEngineRequired

	// ErrAlreadyStarted is returned when Start is called on a running manager.
	ErrAlreadyStarted = types.ErrAlreadyStarted

	// ErrNotStarted is returned when the manager is not running: Stop
	// before Start, or a handshake after Stop.
	ErrNotStarted = types.ErrNotStarted
)
