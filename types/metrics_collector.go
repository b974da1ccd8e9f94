package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from request-handling and change-delivery goroutines
// and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	RegistryMetrics
	DeliveryMetrics
}

// RegistryMetrics defines metrics for session registry operations.
type RegistryMetrics interface {
	// RecordHandshake records a new session creation.
	RecordHandshake()

	// RecordSessionClosed records a session teardown.
	RecordSessionClosed()

	// SetActiveSessions records the current number of live sessions.
	SetActiveSessions(n int)

	// RecordEviction records an expired parked request being evicted.
	RecordEviction()
}

// DeliveryMetrics defines metrics for update delivery operations.
type DeliveryMetrics interface {
	// RecordAttach records a long-poll attach.
	//
	// Parameters:
	//   - immediate: true if the request was resumed immediately from the
	//     queue, false if it was parked
	RecordAttach(immediate bool)

	// RecordNotify records an incoming update notification.
	//
	// Parameters:
	//   - delivered: true if the update resumed a parked request, false if
	//     it was queued (coalesced) for a later poll
	RecordNotify(delivered bool)

	// RecordDelivery records the completion of a parked request.
	//
	// Parameters:
	//   - kind: result kind ("updates", "timeout", "closed", "superseded")
	//   - updates: number of update URLs in the batch
	RecordDelivery(kind string, updates int)

	// RecordEncodingFailure records an update dropped because its payload
	// could not be serialized.
	RecordEncodingFailure()
}
