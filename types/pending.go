package types

// ResultKind classifies how a parked long-poll request was completed.
type ResultKind int

const (
	// ResultUpdates carries one or more update URLs for the client to re-fetch.
	ResultUpdates ResultKind = iota

	// ResultTimeout signals routine long-poll expiry. Expiry is an expected
	// lifecycle event, not an error; the client silently retries.
	ResultTimeout

	// ResultClosed signals the session was closed while the request was parked.
	ResultClosed

	// ResultSuperseded signals a newer request replaced this one on the same
	// client before any update arrived.
	ResultSuperseded
)

// String returns the string representation of the result kind.
func (k ResultKind) String() string {
	switch k {
	case ResultUpdates:
		return "updates"
	case ResultTimeout:
		return "timeout"
	case ResultClosed:
		return "closed"
	case ResultSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Result is the payload a PendingRequest is completed with.
//
// Updates is only populated when Kind is ResultUpdates. Membership is exact
// and deduplicated; ordering within the batch is unspecified.
type Result struct {
	Kind    ResultKind
	Updates []string
}

// PendingRequest represents one suspended HTTP long-poll request.
//
// The core never references transport types directly; each transport supplies
// its own implementation (see internal/rest for the HTTP one, and the testing
// package for a test double).
//
// Thread Safety: implementations must serialize Resume against IsExpired and
// their own transport-side deadline so that exactly one completion wins.
type PendingRequest interface {
	// Park marks the request as stored by a client and starts its expiry
	// clock. Called at most once, before any Resume.
	Park()

	// Resume completes the request with the given result. Returns false when
	// the request was already completed or has expired; the caller must treat
	// a false return as "this handle is dead" and re-queue the payload rather
	// than dropping it.
	Resume(result Result) bool

	// IsExpired reports whether the transport-side deadline for this request
	// has passed. An expired request can no longer be resumed with updates.
	IsExpired() bool
}
