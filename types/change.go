package types

// MasterType identifies one of the master-data stores that publish change
// events. Clients can arm fire-once subscriptions against a whole master in
// addition to per-entity subscriptions.
type MasterType string

// Master-data stores known to the web tier.
const (
	MasterPortfolio          MasterType = "portfolios"
	MasterPosition           MasterType = "positions"
	MasterSecurity           MasterType = "securities"
	MasterConfig             MasterType = "configs"
	MasterMarketDataSnapshot MasterType = "marketdatasnapshots"
	MasterTimeSeries         MasterType = "timeseries"
	MasterLegalEntity        MasterType = "legalentities"
)

// Valid reports whether the master type is one of the known stores.
func (m MasterType) Valid() bool {
	switch m {
	case MasterPortfolio, MasterPosition, MasterSecurity, MasterConfig,
		MasterMarketDataSnapshot, MasterTimeSeries, MasterLegalEntity:
		return true
	default:
		return false
	}
}

// ChangeListener receives change events from external master-data sources.
//
// Both methods are invoked from the change source's own goroutines and must
// be non-blocking and safe for concurrent use. A listener must never panic
// across this boundary; a malformed event is logged and skipped so it cannot
// stall delivery to other listeners.
type ChangeListener interface {
	// EntityChanged is invoked when the identified domain object changed.
	EntityChanged(objectID string)

	// MasterChanged is invoked when any document in the given master changed.
	MasterChanged(master MasterType)
}

// ChangeSource is an external producer of change events that supports
// explicit listener registration.
//
// The registry registers every session against each configured source at
// handshake and must unregister it exactly once at session teardown; a missed
// Remove leaks a dangling listener inside the source.
type ChangeSource interface {
	// AddListener registers a listener for subsequent change events.
	AddListener(l ChangeListener)

	// RemoveListener removes a previously registered listener. Removing a
	// listener that is not registered is a no-op.
	RemoveListener(l ChangeListener)
}
