package watch

import (
	"sync"

	"github.com/quantflow/pushhub/types"
)

// State represents the watch delivery state.
type State int

const (
	// StateInactive buffers data changes as a single dirty flag. Nothing is
	// delivered until the client activates the watch.
	StateInactive State = iota

	// StateActive delivers every data change immediately.
	StateActive
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateInactive:
		return "Inactive"
	case StateActive:
		return "Active"
	default:
		return "Unknown"
	}
}

// NotifyFunc delivers one update URL to the owning long-poll client.
type NotifyFunc func(url string)

// Watch is the per-viewport analytics subscription.
//
// Data changes and grid-structure changes ride separate notification URLs: a
// layout change invalidates cached client-side rendering state in a way a
// mere data refresh does not, so conflating them would force clients to
// re-fetch structure on every tick.
//
// The watch lives for the viewport's lifetime and every transition is
// re-entrant; unlike entity subscriptions it is never consumed.
type Watch struct {
	dataURL string
	gridURL string
	notify  NotifyFunc

	mu    sync.Mutex
	state State
	dirty bool
}

// Compile-time assertion that Watch implements ViewportListener.
var _ types.ViewportListener = (*Watch)(nil)

// New creates a watch delivering to the given URLs.
//
// active selects the initial state. Inactive is the safe default: no data
// change is delivered until the client explicitly activates, so a client
// that never polls cannot accumulate deliveries it will not consume.
func New(dataURL, gridURL string, active bool, notify NotifyFunc) *Watch {
	state := StateInactive
	if active {
		state = StateActive
	}

	return &Watch{
		dataURL: dataURL,
		gridURL: gridURL,
		notify:  notify,
		state:   state,
	}
}

// MarkDirty records that the viewport's data changed.
//
// While Active the change is delivered immediately. While Inactive it only
// sets the dirty flag, coalescing any burst of changes into the single
// delivery the next Activate will flush.
func (w *Watch) MarkDirty() {
	w.mu.Lock()
	if w.state != StateActive {
		w.dirty = true
		w.mu.Unlock()

		return
	}
	w.mu.Unlock()

	w.notify(w.dataURL)
}

// Activate arms or flushes the watch.
//
// If data changed while Inactive, the pending change is delivered now and
// the watch stays Inactive: activation while dirty is a one-shot flush, and
// the client re-activates once it has fetched the fresh data. Only when
// nothing is pending does the watch become Active.
func (w *Watch) Activate() {
	w.mu.Lock()
	if w.dirty {
		w.dirty = false
		w.state = StateInactive
		w.mu.Unlock()

		w.notify(w.dataURL)

		return
	}
	w.state = StateActive
	w.mu.Unlock()
}

// GridStructureChanged delivers a grid-layout change. Structure changes are
// rare and always client-relevant, so they bypass the Active/Inactive state
// entirely.
func (w *Watch) GridStructureChanged() {
	w.notify(w.gridURL)
}

// DataChanged implements types.ViewportListener.
func (w *Watch) DataChanged() {
	w.MarkDirty()
}

// State returns the current delivery state.
func (w *Watch) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.state
}

// Dirty reports whether an undelivered data change is pending.
func (w *Watch) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.dirty
}

// DataURL returns the URL delivered on data changes.
func (w *Watch) DataURL() string {
	return w.dataURL
}

// GridURL returns the URL delivered on grid-structure changes.
func (w *Watch) GridURL() string {
	return w.gridURL
}
