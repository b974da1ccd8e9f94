package changefeed

import (
	"sync"

	"github.com/quantflow/pushhub/types"
)

// Basic is an in-process change source. Producers call EntityChanged and
// MasterChanged directly; every registered listener receives the event.
//
// A panicking listener is logged and skipped so it cannot stall delivery to
// the other listeners.
type Basic struct {
	mu        sync.RWMutex
	listeners map[types.ChangeListener]struct{}

	logger types.Logger
}

// Compile-time assertion that Basic implements ChangeSource.
var _ types.ChangeSource = (*Basic)(nil)

// NewBasic creates an in-process change source.
func NewBasic(logger types.Logger) *Basic {
	return &Basic{
		listeners: make(map[types.ChangeListener]struct{}),
		logger:    logger,
	}
}

// AddListener registers a listener for subsequent events.
func (b *Basic) AddListener(l types.ChangeListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[l] = struct{}{}
}

// RemoveListener removes a previously registered listener.
func (b *Basic) RemoveListener(l types.ChangeListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, l)
}

// ListenerCount returns the number of registered listeners. Exposed so
// integrations can assert that session teardown released every registration.
func (b *Basic) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.listeners)
}

// EntityChanged publishes an entity change to every listener.
func (b *Basic) EntityChanged(objectID string) {
	for _, l := range b.snapshot() {
		b.deliver(l, func(l types.ChangeListener) { l.EntityChanged(objectID) })
	}
}

// MasterChanged publishes a master change to every listener.
func (b *Basic) MasterChanged(master types.MasterType) {
	for _, l := range b.snapshot() {
		b.deliver(l, func(l types.ChangeListener) { l.MasterChanged(master) })
	}
}

// snapshot copies the listener set so delivery happens outside the lock;
// listeners may unregister themselves from a callback.
func (b *Basic) snapshot() []types.ChangeListener {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]types.ChangeListener, 0, len(b.listeners))
	for l := range b.listeners {
		out = append(out, l)
	}

	return out
}

// deliver invokes one listener, isolating panics so a misbehaving session
// cannot break delivery to the others.
func (b *Basic) deliver(l types.ChangeListener, fn func(types.ChangeListener)) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("change listener panicked, skipping", "panic", r)
		}
	}()
	fn(l)
}
