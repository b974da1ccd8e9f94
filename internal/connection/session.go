package connection

import (
	"sync"
	"sync/atomic"

	"github.com/quantflow/pushhub/internal/watch"
	"github.com/quantflow/pushhub/types"
)

// viewportRef pairs an engine-owned viewport with the session's watch on it.
type viewportRef struct {
	viewport types.Viewport
	watch    *watch.Watch
}

// Session aggregates one user's long-poll client, its fire-once entity and
// master subscriptions, and its viewport watches. It is the unit registered
// against external change sources.
//
// Entity and master subscriptions are one-shot arms: they fire once on the
// first matching change, are consumed, and the client is expected to re-arm
// after acting on the update. A newer subscribe for the same key silently
// replaces the older one, since only the latest URL matters.
//
// Thread Safety: all methods are safe for concurrent use. Change callbacks
// arrive on source goroutines and only ever touch this session's own state,
// so one slow session cannot convoy unrelated clients.
type Session struct {
	userID string
	client *Client

	mu        sync.Mutex
	entities  map[string]string           // objectID -> update URL
	masters   map[types.MasterType]string // master -> update URL
	viewports map[string]viewportRef

	closed atomic.Bool

	logger types.Logger
}

// Compile-time assertion that Session implements ChangeListener.
var _ types.ChangeListener = (*Session)(nil)

// NewSession creates a session owned by the given user.
func NewSession(userID string, client *Client, logger types.Logger) *Session {
	return &Session{
		userID:    userID,
		client:    client,
		entities:  make(map[string]string),
		masters:   make(map[types.MasterType]string),
		viewports: make(map[string]viewportRef),
		logger:    logger,
	}
}

// UserID returns the owning user's identifier.
func (s *Session) UserID() string {
	return s.userID
}

// Closed reports whether Close has begun on this session.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Client returns the session's long-poll client.
func (s *Session) Client() *Client {
	return s.client
}

// Subscribe arms a fire-once subscription for the given object, replacing
// any existing subscription for the same object ID.
func (s *Session) Subscribe(objectID, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[objectID] = url
}

// SubscribeMaster arms a fire-once subscription on a whole master, replacing
// any existing subscription for the same master.
func (s *Session) SubscribeMaster(master types.MasterType, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masters[master] = url
}

// EntityChanged implements types.ChangeListener. A matching subscription is
// consumed and its URL delivered to the long-poll client; a change for an
// unsubscribed object is ignored.
func (s *Session) EntityChanged(objectID string) {
	if s.closed.Load() {
		return
	}

	s.mu.Lock()
	url, ok := s.entities[objectID]
	if ok {
		delete(s.entities, objectID)
	}
	s.mu.Unlock()

	if ok {
		s.client.Notify(url)
	}
}

// MasterChanged implements types.ChangeListener, with the same fire-once
// semantics as EntityChanged.
func (s *Session) MasterChanged(master types.MasterType) {
	if s.closed.Load() {
		return
	}

	s.mu.Lock()
	url, ok := s.masters[master]
	if ok {
		delete(s.masters, master)
	}
	s.mu.Unlock()

	if ok {
		s.client.Notify(url)
	}
}

// AddViewport records a viewport and its watch, and registers the watch as
// the viewport's listener. Returns false if the session is already closed;
// nothing is registered in that case.
//
// The closed check and the listener registration share the session lock, so
// a concurrent Close either sees the new ref (and releases the listener
// during teardown) or this call fails before touching the viewport.
func (s *Session) AddViewport(id string, vp types.Viewport, w *watch.Watch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return false
	}
	s.viewports[id] = viewportRef{viewport: vp, watch: w}
	vp.AddListener(w)

	return true
}

// Viewport returns the engine viewport registered under the given ID.
func (s *Session) Viewport(id string) (types.Viewport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.viewports[id]
	if !ok {
		return nil, false
	}

	return ref.viewport, true
}

// Watch returns the watch registered under the given viewport ID.
func (s *Session) Watch(id string) (*watch.Watch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.viewports[id]
	if !ok {
		return nil, false
	}

	return ref.watch, true
}

// ViewportIDs returns the IDs of every viewport registered on this session.
func (s *Session) ViewportIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.viewports))
	for id := range s.viewports {
		ids = append(ids, id)
	}

	return ids
}

// EvictExpired clears an expired parked request on the session's client.
func (s *Session) EvictExpired() bool {
	return s.client.EvictExpired()
}

// Close tears the session down: every viewport listener registration is
// released (the viewports themselves stay alive, they belong to the engine)
// and the long-poll client is detached, resuming any parked request with a
// closed signal.
//
// Close is idempotent; only the first call reports the transition, with the
// IDs of the viewports it released. The registry relies on this to unregister
// the session from change sources exactly once and to sweep its viewport
// index: the returned IDs are exactly the registrations that made it in
// before the closed flag flipped.
func (s *Session) Close() (viewportIDs []string, first bool) {
	if !s.closed.CompareAndSwap(false, true) {
		return nil, false
	}

	s.mu.Lock()
	ids := make([]string, 0, len(s.viewports))
	refs := make([]viewportRef, 0, len(s.viewports))
	for id, ref := range s.viewports {
		ids = append(ids, id)
		refs = append(refs, ref)
	}
	s.viewports = make(map[string]viewportRef)
	s.entities = make(map[string]string)
	s.masters = make(map[types.MasterType]string)
	s.mu.Unlock()

	for _, ref := range refs {
		ref.viewport.RemoveListener(ref.watch)
	}

	s.client.Detach()

	return ids, true
}
