package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/quantflow/pushhub/types"
)

// Static implements an in-memory analytics engine with push-driven results.
type Static struct {
	mu        sync.RWMutex
	viewports map[string]*StaticViewport
	nextID    atomic.Int64
}

// Compile-time assertion that Static implements AnalyticsEngine.
var _ types.AnalyticsEngine = (*Static)(nil)

// NewStatic creates a static engine with no viewports.
func NewStatic() *Static {
	return &Static{viewports: make(map[string]*StaticViewport)}
}

// CreateViewport materializes an in-memory viewport for the spec. The grid
// structure snapshot is derived from the spec's bounds; data starts empty
// until pushed with PushData.
func (e *Static) CreateViewport(_ context.Context, spec types.ViewportSpec) (types.Viewport, error) {
	if spec.LastRow < spec.FirstRow || spec.LastColumn < spec.FirstColumn {
		return nil, fmt.Errorf("%w: viewport bounds are inverted", types.ErrInvalidConfig)
	}

	grid, err := json.Marshal(gridStructure{
		Target:  spec.Target,
		Rows:    spec.LastRow - spec.FirstRow + 1,
		Columns: spec.LastColumn - spec.FirstColumn + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEncoding, err)
	}

	vp := &StaticViewport{
		id:        fmt.Sprintf("vp-%d", e.nextID.Add(1)),
		spec:      spec,
		running:   spec.Running,
		mode:      spec.Mode,
		grid:      grid,
		data:      json.RawMessage(`{"rows":[]}`),
		listeners: make(map[types.ViewportListener]struct{}),
	}

	e.mu.Lock()
	e.viewports[vp.id] = vp
	e.mu.Unlock()

	return vp, nil
}

// Viewport returns the viewport with the given ID, if it exists.
func (e *Static) Viewport(id string) (*StaticViewport, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	vp, ok := e.viewports[id]

	return vp, ok
}

// gridStructure is the static engine's grid layout snapshot.
type gridStructure struct {
	Target  string `json:"target"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// StaticViewport is an in-memory viewport whose snapshots are replaced by
// explicit pushes.
type StaticViewport struct {
	id   string
	spec types.ViewportSpec

	mu        sync.Mutex
	running   bool
	mode      types.ConversionMode
	grid      json.RawMessage
	data      json.RawMessage
	listeners map[types.ViewportListener]struct{}
}

// Compile-time assertion that StaticViewport implements Viewport.
var _ types.Viewport = (*StaticViewport)(nil)

// ID returns the viewport identifier.
func (v *StaticViewport) ID() string {
	return v.id
}

// GridStructure returns the current grid layout snapshot.
func (v *StaticViewport) GridStructure() json.RawMessage {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.grid
}

// Data returns the latest results snapshot.
func (v *StaticViewport) Data() json.RawMessage {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.data
}

// SetRunning pauses or resumes the viewport. A paused viewport keeps
// accepting pushed data but stops firing DataChanged callbacks.
func (v *StaticViewport) SetRunning(running bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.running = running

	return nil
}

// Running reports whether the viewport is computing.
func (v *StaticViewport) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.running
}

// SetMode sets the result conversion mode.
func (v *StaticViewport) SetMode(mode types.ConversionMode) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode

	return nil
}

// Mode returns the current conversion mode.
func (v *StaticViewport) Mode() types.ConversionMode {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.mode
}

// AddListener registers a listener for data and structure changes.
func (v *StaticViewport) AddListener(l types.ViewportListener) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners[l] = struct{}{}
}

// RemoveListener removes a previously registered listener.
func (v *StaticViewport) RemoveListener(l types.ViewportListener) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.listeners, l)
}

// ListenerCount returns the number of registered listeners. Exposed so tests
// can assert that session teardown released its registration.
func (v *StaticViewport) ListenerCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return len(v.listeners)
}

// PushData replaces the results snapshot. Listeners are notified only while
// the viewport is running.
func (v *StaticViewport) PushData(data json.RawMessage) {
	v.mu.Lock()
	v.data = data
	fire := v.running
	ls := v.snapshotListeners()
	v.mu.Unlock()

	if !fire {
		return
	}
	for _, l := range ls {
		l.DataChanged()
	}
}

// PushGrid replaces the grid structure snapshot and notifies listeners
// unconditionally; layout changes are always client-relevant.
func (v *StaticViewport) PushGrid(grid json.RawMessage) {
	v.mu.Lock()
	v.grid = grid
	ls := v.snapshotListeners()
	v.mu.Unlock()

	for _, l := range ls {
		l.GridStructureChanged()
	}
}

// snapshotListeners must be called with the lock held.
func (v *StaticViewport) snapshotListeners() []types.ViewportListener {
	out := make([]types.ViewportListener, 0, len(v.listeners))
	for l := range v.listeners {
		out = append(out, l)
	}

	return out
}
