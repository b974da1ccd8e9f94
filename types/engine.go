package types

import (
	"context"
	"encoding/json"
	"fmt"
)

// ConversionMode controls how viewport results are converted for transport.
type ConversionMode int

const (
	// ModeSummary converts results to their compact display form.
	ModeSummary ConversionMode = iota

	// ModeFull converts results to their complete structured form, including
	// the detail a client needs to expand a cell in place.
	ModeFull
)

// String returns the string representation of the conversion mode.
func (m ConversionMode) String() string {
	switch m {
	case ModeSummary:
		return "summary"
	case ModeFull:
		return "full"
	default:
		return "unknown"
	}
}

// ParseConversionMode parses a conversion mode from its string form.
func ParseConversionMode(s string) (ConversionMode, error) {
	switch s {
	case "summary":
		return ModeSummary, nil
	case "full":
		return ModeFull, nil
	default:
		return ModeSummary, fmt.Errorf("%w: unknown conversion mode %q", ErrInvalidConfig, s)
	}
}

// ViewportSpec describes the window onto an analytics grid a client wants to
// watch: the computation target plus the visible row/column bounds.
type ViewportSpec struct {
	// Target identifies the computation the viewport renders, typically a
	// view-definition or portfolio identifier understood by the engine.
	Target string `json:"target"`

	// Row/column bounds of the visible window, inclusive.
	FirstRow    int `json:"firstRow"`
	LastRow     int `json:"lastRow"`
	FirstColumn int `json:"firstColumn"`
	LastColumn  int `json:"lastColumn"`

	// Running controls whether computation starts immediately.
	Running bool `json:"running"`

	// Mode is the initial result conversion mode.
	Mode ConversionMode `json:"-"`
}

// ViewportListener receives change callbacks from an engine-owned viewport.
//
// Callbacks arrive on engine goroutines and must be non-blocking.
type ViewportListener interface {
	// DataChanged is invoked after a recalculation produced new results.
	DataChanged()

	// GridStructureChanged is invoked when the grid's row/column layout
	// changed. Structure changes invalidate client-side rendering state, so
	// they are signalled independently of data changes.
	GridStructureChanged()
}

// Viewport is a live window onto an analytics results grid, owned by the
// computation engine. Sessions hold a reference plus their own listener
// registration; session teardown releases the listener and never destroys
// the viewport itself.
type Viewport interface {
	// ID returns the viewport's opaque identifier.
	ID() string

	// GridStructure returns the current grid layout snapshot as JSON.
	GridStructure() json.RawMessage

	// Data returns the latest computed results snapshot as JSON.
	Data() json.RawMessage

	// SetRunning pauses or resumes computation for this viewport.
	SetRunning(running bool) error

	// SetMode sets the result conversion mode.
	SetMode(mode ConversionMode) error

	// AddListener registers a listener for data and structure changes.
	AddListener(l ViewportListener)

	// RemoveListener removes a previously registered listener. Removing a
	// listener that is not registered is a no-op.
	RemoveListener(l ViewportListener)
}

// AnalyticsEngine is the narrow interface to the computation engine
// collaborator. The core only ever asks it to materialize viewports.
type AnalyticsEngine interface {
	// CreateViewport materializes a viewport for the given spec and starts
	// computing it. The returned viewport remains owned by the engine.
	CreateViewport(ctx context.Context, spec ViewportSpec) (Viewport, error)
}
