package changefeed

import "github.com/quantflow/pushhub/types"

// Aggregate presents several change sources as one. Registering a listener
// registers it with every underlying source, so the registry can treat the
// full set of masters as a single collaborator.
type Aggregate struct {
	sources []types.ChangeSource
}

// Compile-time assertion that Aggregate implements ChangeSource.
var _ types.ChangeSource = (*Aggregate)(nil)

// NewAggregate creates an aggregating source over the given sources.
func NewAggregate(sources ...types.ChangeSource) *Aggregate {
	return &Aggregate{sources: sources}
}

// AddListener registers the listener with every underlying source.
func (a *Aggregate) AddListener(l types.ChangeListener) {
	for _, s := range a.sources {
		s.AddListener(l)
	}
}

// RemoveListener removes the listener from every underlying source.
func (a *Aggregate) RemoveListener(l types.ChangeListener) {
	for _, s := range a.sources {
		s.RemoveListener(l)
	}
}
