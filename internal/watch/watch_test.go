package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects the URLs a watch delivered.
type recorder struct {
	urls []string
}

func (r *recorder) notify(url string) {
	r.urls = append(r.urls, url)
}

func TestWatch_InactiveBuffersAsDirty(t *testing.T) {
	rec := &recorder{}
	w := New("/data", "/grid", false, rec.notify)

	w.MarkDirty()
	w.MarkDirty()
	w.MarkDirty()

	assert.Empty(t, rec.urls, "inactive watch must not deliver")
	assert.True(t, w.Dirty())
	assert.Equal(t, StateInactive, w.State())
}

func TestWatch_ActivateWhileDirtyFlushesAndStaysInactive(t *testing.T) {
	rec := &recorder{}
	w := New("/data", "/grid", false, rec.notify)

	w.MarkDirty()
	w.MarkDirty()
	w.Activate()

	require.Equal(t, []string{"/data"}, rec.urls, "a burst of changes flushes as one delivery")
	assert.Equal(t, StateInactive, w.State())
	assert.False(t, w.Dirty())

	// The flush is one-shot: the next change buffers again.
	w.MarkDirty()
	assert.Equal(t, []string{"/data"}, rec.urls)
	assert.True(t, w.Dirty())
}

func TestWatch_ActivateWhileCleanGoesActive(t *testing.T) {
	rec := &recorder{}
	w := New("/data", "/grid", false, rec.notify)

	w.Activate()
	require.Equal(t, StateActive, w.State())
	assert.Empty(t, rec.urls)

	w.MarkDirty()
	w.MarkDirty()

	assert.Equal(t, []string{"/data", "/data"}, rec.urls, "active watch delivers every change")
	assert.False(t, w.Dirty())
}

func TestWatch_InitiallyActive(t *testing.T) {
	rec := &recorder{}
	w := New("/data", "/grid", true, rec.notify)

	require.Equal(t, StateActive, w.State())

	w.MarkDirty()
	assert.Equal(t, []string{"/data"}, rec.urls)
}

func TestWatch_GridStructureChangeBypassesState(t *testing.T) {
	rec := &recorder{}
	w := New("/data", "/grid", false, rec.notify)

	w.GridStructureChanged()
	require.Equal(t, []string{"/grid"}, rec.urls)
	assert.False(t, w.Dirty(), "structure changes do not touch the data dirty flag")

	w.Activate()
	w.GridStructureChanged()
	assert.Equal(t, []string{"/grid", "/grid"}, rec.urls)
}

func TestWatch_DataChangedIsMarkDirty(t *testing.T) {
	rec := &recorder{}
	w := New("/data", "/grid", false, rec.notify)

	w.DataChanged()

	assert.True(t, w.Dirty())
	assert.Empty(t, rec.urls)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Inactive", StateInactive.String())
	assert.Equal(t, "Active", StateActive.String())
	assert.Equal(t, "Unknown", State(42).String())
}
