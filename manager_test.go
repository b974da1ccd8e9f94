package pushhub

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantflow/pushhub/changefeed"
	"github.com/quantflow/pushhub/engine"
	"github.com/quantflow/pushhub/internal/logger"
	"github.com/quantflow/pushhub/internal/metrics"
	pushtest "github.com/quantflow/pushhub/testing"
	"github.com/quantflow/pushhub/types"
)

type managerFixture struct {
	mgr    *Manager
	engine *engine.Static
	feed   *changefeed.Basic
}

func newFixture(t *testing.T, cfg *Config) *managerFixture {
	t.Helper()

	if cfg == nil {
		cfg = &Config{}
	}

	feed := changefeed.NewBasic(logger.NewNop())
	eng := engine.NewStatic()

	mgr, err := NewManager(cfg, eng, WithChangeSources(feed), WithLogger(logger.NewTest(t)))
	require.NoError(t, err)

	return &managerFixture{mgr: mgr, engine: eng, feed: feed}
}

func TestNewManager_Validation(t *testing.T) {
	eng := engine.NewStatic()

	_, err := NewManager(nil, eng)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewManager(&Config{}, nil)
	require.ErrorIs(t, err, ErrEngineRequired)

	_, err = NewManager(&Config{PollTimeout: time.Second, EvictInterval: 2 * time.Second}, eng)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestManager_HandshakeIssuesUniqueIDs(t *testing.T) {
	f := newFixture(t, nil)

	id1, err := f.mgr.Handshake("alice")
	require.NoError(t, err)
	id2, err := f.mgr.Handshake("alice")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, f.mgr.SessionCount())
	assert.Equal(t, 2, f.feed.ListenerCount())
}

func TestManager_ClientIDPrefix(t *testing.T) {
	f := newFixture(t, &Config{ClientIDPrefix: "node1-"})

	id, err := f.mgr.Handshake("alice")
	require.NoError(t, err)

	assert.Equal(t, "node1-1", id)
}

// TestManager_SubscribeThenChangeThenPoll covers the canonical flow: arm a
// subscription, receive the change while idle, then attach and get the queued
// update immediately; a second attach parks and a later change resumes it.
func TestManager_SubscribeThenChangeThenPoll(t *testing.T) {
	f := newFixture(t, nil)

	clientID, err := f.mgr.Handshake("alice")
	require.NoError(t, err)

	require.NoError(t, f.mgr.Subscribe("alice", clientID, "O1", "/securities/O1"))

	f.feed.EntityChanged("O1")

	req := pushtest.NewFakePending()
	require.NoError(t, f.mgr.Attach("alice", clientID, req))
	res, done := req.Completed()
	require.True(t, done, "queued update must resume the attach immediately")
	assert.Equal(t, []string{"/securities/O1"}, res.Updates)

	// Re-arm and poll first this time.
	require.NoError(t, f.mgr.Subscribe("alice", clientID, "O1", "/securities/O1"))
	parked := pushtest.NewFakePending()
	require.NoError(t, f.mgr.Attach("alice", clientID, parked))
	_, done = parked.Completed()
	require.False(t, done)

	f.feed.EntityChanged("O1")

	res, done = parked.Completed()
	require.True(t, done, "change while parked must resume the poll")
	assert.Equal(t, []string{"/securities/O1"}, res.Updates)
}

func TestManager_ChangesAreIsolatedPerSession(t *testing.T) {
	f := newFixture(t, nil)

	aliceID, err := f.mgr.Handshake("alice")
	require.NoError(t, err)
	bobID, err := f.mgr.Handshake("bob")
	require.NoError(t, err)

	require.NoError(t, f.mgr.Subscribe("alice", aliceID, "O1", "/securities/O1"))

	f.feed.EntityChanged("O1")

	bobReq := pushtest.NewFakePending()
	require.NoError(t, f.mgr.Attach("bob", bobID, bobReq))
	_, done := bobReq.Completed()
	assert.False(t, done, "bob never subscribed to O1")

	aliceReq := pushtest.NewFakePending()
	require.NoError(t, f.mgr.Attach("alice", aliceID, aliceReq))
	_, done = aliceReq.Completed()
	assert.True(t, done)

	require.NoError(t, f.mgr.Close("bob", bobID))
}

func TestManager_AuthorizationByOwningUser(t *testing.T) {
	f := newFixture(t, nil)

	clientID, err := f.mgr.Handshake("alice")
	require.NoError(t, err)

	err = f.mgr.Subscribe("bob", clientID, "O1", "/securities/O1")
	require.ErrorIs(t, err, ErrForbidden)

	err = f.mgr.Attach("bob", clientID, pushtest.NewFakePending())
	require.ErrorIs(t, err, ErrForbidden)

	err = f.mgr.Close("bob", clientID)
	require.ErrorIs(t, err, ErrForbidden)

	err = f.mgr.Attach("alice", "no-such-client", pushtest.NewFakePending())
	require.ErrorIs(t, err, ErrUnknownClient)
}

func TestManager_SubscribeMasterValidatesType(t *testing.T) {
	f := newFixture(t, nil)

	clientID, err := f.mgr.Handshake("alice")
	require.NoError(t, err)

	err = f.mgr.SubscribeMaster("alice", clientID, types.MasterType("bogus"), "/masters/bogus")
	require.ErrorIs(t, err, ErrInvalidConfig)

	require.NoError(t, f.mgr.SubscribeMaster("alice", clientID, types.MasterPortfolio, "/masters/portfolios"))

	f.feed.MasterChanged(types.MasterPortfolio)

	req := pushtest.NewFakePending()
	require.NoError(t, f.mgr.Attach("alice", clientID, req))
	res, done := req.Completed()
	require.True(t, done)
	assert.Equal(t, []string{"/masters/portfolios"}, res.Updates)
}

func TestManager_CloseIsIdempotentAndReleasesListeners(t *testing.T) {
	f := newFixture(t, nil)

	clientID, err := f.mgr.Handshake("alice")
	require.NoError(t, err)
	require.Equal(t, 1, f.feed.ListenerCount())

	parked := pushtest.NewFakePending()
	require.NoError(t, f.mgr.Attach("alice", clientID, parked))

	require.NoError(t, f.mgr.Close("alice", clientID))
	require.NoError(t, f.mgr.Close("alice", clientID), "duplicate close is harmless")
	require.NoError(t, f.mgr.Close("alice", "never-existed"))

	res, done := parked.Completed()
	require.True(t, done)
	assert.Equal(t, types.ResultClosed, res.Kind)

	assert.Equal(t, 0, f.feed.ListenerCount(), "close must unregister from change sources")
	assert.Equal(t, 0, f.mgr.SessionCount())

	// A closed client ID is indistinguishable from one that never existed.
	err = f.mgr.Attach("alice", clientID, pushtest.NewFakePending())
	assert.ErrorIs(t, err, ErrUnknownClient)
}

func TestManager_NoListenerLeakAcrossManySessions(t *testing.T) {
	f := newFixture(t, nil)

	const n = 50
	ids := make([]string, 0, n)
	for range n {
		id, err := f.mgr.Handshake("alice")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.Equal(t, n, f.feed.ListenerCount())

	for _, id := range ids {
		require.NoError(t, f.mgr.Close("alice", id))
	}

	assert.Equal(t, 0, f.feed.ListenerCount())
	assert.Equal(t, 0, f.mgr.SessionCount())
}

func TestManager_EvictionKeepsSessionAlive(t *testing.T) {
	f := newFixture(t, nil)

	clientID, err := f.mgr.Handshake("alice")
	require.NoError(t, err)

	req := pushtest.NewFakePending()
	require.NoError(t, f.mgr.Attach("alice", clientID, req))
	req.Expire()

	f.mgr.EvictExpired()

	// Eviction dropped the dead request but the session and its
	// subscriptions survive.
	require.NoError(t, f.mgr.Subscribe("alice", clientID, "O1", "/securities/O1"))
	f.feed.EntityChanged("O1")

	fresh := pushtest.NewFakePending()
	require.NoError(t, f.mgr.Attach("alice", clientID, fresh))
	res, done := fresh.Completed()
	require.True(t, done)
	assert.Equal(t, []string{"/securities/O1"}, res.Updates)
}

func TestManager_ViewportLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	clientID, err := f.mgr.Handshake("alice")
	require.NoError(t, err)

	vpID, dataURL, gridURL, err := f.mgr.CreateViewport(context.Background(), "alice", clientID, types.ViewportSpec{
		Target: "view-1", LastRow: 9, LastColumn: 3, Running: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/viewports/"+vpID+"/data", dataURL)
	assert.Equal(t, "/viewports/"+vpID+"/gridStructure", gridURL)

	static, ok := f.engine.Viewport(vpID)
	require.True(t, ok)

	// Watch starts inactive: a data push buffers, activation flushes.
	static.PushData([]byte(`{"rows":[[1]]}`))

	parked := pushtest.NewFakePending()
	require.NoError(t, f.mgr.Attach("alice", clientID, parked))
	_, done := parked.Completed()
	require.False(t, done, "inactive watch must not deliver")

	require.NoError(t, f.mgr.ActivateViewport("alice", clientID, vpID))
	res, done := parked.Completed()
	require.True(t, done)
	assert.Equal(t, []string{dataURL}, res.Updates)

	// Grid-structure changes bypass the watch state entirely.
	static.PushGrid([]byte(`{"rows":20,"columns":3}`))
	gridReq := pushtest.NewFakePending()
	require.NoError(t, f.mgr.Attach("alice", clientID, gridReq))
	res, done = gridReq.Completed()
	require.True(t, done)
	assert.Equal(t, []string{gridURL}, res.Updates)

	vp, err := f.mgr.Viewport("alice", vpID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rows":20,"columns":3}`, string(vp.GridStructure()))

	require.NoError(t, f.mgr.SetViewportRunning("alice", clientID, vpID, false))
	assert.False(t, static.Running())
	require.NoError(t, f.mgr.SetViewportMode("alice", clientID, vpID, types.ModeFull))
	assert.Equal(t, types.ModeFull, static.Mode())
}

func TestManager_ViewportDefaultActiveDeliversImmediately(t *testing.T) {
	f := newFixture(t, &Config{DefaultWatchActive: true})

	clientID, err := f.mgr.Handshake("alice")
	require.NoError(t, err)

	vpID, dataURL, _, err := f.mgr.CreateViewport(context.Background(), "alice", clientID, types.ViewportSpec{
		Target: "view-1", LastRow: 1, LastColumn: 1, Running: true,
	})
	require.NoError(t, err)

	parked := pushtest.NewFakePending()
	require.NoError(t, f.mgr.Attach("alice", clientID, parked))

	static, _ := f.engine.Viewport(vpID)
	static.PushData([]byte(`{"rows":[[2]]}`))

	res, done := parked.Completed()
	require.True(t, done)
	assert.Equal(t, []string{dataURL}, res.Updates)
}

func TestManager_ViewportAuthorization(t *testing.T) {
	f := newFixture(t, nil)

	clientID, err := f.mgr.Handshake("alice")
	require.NoError(t, err)

	vpID, _, _, err := f.mgr.CreateViewport(context.Background(), "alice", clientID, types.ViewportSpec{
		Target: "view-1", LastRow: 1, LastColumn: 1,
	})
	require.NoError(t, err)

	_, err = f.mgr.Viewport("bob", vpID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.mgr.Viewport("alice", "no-such-viewport")
	require.ErrorIs(t, err, ErrUnknownViewport)

	err = f.mgr.ActivateViewport("alice", clientID, "no-such-viewport")
	require.ErrorIs(t, err, ErrUnknownViewport)

	// Closing the owner removes the viewport from the public index.
	require.NoError(t, f.mgr.Close("alice", clientID))
	_, err = f.mgr.Viewport("alice", vpID)
	require.ErrorIs(t, err, ErrUnknownViewport)
}

// TestManager_CloseDuringCreateViewportLeavesNoTrace races session teardown
// against viewport creation. Whichever side wins, the end state must hold no
// viewport listener and no index entry for the viewport.
func TestManager_CloseDuringCreateViewportLeavesNoTrace(t *testing.T) {
	f := newFixture(t, nil)

	for range 200 {
		clientID, err := f.mgr.Handshake("alice")
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			vpID      string
			createErr error
			closeErr  error
		)
		wg.Go(func() {
			vpID, _, _, createErr = f.mgr.CreateViewport(context.Background(), "alice", clientID, types.ViewportSpec{
				Target: "view-1", LastRow: 1, LastColumn: 1,
			})
		})
		wg.Go(func() {
			closeErr = f.mgr.Close("alice", clientID)
		})
		wg.Wait()
		require.NoError(t, closeErr)

		// When creation won the race, the close that follows must still
		// tear everything down.
		require.NoError(t, f.mgr.Close("alice", clientID))

		if createErr != nil {
			require.ErrorIs(t, createErr, ErrUnknownClient)

			continue
		}

		static, ok := f.engine.Viewport(vpID)
		require.True(t, ok)
		require.Equal(t, 0, static.ListenerCount(), "closed session must not keep a viewport listener")
		_, err = f.mgr.Viewport("alice", vpID)
		require.ErrorIs(t, err, ErrUnknownViewport)
	}

	assert.Equal(t, 0, f.mgr.SessionCount())
	assert.Equal(t, 0, f.feed.ListenerCount())
}

func TestManager_HandshakeAfterStopRejected(t *testing.T) {
	f := newFixture(t, &Config{PollTimeout: time.Second, EvictInterval: 10 * time.Millisecond})

	ctx := context.Background()
	require.NoError(t, f.mgr.Start(ctx))
	require.NoError(t, f.mgr.Stop(ctx))

	_, err := f.mgr.Handshake("alice")
	require.ErrorIs(t, err, ErrNotStarted)
	assert.Equal(t, 0, f.mgr.SessionCount())
	assert.Equal(t, 0, f.feed.ListenerCount(), "a rejected handshake must not register with change sources")

	// Restarting lifts the rejection.
	require.NoError(t, f.mgr.Start(ctx))
	clientID, err := f.mgr.Handshake("alice")
	require.NoError(t, err)
	require.NoError(t, f.mgr.Close("alice", clientID))
	require.NoError(t, f.mgr.Stop(ctx))
}

func TestManager_CreateViewportRejectsInvertedBounds(t *testing.T) {
	f := newFixture(t, nil)

	clientID, err := f.mgr.Handshake("alice")
	require.NoError(t, err)

	_, _, _, err = f.mgr.CreateViewport(context.Background(), "alice", clientID, types.ViewportSpec{
		Target: "view-1", FirstRow: 5, LastRow: 2,
	})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestManager_StartStopLifecycle(t *testing.T) {
	f := newFixture(t, &Config{PollTimeout: time.Second, EvictInterval: 10 * time.Millisecond})

	ctx := context.Background()

	require.ErrorIs(t, f.mgr.Stop(ctx), ErrNotStarted)
	require.NoError(t, f.mgr.Start(ctx))
	require.ErrorIs(t, f.mgr.Start(ctx), ErrAlreadyStarted)

	clientID, err := f.mgr.Handshake("alice")
	require.NoError(t, err)

	parked := pushtest.NewFakePending()
	require.NoError(t, f.mgr.Attach("alice", clientID, parked))

	require.NoError(t, f.mgr.Stop(ctx))

	res, done := parked.Completed()
	require.True(t, done, "stop must resume every parked request")
	assert.Equal(t, types.ResultClosed, res.Kind)
	assert.Equal(t, 0, f.feed.ListenerCount())

	// The manager restarts cleanly after a stop.
	require.NoError(t, f.mgr.Start(ctx))
	require.NoError(t, f.mgr.Stop(ctx))
}

// countingMetrics records eviction counts so tests can observe the sweeper.
type countingMetrics struct {
	types.MetricsCollector
	evictions atomic.Int64
}

func (c *countingMetrics) RecordEviction() {
	c.evictions.Add(1)
}

func TestManager_SweeperEvictsExpiredRequests(t *testing.T) {
	counting := &countingMetrics{MetricsCollector: metrics.NewNop()}
	eng := engine.NewStatic()
	mgr, err := NewManager(&Config{PollTimeout: time.Second, EvictInterval: 10 * time.Millisecond},
		eng, WithMetrics(counting))
	require.NoError(t, err)

	require.NoError(t, mgr.Start(context.Background()))
	defer func() { _ = mgr.Stop(context.Background()) }()

	clientID, err := mgr.Handshake("alice")
	require.NoError(t, err)

	req := pushtest.NewFakePending()
	require.NoError(t, mgr.Attach("alice", clientID, req))
	req.Expire()

	require.Eventually(t, func() bool {
		return counting.evictions.Load() == 1
	}, time.Second, 20*time.Millisecond, "sweeper should clear the expired request")

	// The session survives the eviction.
	fresh := pushtest.NewFakePending()
	require.NoError(t, mgr.Attach("alice", clientID, fresh))
	assert.True(t, fresh.Parked())
}
