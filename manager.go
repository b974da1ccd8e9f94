package pushhub

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/quantflow/pushhub/internal/connection"
	"github.com/quantflow/pushhub/internal/logger"
	"github.com/quantflow/pushhub/internal/metrics"
	"github.com/quantflow/pushhub/internal/watch"
	"github.com/quantflow/pushhub/types"
)

// Manager is the connection registry and subscription façade the web layer
// talks to. It handles:
//   - Handshake: session creation and change-source registration
//   - Attach: connecting a fresh long-poll request to its session
//   - Subscribe / SubscribeMaster: arming fire-once subscriptions
//   - CreateViewport and the viewport pass-throughs
//   - Close: idempotent session teardown
//   - Eviction of expired parked requests
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - The registry maps are scoped to insert/lookup/remove only and are
//     never held while session-level logic runs, so one slow client cannot
//     convoy unrelated clients
//   - Per-client and per-watch state is serialized by their own locks
//
// Lifecycle:
//   - Create with NewManager()
//   - Call Start() to launch the eviction sweeper
//   - Call Stop() for graceful shutdown; every live session is closed and
//     any parked request resumed with a closed signal
type Manager struct {
	cfg     Config
	engine  types.AnalyticsEngine
	sources []types.ChangeSource
	logger  types.Logger
	metrics types.MetricsCollector

	sessions      *xsync.Map[string, *connection.Session]
	viewportIndex *xsync.Map[string, *connection.Session]
	sessionCount  atomic.Int64
	nextClientID  atomic.Int64

	// Lifecycle management
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

// NewManager creates a new Manager instance with the provided configuration.
//
// Returns a concrete *Manager struct following the "accept interfaces,
// return structs" principle. Consumers can define their own interfaces for
// testing if needed.
//
// Parameters:
//   - cfg: Runtime configuration
//   - engine: Analytics engine collaborator that materializes viewports
//   - opts: Optional configuration (logger, metrics, change sources)
//
// Returns:
//   - *Manager: Initialized manager instance
//   - error: Validation error if the configuration is invalid
func NewManager(cfg *Config, engine types.AnalyticsEngine, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if engine == nil {
		return nil, ErrEngineRequired
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Safe defaults for optional dependencies to avoid nil checks everywhere.
	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}
	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logger.NewNop()
	}

	return &Manager{
		cfg:           *cfg,
		engine:        engine,
		sources:       options.sources,
		logger:        loggerInstance,
		metrics:       metricsCollector,
		sessions:      xsync.NewMap[string, *connection.Session](),
		viewportIndex: xsync.NewMap[string, *connection.Session](),
	}, nil
}

// Start launches the eviction sweeper, which periodically clears parked
// requests whose transport deadline has passed. A Manager that is never
// started still works; eviction then only happens when the transport itself
// completes expired requests.
func (m *Manager) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx != nil {
		return ErrAlreadyStarted
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.stopped = false

	m.wg.Add(1)
	go m.sweepLoop(m.ctx)

	m.logger.Info("manager started", "evictInterval", m.cfg.EvictInterval)

	return nil
}

// Stop shuts the manager down: the sweeper is stopped and every live
// session is closed, resuming any parked request with a closed signal and
// releasing every change-source registration.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.ctx == nil {
		m.mu.Unlock()

		return ErrNotStarted
	}
	cancel := m.cancel
	m.ctx, m.cancel = nil, nil
	m.stopped = true
	m.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("stop interrupted: %w", ctx.Err())
	}

	m.sessions.Range(func(clientID string, s *connection.Session) bool {
		if _, ok := m.sessions.LoadAndDelete(clientID); ok {
			m.closeSession(s)
		}

		return true
	})

	m.logger.Info("manager stopped")

	return nil
}

func (m *Manager) sweepLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.EvictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictExpired()
		}
	}
}

// Handshake allocates a new session for the given user, registers it against
// every configured change source, and returns its client ID. Client IDs are
// monotonically issued and never reused.
//
// A stopped manager rejects handshakes with ErrNotStarted; a manager that was
// never started accepts them. Registration is serialized with Stop so a
// session created during shutdown is always swept by Stop's drain.
func (m *Manager) Handshake(userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return "", fmt.Errorf("%w: manager stopped", ErrNotStarted)
	}

	clientID := m.cfg.ClientIDPrefix + strconv.FormatInt(m.nextClientID.Add(1), 10)

	client := connection.NewClient(clientID, m.logger, m.metrics)
	session := connection.NewSession(userID, client, m.logger)
	m.sessions.Store(clientID, session)

	for _, src := range m.sources {
		src.AddListener(session)
	}

	m.metrics.RecordHandshake()
	m.metrics.SetActiveSessions(int(m.sessionCount.Add(1)))
	m.logger.Debug("session created", "clientId", clientID, "userId", userID)

	return clientID, nil
}

// Attach connects a fresh pending request to the client's session. The call
// never blocks: the request is either resumed immediately from the queue or
// stored as parked, and the transport does the actual suspending.
func (m *Manager) Attach(userID, clientID string, req types.PendingRequest) error {
	s, err := m.session(userID, clientID)
	if err != nil {
		return err
	}

	s.Client().Attach(req)

	return nil
}

// Subscribe arms a fire-once entity subscription: the next change event for
// objectID delivers url to the client and consumes the subscription. A newer
// Subscribe for the same objectID replaces the older one.
func (m *Manager) Subscribe(userID, clientID, objectID, url string) error {
	s, err := m.session(userID, clientID)
	if err != nil {
		return err
	}

	s.Subscribe(objectID, url)

	return nil
}

// SubscribeMaster arms a fire-once subscription on a whole master: the next
// change to any document in that master delivers url and consumes the
// subscription.
func (m *Manager) SubscribeMaster(userID, clientID string, master types.MasterType, url string) error {
	if !master.Valid() {
		return fmt.Errorf("%w: unknown master %q", ErrInvalidConfig, string(master))
	}

	s, err := m.session(userID, clientID)
	if err != nil {
		return err
	}

	s.SubscribeMaster(master, url)

	return nil
}

// CreateViewport asks the engine to materialize a viewport, creates its
// watch (initial state per Config.DefaultWatchActive), and registers the
// watch for the engine's change callbacks.
//
// Returns the viewport ID plus the data and grid-structure notification
// URLs the client will receive updates on.
func (m *Manager) CreateViewport(ctx context.Context, userID, clientID string, spec types.ViewportSpec) (viewportID, dataURL, gridURL string, err error) {
	s, err := m.session(userID, clientID)
	if err != nil {
		return "", "", "", err
	}

	vp, err := m.engine.CreateViewport(ctx, spec)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to create viewport: %w", err)
	}

	viewportID = vp.ID()
	dataURL = "/viewports/" + viewportID + "/data"
	gridURL = "/viewports/" + viewportID + "/gridStructure"

	w := watch.New(dataURL, gridURL, m.cfg.DefaultWatchActive, s.Client().Notify)
	if !s.AddViewport(viewportID, vp, w) {
		// The session closed while the engine was materializing the
		// viewport; nothing was registered.
		return "", "", "", fmt.Errorf("%w: %s", ErrUnknownClient, clientID)
	}
	m.viewportIndex.Store(viewportID, s)
	if s.Closed() {
		// Close raced past AddViewport before the index store. Its index
		// sweep cannot have seen this entry, so it is removed here; the
		// session teardown already released the viewport listener.
		m.viewportIndex.Delete(viewportID)

		return "", "", "", fmt.Errorf("%w: %s", ErrUnknownClient, clientID)
	}

	m.logger.Debug("viewport created", "clientId", clientID, "viewportId", viewportID)

	return viewportID, dataURL, gridURL, nil
}

// ActivateViewport arms the viewport's watch, or flushes it immediately if
// data changed since the last delivery.
func (m *Manager) ActivateViewport(userID, clientID, viewportID string) error {
	s, err := m.session(userID, clientID)
	if err != nil {
		return err
	}

	w, ok := s.Watch(viewportID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownViewport, viewportID)
	}
	w.Activate()

	return nil
}

// SetViewportRunning pauses or resumes computation for the viewport.
func (m *Manager) SetViewportRunning(userID, clientID, viewportID string, running bool) error {
	s, err := m.session(userID, clientID)
	if err != nil {
		return err
	}

	vp, ok := s.Viewport(viewportID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownViewport, viewportID)
	}

	return vp.SetRunning(running)
}

// SetViewportMode sets the viewport's result conversion mode.
func (m *Manager) SetViewportMode(userID, clientID, viewportID string, mode types.ConversionMode) error {
	s, err := m.session(userID, clientID)
	if err != nil {
		return err
	}

	vp, ok := s.Viewport(viewportID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownViewport, viewportID)
	}

	return vp.SetMode(mode)
}

// Viewport returns the engine viewport with the given ID, authorized against
// the owning session's user.
func (m *Manager) Viewport(userID, viewportID string) (types.Viewport, error) {
	s, ok := m.viewportIndex.Load(viewportID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownViewport, viewportID)
	}
	if s.UserID() != userID {
		return nil, fmt.Errorf("%w: viewport %s", ErrForbidden, viewportID)
	}

	vp, ok := s.Viewport(viewportID)
	if !ok {
		// The owning session closed between index lookup and session read.
		return nil, fmt.Errorf("%w: %s", ErrUnknownViewport, viewportID)
	}

	return vp, nil
}

// Close tears down the client's session: the session is removed from the
// registry, unregistered from every change source, its viewport listeners
// are released, and any parked request is resumed with a closed signal.
//
// Close is idempotent. Closing an already-closed (or never-existing) client
// is a no-op so duplicate disconnect signals from the transport are
// harmless; a wrong user is still an error.
func (m *Manager) Close(userID, clientID string) error {
	s, ok := m.sessions.Load(clientID)
	if !ok {
		return nil
	}
	if s.UserID() != userID {
		return fmt.Errorf("%w: client %s", ErrForbidden, clientID)
	}

	if _, ok := m.sessions.LoadAndDelete(clientID); !ok {
		// A concurrent Close won the race.
		return nil
	}
	m.closeSession(s)
	m.logger.Debug("session closed", "clientId", clientID)

	return nil
}

// closeSession releases everything a session holds. The caller must already
// have removed it from the sessions map; Session.Close reporting false means
// another path finished the teardown first.
//
// The index sweep uses the IDs Session.Close released rather than a snapshot
// taken here: the snapshot could miss a viewport registered between it and
// the closed-flag flip. A CreateViewport that stores its index entry after
// this sweep observes the flipped flag and removes the entry itself.
func (m *Manager) closeSession(s *connection.Session) {
	ids, first := s.Close()
	if !first {
		return
	}

	for _, id := range ids {
		m.viewportIndex.Delete(id)
	}

	for _, src := range m.sources {
		src.RemoveListener(s)
	}

	m.metrics.RecordSessionClosed()
	m.metrics.SetActiveSessions(int(m.sessionCount.Add(-1)))
}

// EvictExpired scans every session and clears parked requests whose
// transport deadline has passed. The sessions themselves stay registered;
// eviction is a connection event, not a session-termination event.
func (m *Manager) EvictExpired() {
	m.sessions.Range(func(_ string, s *connection.Session) bool {
		if s.EvictExpired() {
			m.metrics.RecordEviction()
		}

		return true
	})
}

// SessionCount returns the number of live sessions.
func (m *Manager) SessionCount() int {
	return int(m.sessionCount.Load())
}

// session looks up and authorizes a session. Lookup failures surface as
// ErrUnknownClient and ownership mismatches as ErrForbidden; the HTTP layer
// renders both as 404 so existence is not leaked.
func (m *Manager) session(userID, clientID string) (*connection.Session, error) {
	s, ok := m.sessions.Load(clientID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClient, clientID)
	}
	if s.UserID() != userID {
		return nil, fmt.Errorf("%w: client %s", ErrForbidden, clientID)
	}

	return s, nil
}
