package connection

import (
	"sync"

	"github.com/quantflow/pushhub/types"
)

// Client is the long-poll channel for one browser session.
//
// It owns the pending-update queue and at most one parked request, and moves
// between two states:
//
//	Idle:   no parked request; the queue may hold pending keys
//	Parked: one outstanding request; the queue is empty
//
// An update arriving while Parked always resumes the request immediately, so
// a key is never left queued alongside a parked request. A second Attach
// while Parked completes the stale request as superseded before storing the
// new one, so at most one request is ever left suspended.
//
// Thread Safety: all methods are safe for concurrent use. Each client owns
// its own lock; nothing here touches registry-level state.
type Client struct {
	id string

	mu      sync.Mutex
	queue   *updateQueue
	pending types.PendingRequest
	closed  bool

	logger  types.Logger
	metrics types.MetricsCollector
}

// NewClient creates a long-poll client with the given identifier.
func NewClient(id string, logger types.Logger, metrics types.MetricsCollector) *Client {
	return &Client{
		id:      id,
		queue:   newUpdateQueue(),
		logger:  logger,
		metrics: metrics,
	}
}

// ID returns the client identifier issued at handshake.
func (c *Client) ID() string {
	return c.id
}

// Notify delivers one update key to the client.
//
// If a request is parked, it is resumed with the singleton batch and the
// client returns to Idle. Otherwise the key is queued, collapsing with any
// duplicate already pending. A parked request that died under us (transport
// expiry won the race) is dropped and the key is queued instead, so the
// update is never lost.
func (c *Client) Notify(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if c.pending != nil {
		req := c.pending
		c.pending = nil
		if req.Resume(types.Result{Kind: types.ResultUpdates, Updates: []string{key}}) {
			c.metrics.RecordNotify(true)
			c.metrics.RecordDelivery(types.ResultUpdates.String(), 1)

			return
		}
		c.logger.Debug("parked request expired under notify, queueing update", "clientId", c.id, "key", key)
	}

	c.queue.Add(key)
	c.metrics.RecordNotify(false)
}

// Attach hands the client a fresh pending request.
//
// If updates are queued, the request is resumed immediately with the full
// drained batch and the client stays Idle. Otherwise the request is parked.
// A request that was already parked is completed as superseded first; it is
// never silently dropped, which would leak a suspended connection.
//
// Attach itself never blocks; parking is the transport's concern.
func (c *Client) Attach(req types.PendingRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		req.Resume(types.Result{Kind: types.ResultClosed})

		return
	}

	if c.pending != nil {
		stale := c.pending
		c.pending = nil
		stale.Resume(types.Result{Kind: types.ResultSuperseded})
		c.metrics.RecordDelivery(types.ResultSuperseded.String(), 0)
		c.logger.Debug("superseded stale parked request", "clientId", c.id)
	}

	if c.queue.Len() > 0 {
		updates := c.queue.Drain()
		if req.Resume(types.Result{Kind: types.ResultUpdates, Updates: updates}) {
			c.metrics.RecordAttach(true)
			c.metrics.RecordDelivery(types.ResultUpdates.String(), len(updates))

			return
		}
		// The fresh request was already dead on arrival; keep the updates.
		for _, k := range updates {
			c.queue.Add(k)
		}

		return
	}

	req.Park()
	c.pending = req
	c.metrics.RecordAttach(false)
}

// Detach closes the channel. Any parked request is resumed with a closed
// signal. Detach is idempotent; further Notify calls are dropped and further
// Attach calls are completed as closed.
func (c *Client) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if c.pending != nil {
		req := c.pending
		c.pending = nil
		req.Resume(types.Result{Kind: types.ResultClosed})
		c.metrics.RecordDelivery(types.ResultClosed.String(), 0)
	}
}

// EvictExpired clears a parked request whose transport deadline has passed,
// completing it as a timeout if the transport has not already done so. The
// client itself stays usable; eviction is a connection event, not a session
// event. Returns true if a request was evicted.
func (c *Client) EvictExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil || !c.pending.IsExpired() {
		return false
	}

	req := c.pending
	c.pending = nil
	req.Resume(types.Result{Kind: types.ResultTimeout})
	c.metrics.RecordDelivery(types.ResultTimeout.String(), 0)
	c.logger.Debug("evicted expired parked request", "clientId", c.id)

	return true
}

// Parked reports whether a request is currently parked.
func (c *Client) Parked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pending != nil
}

// QueueLen returns the number of distinct queued update keys.
func (c *Client) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.queue.Len()
}
