package changefeed

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/quantflow/pushhub/types"
)

// NATS bridges change events published by out-of-process masters into the
// registry. Masters publish the changed object ID on `<prefix>.entity` and
// the master type on `<prefix>.master`; the adapter fans each event out to
// its registered listeners.
//
// Events are fire-and-forget: the registry is in-memory and rebuilds on
// restart, so there is no durable stream behind the subjects.
type NATS struct {
	*Basic

	conn   *nats.Conn
	prefix string
	logger types.Logger

	subs []*nats.Subscription
}

// Compile-time assertion that NATS implements ChangeSource.
var _ types.ChangeSource = (*NATS)(nil)

// NewNATS creates a NATS-backed change source. Call Start to begin receiving
// events and Stop to drain the subscriptions.
//
// Parameters:
//   - conn: NATS connection shared with the rest of the process
//   - prefix: subject prefix (DefaultSubjectPrefix if empty)
//   - logger: structured logger
func NewNATS(conn *nats.Conn, prefix string, logger types.Logger) *NATS {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	return &NATS{
		Basic:  NewBasic(logger),
		conn:   conn,
		prefix: prefix,
		logger: logger,
	}
}

// Start subscribes to the entity and master change subjects.
func (n *NATS) Start() error {
	entSub, err := n.conn.Subscribe(entitySubject(n.prefix), n.handleEntity)
	if err != nil {
		return fmt.Errorf("failed to subscribe to entity changes: %w", err)
	}
	n.subs = append(n.subs, entSub)

	mstSub, err := n.conn.Subscribe(masterSubject(n.prefix), n.handleMaster)
	if err != nil {
		_ = entSub.Unsubscribe()
		n.subs = nil

		return fmt.Errorf("failed to subscribe to master changes: %w", err)
	}
	n.subs = append(n.subs, mstSub)

	n.logger.Info("changefeed subscribed", "prefix", n.prefix)

	return nil
}

// Stop drains the subscriptions. Events already received keep flowing to
// listeners until the drain completes.
func (n *NATS) Stop() error {
	var firstErr error
	for _, sub := range n.subs {
		if err := sub.Drain(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to drain changefeed subscription: %w", err)
		}
	}
	n.subs = nil

	return firstErr
}

func (n *NATS) handleEntity(msg *nats.Msg) {
	objectID := string(msg.Data)
	if objectID == "" {
		n.logger.Warn("dropping entity change with empty object id", "subject", msg.Subject)

		return
	}
	n.EntityChanged(objectID)
}

func (n *NATS) handleMaster(msg *nats.Msg) {
	master := types.MasterType(msg.Data)
	if !master.Valid() {
		n.logger.Warn("dropping change for unknown master", "master", string(msg.Data))

		return
	}
	n.MasterChanged(master)
}
