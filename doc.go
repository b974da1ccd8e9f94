// Package pushhub provides the real-time update-distribution layer for an
// analytics web tier: it bridges server-side change events (master-data
// mutations, recalculated analytics grids) to browser clients holding a
// single long-lived HTTP connection per session.
//
// Pushhub multiplexes every interest a client has registered - fire-once
// entity subscriptions, fire-once master subscriptions, and per-viewport
// analytics watches - onto one long-poll channel, coalescing bursts of
// updates for the same resource into a single delivery.
//
// # Quick Start
//
//	import (
//	    "github.com/quantflow/pushhub"
//	    "github.com/quantflow/pushhub/changefeed"
//	    "github.com/quantflow/pushhub/engine"
//	)
//
//	feed := changefeed.NewBasic(logger)
//	mgr, err := pushhub.NewManager(&pushhub.Config{}, engine.NewStatic(),
//	    pushhub.WithChangeSources(feed))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := mgr.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Stop(context.Background())
//
//	clientID, _ := mgr.Handshake("alice")
//	mgr.Subscribe("alice", clientID, "DbSec~42", "/securities/DbSec~42")
//	feed.EntityChanged("DbSec~42") // next long-poll attach resumes immediately
//
// # Architecture
//
// The Manager is the façade the web layer talks to. It fronts:
//
//   - a registry of client sessions, keyed by monotonically issued client IDs
//   - per-session long-poll clients (Idle/Parked state machines that park and
//     resume suspended requests)
//   - per-viewport watches (Inactive/Active state machines that coalesce
//     "data changed" callbacks)
//   - change-source registrations (see the changefeed package)
//
// Updates for different resources are batched into one payload while a
// client is between polls; updates for the same resource collapse to one
// delivered notice. No global ordering is guaranteed, and the registry is
// in-memory: clients re-handshake and re-subscribe after a restart.
//
// # Transports
//
// The core never references transport types. A transport supplies a
// types.PendingRequest per suspended call; internal/rest implements the HTTP
// long-polling surface on top of this.
package pushhub
