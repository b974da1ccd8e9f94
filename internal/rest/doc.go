// Package rest implements the HTTP long-polling surface over the pushhub
// Manager: handshake, the parked /updates poll, subscription arming, and the
// viewport resources. It supplies the transport-side types.PendingRequest
// implementation; the core never sees HTTP types.
package rest
