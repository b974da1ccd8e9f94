// Package connection implements the per-client long-polling primitives: the
// deduplicated update queue, the long-poll client state machine, and the
// session that aggregates a user's subscriptions.
package connection
