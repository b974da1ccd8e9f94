// Package changefeed provides change-event sources for the pushhub registry.
//
// A change source is anything that can tell a registered listener "this
// object changed" or "this master changed". Three implementations are
// provided:
//
//   - Basic: an in-process source driven programmatically, useful when the
//     masters live in the same process or in tests
//   - Aggregate: fans one listener registration out across several sources
//   - NATS: bridges change events published on NATS subjects by
//     out-of-process masters
package changefeed
