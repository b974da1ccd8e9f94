// Package watch implements the per-viewport analytics subscription: a small
// state machine that coalesces bursts of "data changed" callbacks into single
// deliveries and forwards grid-structure changes unconditionally.
package watch
