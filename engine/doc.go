// Package engine provides a built-in analytics engine implementation.
//
// Static materializes in-memory viewports whose data is pushed in by the
// caller rather than computed. It is useful for tests, examples, and demo
// deployments; production deployments supply their own
// types.AnalyticsEngine backed by a real computation engine.
package engine
