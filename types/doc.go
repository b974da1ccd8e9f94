// Package types provides core type definitions and interfaces for the pushhub library.
//
// This package contains shared types that are used across multiple packages in the
// pushhub library. By keeping these types in a separate package, we avoid import cycles
// between the main pushhub package and its internal implementations.
//
// Key types:
//   - PendingRequest: One suspended long-poll HTTP request
//   - Result: Payload a pending request is completed with
//   - ChangeSource / ChangeListener: Observer seam to master-data change sources
//   - AnalyticsEngine / Viewport: Narrow interface to the computation engine
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
