// Package metrics provides MetricsCollector implementations.
package metrics

import "github.com/quantflow/pushhub/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RegistryMetrics implementation

// RecordHandshake discards the handshake counter.
func (n *NopMetrics) RecordHandshake() {
	// No-op
}

// RecordSessionClosed discards the session close counter.
func (n *NopMetrics) RecordSessionClosed() {
	// No-op
}

// SetActiveSessions discards the active session gauge.
func (n *NopMetrics) SetActiveSessions(_ /* n */ int) {
	// No-op
}

// RecordEviction discards the eviction counter.
func (n *NopMetrics) RecordEviction() {
	// No-op
}

// DeliveryMetrics implementation

// RecordAttach discards the attach counter.
func (n *NopMetrics) RecordAttach(_ /* immediate */ bool) {
	// No-op
}

// RecordNotify discards the notify counter.
func (n *NopMetrics) RecordNotify(_ /* delivered */ bool) {
	// No-op
}

// RecordDelivery discards the delivery metrics.
func (n *NopMetrics) RecordDelivery(_ /* kind */ string, _ /* updates */ int) {
	// No-op
}

// RecordEncodingFailure discards the encoding failure counter.
func (n *NopMetrics) RecordEncodingFailure() {
	// No-op
}
