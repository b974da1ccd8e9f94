// Package testing provides test utilities for the pushhub library.
//
// This package offers helpers for setting up test environments: an embedded
// NATS server for changefeed integration tests and a scriptable
// types.PendingRequest double for exercising the long-poll state machines.
// It follows Go's convention of providing testing utilities in a dedicated
// package (similar to net/http/httptest).
//
// Example usage:
//
//	import (
//	    "testing"
//	    pushtest "github.com/quantflow/pushhub/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := pushtest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
