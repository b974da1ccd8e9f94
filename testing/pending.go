package testing

import (
	"sync"

	"github.com/quantflow/pushhub/types"
)

// FakePending is a scriptable types.PendingRequest double.
//
// It records whether it was parked and the result it was completed with, and
// lets a test flip the transport-side expiry flag with Expire(). All methods
// are safe for concurrent use, so it can back interleaving stress tests.
type FakePending struct {
	mu      sync.Mutex
	parked  bool
	expired bool
	done    bool
	result  types.Result
}

var _ types.PendingRequest = (*FakePending)(nil)

// NewFakePending creates a fake pending request.
func NewFakePending() *FakePending {
	return &FakePending{}
}

// Park marks the request as parked.
func (p *FakePending) Park() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parked = true
}

// Resume completes the request. Returns false if it was already completed
// or has expired, matching the contract of types.PendingRequest.
func (p *FakePending) Resume(result types.Result) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done || p.expired {
		return false
	}
	p.done = true
	p.result = result

	return true
}

// IsExpired reports whether Expire was called before a completion.
func (p *FakePending) IsExpired() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.expired
}

// Expire simulates the transport-side deadline passing. A request that was
// already completed stays completed.
func (p *FakePending) Expire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.done {
		p.expired = true
	}
}

// Parked reports whether Park was called.
func (p *FakePending) Parked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.parked
}

// Completed returns the completion result and whether the request was
// completed at all.
func (p *FakePending) Completed() (types.Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.result, p.done
}
