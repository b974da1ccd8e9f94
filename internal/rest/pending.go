package rest

import (
	"context"
	"sync"
	"time"

	"github.com/quantflow/pushhub/types"
)

// pendingRequest implements types.PendingRequest for the HTTP transport. The
// handler goroutine blocks in wait() while the request sits parked; Resume
// hands the result over a buffered channel so the resuming goroutine never
// blocks.
type pendingRequest struct {
	timeout time.Duration
	done    chan types.Result

	mu        sync.Mutex
	parked    bool
	parkedAt  time.Time
	completed bool // resumed with a result
	abandoned bool // handler gave up (timeout or client disconnect)
}

// Compile-time assertion that pendingRequest implements PendingRequest.
var _ types.PendingRequest = (*pendingRequest)(nil)

func newPendingRequest(timeout time.Duration) *pendingRequest {
	return &pendingRequest{
		timeout: timeout,
		done:    make(chan types.Result, 1),
	}
}

// Park starts the expiry clock.
func (p *pendingRequest) Park() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parked = true
	p.parkedAt = time.Now()
}

// Resume completes the request. Exactly one completion wins; a request the
// handler has already abandoned reports false so the caller re-queues the
// payload instead of losing it.
func (p *pendingRequest) Resume(result types.Result) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.completed || p.abandoned || p.deadlinePassedLocked() {
		return false
	}
	p.completed = true
	p.done <- result

	return true
}

// IsExpired reports whether the request can no longer deliver updates. The
// eviction sweeper uses this to clear dead requests off their clients.
func (p *pendingRequest) IsExpired() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.abandoned || p.deadlinePassedLocked()
}

func (p *pendingRequest) deadlinePassedLocked() bool {
	return p.parked && !p.completed && time.Since(p.parkedAt) > p.timeout
}

// wait blocks until the request is resumed, the poll timeout passes, or the
// client goes away. After wait returns, the request can no longer be
// resumed.
func (p *pendingRequest) wait(ctx context.Context) types.Result {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case res := <-p.done:
		return res
	case <-timer.C:
		return p.abandon(types.ResultTimeout)
	case <-ctx.Done():
		return p.abandon(types.ResultClosed)
	}
}

// abandon marks the request dead with the given kind unless a Resume won the
// race, in which case its result is returned instead.
func (p *pendingRequest) abandon(kind types.ResultKind) types.Result {
	p.mu.Lock()
	if p.completed {
		p.mu.Unlock()

		return <-p.done
	}
	p.abandoned = true
	p.mu.Unlock()

	return types.Result{Kind: kind}
}
