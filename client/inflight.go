package client

import (
	"context"
	"sync"
)

// inflightCall is one upstream fetch shared between an owner and any
// callers that arrived while it was still running.
type inflightCall struct {
	done chan struct{}
	resp *Response
	err  error
}

// inflightGroup collapses concurrent Execute calls for the same cache
// key into a single upstream fetch. The first caller for a key becomes
// the owner and performs the fetch; later callers wait on the owner's
// result. Waiters may abandon the wait via their own context without
// affecting the owner.
type inflightGroup struct {
	mu    sync.Mutex
	calls map[string]*inflightCall
}

func newInflightGroup() *inflightGroup {
	return &inflightGroup{calls: make(map[string]*inflightCall)}
}

// join returns the call for key and whether the caller owns it.
func (g *inflightGroup) join(key string) (*inflightCall, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if call, ok := g.calls[key]; ok {
		return call, false
	}
	call := &inflightCall{done: make(chan struct{})}
	g.calls[key] = call
	return call, true
}

// complete publishes the owner's result and releases all waiters.
func (g *inflightGroup) complete(key string, call *inflightCall, resp *Response, err error) {
	call.resp = resp
	call.err = err

	g.mu.Lock()
	if g.calls[key] == call {
		delete(g.calls, key)
	}
	g.mu.Unlock()

	close(call.done)
}

// wait blocks until the owner completes or ctx is done. On success it
// returns a shallow copy of the owner's response so flag fields can be
// set per caller without racing.
func (call *inflightCall) wait(ctx context.Context) (*Response, error) {
	select {
	case <-call.done:
		if call.err != nil {
			return nil, call.err
		}
		shared := *call.resp
		return &shared, nil
	case <-ctx.Done():
		return nil, upstreamError("", "abandoned shared in-flight call", 0, false, ctx.Err())
	}
}
