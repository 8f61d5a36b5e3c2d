package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestInflightSingleOwner(t *testing.T) {
	g := newInflightGroup()

	call, owner := g.join("k")
	if !owner {
		t.Fatal("first join did not take ownership")
	}
	if _, again := g.join("k"); again {
		t.Fatal("second join also claimed ownership")
	}

	resp := &Response{Payload: []byte("x"), Status: 200}
	g.complete("k", call, resp, nil)

	if _, fresh := g.join("k"); !fresh {
		t.Error("key not released after complete")
	}
}

func TestInflightWaitersShareResult(t *testing.T) {
	g := newInflightGroup()
	call, _ := g.join("k")

	const waiters = 4
	var wg sync.WaitGroup
	results := make([]*Response, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			waiterCall, owner := g.join("k")
			if owner {
				t.Error("waiter claimed ownership")
				return
			}
			resp, err := waiterCall.wait(context.Background())
			if err != nil {
				t.Errorf("wait: %v", err)
				return
			}
			results[i] = resp
		}(i)
	}

	// Give the waiters a moment to join before publishing.
	time.Sleep(5 * time.Millisecond)
	owned := &Response{Payload: []byte("shared"), Status: 200}
	g.complete("k", call, owned, nil)
	wg.Wait()

	for i, resp := range results {
		if resp == nil {
			t.Fatalf("waiter %d got no response", i)
		}
		if string(resp.Payload) != "shared" {
			t.Errorf("waiter %d payload=%q", i, resp.Payload)
		}
		if resp == owned {
			t.Error("waiter received the owner's response struct, not a copy")
		}
	}
}

func TestInflightWaiterAbandonsOnContext(t *testing.T) {
	g := newInflightGroup()
	g.join("k") // owner never completes

	waiterCall, _ := g.join("k")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := waiterCall.wait(ctx)
	if err == nil {
		t.Fatal("wait returned without the owner completing")
	}
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != KindUpstream {
		t.Errorf("abandon error = %v, want a structured upstream error", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("abandon error does not unwrap to the context cause: %v", err)
	}
}

func TestInflightErrorPropagates(t *testing.T) {
	g := newInflightGroup()
	call, _ := g.join("k")
	waiterCall, _ := g.join("k")

	failure := upstreamError("op", "boom", 503, true, nil)
	go g.complete("k", call, nil, failure)

	_, err := waiterCall.wait(context.Background())
	if err == nil {
		t.Fatal("waiter got no error")
	}
	if err != failure {
		t.Errorf("waiter error = %v, want the owner's error", err)
	}
}
