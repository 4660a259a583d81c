package actorkit

import (
	"context"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Future is a one-shot, settable value (spec.md §4.2, component C2). It may
// be satisfied at most once; later calls to Satisfy are silently ignored
// (spec.md invariant 6, testable property P5).
type Future struct {
	done  chan struct{}
	once  sync.Once
	mu    sync.Mutex
	value any
}

// NewFuture creates an unsettled Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Satisfy sets the future's value and wakes all waiters. Only the first call
// has any effect; subsequent calls are no-ops, per spec.md §7 item 3.
func (f *Future) Satisfy(v any) {
	f.once.Do(func() {
		f.mu.Lock()
		f.value = v
		f.mu.Unlock()
		close(f.done)
	})
}

// Get blocks indefinitely until the future is satisfied, then returns its
// value.
func (f *Future) Get() any {
	<-f.done
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// GetContext blocks until the future is satisfied or ctx is done, whichever
// comes first. This is an ambient convenience beyond spec.md's literal
// contract, mirroring the teacher's context-aware Future.Await.
func (f *Future) GetContext(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetTimeout waits up to d for the future to be satisfied. It returns
// fn.None if the timeout elapses first, matching spec.md §4.2's "yield a
// value or a 'not set' outcome (a nullable/optional)".
func (f *Future) GetTimeout(d time.Duration) fn.Option[any] {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-f.done:
		f.mu.Lock()
		v := f.value
		f.mu.Unlock()
		return fn.Some(v)
	case <-timer.C:
		return fn.None[any]()
	}
}

// IsDone reports whether the future has already been satisfied, without
// blocking.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
