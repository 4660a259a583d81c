package actorkit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFutureGetBlocksUntilSatisfied(t *testing.T) {
	f := NewFuture()

	var got any
	done := make(chan struct{})
	go func() {
		got = f.Get()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Get returned before the future was satisfied")
	case <-time.After(20 * time.Millisecond):
	}

	f.Satisfy(42)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Get did not unblock after Satisfy")
	}
	assert.Equal(t, 42, got)
}

func TestFutureSatisfyOnlyFirstWins(t *testing.T) {
	f := NewFuture()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Satisfy(i)
		}()
	}
	wg.Wait()

	// Whichever goroutine won, the value is stable and further calls are
	// no-ops.
	v := f.Get()
	f.Satisfy(-1)
	assert.Equal(t, v, f.Get())
}

func TestFutureGetTimeoutExpires(t *testing.T) {
	f := NewFuture()

	opt := f.GetTimeout(10 * time.Millisecond)
	assert.True(t, opt.IsNone())
}

func TestFutureGetTimeoutResolves(t *testing.T) {
	f := NewFuture()
	go func() {
		time.Sleep(5 * time.Millisecond)
		f.Satisfy("done")
	}()

	opt := f.GetTimeout(time.Second)
	assert.True(t, opt.IsSome())
}

func TestFutureGetContextCancellation(t *testing.T) {
	f := NewFuture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.GetContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFutureIsDone(t *testing.T) {
	f := NewFuture()
	assert.False(t, f.IsDone())
	f.Satisfy(nil)
	assert.True(t, f.IsDone())
}
