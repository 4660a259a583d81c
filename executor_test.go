package actorkit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
)

func TestExecutorRunsSubmittedWork(t *testing.T) {
	defer leaktest.Check(t)()

	e := NewExecutor()
	defer e.Shutdown()

	var n int32
	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		e.Execute(func() {
			atomic.AddInt32(&n, 1)
			wg.Done()
		})
	}

	waitOrTimeout(t, &wg, time.Second)
	assert.EqualValues(t, 100, atomic.LoadInt32(&n))
}

func TestExecutorOnSameThreadRunsInline(t *testing.T) {
	e := NewExecutor()
	e.OnSameThread = true
	defer e.Shutdown()

	ranOnCaller := false
	callerGoroutine := make(chan struct{})
	go func() {
		defer close(callerGoroutine)
		e.Execute(func() { ranOnCaller = true })
	}()
	<-callerGoroutine

	assert.True(t, ranOnCaller)
}

func TestExecutorRecoversPanickingWork(t *testing.T) {
	defer leaktest.Check(t)()

	e := NewExecutor()
	defer e.Shutdown()

	done := make(chan struct{})
	e.Execute(func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("panicking work never ran to completion")
	}

	// The pool must still accept work after a panic.
	var ok int32
	okDone := make(chan struct{})
	e.Execute(func() {
		atomic.StoreInt32(&ok, 1)
		close(okDone)
	})
	select {
	case <-okDone:
	case <-time.After(time.Second):
		t.Fatal("executor stopped accepting work after a panic")
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&ok))
}

func TestExecutorRunsBurstQueuedBehindSingleCoreWorker(t *testing.T) {
	defer leaktest.Check(t)()

	e := &Executor{CoreThreads: 1, MaxThreads: 8, IdleSeconds: 1}
	defer e.Shutdown()

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(4)
	for i := 0; i < 4; i++ {
		e.Execute(func() {
			defer wg.Done()
			<-release
		})
	}

	close(release)
	waitOrTimeout(t, &wg, time.Second)
}

func TestExecutorShutdownRecreatesPool(t *testing.T) {
	defer leaktest.Check(t)()

	e := NewExecutor()

	done := make(chan struct{})
	e.Execute(func() { close(done) })
	<-done

	e.Shutdown()

	done2 := make(chan struct{})
	e.Execute(func() { close(done2) })

	select {
	case <-done2:
	case <-time.After(time.Second):
		t.Fatal("executor did not recreate its pool after Shutdown")
	}
	e.Shutdown()
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for work to complete")
	}
}
