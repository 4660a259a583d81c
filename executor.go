package actorkit

import (
	"sync"
	"time"
)

// Work is a zero-argument unit of work submitted to an Executor (spec.md
// §4.1, component C1).
type Work func()

// Default Executor tuning, mirroring spec.md §4.1's enumerated defaults.
const (
	DefaultCoreThreads = 16
	DefaultIdleSeconds = 60
)

// PoolFactory builds the underlying worker pool for an Executor. Overriding
// it entirely replaces the pool implementation, per spec.md's "factory:
// override the pool constructor entirely".
type PoolFactory func(coreThreads, maxThreads int, idle time.Duration) workerPool

// workerPool is the minimal contract an Executor needs from its underlying
// pool: accept work, and shut down. Grounded on Appboy-worker-pools'
// WorkerPool interface (Submit/Dispose), renamed to match spec.md's
// execute/shutdown vocabulary.
type workerPool interface {
	submit(w Work)
	shutdown()
}

// Executor is a bounded worker pool that runs submitted Work units. A single
// process-wide default instance exists (see DefaultExecutor); actors may
// also be configured with their own. The underlying pool is created lazily,
// under a lock, on first use after construction or after Shutdown.
//
// The configuration fields are plain fields: writes to them are not
// synchronized with Execute, so changing one while other goroutines call
// Execute is a data race. CoreThreads, MaxThreads, IdleSeconds and Factory
// are read only when the pool is (re)created — changing them while a pool is
// live has no effect until Shutdown then a subsequent Execute. OnSameThread
// is read on every Execute.
type Executor struct {
	mu sync.Mutex
	p  workerPool

	// CoreThreads is the minimum worker count. Default DefaultCoreThreads.
	CoreThreads int

	// MaxThreads is the burst ceiling. Default CoreThreads * 25.
	MaxThreads int

	// IdleSeconds controls reclamation of workers spawned above
	// CoreThreads once they sit idle this long. Default DefaultIdleSeconds.
	IdleSeconds int

	// OnSameThread, when true, makes Execute run work inline on the
	// caller's goroutine instead of submitting to the pool.
	OnSameThread bool

	// Factory, if set, overrides the pool constructor entirely.
	Factory PoolFactory
}

// NewExecutor returns an Executor configured with spec.md's documented
// defaults. The underlying pool is not created until first use.
func NewExecutor() *Executor {
	return &Executor{
		CoreThreads: DefaultCoreThreads,
		MaxThreads:  DefaultCoreThreads * 25,
		IdleSeconds: DefaultIdleSeconds,
	}
}

// Execute schedules w for asynchronous execution and returns without waiting
// for w to run, unless OnSameThread is set, in which case w runs inline
// before Execute returns. If the underlying pool is uninitialized, it is
// created under e's lock before submission. The default pool queues work in
// a finite buffer; while that buffer is full, Execute blocks until a worker
// takes a task from it.
//
// Any panic from w is recovered and logged by the pool worker (or, in
// OnSameThread mode, by Execute itself); it never propagates to the caller
// and never kills a worker, per spec.md §4.1's failure contract.
func (e *Executor) Execute(w Work) {
	if e.sameThread() {
		runWork(w)
		return
	}

	p := e.pool()
	p.submit(w)
}

func (e *Executor) sameThread() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.OnSameThread
}

// pool returns the live worker pool, lazily creating one if needed.
func (e *Executor) pool() workerPool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.p == nil {
		e.p = e.newPoolLocked()
	}
	return e.p
}

func (e *Executor) newPoolLocked() workerPool {
	core := e.CoreThreads
	if core <= 0 {
		core = DefaultCoreThreads
	}
	max := e.MaxThreads
	if max <= 0 {
		max = core * 25
	}
	idleSeconds := e.IdleSeconds
	if idleSeconds <= 0 {
		idleSeconds = DefaultIdleSeconds
	}

	factory := e.Factory
	if factory == nil {
		factory = newChannelPool
	}

	log.Debugf("actorkit: creating worker pool core=%d max=%d "+
		"idle=%ds", core, max, idleSeconds)

	return factory(core, max, time.Duration(idleSeconds)*time.Second)
}

// Shutdown gracefully terminates workers and marks the Executor
// uninitialized, so a subsequent Execute recreates the pool from the
// current configuration.
func (e *Executor) Shutdown() {
	e.mu.Lock()
	p := e.p
	e.p = nil
	e.mu.Unlock()

	if p != nil {
		p.shutdown()
	}
}

// runWork invokes w, recovering and logging any panic so a misbehaving work
// unit can never crash its goroutine.
func runWork(w Work) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("actorkit: work unit panicked: %v", r)
		}
	}()

	w()
}

// defaultExecutor is the process-wide shared Executor most actors use
// unless constructed with an explicit one.
var (
	defaultExecutorMu sync.Mutex
	defaultExecutor   = NewExecutor()
)

// DefaultExecutor returns the process-wide shared Executor.
func DefaultExecutor() *Executor {
	defaultExecutorMu.Lock()
	defer defaultExecutorMu.Unlock()
	return defaultExecutor
}

// SetDefaultExecutor replaces the process-wide shared Executor. Existing
// actors already bound to the previous default keep using it.
func SetDefaultExecutor(e *Executor) {
	defaultExecutorMu.Lock()
	defer defaultExecutorMu.Unlock()
	defaultExecutor = e
}

// channelPool is the default workerPool implementation: a channel of Work
// with workers spawned on demand up to maxThreads, and idle reclamation of
// any worker spawned above coreThreads. This is a generalization of
// Appboy-worker-pools' BaseWorkerPool (a fixed-size channel-backed pool that
// grows workers on demand up to a ceiling), adding idle-timeout reclamation
// that pool lacks.
type channelPool struct {
	tasks chan Work
	done  chan struct{}

	closeOnce sync.Once

	mu          sync.Mutex
	workerCount int

	core int
	max  int
	idle time.Duration
}

// newChannelPool is the default PoolFactory.
func newChannelPool(core, max int, idle time.Duration) workerPool {
	p := &channelPool{
		// A generous buffer keeps submit non-blocking for the common
		// case; spec.md only mandates the actor mailbox be unbounded,
		// not the executor's internal queue, so a large-but-finite
		// buffer is an acceptable, documented simplification (see
		// DESIGN.md).
		tasks: make(chan Work, max*64),
		done:  make(chan struct{}),
		core:  core,
		max:   max,
		idle:  idle,
	}

	for i := 0; i < core; i++ {
		p.spawn(true)
	}

	return p
}

func (p *channelPool) spawn(isCore bool) {
	p.mu.Lock()
	p.workerCount++
	p.mu.Unlock()

	go p.run(isCore)
}

func (p *channelPool) run(isCore bool) {
	defer func() {
		p.mu.Lock()
		p.workerCount--
		p.mu.Unlock()
	}()

	// Core workers never self-reclaim; only workers spawned above
	// coreThreads for a burst are subject to the idle timeout.
	if isCore {
		for {
			select {
			case w, ok := <-p.tasks:
				if !ok {
					return
				}
				runWork(w)
			case <-p.done:
				return
			}
		}
	}

	idleTimer := time.NewTimer(p.idle)
	defer idleTimer.Stop()

	for {
		select {
		case w, ok := <-p.tasks:
			if !ok {
				return
			}
			runWork(w)

			if !idleTimer.Stop() {
				<-idleTimer.C
			}
			idleTimer.Reset(p.idle)

		case <-p.done:
			return

		case <-idleTimer.C:
			return
		}
	}
}

// submit enqueues w without blocking while the internal buffer has room.
// Only once the buffer is full does the pool grow: if it is below
// maxThreads, a new burst worker is spawned, and submit then blocks until
// the buffer accepts w. Work that fits in the buffer never adds workers
// beyond coreThreads.
func (p *channelPool) submit(w Work) {
	select {
	case p.tasks <- w:
		return
	default:
	}

	p.mu.Lock()
	if p.workerCount < p.max {
		p.mu.Unlock()
		p.spawn(false)
	} else {
		p.mu.Unlock()
	}

	p.tasks <- w
}

func (p *channelPool) shutdown() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}
