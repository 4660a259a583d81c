package actorkit

import (
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// envelope pairs a user message with the future to settle if this is a
// request (spec.md §3 "Request envelope"). future is nil for a plain Tell.
type envelope struct {
	msg    any
	future *Future
}

// Wrapper is an "around" combinator an actor can install to run arbitrary
// code before and after each drain activation — thread-local context,
// transactional scopes, request correlation IDs (spec.md §4.4.4). next must
// be invoked exactly once.
type Wrapper func(next func())

// composeWrappers nests wrappers outside-in around body: the first wrapper
// in the slice is outermost.
func composeWrappers(wrappers []Wrapper, body func()) func() {
	composed := body
	for i := len(wrappers) - 1; i >= 0; i-- {
		w := wrappers[i]
		next := composed
		composed = func() { w(next) }
	}
	return composed
}

// Ref is a fire-and-forget reference to an actor. Components that should
// only ever send, never ask, can depend on this narrower interface instead
// of the concrete *Actor.
type Ref interface {
	ID() string
	Send(msg any)
	SendPriority(msg any)
}

// Asker extends Ref with the request/response overlay (spec.md §4.5,
// component C5).
type Asker interface {
	Ref
	Ask(msg any) *Future
	AskBlocking(msg any) any
	AskBlockingTimeout(msg any, d time.Duration) fn.Option[any]
}

// ActorConfig configures a new Actor.
type ActorConfig struct {
	// ID is the actor's identifier, used for logging, for attributing dead
	// letters, and as the registry key when spawned through an ActorSystem.
	ID string

	// Handler is the required partial handler consuming normal-priority
	// messages.
	Handler Handler

	// PriorityHandler, if set, is drained ahead of Handler on every
	// activation (spec.md §4.4.2 "priority pass").
	PriorityHandler Handler

	// ExceptionHandler, if set, is consulted when Handler or
	// PriorityHandler panics.
	ExceptionHandler ExceptionHandler

	// Wrappers are composed around every drain activation.
	Wrappers []Wrapper

	// Executor runs this actor's drain activations. Defaults to
	// DefaultExecutor().
	Executor *Executor

	// DeadLetters, if set, receives a report the first time a message
	// sits in the mailbox through an entire activation without matching
	// either handler (spec.md §7 item 1). The message is reported, not
	// removed — it remains resident exactly as spec.md requires.
	DeadLetters *DeadLetterOffice
}

// Actor is a concrete actor: a mailbox, a staging area for newly-arrived
// messages, and the activation bookkeeping described in spec.md §3/§4.4.
// Actor implements both Ref and Asker directly.
type Actor struct {
	id string

	handler          Handler
	priorityHandler  Handler
	exceptionHandler ExceptionHandler
	wrappers         []Wrapper

	executor    *Executor
	deadLetters *DeadLetterOffice

	mu              sync.Mutex
	mailbox         *mailbox
	stagingNormal   []*envelope
	stagingPriority []*envelope
	processing      bool
	startCount      int
	closed          bool

	// inFlight counts envelopes accepted by enqueue but not yet settled by
	// applyOne or reportDeadLetters — i.e. everything ActorSystem.Shutdown
	// must wait to drain (spec.md §7's shutdown item; SPEC_FULL.md §4).
	inFlight sync.WaitGroup

	// currentRequestFuture is set for the duration of applyOne when the
	// message being handled is a request envelope, and cleared
	// immediately after (spec.md invariant 5). It is only ever touched by
	// the single goroutine currently draining this actor (invariant 1),
	// so it needs no lock of its own.
	currentRequestFuture *Future
}

// NewActor constructs an idle actor with an empty mailbox. It is immediately
// usable: there is no separate Start step, unlike a dedicated-goroutine
// actor — activation happens lazily on first Send/Ask (spec.md §3
// "Lifecycle").
func NewActor(cfg ActorConfig) *Actor {
	if cfg.Handler == nil {
		panic("actorkit: ActorConfig.Handler is required")
	}

	executor := cfg.Executor
	if executor == nil {
		executor = DefaultExecutor()
	}

	return &Actor{
		id:               cfg.ID,
		handler:          cfg.Handler,
		priorityHandler:  cfg.PriorityHandler,
		exceptionHandler: cfg.ExceptionHandler,
		wrappers:         cfg.Wrappers,
		executor:         executor,
		deadLetters:      cfg.DeadLetters,
		mailbox:          newMailbox(),
	}
}

// ID returns the actor's identifier.
func (a *Actor) ID() string { return a.id }

// Ref returns a) itself through the narrower Ref interface, for callers that
// should only be able to send, not ask.
func (a *Actor) Ref() Ref { return a }

// Send enqueues msg for normal-priority delivery (spec.md §4.4.1). It does
// not wait for msg to be handled unless the actor's Executor runs work
// inline (OnSameThread); scheduling a drain can also block while the
// Executor's task buffer is full (see Executor.Execute).
func (a *Actor) Send(msg any) {
	a.enqueue(&envelope{msg: msg}, false)
}

// SendPriority enqueues msg ahead of normal-priority messages present when
// the priority pass next runs (spec.md §4.4.1, §4.4.3).
func (a *Actor) SendPriority(msg any) {
	a.enqueue(&envelope{msg: msg}, true)
}

// Ask enqueues msg as a request and returns a Future for the handler's
// reply (spec.md §4.5).
func (a *Actor) Ask(msg any) *Future {
	f := NewFuture()
	a.enqueue(&envelope{msg: msg, future: f}, false)
	return f
}

// AskBlocking enqueues msg as a request and blocks indefinitely for the
// reply.
func (a *Actor) AskBlocking(msg any) any {
	return a.Ask(msg).Get()
}

// AskBlockingTimeout enqueues msg as a request and waits up to d for the
// reply, returning fn.None on timeout. A later reply for a timed-out request
// is a silent no-op on the future (spec.md §7 item 4).
func (a *Actor) AskBlockingTimeout(msg any, d time.Duration) fn.Option[any] {
	return a.Ask(msg).GetTimeout(d)
}

// enqueue implements the non-blocking send path of spec.md §4.4.1: append
// under the lock, decide whether this send must trigger scheduling, release
// the lock, then act outside it.
//
// Unlike spec.md's literal pseudocode, which branches the bookkeeping update
// here on whether the Executor runs actors inline (OnSameThread), this
// implementation always gates scheduling on startCount and defers the
// processing-flag flip to the start of runDrain. That is behavior-preserving
// because Executor.Execute already makes OnSameThread synchronous: no other
// goroutine can observe the actor between "scheduled" and "started" in that
// mode, so splitting the bookkeeping update serves no purpose Go needs.
//
// Once Close has been called, enqueue stops accepting work: the envelope is
// routed straight to the dead-letter office (if configured) instead of being
// staged, and inFlight is never incremented for it. Checking closed and
// incrementing inFlight under the same lock that ActorSystem.Shutdown's
// drain-wait synchronizes on is what rules out the race the drain-wait
// exists to close: an Add that lands after a concurrent Wait has already
// observed zero.
func (a *Actor) enqueue(env *envelope, priority bool) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		if a.deadLetters != nil {
			a.deadLetters.Record(a.id, env.msg)
		}
		if env.future != nil {
			env.future.Satisfy(nil)
		}
		return
	}

	a.inFlight.Add(1)
	if priority {
		a.stagingPriority = append(a.stagingPriority, env)
	} else {
		a.stagingNormal = append(a.stagingNormal, env)
	}

	schedule := !a.processing && a.startCount == 0
	if schedule {
		a.startCount = 1
	}
	a.mu.Unlock()

	if schedule {
		a.executor.Execute(a.runDrain)
	}
}

// Close stops the actor from accepting further sends: any later
// Send/SendPriority/Ask is routed straight to the dead-letter office instead
// of being staged. It does not touch work already staged or resident in the
// mailbox — that work still drains normally, and Wait reports when it has
// (see ActorSystem.Shutdown). Close is idempotent.
func (a *Actor) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

// Wait blocks until every envelope this actor has accepted has been settled,
// either by a handler or by being permanently reported as a dead letter.
// Combined with Close, this is the drain-wait ActorSystem.Shutdown performs
// on every actor it owns (spec.md §7; SPEC_FULL.md §4).
func (a *Actor) Wait() {
	a.inFlight.Wait()
}

// runDrain is the unit of Work scheduled on the Executor (or run inline, in
// OnSameThread mode). It performs the scheduled-to-started transition
// described in spec.md §4.4.1, then runs the drain loop inside the actor's
// composed around-wrappers (spec.md §4.4.4).
func (a *Actor) runDrain() {
	a.mu.Lock()
	a.processing = true
	a.startCount = 0
	a.mu.Unlock()

	composeWrappers(a.wrappers, a.drainLoop)()
}

// drainLoop implements spec.md §4.4.2. A panic that the exception handler
// does not claim resets processing to false (so the actor remains usable
// for future sends, spec.md §4.4.6) and then propagates — spec.md §9's Open
// Question is resolved as "rethrow after handling"; see SPEC_FULL.md §6.
// The Executor's worker boundary (or, in OnSameThread mode, Execute itself)
// recovers and logs that panic without ever killing a worker.
func (a *Actor) drainLoop() {
	defer func() {
		if r := recover(); r != nil {
			a.mu.Lock()
			a.processing = false
			a.mu.Unlock()

			panic(r)
		}
	}()

	for {
		a.mergeStaging()
		a.runPriorityPass()

		item := a.mailbox.findFirst(a.matchesNormal)
		if item != nil {
			a.mailbox.remove(item)
			a.applyOne(a.handler, item.env)
			continue
		}

		a.mu.Lock()
		if len(a.stagingNormal) == 0 && len(a.stagingPriority) == 0 {
			a.processing = false
			a.mu.Unlock()
			a.reportDeadLetters()
			return
		}
		a.mu.Unlock()
		// New messages arrived while we were searching; loop back to
		// merge them and try again.
	}
}

// reportDeadLetters hands every mailbox item that survived this activation
// without matching a handler to the configured DeadLetterOffice, once each.
// Called only once the mailbox has been fully searched and staging is
// empty, so it never misfires on an item that simply hasn't been reached
// yet.
func (a *Actor) reportDeadLetters() {
	if a.deadLetters == nil {
		return
	}

	for it := a.mailbox.sentinel.next; it != a.mailbox.sentinel; it = it.next {
		if it.reported {
			continue
		}
		it.reported = true
		a.deadLetters.Record(a.id, it.env.msg)
		a.inFlight.Done()
	}
}

// runPriorityPass drains every mailbox item the priority handler matches,
// re-merging staging whenever new arrivals might extend it, until no match
// remains and staging is empty (spec.md §4.4.2 "priority pass").
func (a *Actor) runPriorityPass() {
	if a.priorityHandler == nil {
		return
	}

	for {
		item := a.mailbox.findFirst(a.matchesPriority)
		if item != nil {
			a.mailbox.remove(item)
			a.applyOne(a.priorityHandler, item.env)
			continue
		}

		if !a.mergeIfStagingNonEmpty() {
			return
		}
	}
}

func (a *Actor) matchesPriority(env *envelope) bool {
	return a.priorityHandler.Matches(env.msg)
}

func (a *Actor) matchesNormal(env *envelope) bool {
	return a.handler.Matches(env.msg)
}

// mergeStaging moves both staging lists into the intrusive mailbox,
// unconditionally.
func (a *Actor) mergeStaging() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mergeStagingLocked()
}

// mergeIfStagingNonEmpty merges and reports true only if there was
// something to merge.
func (a *Actor) mergeIfStagingNonEmpty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.stagingNormal) == 0 && len(a.stagingPriority) == 0 {
		return false
	}
	a.mergeStagingLocked()
	return true
}

// mergeStagingLocked implements spec.md §4.4.3. Both staging slices are
// arrival-ordered (oldest at index 0) rather than the prepend-then-reverse
// list spec.md describes — an append-only Go slice already gives O(1)
// amortized enqueue in arrival order directly, so no reversal is needed for
// the normal list. The priority list is still walked back-to-front: each
// pushFront places its item immediately after the sentinel, so walking from
// newest to oldest and pushing each to the front leaves the oldest priority
// arrival closest to the sentinel, i.e. arrival order (see mailbox.go).
func (a *Actor) mergeStagingLocked() {
	for i := len(a.stagingPriority) - 1; i >= 0; i-- {
		a.mailbox.pushFront(&mailboxItem{env: a.stagingPriority[i]})
	}
	a.stagingPriority = a.stagingPriority[:0]

	for _, env := range a.stagingNormal {
		a.mailbox.pushBack(&mailboxItem{env: env})
	}
	a.stagingNormal = a.stagingNormal[:0]
}

// applyOne implements the handler-adaptation hooks of spec.md §4.5: it sets
// currentRequestFuture from the envelope for the duration of the call, runs
// h against the inner message, then clears it, and isolates any panic per
// spec.md §4.4.6.
func (a *Actor) applyOne(h Handler, env *envelope) {
	defer a.inFlight.Done()

	a.currentRequestFuture = env.future

	defer func() {
		a.currentRequestFuture = nil

		if r := recover(); r != nil {
			if a.exceptionHandler != nil && a.exceptionHandler.Matches(r) {
				a.exceptionHandler.Handle(&Context{actor: a}, r)
				return
			}
			panic(r)
		}
	}()

	h.Handle(&Context{actor: a}, env.msg)
}

// Context is passed to Handler and ExceptionHandler invocations. It gives
// access to the actor's own reference and, when the message being handled
// is a request, to Reply/Forward.
type Context struct {
	actor *Actor
}

// Self returns a Ref to the actor currently handling the message.
func (c *Context) Self() Ref { return c.actor }

// Reply settles the current request's future with v. If the message being
// handled was sent via Send/SendPriority (fire-and-forget) rather than Ask,
// there is no pending request and Reply is a silent no-op (spec.md §7
// item 5).
func (c *Context) Reply(v any) {
	if f := c.actor.currentRequestFuture; f != nil {
		f.Satisfy(v)
	}
}

// Forward reroutes the request currently being handled to other, so that
// other's eventual reply resolves the original caller's future directly
// (spec.md §4.5). If there is no pending request, or other is not an
// *Actor, it falls back to synchronously asking other and replying with
// its result.
func (c *Context) Forward(msg any, other Asker) {
	f := c.actor.currentRequestFuture
	if f == nil {
		c.Reply(other.AskBlocking(msg))
		return
	}

	if target, ok := other.(*Actor); ok {
		target.enqueue(&envelope{msg: msg, future: f}, false)
		return
	}

	c.Reply(other.AskBlocking(msg))
}
