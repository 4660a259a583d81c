package actorkit

import (
	"context"
	"fmt"
	"sync"
)

// ActorSystem is a named registry of actors sharing a default Executor and
// a DeadLetterOffice. It is a deliberately reduced version of
// Roasbeef-substrate's ActorSystem: that system's generic, reflect-checked
// ServiceKey/Receptionist/Router machinery exists to let statically-typed,
// per-actor-goroutine actors be looked up and routed to by type. This
// package's actors are dynamically dispatched (any Handler can match any
// message) and share a pooled Executor rather than owning a goroutine each,
// so there is no static type to check and no per-actor goroutine to route
// around — a plain string-keyed map already captures everything a caller
// needs (see DESIGN.md for the full accounting of what was dropped).
type ActorSystem struct {
	mu       sync.Mutex
	actors   map[string]*Actor
	executor *Executor
	dead     *DeadLetterOffice
	closed   bool
}

// NewActorSystem returns a system with its own Executor and
// DeadLetterOffice.
func NewActorSystem() *ActorSystem {
	return NewActorSystemWithExecutor(NewExecutor())
}

// NewActorSystemWithExecutor returns a system that schedules every actor it
// spawns (unless the actor is given its own) onto executor.
func NewActorSystemWithExecutor(executor *Executor) *ActorSystem {
	return &ActorSystem{
		actors:   make(map[string]*Actor),
		executor: executor,
		dead:     NewDeadLetterOffice(DeadLetterOfficeConfig{}),
	}
}

// DeadLetters returns the system's shared dead-letter recorder.
func (s *ActorSystem) DeadLetters() *DeadLetterOffice {
	return s.dead
}

// Spawn constructs an actor from cfg and registers it under cfg.ID, which
// must be non-empty and unique within the system. If cfg.Executor and
// cfg.DeadLetters are unset, the system's own are used.
func (s *ActorSystem) Spawn(cfg ActorConfig) (*Actor, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("actorkit: actor ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("actorkit: system is shut down")
	}
	if _, exists := s.actors[cfg.ID]; exists {
		return nil, fmt.Errorf("actorkit: actor %q already registered", cfg.ID)
	}

	if cfg.Executor == nil {
		cfg.Executor = s.executor
	}
	if cfg.DeadLetters == nil {
		cfg.DeadLetters = s.dead
	}

	a := NewActor(cfg)
	s.actors[cfg.ID] = a

	return a, nil
}

// Lookup returns the actor registered under id, if any.
func (s *ActorSystem) Lookup(id string) (*Actor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[id]
	return a, ok
}

// Unregister removes id from the registry. It does not affect any message
// already in that actor's mailbox — spec.md's actor core has no terminal
// state, so a still-referenced *Actor keeps working after Unregister; this
// only affects Lookup/Broadcast/Shutdown bookkeeping.
func (s *ActorSystem) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.actors, id)
}

// Broadcast sends msg to every currently registered actor, grounded on the
// teacher's ActorSystem.Broadcast.
func (s *ActorSystem) Broadcast(msg any) {
	s.mu.Lock()
	targets := make([]*Actor, 0, len(s.actors))
	for _, a := range s.actors {
		targets = append(targets, a)
	}
	s.mu.Unlock()

	for _, a := range targets {
		a.Send(msg)
	}
}

// Shutdown stops every registered actor from accepting further sends, waits
// — bounded by ctx — for each actor's mailbox to fully drain, and then closes
// the system's DeadLetterOffice and shuts down the system's Executor. The
// Executor is shut down whether the system created it or it was passed in
// via NewActorSystemWithExecutor; a later Execute on it recreates its pool.
//
// Unlike the teacher's goroutine-per-actor system, there is no per-actor
// goroutine to cancel: each Actor instead tracks its own in-flight envelopes
// with a WaitGroup (Actor.Close/Actor.Wait), incremented at enqueue time and
// decremented as each envelope is settled. Shutdown calls Close on every
// actor (each under that actor's own lock, the same one its enqueue path
// checks) before waiting on any of them, so no send racing Shutdown can be
// accepted after the drain-wait has already observed zero. If ctx expires
// first, any envelopes still mid-drain are left exactly where the teacher's
// Dispose would leave queued-but-unstarted work — the Executor is only
// closed once the wait resolves one way or the other, so a still-running
// drain is never starved mid-activation by the pool disappearing out from
// under it.
func (s *ActorSystem) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	actors := make([]*Actor, 0, len(s.actors))
	for _, a := range s.actors {
		actors = append(actors, a)
	}
	s.actors = make(map[string]*Actor)
	s.mu.Unlock()

	for _, a := range actors {
		a.Close()
	}

	drained := make(chan struct{})
	go func() {
		for _, a := range actors {
			a.Wait()
		}
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-ctx.Done():
		err = ctx.Err()
	}

	s.dead.Close()
	s.executor.Shutdown()

	return err
}
