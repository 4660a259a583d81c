package actorkit

// Handler is a partial function over messages: it reports whether a given
// message applies to it and, if so, handles it. This is the Go rendition of
// spec.md's "partial handler" — a match/apply pair rather than runtime
// pattern-matching machinery (spec.md §9 Design Notes).
//
// Handle may panic to signal failure; the drain loop treats a panic as the
// "exception" channel described in spec.md §4.4.6 and routes it to the
// actor's ExceptionHandler, if one is configured and matches.
type Handler interface {
	// Matches reports whether this handler applies to msg.
	Matches(msg any) bool

	// Handle processes msg. c gives access to Self, Reply, and Forward for
	// request/response handling (spec.md §4.5); it is ignored entirely by
	// handlers that never reply.
	Handle(c *Context, msg any)
}

// HandlerFunc adapts a pair of plain functions into a Handler, mirroring the
// teacher's NewFunctionBehavior helper for constructing behaviors without a
// dedicated type.
type HandlerFunc struct {
	MatchFunc func(msg any) bool
	ApplyFunc func(c *Context, msg any)
}

// Matches implements Handler.
func (h HandlerFunc) Matches(msg any) bool { return h.MatchFunc(msg) }

// Handle implements Handler.
func (h HandlerFunc) Handle(c *Context, msg any) { h.ApplyFunc(c, msg) }

// MatchType returns a Handler that matches any message of type T and defers
// to apply. This is the common case: most actors handle a closed set of
// concrete message types rather than writing a custom MatchFunc by hand.
func MatchType[T any](apply func(c *Context, msg T)) Handler {
	return HandlerFunc{
		MatchFunc: func(msg any) bool {
			_, ok := msg.(T)
			return ok
		},
		ApplyFunc: func(c *Context, msg any) {
			apply(c, msg.(T))
		},
	}
}

// ExceptionHandler is a partial function over recovered panic values,
// mirroring spec.md §4.4.6's "partial function on throwables".
type ExceptionHandler interface {
	// Matches reports whether this handler can handle the recovered value.
	Matches(recovered any) bool

	// Handle processes the recovered value. If Handle returns normally, the
	// drain loop continues with the next message (the error is considered
	// swallowed).
	Handle(c *Context, recovered any)
}

// ExceptionHandlerFunc adapts a pair of plain functions into an
// ExceptionHandler.
type ExceptionHandlerFunc struct {
	MatchFunc func(recovered any) bool
	ApplyFunc func(c *Context, recovered any)
}

// Matches implements ExceptionHandler.
func (h ExceptionHandlerFunc) Matches(recovered any) bool {
	return h.MatchFunc(recovered)
}

// Handle implements ExceptionHandler.
func (h ExceptionHandlerFunc) Handle(c *Context, recovered any) {
	h.ApplyFunc(c, recovered)
}

// CatchAll returns an ExceptionHandler that matches any recovered value.
func CatchAll(apply func(c *Context, recovered any)) ExceptionHandler {
	return ExceptionHandlerFunc{
		MatchFunc: func(any) bool { return true },
		ApplyFunc: apply,
	}
}
