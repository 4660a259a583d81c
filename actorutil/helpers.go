// Package actorutil provides fan-out and result-aggregation helpers built
// on top of actorkit's request/response overlay. It is an adapted port of
// Roasbeef-substrate's internal/actorutil package, generalized from that
// package's statically-typed Ref[M,R] to actorkit's dynamically-dispatched
// Asker.
package actorutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/kestrelrun/actorkit"
)

// AskAwait sends msg to ref as a request and blocks until ctx is done or
// the actor replies, wrapping the outcome in an fn.Result so callers can
// chain Unpack/WhenOk/WhenErr instead of branching on a raw error.
func AskAwait(ctx context.Context, ref actorkit.Asker, msg any) fn.Result[any] {
	v, err := ref.Ask(msg).GetContext(ctx)
	if err != nil {
		return fn.Err[any](err)
	}
	return fn.Ok(v)
}

// AskAwaitTyped is AskAwait with the reply type-asserted to T. A reply of
// the wrong type yields an error result instead of panicking.
func AskAwaitTyped[T any](ctx context.Context, ref actorkit.Asker, msg any) fn.Result[T] {
	v, err := ref.Ask(msg).GetContext(ctx)
	if err != nil {
		return fn.Err[T](err)
	}

	typed, ok := v.(T)
	if !ok {
		return fn.Err[T](fmt.Errorf(
			"actorutil: reply has unexpected type %T", v))
	}
	return fn.Ok(typed)
}

// TellAll sends msg to every ref, fire-and-forget.
func TellAll(msg any, refs ...actorkit.Ref) {
	for _, ref := range refs {
		ref.Send(msg)
	}
}

// Request pairs a target actor with the message to send it, for
// ParallelAsk.
type Request struct {
	Ref actorkit.Asker
	Msg any
}

// ParallelAsk issues every request concurrently and returns their results
// in the same order as reqs, once all have either replied or ctx is done.
func ParallelAsk(ctx context.Context, reqs []Request) []fn.Result[any] {
	results := make([]fn.Result[any], len(reqs))

	var wg sync.WaitGroup
	wg.Add(len(reqs))
	for i, r := range reqs {
		i, r := i, r
		go func() {
			defer wg.Done()
			results[i] = AskAwait(ctx, r.Ref, r.Msg)
		}()
	}
	wg.Wait()

	return results
}

// ParallelAskSame issues the same msg to every ref concurrently.
func ParallelAskSame(ctx context.Context, msg any, refs []actorkit.Asker) []fn.Result[any] {
	reqs := make([]Request, len(refs))
	for i, ref := range refs {
		reqs[i] = Request{Ref: ref, Msg: msg}
	}
	return ParallelAsk(ctx, reqs)
}

// FirstSuccess returns the first Ok value among results, in slice order.
func FirstSuccess(results []fn.Result[any]) fn.Option[any] {
	for _, r := range results {
		if v, err := r.Unpack(); err == nil {
			return fn.Some(v)
		}
	}
	return fn.None[any]()
}

// CollectSuccesses returns every Ok value among results, in slice order.
func CollectSuccesses(results []fn.Result[any]) []any {
	out := make([]any, 0, len(results))
	for _, r := range results {
		if v, err := r.Unpack(); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// AllSucceeded reports whether every result in results is Ok.
func AllSucceeded(results []fn.Result[any]) bool {
	for _, r := range results {
		if _, err := r.Unpack(); err != nil {
			return false
		}
	}
	return true
}

// FirstError returns the first error among results, or nil if every result
// is Ok.
func FirstError(results []fn.Result[any]) error {
	for _, r := range results {
		if _, err := r.Unpack(); err != nil {
			return err
		}
	}
	return nil
}

// MapResponses applies f to every Ok value in results, in order, skipping
// Err results (which yield the zero value of T at that index).
func MapResponses[T any](results []fn.Result[any], f func(any) T) []T {
	out := make([]T, len(results))
	for i, r := range results {
		if v, err := r.Unpack(); err == nil {
			out[i] = f(v)
		}
	}
	return out
}
