package actorutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/assert"

	"github.com/kestrelrun/actorkit"
)

func echoActor(id string) *actorkit.Actor {
	return actorkit.NewActor(actorkit.ActorConfig{
		ID: id,
		Handler: actorkit.MatchType[int](func(c *actorkit.Context, msg int) {
			c.Reply(msg * 2)
		}),
	})
}

func TestAskAwaitReturnsOkResult(t *testing.T) {
	a := echoActor("echo")

	res := AskAwait(context.Background(), a, 21)
	v, err := res.Unpack()
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestAskAwaitTypedRejectsWrongType(t *testing.T) {
	a := echoActor("echo-typed")

	res := AskAwaitTyped[string](context.Background(), a, 1)
	_, err := res.Unpack()
	assert.Error(t, err)
}

func TestAskAwaitRespectsContextDeadline(t *testing.T) {
	// A dedicated Executor keeps this handler's permanent block (there is
	// no way to preempt an in-flight handler) from tying up a worker the
	// shared DefaultExecutor would otherwise hand to later tests.
	stuck := actorkit.NewActor(actorkit.ActorConfig{
		ID:       "stuck",
		Executor: actorkit.NewExecutor(),
		Handler: actorkit.MatchType[int](func(c *actorkit.Context, msg int) {
			select {}
		}),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	res := AskAwait(ctx, stuck, 1)
	_, err := res.Unpack()
	assert.Error(t, err)
}

func TestParallelAskSameCollectsAllReplies(t *testing.T) {
	refs := []actorkit.Asker{echoActor("p1"), echoActor("p2"), echoActor("p3")}

	results := ParallelAskSame(context.Background(), 5, refs)
	assert.Len(t, results, 3)
	assert.True(t, AllSucceeded(results))
	assert.ElementsMatch(t, []any{10, 10, 10}, CollectSuccesses(results))
}

func TestFirstErrorReturnsNilWhenAllSucceed(t *testing.T) {
	refs := []actorkit.Asker{echoActor("ok1"), echoActor("ok2")}
	results := ParallelAskSame(context.Background(), 1, refs)
	assert.NoError(t, FirstError(results))
}

func TestTellAllReachesEveryRef(t *testing.T) {
	got := make(chan string, 2)
	one := actorkit.NewActor(actorkit.ActorConfig{
		ID: "tell-one",
		Handler: actorkit.MatchType[string](func(c *actorkit.Context, msg string) {
			got <- "one:" + msg
		}),
	})
	two := actorkit.NewActor(actorkit.ActorConfig{
		ID: "tell-two",
		Handler: actorkit.MatchType[string](func(c *actorkit.Context, msg string) {
			got <- "two:" + msg
		}),
	})

	TellAll("hi", one, two)

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case v := <-got:
			seen[v] = true
		case <-time.After(time.Second):
			t.Fatal("TellAll did not reach every ref")
		}
	}
	assert.True(t, seen["one:hi"])
	assert.True(t, seen["two:hi"])
}

func TestMapResponsesSkipsErrors(t *testing.T) {
	refs := []actorkit.Asker{echoActor("m1"), echoActor("m2")}
	results := ParallelAskSame(context.Background(), 3, refs)
	results = append(results, fn.Err[any](errors.New("no reply")))

	out := MapResponses(results, func(v any) int {
		return v.(int) + 1
	})
	assert.Equal(t, []int{7, 7, 0}, out)
}
