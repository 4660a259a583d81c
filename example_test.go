package actorkit_test

import (
	"context"
	"fmt"

	"github.com/kestrelrun/actorkit"
)

// ExampleActor demonstrates spawning an actor in an ActorSystem, asking it
// a question, and reading the reply.
func ExampleActor() {
	system := actorkit.NewActorSystem()
	defer system.Shutdown(context.Background())

	greeter, err := system.Spawn(actorkit.ActorConfig{
		ID: "greeter",
		Handler: actorkit.MatchType[string](
			func(c *actorkit.Context, name string) {
				c.Reply("Hello, " + name + "!")
			},
		),
	})
	if err != nil {
		fmt.Println("spawn failed:", err)
		return
	}

	reply := greeter.AskBlocking("World")
	fmt.Println(reply)

	// Output:
	// Hello, World!
}
