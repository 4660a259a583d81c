// Package actorkit implements a lightweight in-process actor runtime:
// concurrent components ("actors") that own private state and communicate
// exclusively by asynchronous message passing, with an optional synchronous
// request/response overlay. Each actor processes messages one at a time,
// preserving single-threaded semantics internally while many actors run
// concurrently on a shared, bounded worker pool.
//
// The runtime has no notion of distribution, supervision trees, or
// persistence. It is a single-process scheduling and delivery primitive.
package actorkit
