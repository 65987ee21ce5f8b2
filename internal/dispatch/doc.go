// Package dispatch provides the single logical task queue that every graph
// mutation in the kernel runs on.
//
// # Why Dispatcher Exists
//
// The kernel's graph operations are recursive: invalidating a module
// invalidates its children, destroying a module may make its parents
// unneeded, and so on. Running those chains as direct recursion would tie
// stack depth to graph depth and would let a synchronous caller observe a
// half-mutated graph. Instead every follow-up step is posted to the
// dispatcher and runs on a later turn.
//
// The dispatcher also isolates user code. Initializers, uninitializers and
// ticket callbacks run as posted tasks; a task that panics is recovered and
// reported, and the loop carries on with the next task.
//
// # How It Works
//
//  1. Post appends a task to a FIFO queue and wakes the loop goroutine.
//  2. Run pops one task at a time and executes it to completion.
//  3. Call runs a function on the loop: inline when already on the loop
//     goroutine, otherwise posted and awaited.
//  4. Hold marks an operation outside the queue (e.g. an in-flight fetch)
//     that will post more work later; Wait blocks until the queue is empty,
//     no task is running and no hold is outstanding.
package dispatch
