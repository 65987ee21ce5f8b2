// Package kernel loads modules on demand and keeps them alive exactly as
// long as something needs them.
//
// # Why Kernel Exists
//
// A module declares its dependencies only while it is being evaluated, so
// the dependency graph is discovered incrementally: fetch a module, learn
// what it includes, fetch those, and so on. The kernel owns that graph and
// guarantees that:
//   - a module initializes only after every module it includes is ready,
//   - a module uninitializes only after nothing includes or reserves it,
//   - a failure (missing source, broken initializer, include cycle) fails
//     the tickets that asked for the module and nothing else.
//
// # How It Works
//
// Consumers call Require with a set of paths and receive a Ticket. Every
// unknown path registers a module in StateCreated and queues it for the
// scheduler, which hands one module at a time to the Loader. While the
// Loader evaluates the module body it calls Include for each dependency;
// that links the dependency as a parent and queues it in turn. When the
// fetch completes with a Descriptor the module waits for its parents, runs
// its initializer, becomes ready, and notifies its tickets.
//
// Releasing a ticket walks the graph the other way: a module with no
// reservations and no children is uninitialized and destroyed, which may
// leave its own parents unneeded, and so on down the chain.
//
// # Concurrency
//
// Every graph mutation runs on a single dispatch.Dispatcher goroutine, and
// every follow-up step (invalidating children, re-checking parents, running
// hooks, firing callbacks) is posted as a separate task. Exported methods
// submit their work to the dispatcher and wait for it; when called from a
// hook or callback, which already run on the dispatcher, they execute
// inline.
//
// # Statistics
//
// Each module participates in one or more Counters: the global one, plus
// lazily created counters for a ticket (TicketStats) or a module
// (ModuleStats) that cover the module and everything it transitively
// includes.
package kernel
