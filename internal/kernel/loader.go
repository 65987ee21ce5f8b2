package kernel

import "context"

// Hook is a module lifecycle function. It runs on the kernel's dispatcher
// goroutine and may call the kernel API.
type Hook func(ctx context.Context) error

// Descriptor is what evaluating a fetched module yields. Either field may be
// nil, but a module with no Init must have included at least one dependency.
type Descriptor struct {
	Init   Hook
	Uninit Hook
}

// Loader fetches and evaluates module sources.
//
// Load must eventually call done exactly once, from any goroutine. While
// the module body is evaluated it may call Include with ctx (or a context
// derived from it) to declare dependencies. The kernel may call Load again
// for the same path after the previous record was discarded; loaders must
// not cache results across calls.
type Loader interface {
	Load(ctx context.Context, path string, done func(Descriptor, error))
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, path string, done func(Descriptor, error))

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, path string, done func(Descriptor, error)) {
	f(ctx, path, done)
}
