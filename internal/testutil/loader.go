package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	"github.com/specialistvlad/modkernel/internal/kernel"
)

// ModuleDef scripts one module for a Loader.
type ModuleDef struct {
	// Includes are passed to kernel.Include in order.
	Includes []string
	// Init and Uninit run after the recorded lifecycle event. A nil Init
	// still records the event unless NoInit is set.
	Init   kernel.Hook
	Uninit kernel.Hook
	// NoInit makes the descriptor carry no initializer at all.
	NoInit bool
	// Err fails the fetch.
	Err error
	// Gate, when set, blocks the fetch until it is closed.
	Gate chan struct{}
}

// Loader is an in-memory kernel.Loader that records what the kernel does
// with the modules it serves. Fetches complete on their own goroutine.
type Loader struct {
	mu          sync.Mutex
	defs        map[string]ModuleDef
	loads       []string
	events      []string
	includeErrs []error
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{defs: make(map[string]ModuleDef)}
}

// Define registers the script for path.
func (l *Loader) Define(path string, def ModuleDef) *Loader {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.defs[path] = def
	return l
}

// Module is a shorthand for a module that only includes other modules.
func (l *Loader) Module(path string, includes ...string) *Loader {
	return l.Define(path, ModuleDef{Includes: includes})
}

// Load implements kernel.Loader.
func (l *Loader) Load(ctx context.Context, path string, done func(kernel.Descriptor, error)) {
	l.mu.Lock()
	def, ok := l.defs[path]
	l.loads = append(l.loads, path)
	l.mu.Unlock()

	go func() {
		if !ok {
			done(kernel.Descriptor{}, fmt.Errorf("%s: %w", path, fs.ErrNotExist))
			return
		}
		if def.Gate != nil {
			<-def.Gate
		}
		if def.Err != nil {
			done(kernel.Descriptor{}, def.Err)
			return
		}
		for _, inc := range def.Includes {
			if err := kernel.Include(ctx, inc); err != nil {
				l.mu.Lock()
				l.includeErrs = append(l.includeErrs, err)
				l.mu.Unlock()
				done(kernel.Descriptor{}, err)
				return
			}
		}
		done(l.descriptor(path, def), nil)
	}()
}

func (l *Loader) descriptor(path string, def ModuleDef) kernel.Descriptor {
	var desc kernel.Descriptor
	if !def.NoInit {
		desc.Init = func(ctx context.Context) error {
			l.record("init:" + path)
			if def.Init != nil {
				return def.Init(ctx)
			}
			return nil
		}
	}
	desc.Uninit = func(ctx context.Context) error {
		l.record("uninit:" + path)
		if def.Uninit != nil {
			return def.Uninit(ctx)
		}
		return nil
	}
	return desc
}

func (l *Loader) record(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

// Loads returns the paths passed to Load, in call order.
func (l *Loader) Loads() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.loads...)
}

// Events returns the recorded "init:<path>" and "uninit:<path>" events.
func (l *Loader) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// IncludeErrors returns the errors kernel.Include reported to module bodies.
func (l *Loader) IncludeErrors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.includeErrs...)
}
