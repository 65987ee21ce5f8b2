package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// Hook is the Go implementation behind a lifecycle handler name. cfg is the
// module's `config` map; it may be empty but is never nil.
type Hook func(ctx context.Context, cfg map[string]string) error

// Handlers holds all the registered lifecycle handlers.
type Handlers struct {
	all map[string]*RegisteredHandler
}

// New creates and initializes a new Handlers instance.
func New() *Handlers {
	return &Handlers{
		all: make(map[string]*RegisteredHandler),
	}
}

// RegisteredHandler holds the compiled Go part of a lifecycle handler.
type RegisteredHandler struct {
	Description string
	Fn          Hook
}

// RegisterHandler registers a Go function under a lifecycle handler name.
func (r *Handlers) RegisterHandler(name string, handler *RegisteredHandler) {
	if _, exists := r.all[name]; exists {
		panic(fmt.Sprintf("lifecycle handler with name '%s' already registered", name))
	}
	if handler == nil || handler.Fn == nil {
		panic(fmt.Sprintf("lifecycle handler '%s' has no function", name))
	}
	slog.Debug("Registering lifecycle handler.", "name", name)
	r.all[name] = handler
}

// Lookup returns the handler registered under name.
func (r *Handlers) Lookup(name string) (*RegisteredHandler, bool) {
	h, ok := r.all[name]
	return h, ok
}

// Names returns every registered handler name, sorted.
func (r *Handlers) Names() []string {
	names := make([]string, 0, len(r.all))
	for name := range r.all {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
