package registry

import (
	"github.com/specialistvlad/modkernel/internal/handlers"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(h *handlers.Handlers)
}

// Registry holds the lifecycle handlers for a single application instance.
type Registry struct {
	handlers *handlers.Handlers
}

// New creates a Registry around h, creating an empty handler set if h is nil.
func New(h *handlers.Handlers) *Registry {
	if h == nil {
		h = handlers.New()
	}
	return &Registry{handlers: h}
}

// Add registers every module's handlers.
func (r *Registry) Add(modules ...Module) *Registry {
	for _, m := range modules {
		m.Register(r.handlers)
	}
	return r
}

// Handlers returns the collected handler set.
func (r *Registry) Handlers() *handlers.Handlers {
	return r.handlers
}
