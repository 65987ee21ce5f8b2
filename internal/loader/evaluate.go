package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/modkernel/internal/ctxlog"
	"github.com/specialistvlad/modkernel/internal/handlers"
	"github.com/specialistvlad/modkernel/internal/kernel"
	"github.com/specialistvlad/modkernel/internal/manifest"
)

// ErrUnknownHandler is returned when a manifest names a lifecycle handler
// that is not registered.
var ErrUnknownHandler = errors.New("unknown lifecycle handler")

// Evaluate runs a parsed manifest as a module body. ctx must be the context
// the kernel passed to Load. Handler names are resolved before any include
// is declared.
func Evaluate(ctx context.Context, m *manifest.Manifest, h *handlers.Handlers) (kernel.Descriptor, error) {
	logger := ctxlog.FromContext(ctx)

	cfg := m.Config
	if cfg == nil {
		cfg = map[string]string{}
	}

	initHook, err := bind(m, "on_init", m.Lifecycle.OnInit, h, cfg)
	if err != nil {
		return kernel.Descriptor{}, err
	}
	uninitHook, err := bind(m, "on_uninit", m.Lifecycle.OnUninit, h, cfg)
	if err != nil {
		return kernel.Descriptor{}, err
	}

	for _, inc := range m.Includes {
		if err := kernel.Include(ctx, inc); err != nil {
			return kernel.Descriptor{}, fmt.Errorf("include %q: %w", inc, err)
		}
	}

	logger.Debug("Evaluated module manifest.", "includes", len(m.Includes), "on_init", m.Lifecycle.OnInit, "on_uninit", m.Lifecycle.OnUninit)
	return kernel.Descriptor{Init: initHook, Uninit: uninitHook}, nil
}

func bind(m *manifest.Manifest, event, name string, h *handlers.Handlers, cfg map[string]string) (kernel.Hook, error) {
	if name == "" {
		return nil, nil
	}
	registered, ok := h.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("module '%s': %s: %w '%s'", m.Path, event, ErrUnknownHandler, name)
	}
	return func(ctx context.Context) error {
		return registered.Fn(ctx, cfg)
	}, nil
}

// evaluateSource parses src and evaluates it.
func evaluateSource(ctx context.Context, src []byte, path string, h *handlers.Handlers) (kernel.Descriptor, error) {
	m, err := manifest.Parse(ctx, src, path)
	if err != nil {
		return kernel.Descriptor{}, err
	}
	return Evaluate(ctx, m, h)
}
