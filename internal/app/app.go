package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/specialistvlad/modkernel/internal/ctxlog"
	"github.com/specialistvlad/modkernel/internal/fsutil"
	"github.com/specialistvlad/modkernel/internal/kernel"
	"github.com/specialistvlad/modkernel/internal/loader"
	"github.com/specialistvlad/modkernel/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	loader   kernel.Loader
	socket   *loader.SocketIOLoader
	kernel   *kernel.Kernel
	modules  []string

	ctx        context.Context
	httpServer *http.Server
}

// New builds an App. Handler modules default to the core modules. For the
// file loader every manifest under Root is validated against the registered
// handlers before anything runs.
func New(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New(nil).Add(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "handlers", reg.Handlers().Names())

	policy, err := kernel.PolicyByName(cfg.Policy)
	if err != nil {
		return nil, err
	}

	a := &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		modules:  slices.Clone(cfg.Modules),
		ctx:      ctx,
	}

	switch cfg.Loader {
	case LoaderFile:
		if err := reg.ValidateManifests(ctx, cfg.Root); err != nil {
			return nil, err
		}
		if cfg.All {
			keys, err := fsutil.FindModuleKeys(cfg.Root)
			if err != nil {
				return nil, fmt.Errorf("failed to list modules: %w", err)
			}
			a.modules = append(a.modules, keys...)
		}
		a.loader = loader.NewFileLoader(cfg.Root, reg.Handlers())
	case LoaderSocketIO:
		a.socket = loader.NewSocketIOLoader(loader.SocketIOConfig{
			URL:                cfg.SocketURL,
			Namespace:          cfg.SocketNamespace,
			Timeout:            cfg.FetchTimeout,
			InsecureSkipVerify: cfg.SocketInsecure,
		}, reg.Handlers())
		a.loader = a.socket
	default:
		return nil, fmt.Errorf("unknown loader '%s'", cfg.Loader)
	}

	a.kernel = kernel.New(ctx, a.loader,
		kernel.WithPolicy(policy),
		kernel.WithErrorHandler(func(err error) {
			logger.Error("Module hook failed.", "error", err)
		}),
	)
	logger.Debug("Kernel created.", "loader", cfg.Loader, "policy", cfg.Policy)
	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Kernel returns the application's kernel. This is primarily for testing.
func (a *App) Kernel() *kernel.Kernel {
	return a.kernel
}

// Modules returns the module paths Run will require.
func (a *App) Modules() []string {
	return slices.Clone(a.modules)
}

// callbacks logs per-ticket outcomes.
func (a *App) callbacks() kernel.Callbacks {
	return kernel.Callbacks{
		OnReady: func(t *kernel.Ticket) {
			a.logger.Info("✅ All modules ready.", "ticket", t.ID(), "modules", len(t.Paths()))
		},
		OnFail: func(t *kernel.Ticket, err error) {
			a.logger.Error("Module failed to load.", "ticket", t.ID(), "error", err)
		},
	}
}
