package print

import (
	"context"
	"maps"
	"slices"

	"github.com/specialistvlad/modkernel/internal/ctxlog"
	"github.com/specialistvlad/modkernel/internal/handlers"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnInitPrint logs the module's "message" config value, followed by every
// other config entry at debug level.
func OnInitPrint(ctx context.Context, cfg map[string]string) error {
	printConfig(ctx, "init", cfg)
	return nil
}

// OnUninitPrint is the uninitialize counterpart of OnInitPrint.
func OnUninitPrint(ctx context.Context, cfg map[string]string) error {
	printConfig(ctx, "uninit", cfg)
	return nil
}

func printConfig(ctx context.Context, phase string, cfg map[string]string) {
	logger := ctxlog.FromContext(ctx)

	msg, ok := cfg["message"]
	if !ok {
		msg = "(null)"
	}
	logger.Info("Module says:", "phase", phase, "message", msg)

	// Sort keys for consistent output
	for _, k := range slices.Sorted(maps.Keys(cfg)) {
		if k == "message" {
			continue
		}
		logger.Debug("Module config.", "key", k, "value", cfg[k])
	}
}

// Register registers the handlers.
func (m *Module) Register(h *handlers.Handlers) {
	h.RegisterHandler("OnInitPrint", &handlers.RegisteredHandler{
		Description: "Logs the 'message' config value when the module initializes.",
		Fn:          OnInitPrint,
	})
	h.RegisterHandler("OnUninitPrint", &handlers.RegisteredHandler{
		Description: "Logs the 'message' config value when the module uninitializes.",
		Fn:          OnUninitPrint,
	})
}
