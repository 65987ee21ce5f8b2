package env_vars

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/specialistvlad/modkernel/internal/ctxlog"
	"github.com/specialistvlad/modkernel/internal/handlers"
)

// ErrMissingEnv is returned when a required environment variable is unset.
var ErrMissingEnv = errors.New("required environment variable is not set")

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnInitEnvCheck fails when any variable named in the comma-separated
// "require" config value is unset. Empty values count as set.
func OnInitEnvCheck(ctx context.Context, cfg map[string]string) error {
	return checkEnv(ctx, cfg, os.LookupEnv)
}

func checkEnv(ctx context.Context, cfg map[string]string, lookup func(string) (string, bool)) error {
	logger := ctxlog.FromContext(ctx)

	var missing []string
	for _, name := range strings.Split(cfg["require"], ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	logger.Debug("Environment check passed.", "require", cfg["require"])
	return nil
}

// Register registers the handler.
func (m *Module) Register(h *handlers.Handlers) {
	h.RegisterHandler("OnInitEnvCheck", &handlers.RegisteredHandler{
		Description: "Fails initialization when a variable listed in config.require is unset.",
		Fn:          OnInitEnvCheck,
	})
}
