package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/modkernel/internal/ctxlog"
	"github.com/specialistvlad/modkernel/internal/fsutil"
	"github.com/specialistvlad/modkernel/internal/manifest"
)

// ValidateManifests parses every manifest under root and checks that each
// lifecycle handler it names is registered. All problems are reported
// together.
func (r *Registry) ValidateManifests(ctx context.Context, root string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Validating manifests against registered handlers...", "path", root)

	filePaths, err := fsutil.FindFilesByExtension(root, fsutil.ManifestExtension)
	if err != nil {
		logger.Error("Failed to walk modules directory", "path", root, "error", err)
		return err
	}
	if len(filePaths) == 0 {
		logger.Warn("No manifest files found in path", "path", root)
		return nil
	}

	var errs []error
	for _, filePath := range filePaths {
		src, err := os.ReadFile(filePath)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rel, err := filepath.Rel(root, filePath)
		if err != nil {
			rel = filePath
		}
		m, err := manifest.Parse(ctx, src, filepath.ToSlash(rel))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, r.validate(m)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("manifest validation failed: %w", errors.Join(errs...))
	}
	logger.Info("Manifests validated.", "count", len(filePaths))
	return nil
}

func (r *Registry) validate(m *manifest.Manifest) []error {
	var errs []error
	for _, hook := range []struct{ event, name string }{
		{"on_init", m.Lifecycle.OnInit},
		{"on_uninit", m.Lifecycle.OnUninit},
	} {
		event, name := hook.event, hook.name
		if name == "" {
			continue
		}
		if _, ok := r.handlers.Lookup(name); !ok {
			errs = append(errs, fmt.Errorf("module '%s': %s handler '%s' is not registered", m.Path, event, name))
		}
	}
	return errs
}
