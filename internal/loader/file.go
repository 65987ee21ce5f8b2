package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/specialistvlad/modkernel/internal/ctxlog"
	"github.com/specialistvlad/modkernel/internal/handlers"
	"github.com/specialistvlad/modkernel/internal/kernel"
)

// FileLoader serves manifests from a file system. Module keys are
// slash-separated paths relative to the file system root; a leading "/"
// also refers to that root.
type FileLoader struct {
	fsys     fs.FS
	handlers *handlers.Handlers
}

// NewFileLoader creates a loader over the directory root.
func NewFileLoader(root string, h *handlers.Handlers) *FileLoader {
	return NewFSLoader(os.DirFS(root), h)
}

// NewFSLoader creates a loader over fsys.
func NewFSLoader(fsys fs.FS, h *handlers.Handlers) *FileLoader {
	return &FileLoader{fsys: fsys, handlers: h}
}

// Load implements kernel.Loader. The read and evaluation happen on a new
// goroutine.
func (l *FileLoader) Load(ctx context.Context, path string, done func(kernel.Descriptor, error)) {
	go func() {
		done(l.load(ctx, path))
	}()
}

func (l *FileLoader) load(ctx context.Context, path string) (kernel.Descriptor, error) {
	ctx = ctxlog.With(ctx, "loader", "file")
	logger := ctxlog.FromContext(ctx)

	name := strings.TrimPrefix(path, "/")
	if !fs.ValidPath(name) {
		return kernel.Descriptor{}, fmt.Errorf("module path %q is outside the module root: %w", path, fs.ErrInvalid)
	}

	src, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return kernel.Descriptor{}, err
	}
	logger.Debug("Read module manifest from file system.", "file_path", name, "bytes", len(src))

	return evaluateSource(ctx, src, path, l.handlers)
}
