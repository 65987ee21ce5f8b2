package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/modkernel/internal/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("# test\n"), 0o644))
	}
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.hcl", "sub/b.hcl", "sub/readme.md")

	files, err := fsutil.FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "sub", "b.hcl"),
	}, files)
}

func TestFindFilesByExtension_EmptyExtensionPanics(t *testing.T) {
	assert.Panics(t, func() { _, _ = fsutil.FindFilesByExtension(t.TempDir(), "") })
}

func TestFindModuleKeys(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "z.hcl", "lib/b.hcl", "lib/a.hcl", "notes.txt")

	keys, err := fsutil.FindModuleKeys(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"lib/a.hcl", "lib/b.hcl", "z.hcl"}, keys)
}

func TestFindModuleKeys_MissingRoot(t *testing.T) {
	_, err := fsutil.FindModuleKeys(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
