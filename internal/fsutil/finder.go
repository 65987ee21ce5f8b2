// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// ManifestExtension is the file extension of module manifests.
const ManifestExtension = ".hcl"

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// FindModuleKeys returns every manifest under rootPath as a slash-separated
// path relative to rootPath, sorted. These are the keys a file loader rooted
// at rootPath serves.
func FindModuleKeys(rootPath string) ([]string, error) {
	files, err := FindFilesByExtension(rootPath, ManifestExtension)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(rootPath, f)
		if err != nil {
			return nil, err
		}
		keys = append(keys, filepath.ToSlash(rel))
	}
	slices.Sort(keys)
	return keys, nil
}
