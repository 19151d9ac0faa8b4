package fs

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

var ErrUnsafePath = errors.New("unsafe path")

// NormalizeVaultPath validates and cleans a /-separated path meant to stay
// inside a root directory. Absolute paths, NUL bytes, and anything that
// escapes upward are rejected.
func NormalizeVaultPath(p string) (string, error) {
	if strings.ContainsRune(p, 0) {
		return "", ErrUnsafePath
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "/") {
		return "", ErrUnsafePath
	}
	clean := path.Clean(p)
	if clean == "." || strings.HasPrefix(clean, "..") {
		return "", ErrUnsafePath
	}
	return clean, nil
}

// FilePath resolves a relative path against root with a traversal
// re-check on the joined result.
func FilePath(root, rel string) (string, error) {
	clean, err := NormalizeVaultPath(rel)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, filepath.FromSlash(clean))
	back, err := filepath.Rel(root, full)
	if err != nil || strings.HasPrefix(back, "..") {
		return "", ErrUnsafePath
	}
	return full, nil
}

// EnsureMDExt appends .md unless the path already carries it.
func EnsureMDExt(p string) string {
	if strings.HasSuffix(strings.ToLower(p), ".md") {
		return p
	}
	return p + ".md"
}
