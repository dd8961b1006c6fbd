// Package storage contains storage adapter implementations for the KB
// file tiers: a local directory tree, a sparse mirror of the shared
// repository, and a raw remote fetcher.
package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/example/skb/internal/ports/secondary"
)

// Directories never descended into during enumeration.
var ignoredDirs = map[string]bool{
	".git":         true,
	".kb":          true,
	"__pycache__":  true,
	".cache":       true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
}

// Patterns excluded from entry enumeration. Sidecars and index files live
// next to entries but are not entries.
var excludedPatterns = []string{
	"**/*_meta.yaml",
	"**/_index.yaml",
	"**/_domain_index.yaml",
	"**/catalog.yaml",
	"**/README.yaml",
}

// excluded reports whether a relative path matches any exclusion pattern.
func excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pat := range excludedPatterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

// LocalAdapter implements secondary.Storage over a directory tree.
type LocalAdapter struct {
	root string
}

var _ secondary.Storage = (*LocalAdapter)(nil)

// NewLocalAdapter creates a storage adapter rooted at dir.
func NewLocalAdapter(dir string) *LocalAdapter {
	return &LocalAdapter{root: dir}
}

// Root returns the adapter's base directory.
func (a *LocalAdapter) Root() string { return a.root }

// ListEntryFiles enumerates entry files under root, relative to the
// adapter base. Results are sorted for deterministic scans.
func (a *LocalAdapter) ListEntryFiles(ctx context.Context, root string) ([]string, error) {
	base := a.root
	if root != "" {
		base = filepath.Join(a.root, root)
	}
	if _, err := os.Stat(base); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &secondary.TransportError{Op: "list", Path: base, Err: err}
	}

	var files []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if ignoredDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") && path != base {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".yaml") && !strings.HasSuffix(d.Name(), ".yml") {
			return nil
		}
		rel, relErr := filepath.Rel(a.root, path)
		if relErr != nil {
			return relErr
		}
		if excluded(rel) {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return files, err
		}
		return nil, &secondary.TransportError{Op: "list", Path: base, Err: err}
	}
	sort.Strings(files)
	return files, nil
}

// Read retrieves a file's bytes.
func (a *LocalAdapter) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(a.root, path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, secondary.ErrNotFound
		}
		return nil, &secondary.TransportError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// Write stores bytes at path atomically: a temp file in the target
// directory, then rename. Readers never observe a partial file.
func (a *LocalAdapter) Write(ctx context.Context, path string, data []byte) error {
	full := filepath.Join(a.root, path)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &secondary.TransportError{Op: "write", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".skb-*")
	if err != nil {
		return &secondary.TransportError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &secondary.TransportError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &secondary.TransportError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return &secondary.TransportError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Stat returns size and modification time for a file.
func (a *LocalAdapter) Stat(ctx context.Context, path string) (*secondary.FileInfo, error) {
	fi, err := os.Stat(filepath.Join(a.root, path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, secondary.ErrNotFound
		}
		return nil, &secondary.TransportError{Op: "stat", Path: path, Err: err}
	}
	return &secondary.FileInfo{Size: fi.Size(), Modified: fi.ModTime()}, nil
}
