package storage

import (
	"context"
	"errors"

	"github.com/example/skb/internal/ports/secondary"
)

// MirrorAdapter implements secondary.Storage as a read-through sparse
// mirror: reads hit the local cache first and fall back to the remote,
// persisting what they fetch. Only the paths actually read ever exist
// locally, which is what makes progressive domain loading cheap.
type MirrorAdapter struct {
	cache  *LocalAdapter
	remote secondary.Storage
}

var _ secondary.Storage = (*MirrorAdapter)(nil)

// NewMirrorAdapter creates a mirror backed by cacheDir and fed by remote.
func NewMirrorAdapter(cacheDir string, remote secondary.Storage) *MirrorAdapter {
	return &MirrorAdapter{
		cache:  NewLocalAdapter(cacheDir),
		remote: remote,
	}
}

// ListEntryFiles enumerates the remote; the cache holds only a subset and
// cannot answer listing queries authoritatively.
func (a *MirrorAdapter) ListEntryFiles(ctx context.Context, root string) ([]string, error) {
	files, err := a.remote.ListEntryFiles(ctx, root)
	if err != nil {
		// Degrade to whatever the cache holds when the remote is down.
		cached, cacheErr := a.cache.ListEntryFiles(ctx, root)
		if cacheErr != nil || len(cached) == 0 {
			return nil, err
		}
		return cached, nil
	}
	return files, nil
}

// Read returns the cached copy if present, otherwise fetches from the
// remote and persists the result.
func (a *MirrorAdapter) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := a.cache.Read(ctx, path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, secondary.ErrNotFound) {
		return nil, err
	}

	data, err = a.remote.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	// Cache failures are non-fatal; the caller got its bytes.
	_ = a.cache.Write(ctx, path, data)
	return data, nil
}

// Write stores into the local cache only. Pushing to the remote is the
// submission pipeline's job, never a side effect of storage.
func (a *MirrorAdapter) Write(ctx context.Context, path string, data []byte) error {
	return a.cache.Write(ctx, path, data)
}

// Stat prefers the cached copy and falls back to the remote.
func (a *MirrorAdapter) Stat(ctx context.Context, path string) (*secondary.FileInfo, error) {
	fi, err := a.cache.Stat(ctx, path)
	if err == nil {
		return fi, nil
	}
	if !errors.Is(err, secondary.ErrNotFound) {
		return nil, err
	}
	return a.remote.Stat(ctx, path)
}

// Prefetch warms the cache with the given paths, typically one domain's
// file set.
func (a *MirrorAdapter) Prefetch(ctx context.Context, paths []string) error {
	for _, p := range paths {
		if _, err := a.cache.Stat(ctx, p); err == nil {
			continue
		}
		data, err := a.remote.Read(ctx, p)
		if err != nil {
			return err
		}
		if err := a.cache.Write(ctx, p, data); err != nil {
			return err
		}
	}
	return nil
}
