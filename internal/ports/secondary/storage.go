// Package secondary defines the secondary ports (driven adapters) for the
// knowledge base: file storage and the review host.
package secondary

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested file does not exist.
var ErrNotFound = errors.New("not found")

// TransportError wraps a failure to reach the underlying store (network,
// permissions, rate limiting). Callers decide whether to retry.
type TransportError struct {
	Op   string
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError wraps a failure to decode retrieved bytes (bad encoding,
// truncated response).
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FileInfo is the result of a Stat call.
type FileInfo struct {
	Size     int64
	Modified time.Time
}

// Storage abstracts the location of KB YAML files. Implementations: local
// directory, sparse mirror of a remote repository, raw HTTP fetch. Every
// operation returns a typed error; no hidden retries beyond remote-fetch
// rate-limit pacing.
type Storage interface {
	// ListEntryFiles recursively enumerates entry files (*.yaml) under
	// root, relative to the adapter root, excluding sidecars, index
	// files, catalogs, and ignored directories.
	ListEntryFiles(ctx context.Context, root string) ([]string, error)

	// Read retrieves a file's bytes.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores bytes at path, creating parent directories as needed.
	Write(ctx context.Context, path string, data []byte) error

	// Stat returns size and modification time for a file.
	Stat(ctx context.Context, path string) (*FileInfo, error)
}
