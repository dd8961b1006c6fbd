package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/example/skb/internal/ports/secondary"
)

const (
	remoteTimeout     = 30 * time.Second
	maxInFlight       = 8
	remoteIndexFile   = "_index.yaml"
	defaultRateEvery  = 500 * time.Millisecond
)

// RemoteAdapter implements secondary.Storage over raw HTTP file fetches
// from the shared repository host. Fetches are paced: at most maxInFlight
// concurrent requests, with a rate limiter between request starts so a
// full-tree scan cannot hammer the host.
type RemoteAdapter struct {
	base    string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	sem     chan struct{}
}

var _ secondary.Storage = (*RemoteAdapter)(nil)

// NewRemoteAdapter creates a remote adapter for baseURL. token is sent as
// a bearer credential when non-empty.
func NewRemoteAdapter(baseURL, token string) *RemoteAdapter {
	return &RemoteAdapter{
		base:    strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: remoteTimeout},
		limiter: rate.NewLimiter(rate.Every(defaultRateEvery), maxInFlight),
		sem:     make(chan struct{}, maxInFlight),
	}
}

// remoteIndex is the file listing the host publishes alongside the KB.
type remoteIndex struct {
	Files []string `yaml:"files"`
}

// ListEntryFiles fetches the published index and filters it the same way
// the local adapter filters a directory walk.
func (a *RemoteAdapter) ListEntryFiles(ctx context.Context, root string) ([]string, error) {
	indexPath := remoteIndexFile
	if root != "" {
		indexPath = path.Join(root, remoteIndexFile)
	}
	data, err := a.Read(ctx, indexPath)
	if err != nil {
		return nil, err
	}

	var idx remoteIndex
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, &secondary.DecodeError{Path: indexPath, Err: err}
	}

	var files []string
	for _, f := range idx.Files {
		f = strings.TrimPrefix(f, "/")
		if !strings.HasSuffix(f, ".yaml") && !strings.HasSuffix(f, ".yml") {
			continue
		}
		if excluded(f) {
			continue
		}
		if root != "" && !strings.HasPrefix(f, root+"/") {
			continue
		}
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

// Read fetches one file, respecting the pacing limits.
func (a *RemoteAdapter) Read(ctx context.Context, p string) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	select {
	case a.sem <- struct{}{}:
		defer func() { <-a.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	url := a.base + "/" + strings.TrimPrefix(p, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &secondary.TransportError{Op: "read", Path: p, Err: err}
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &secondary.TransportError{Op: "read", Path: p, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, secondary.ErrNotFound
	default:
		return nil, &secondary.TransportError{
			Op:   "read",
			Path: p,
			Err:  fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &secondary.DecodeError{Path: p, Err: err}
	}
	return data, nil
}

// Write is not supported; the remote tier only changes through the
// submission pipeline.
func (a *RemoteAdapter) Write(ctx context.Context, p string, data []byte) error {
	return &secondary.TransportError{Op: "write", Path: p, Err: fmt.Errorf("remote storage is read-only")}
}

// Stat issues a HEAD request for the file.
func (a *RemoteAdapter) Stat(ctx context.Context, p string) (*secondary.FileInfo, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := a.base + "/" + strings.TrimPrefix(p, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, &secondary.TransportError{Op: "stat", Path: p, Err: err}
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &secondary.TransportError{Op: "stat", Path: p, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, secondary.ErrNotFound
	default:
		return nil, &secondary.TransportError{
			Op:   "stat",
			Path: p,
			Err:  fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	info := &secondary.FileInfo{Size: resp.ContentLength}
	if t, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		info.Modified = t
	}
	return info, nil
}
