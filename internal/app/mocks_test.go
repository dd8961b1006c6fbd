package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/skb/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockStorage implements secondary.Storage over an in-memory map.
type mockStorage struct {
	files    map[string][]byte
	readErr  error
	readErrs map[string]error
	writeErr error
	listErr  error
}

func newMockStorage(files map[string]string) *mockStorage {
	m := &mockStorage{
		files:    make(map[string][]byte),
		readErrs: make(map[string]error),
	}
	for path, content := range files {
		m.files[path] = []byte(content)
	}
	return m
}

func (m *mockStorage) ListEntryFiles(ctx context.Context, root string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []string
	for path := range m.files {
		if strings.HasSuffix(path, "_meta.yaml") || strings.HasPrefix(path, "_") {
			continue
		}
		if root != "" && !strings.HasPrefix(path, root+"/") {
			continue
		}
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockStorage) Read(ctx context.Context, path string) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	if err, ok := m.readErrs[path]; ok {
		return nil, err
	}
	data, ok := m.files[path]
	if !ok {
		return nil, secondary.ErrNotFound
	}
	return data, nil
}

func (m *mockStorage) Write(ctx context.Context, path string, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.files[path] = data
	return nil
}

func (m *mockStorage) Stat(ctx context.Context, path string) (*secondary.FileInfo, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, secondary.ErrNotFound
	}
	return &secondary.FileInfo{Size: int64(len(data))}, nil
}

// mockReviewHost implements secondary.ReviewHost in memory.
type mockReviewHost struct {
	items     map[string]*secondary.ReviewItem
	comments  map[string][]string
	nextSeq   int
	createErr error
	closeErr  error
}

func newMockReviewHost() *mockReviewHost {
	return &mockReviewHost{
		items:    make(map[string]*secondary.ReviewItem),
		comments: make(map[string][]string),
	}
}

func (m *mockReviewHost) CreateItem(ctx context.Context, title, body string, labels []string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.nextSeq++
	id := fmt.Sprintf("KBSUB-%03d", m.nextSeq)
	m.items[id] = &secondary.ReviewItem{
		ID:        id,
		Title:     title,
		Body:      body,
		Labels:    labels,
		State:     secondary.ReviewStateOpen,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return id, nil
}

func (m *mockReviewHost) GetItem(ctx context.Context, id string) (*secondary.ReviewItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, secondary.ErrNotFound
	}
	return item, nil
}

func (m *mockReviewHost) ListOpen(ctx context.Context, label string) ([]*secondary.ReviewItem, error) {
	var out []*secondary.ReviewItem
	for _, item := range m.items {
		if item.State != secondary.ReviewStateOpen {
			continue
		}
		if label != "" && !containsLabel(item.Labels, label) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockReviewHost) Comment(ctx context.Context, id, body string) error {
	if _, ok := m.items[id]; !ok {
		return secondary.ErrNotFound
	}
	m.comments[id] = append(m.comments[id], body)
	return nil
}

func (m *mockReviewHost) Close(ctx context.Context, id, verdict string) error {
	if m.closeErr != nil {
		return m.closeErr
	}
	item, ok := m.items[id]
	if !ok {
		return secondary.ErrNotFound
	}
	if item.State == secondary.ReviewStateClosed {
		if item.Verdict == verdict {
			return nil
		}
		return fmt.Errorf("review item %s already closed as %s", id, item.Verdict)
	}
	item.State = secondary.ReviewStateClosed
	item.Verdict = verdict
	return nil
}

func containsLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}
