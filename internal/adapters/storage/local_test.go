package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/skb/internal/adapters/storage"
	"github.com/example/skb/internal/ports/secondary"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestLocalAdapter_ListEntryFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "async.yaml", "version: \"1.0\"\n")
	writeFile(t, tmpDir, "docker/volumes.yaml", "version: \"1.0\"\n")
	writeFile(t, tmpDir, "async_meta.yaml", "version: \"1.0\"\n")
	writeFile(t, tmpDir, "_domain_index.yaml", "version: \"2.0\"\n")
	writeFile(t, tmpDir, "catalog.yaml", "{}\n")
	writeFile(t, tmpDir, "notes.txt", "not yaml\n")
	writeFile(t, tmpDir, ".git/config.yaml", "ignored\n")
	writeFile(t, tmpDir, "node_modules/pkg/x.yaml", "ignored\n")

	adapter := storage.NewLocalAdapter(tmpDir)
	files, err := adapter.ListEntryFiles(context.Background(), "")
	if err != nil {
		t.Fatalf("ListEntryFiles failed: %v", err)
	}

	want := []string{"async.yaml", "docker/volumes.yaml"}
	if len(files) != len(want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("expected %v, got %v", want, files)
		}
	}
}

func TestLocalAdapter_ListMissingRoot(t *testing.T) {
	adapter := storage.NewLocalAdapter(filepath.Join(t.TempDir(), "absent"))
	files, err := adapter.ListEntryFiles(context.Background(), "")
	if err != nil {
		t.Fatalf("missing root should not error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}

func TestLocalAdapter_ReadNotFound(t *testing.T) {
	adapter := storage.NewLocalAdapter(t.TempDir())
	_, err := adapter.Read(context.Background(), "absent.yaml")
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalAdapter_WriteReadStat(t *testing.T) {
	adapter := storage.NewLocalAdapter(t.TempDir())
	ctx := context.Background()

	content := []byte("version: \"1.0\"\ncategory: async\n")
	if err := adapter.Write(ctx, "sub/dir/async.yaml", content); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := adapter.Read(ctx, "sub/dir/async.yaml")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("content mismatch: %q", data)
	}

	info, err := adapter.Stat(ctx, "sub/dir/async.yaml")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size != int64(len(content)) {
		t.Errorf("expected size %d, got %d", len(content), info.Size)
	}
}

func TestLocalAdapter_WriteLeavesNoTempFiles(t *testing.T) {
	tmpDir := t.TempDir()
	adapter := storage.NewLocalAdapter(tmpDir)

	if err := adapter.Write(context.Background(), "a.yaml", []byte("x: 1\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "a.yaml" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only a.yaml, got %v", names)
	}
}
