package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/skb/internal/ports/secondary"
)

func TestValidateTree_Aggregates(t *testing.T) {
	store := newMockStorage(map[string]string{
		"good.yaml":   projectAsync,
		"broken.yaml": "version: [unclosed",
	})
	svc := NewValidateService(func(root string) secondary.Storage { return store }, 2)

	summary, err := svc.ValidateTree(context.Background(), ".")
	if err != nil {
		t.Fatalf("ValidateTree failed: %v", err)
	}
	if summary.FilesChecked != 2 {
		t.Errorf("expected 2 files, got %d", summary.FilesChecked)
	}
	if summary.Valid() {
		t.Error("summary with a broken file must not be valid")
	}
	if summary.ErrorCount == 0 {
		t.Error("expected errors from the broken file")
	}
}

func TestValidateFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "async.yaml")
	if err := os.WriteFile(path, []byte(projectAsync), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	svc := NewValidateService(func(root string) secondary.Storage { return newMockStorage(nil) }, 1)
	report, err := svc.ValidateFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ValidateFile failed: %v", err)
	}
	if !report.Valid() {
		t.Errorf("expected valid report, got %v", report.Errors)
	}

	if _, err := svc.ValidateFile(context.Background(), filepath.Join(tmpDir, "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
