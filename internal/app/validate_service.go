package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/skb/internal/core/entry"
	"github.com/example/skb/internal/ports/primary"
	"github.com/example/skb/internal/ports/secondary"
)

// StorageFactory opens a storage adapter over an arbitrary directory.
// Injected so services never depend on a concrete adapter.
type StorageFactory func(root string) secondary.Storage

// ValidateServiceImpl implements the ValidateService interface.
type ValidateServiceImpl struct {
	openStorage    StorageFactory
	maxConcurrency int
}

var _ primary.ValidateService = (*ValidateServiceImpl)(nil)

// NewValidateService creates a new ValidateService.
func NewValidateService(openStorage StorageFactory, maxConcurrency int) *ValidateServiceImpl {
	return &ValidateServiceImpl{openStorage: openStorage, maxConcurrency: maxConcurrency}
}

// ValidateFile validates a single entry file on disk.
func (s *ValidateServiceImpl) ValidateFile(ctx context.Context, path string) (*entry.FileReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return entry.ParseFile(path, data), nil
}

// ValidateTree validates every entry file under root.
func (s *ValidateServiceImpl) ValidateTree(ctx context.Context, root string) (*primary.ValidationSummary, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	store := s.openStorage(abs)
	reports, err := scanTier(ctx, store, "", s.maxConcurrency)
	if err != nil {
		return nil, err
	}

	summary := &primary.ValidationSummary{
		Root:         abs,
		FilesChecked: len(reports),
		Reports:      reports,
	}
	for _, report := range reports {
		summary.ErrorCount += len(report.Errors)
		summary.WarningCount += len(report.Warnings)
	}
	return summary, nil
}
