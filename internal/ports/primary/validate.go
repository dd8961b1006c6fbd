package primary

import (
	"context"

	"github.com/example/skb/internal/core/entry"
)

// ValidateService defines the primary port for validation operations.
type ValidateService interface {
	// ValidateFile validates a single entry file.
	ValidateFile(ctx context.Context, path string) (*entry.FileReport, error)

	// ValidateTree validates every entry file under a root.
	ValidateTree(ctx context.Context, root string) (*ValidationSummary, error)
}

// ValidationSummary aggregates per-file reports for a tree.
type ValidationSummary struct {
	Root         string
	FilesChecked int
	Reports      []*entry.FileReport
	ErrorCount   int
	WarningCount int
}

// Valid reports whether no file produced a hard error.
func (s *ValidationSummary) Valid() bool {
	return s.ErrorCount == 0
}
