package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/example/skb/internal/core/entry"
	"github.com/example/skb/internal/ports/secondary"
)

// scanTier enumerates and parses every entry file in a tier with bounded
// concurrency. Parse and per-file read failures become reports with
// diagnostics, not errors; only listing failures and cancellation abort
// the scan. Reports come back sorted by file path so a scan is a stable
// snapshot.
func scanTier(ctx context.Context, store secondary.Storage, root string, maxConcurrency int) ([]*entry.FileReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := store.ListEntryFiles(ctx, root)
	if err != nil {
		return nil, err
	}

	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	var mu sync.Mutex
	reports := make([]*entry.FileReport, 0, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := store.Read(gctx, file)
			if err != nil {
				if gctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				report := &entry.FileReport{FilePath: file}
				report.Errors = append(report.Errors, entry.Diagnostic{
					FilePath: file,
					Kind:     entry.DiagUnreadable,
					Severity: "error",
					Message:  fmt.Sprintf("cannot read file: %v", err),
				})
				mu.Lock()
				reports = append(reports, report)
				mu.Unlock()
				return nil
			}
			report := entry.ParseFile(file, data)
			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].FilePath < reports[j].FilePath
	})
	return reports, nil
}
