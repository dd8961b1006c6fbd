package app

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/example/skb/internal/core/domain"
	"github.com/example/skb/internal/core/entry"
	"github.com/example/skb/internal/ports/primary"
	"github.com/example/skb/internal/ports/secondary"
)

// ManifestPath is the domain index location relative to the shared root.
const ManifestPath = "_domain_index.yaml"

// IndexServiceImpl implements the IndexService interface.
type IndexServiceImpl struct {
	shared         secondary.Storage
	maxConcurrency int
}

var _ primary.IndexService = (*IndexServiceImpl)(nil)

// NewIndexService creates a new IndexService over the shared tier.
func NewIndexService(shared secondary.Storage, maxConcurrency int) *IndexServiceImpl {
	return &IndexServiceImpl{
		shared:         shared,
		maxConcurrency: maxConcurrency,
	}
}

// buildManifest scans the shared tier and computes a fresh manifest.
func (s *IndexServiceImpl) buildManifest(ctx context.Context) (*domain.Manifest, int, error) {
	reports, err := scanTier(ctx, s.shared, "", s.maxConcurrency)
	if err != nil {
		return nil, 0, err
	}

	// LastUpdated derives from the scanned content, not the wall clock,
	// so rebuilding an unchanged tree reproduces the manifest byte for
	// byte.
	m := &domain.Manifest{
		Version:        domain.ManifestVersion,
		Domains:        make(map[string]int),
		RelatedDomains: domain.RelatedPairs(),
	}
	for _, report := range reports {
		if !report.Valid() {
			continue
		}
		if report.Envelope.LastUpdated > m.LastUpdated {
			m.LastUpdated = report.Envelope.LastUpdated
		}
		for _, e := range report.Entries {
			m.TotalEntries++
			if e.Domains == nil || e.Domains.Primary == "" {
				continue
			}
			m.EntriesWithDomains++
			m.Domains[e.Domains.Primary]++
		}
	}
	if m.TotalEntries > 0 {
		pct := float64(m.EntriesWithDomains) / float64(m.TotalEntries) * 100
		m.CoveragePercent = math.Round(pct*10) / 10
	}
	return m, len(reports), nil
}

// Rebuild scans the shared tier and rewrites the manifest.
func (s *IndexServiceImpl) Rebuild(ctx context.Context) (*primary.RebuildResponse, error) {
	m, scanned, err := s.buildManifest(ctx)
	if err != nil {
		return nil, err
	}

	data, err := m.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := s.shared.Write(ctx, ManifestPath, data); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	return &primary.RebuildResponse{
		Manifest:     m,
		FilesScanned: scanned,
		Path:         ManifestPath,
	}, nil
}

// Manifest loads and validates the stored manifest.
func (s *IndexServiceImpl) Manifest(ctx context.Context) (*domain.Manifest, error) {
	data, err := s.shared.Read(ctx, ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return domain.ParseManifest(data)
}

// ValidateManifest compares the stored manifest against a fresh scan.
func (s *IndexServiceImpl) ValidateManifest(ctx context.Context) (*primary.ManifestDrift, error) {
	stored, err := s.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	fresh, _, err := s.buildManifest(ctx)
	if err != nil {
		return nil, err
	}

	drift := &primary.ManifestDrift{Manifest: stored, Fresh: fresh}
	if stored.TotalEntries != fresh.TotalEntries {
		drift.Details = append(drift.Details,
			fmt.Sprintf("total_entries: manifest %d, scan %d", stored.TotalEntries, fresh.TotalEntries))
	}

	names := make(map[string]bool)
	for name := range stored.Domains {
		names[name] = true
	}
	for name := range fresh.Domains {
		names[name] = true
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		if stored.Domains[name] != fresh.Domains[name] {
			drift.Details = append(drift.Details,
				fmt.Sprintf("domains.%s: manifest %d, scan %d", name, stored.Domains[name], fresh.Domains[name]))
		}
	}
	drift.Stale = len(drift.Details) > 0
	return drift, nil
}

// LoadDomain returns the file set for one domain. A file belongs to a
// domain when any of its entries name it as primary or secondary.
func (s *IndexServiceImpl) LoadDomain(ctx context.Context, name string) (*primary.DomainLoad, error) {
	if !domain.Valid(name) {
		return nil, fmt.Errorf("unknown domain %q (known: %v)", name, domain.Names())
	}

	reports, err := scanTier(ctx, s.shared, "", s.maxConcurrency)
	if err != nil {
		return nil, err
	}

	load := &primary.DomainLoad{
		Domain:      name,
		TotalFiles:  len(reports),
		Description: domain.Taxonomy[name].Description,
	}
	for _, report := range reports {
		if !report.Valid() {
			continue
		}
		hit := false
		for _, e := range report.Entries {
			if e.Domains == nil {
				continue
			}
			if e.Domains.Primary == name || contains(e.Domains.Secondary, name) {
				hit = true
				load.EntryCount++
			}
		}
		if hit {
			load.Files = append(load.Files, report.FilePath)
		}
	}
	if load.TotalFiles > 0 {
		skipped := float64(load.TotalFiles-len(load.Files)) / float64(load.TotalFiles) * 100
		load.SkippedPct = math.Round(skipped*10) / 10
	}
	return load, nil
}

// Backfill infers domain assignments for entries that lack one. Inference
// is advisory; nothing is written unless req.Write is set.
func (s *IndexServiceImpl) Backfill(ctx context.Context, req primary.BackfillRequest) (*primary.BackfillResponse, error) {
	reports, err := scanTier(ctx, s.shared, "", s.maxConcurrency)
	if err != nil {
		return nil, err
	}

	resp := &primary.BackfillResponse{}
	for _, report := range reports {
		if !report.Valid() {
			continue
		}

		dirty := false
		for i := range report.Entries {
			e := &report.Entries[i]
			resp.Scanned++
			if e.Domains != nil && e.Domains.Primary != "" {
				continue
			}
			resp.Missing++

			primaryName, secondaryNames := domain.Infer(e.Tags)
			if primaryName == "" {
				resp.Unresolved = append(resp.Unresolved, e.ID)
				continue
			}

			assignment := &primary.BackfillAssignment{
				EntryID:   e.ID,
				FilePath:  report.FilePath,
				Primary:   primaryName,
				Secondary: secondaryNames,
			}
			if req.Write {
				applyDomains(report.Envelope, e.ID, e.Kind, &entry.Domains{
					Primary:   primaryName,
					Secondary: secondaryNames,
				})
				assignment.Applied = true
				dirty = true
			}
			resp.Assignments = append(resp.Assignments, assignment)
		}

		if dirty {
			data, err := report.Envelope.Marshal()
			if err != nil {
				return nil, fmt.Errorf("failed to marshal %s: %w", report.FilePath, err)
			}
			if err := s.shared.Write(ctx, report.FilePath, data); err != nil {
				return nil, err
			}
		}
	}
	return resp, nil
}

// applyDomains writes an inferred assignment back into the envelope so a
// re-marshal persists it.
func applyDomains(env *entry.Envelope, id string, kind entry.Kind, d *entry.Domains) {
	list := env.Errors
	if kind == entry.KindPattern {
		list = env.Patterns
	}
	for i := range list {
		if list[i].ID == id {
			list[i].Domains = d
			return
		}
	}
}
