package app

import (
	"context"
	"math"

	"github.com/example/skb/internal/core/entry"
	"github.com/example/skb/internal/core/sidecar"
	"github.com/example/skb/internal/ports/primary"
	"github.com/example/skb/internal/ports/secondary"
)

// MetricsServiceImpl implements the MetricsService interface.
type MetricsServiceImpl struct {
	project        secondary.Storage
	shared         secondary.Storage
	maxConcurrency int
}

var _ primary.MetricsService = (*MetricsServiceImpl)(nil)

// NewMetricsService creates a new MetricsService.
func NewMetricsService(project, shared secondary.Storage, maxConcurrency int) *MetricsServiceImpl {
	return &MetricsServiceImpl{
		project:        project,
		shared:         shared,
		maxConcurrency: maxConcurrency,
	}
}

// Stats computes aggregate statistics per tier and across the combined
// KB.
func (s *MetricsServiceImpl) Stats(ctx context.Context) (*primary.Stats, error) {
	out := &primary.Stats{}
	combinedQuality := 0

	if s.project != nil {
		ts, totalQuality, err := s.tierStats(ctx, s.project)
		if err != nil {
			return nil, err
		}
		out.Project = ts
		combinedQuality += totalQuality
	}
	if s.shared != nil {
		ts, totalQuality, err := s.tierStats(ctx, s.shared)
		if err != nil {
			return nil, err
		}
		out.Shared = ts
		combinedQuality += totalQuality
	}

	out.Combined = combineTierStats(out.Project, out.Shared, combinedQuality)
	return out, nil
}

func (s *MetricsServiceImpl) tierStats(ctx context.Context, store secondary.Storage) (*primary.TierStats, int, error) {
	reports, err := scanTier(ctx, store, "", s.maxConcurrency)
	if err != nil {
		return nil, 0, err
	}

	ts := &primary.TierStats{
		Files:        len(reports),
		BySeverity:   make(map[string]int),
		ByScope:      make(map[string]int),
		ByDomain:     make(map[string]int),
		ByVersion:    make(map[string]int),
		ByStatus:     make(map[string]int),
		QualityTiers: make(map[string]int),
	}

	totalQuality := 0
	for _, report := range reports {
		if !report.Valid() {
			ts.InvalidFiles++
			continue
		}
		if report.Envelope.Version != "" {
			ts.ByVersion[report.Envelope.Version]++
		}
		s.countStatuses(ctx, store, report.FilePath, ts.ByStatus)
		for i := range report.Entries {
			e := &report.Entries[i]
			ts.Entries++
			if e.Kind == entry.KindPattern {
				ts.Patterns++
			} else {
				ts.Errors++
			}
			if e.Severity != "" {
				ts.BySeverity[e.Severity]++
			}
			if e.Scope != "" {
				ts.ByScope[e.Scope]++
			}
			if e.Domains != nil && e.Domains.Primary != "" {
				ts.ByDomain[e.Domains.Primary]++
			}

			q := entry.Quality(e)
			totalQuality += q
			ts.QualityTiers[entry.QualityTier(q)]++
		}
	}

	if ts.Entries > 0 {
		avg := float64(totalQuality) / float64(ts.Entries)
		ts.AvgQuality = math.Round(avg*10) / 10
	}
	ts.Health = healthVerdict(ts.AvgQuality, ts.Entries)
	return ts, totalQuality, nil
}

// combineTierStats folds the per-tier figures into the whole-KB view.
// The average is recomputed from the raw quality total so it does not
// inherit per-tier rounding.
func combineTierStats(project, shared *primary.TierStats, totalQuality int) *primary.TierStats {
	out := &primary.TierStats{
		BySeverity:   make(map[string]int),
		ByScope:      make(map[string]int),
		ByDomain:     make(map[string]int),
		ByVersion:    make(map[string]int),
		ByStatus:     make(map[string]int),
		QualityTiers: make(map[string]int),
	}
	for _, ts := range []*primary.TierStats{project, shared} {
		if ts == nil {
			continue
		}
		out.Files += ts.Files
		out.Entries += ts.Entries
		out.Errors += ts.Errors
		out.Patterns += ts.Patterns
		out.InvalidFiles += ts.InvalidFiles
		mergeCounts(out.BySeverity, ts.BySeverity)
		mergeCounts(out.ByScope, ts.ByScope)
		mergeCounts(out.ByDomain, ts.ByDomain)
		mergeCounts(out.ByVersion, ts.ByVersion)
		mergeCounts(out.ByStatus, ts.ByStatus)
		mergeCounts(out.QualityTiers, ts.QualityTiers)
	}
	if out.Entries > 0 {
		avg := float64(totalQuality) / float64(out.Entries)
		out.AvgQuality = math.Round(avg*10) / 10
	}
	out.Health = healthVerdict(out.AvgQuality, out.Entries)
	return out
}

func mergeCounts(dst, src map[string]int) {
	for k, v := range src {
		dst[k] += v
	}
}

// countStatuses folds the tracked validation statuses from an entry
// file's sidecar, if one exists, into the distribution.
func (s *MetricsServiceImpl) countStatuses(ctx context.Context, store secondary.Storage, file string, dist map[string]int) {
	data, err := store.Read(ctx, sidecar.PathFor(file))
	if err != nil {
		return
	}
	sc, err := sidecar.Parse(data)
	if err != nil {
		return
	}
	for _, meta := range sc.Entries {
		if meta.ValidationStatus != "" {
			dist[meta.ValidationStatus]++
		}
	}
}

// healthVerdict maps average quality to a tier verdict. An empty tier is
// healthy; there is nothing wrong with it yet.
func healthVerdict(avgQuality float64, entries int) string {
	switch {
	case entries == 0:
		return primary.HealthHealthy
	case avgQuality >= 75:
		return primary.HealthHealthy
	case avgQuality >= 60:
		return primary.HealthDegraded
	default:
		return primary.HealthUnhealthy
	}
}
