package primary

import "context"

// Health verdicts for a KB tier.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// MetricsService defines the primary port for KB statistics.
type MetricsService interface {
	// Stats computes aggregate statistics over both tiers.
	Stats(ctx context.Context) (*Stats, error)
}

// TierStats holds the aggregate figures for one tier.
type TierStats struct {
	Files        int            `json:"files"`
	Entries      int            `json:"entries"`
	Errors       int            `json:"errors"`
	Patterns     int            `json:"patterns"`
	BySeverity   map[string]int `json:"by_severity"`
	ByScope      map[string]int `json:"by_scope"`
	ByDomain     map[string]int `json:"by_domain"`
	ByVersion    map[string]int `json:"by_version"`
	ByStatus     map[string]int `json:"by_status,omitempty"`
	QualityTiers map[string]int `json:"quality_tiers"`
	AvgQuality   float64        `json:"avg_quality"`
	InvalidFiles int            `json:"invalid_files"`
	Health       string         `json:"health"`
}

// Stats contains the result of a stats computation. Combined folds both
// tiers into one KB-wide view with a single health verdict.
type Stats struct {
	Project  *TierStats `json:"project,omitempty"`
	Shared   *TierStats `json:"shared,omitempty"`
	Combined *TierStats `json:"combined"`
}
