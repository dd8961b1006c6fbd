package primary

import (
	"context"

	"github.com/example/skb/internal/core/domain"
)

// IndexService defines the primary port for domain index operations.
type IndexService interface {
	// Rebuild scans the shared tier and rewrites the domain manifest.
	Rebuild(ctx context.Context) (*RebuildResponse, error)

	// Manifest loads and validates the current manifest.
	Manifest(ctx context.Context) (*domain.Manifest, error)

	// ValidateManifest checks the manifest against a fresh scan and
	// reports drift without writing anything.
	ValidateManifest(ctx context.Context) (*ManifestDrift, error)

	// LoadDomain returns the entry files belonging to one domain, for
	// progressive loading.
	LoadDomain(ctx context.Context, name string) (*DomainLoad, error)

	// Backfill infers domain assignments for entries that lack one.
	// With Write false it only reports what it would assign.
	Backfill(ctx context.Context, req BackfillRequest) (*BackfillResponse, error)
}

// RebuildResponse contains the result of a manifest rebuild.
type RebuildResponse struct {
	Manifest     *domain.Manifest
	FilesScanned int
	Path         string
}

// ManifestDrift describes disagreement between the stored manifest and a
// fresh scan.
type ManifestDrift struct {
	Manifest *domain.Manifest
	Fresh    *domain.Manifest
	Stale    bool
	Details  []string
}

// DomainLoad is the file set for one domain plus the scan cost avoided by
// loading only it.
type DomainLoad struct {
	Domain      string
	Files       []string
	EntryCount  int
	TotalFiles  int
	SkippedPct  float64
	Description string
}

// BackfillRequest contains parameters for a domain backfill.
type BackfillRequest struct {
	Write bool
	Agent string
}

// BackfillAssignment is one proposed or applied domain assignment.
type BackfillAssignment struct {
	EntryID   string
	FilePath  string
	Primary   string
	Secondary []string
	Applied   bool
}

// BackfillResponse contains the result of a backfill pass.
type BackfillResponse struct {
	Scanned     int
	Missing     int
	Assignments []*BackfillAssignment
	Unresolved  []string
}
