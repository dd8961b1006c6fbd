package primary

import (
	"context"
	"time"

	"github.com/example/skb/internal/core/sidecar"
)

// MetadataService defines the primary port for sidecar metadata
// operations.
type MetadataService interface {
	// Get loads the tracked metadata for one entry. Returns nil without
	// error when no sidecar exists.
	Get(ctx context.Context, entryPath, entryID string) (*sidecar.EntryMetadata, error)

	// Initialize creates a sidecar for an entry file, seeding one record
	// per entry. Initializing an existing sidecar is an error.
	Initialize(ctx context.Context, req InitializeRequest) (*sidecar.Sidecar, error)

	// Update applies a mutation to one entry's metadata, bumping the
	// sidecar version and appending to its change history.
	Update(ctx context.Context, req UpdateMetadataRequest) (*sidecar.EntryMetadata, error)

	// List returns the sidecar for an entry file, if any.
	List(ctx context.Context, entryPath string) (*sidecar.Sidecar, error)

	// EntriesDue returns entries whose next version check falls on or
	// before the given time.
	EntriesDue(ctx context.Context, before time.Time) ([]*DueEntry, error)
}

// InitializeRequest contains parameters for sidecar creation.
type InitializeRequest struct {
	EntryPath string
	Agent     string
}

// UpdateMetadataRequest contains parameters for a metadata mutation.
type UpdateMetadataRequest struct {
	EntryPath        string
	EntryID          string
	Agent            string
	Reason           string
	ValidationStatus string // optional
	QualityScore     *int   // optional
	TestedVersions   map[string]string
	MarkAnalyzed     bool
	Deprecate        bool
	SupersededBy     string
}

// DueEntry is one entry whose version check is due.
type DueEntry struct {
	EntryID  string
	FilePath string
	Severity string
	DueAt    string
	Status   string
}
