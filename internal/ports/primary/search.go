// Package primary defines the primary ports (driving interfaces) for the
// knowledge base services.
package primary

import (
	"context"

	"github.com/example/skb/internal/core/entry"
)

// Tiers a search result can originate from.
const (
	TierProject = "project"
	TierShared  = "shared"
)

// SearchService defines the primary port for search operations.
type SearchService interface {
	// Search runs a two-tier search over the project and shared KBs.
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)

	// Get retrieves a single entry by exact id, project tier first.
	Get(ctx context.Context, id string) (*SearchResult, error)
}

// SearchRequest contains parameters for a search. An empty query with no
// filters browses the KB in stable order.
type SearchRequest struct {
	Query    string
	Kind     string // "error", "pattern", or "" for both
	Category string
	Severity string
	Scope    string
	Domain   string
	Tags     []string
	Tier     string // TierProject, TierShared, or "" for both
	Limit    int
	Offset   int
}

// SearchResult is one matched entry with its provenance. Relevance is a
// display-only normalization of the salience score into [0,1].
type SearchResult struct {
	Entry     *entry.Entry
	FilePath  string
	Tier      string
	Salience  int
	Relevance float64
	Preview   string
}

// SearchResponse contains the result of a search.
type SearchResponse struct {
	Query        string
	Results      []*SearchResult
	Total        int
	FilesScanned int
	Notes        []string
	Warnings     []string
	Truncated    bool
	ElapsedMS    int64
}
