package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/skb/internal/core/entry"
	"github.com/example/skb/internal/ports/primary"
	"github.com/example/skb/internal/ports/secondary"
)

// DefaultSearchLimit caps results when the caller does not.
const DefaultSearchLimit = 20

// MaxSearchLimit is the hard ceiling on requested result counts.
const MaxSearchLimit = 500

// SearchServiceImpl implements the SearchService interface.
type SearchServiceImpl struct {
	project        secondary.Storage
	shared         secondary.Storage
	maxConcurrency int
}

var _ primary.SearchService = (*SearchServiceImpl)(nil)

// NewSearchService creates a new SearchService with injected dependencies.
func NewSearchService(project, shared secondary.Storage, maxConcurrency int) *SearchServiceImpl {
	return &SearchServiceImpl{
		project:        project,
		shared:         shared,
		maxConcurrency: maxConcurrency,
	}
}

// candidate is one entry surviving filters, pre-ordering.
type candidate struct {
	entry    *entry.Entry
	filePath string
	tier     string
	salience int
}

// Search runs a two-tier search. The project tier is scanned first; a
// shared entry with an id already seen in the project tier is dropped and
// noted, so project knowledge always wins.
func (s *SearchServiceImpl) Search(ctx context.Context, req primary.SearchRequest) (*primary.SearchResponse, error) {
	start := time.Now()
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	resp := &primary.SearchResponse{Query: req.Query}

	var candidates []candidate
	seen := make(map[string]string) // entry id -> tier of first sighting

	scanOne := func(store secondary.Storage, tier string) error {
		if store == nil {
			return nil
		}
		reports, err := scanTier(ctx, store, "", s.maxConcurrency)
		if err != nil {
			return err
		}
		resp.FilesScanned += len(reports)
		for _, report := range reports {
			if !report.Valid() {
				msg := fmt.Sprintf("skipping %s: %d validation errors", report.FilePath, len(report.Errors))
				if len(report.Errors) == 1 && report.Errors[0].Kind == entry.DiagUnreadable {
					msg = fmt.Sprintf("skipping %s: %s", report.FilePath, report.Errors[0].Message)
				}
				resp.Warnings = append(resp.Warnings, msg)
				continue
			}
			for i := range report.Entries {
				e := &report.Entries[i]
				if prevTier, ok := seen[e.ID]; ok {
					if prevTier == primary.TierProject && tier == primary.TierShared {
						resp.Notes = append(resp.Notes,
							fmt.Sprintf("%s: project overrides shared", e.ID))
					}
					continue
				}
				seen[e.ID] = tier
				if req.Category != "" && report.Envelope.Category != req.Category {
					continue
				}
				if !matchFilters(e, req) {
					continue
				}
				sal := salience(e, req.Query)
				if req.Query != "" && sal == 0 {
					continue
				}
				candidates = append(candidates, candidate{
					entry:    e,
					filePath: report.FilePath,
					tier:     tier,
					salience: sal,
				})
			}
		}
		return nil
	}

	if req.Tier == "" || req.Tier == primary.TierProject {
		if err := scanOne(s.project, primary.TierProject); err != nil {
			return cancelledOrError(resp, err)
		}
	}
	if req.Tier == "" || req.Tier == primary.TierShared {
		if err := scanOne(s.shared, primary.TierShared); err != nil {
			return cancelledOrError(resp, err)
		}
	}

	// Order: tier (project before shared), then salience, then severity
	// (critical first), then id, then path. Fully deterministic so
	// repeated queries return identical output.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.tier != b.tier {
			return a.tier == primary.TierProject
		}
		if a.salience != b.salience {
			return a.salience > b.salience
		}
		ra, rb := entry.SeverityRank(a.entry.Severity), entry.SeverityRank(b.entry.Severity)
		if ra != rb {
			return ra < rb
		}
		if a.entry.ID != b.entry.ID {
			return a.entry.ID < b.entry.ID
		}
		return a.filePath < b.filePath
	})

	resp.Total = len(candidates)
	maxSal := 0
	for _, c := range candidates {
		if c.salience > maxSal {
			maxSal = c.salience
		}
	}

	if req.Offset > 0 {
		if req.Offset >= len(candidates) {
			candidates = nil
		} else {
			candidates = candidates[req.Offset:]
		}
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
		resp.Truncated = true
	}

	for _, c := range candidates {
		relevance := 0.0
		if maxSal > 0 {
			relevance = float64(c.salience) / float64(maxSal)
		}
		resp.Results = append(resp.Results, &primary.SearchResult{
			Entry:     c.entry,
			FilePath:  c.filePath,
			Tier:      c.tier,
			Salience:  c.salience,
			Relevance: relevance,
			Preview:   entry.Preview(c.entry),
		})
	}

	resp.ElapsedMS = time.Since(start).Milliseconds()
	return resp, nil
}

// Get retrieves a single entry by exact id, project tier first.
func (s *SearchServiceImpl) Get(ctx context.Context, id string) (*primary.SearchResult, error) {
	for _, tier := range []struct {
		store secondary.Storage
		name  string
	}{
		{s.project, primary.TierProject},
		{s.shared, primary.TierShared},
	} {
		if tier.store == nil {
			continue
		}
		reports, err := scanTier(ctx, tier.store, "", s.maxConcurrency)
		if err != nil {
			return nil, err
		}
		for _, report := range reports {
			for i := range report.Entries {
				e := &report.Entries[i]
				if e.ID == id {
					return &primary.SearchResult{
						Entry:    e,
						FilePath: report.FilePath,
						Tier:     tier.name,
						Preview:  entry.Preview(e),
					}, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("entry %s: %w", id, secondary.ErrNotFound)
}

// cancelledOrError turns a cancellation into an empty, marked response; a
// cancelled search never returns partial results.
func cancelledOrError(resp *primary.SearchResponse, err error) (*primary.SearchResponse, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &primary.SearchResponse{
			Query: resp.Query,
			Notes: []string{"cancelled"},
		}, nil
	}
	return nil, err
}

// matchFilters applies the structured filters, ignoring empty ones.
func matchFilters(e *entry.Entry, req primary.SearchRequest) bool {
	if req.Kind != "" && string(e.Kind) != req.Kind {
		return false
	}
	if req.Severity != "" && e.Severity != req.Severity {
		return false
	}
	if req.Scope != "" && e.Scope != req.Scope {
		return false
	}
	if req.Domain != "" {
		if e.Domains == nil {
			return false
		}
		if e.Domains.Primary != req.Domain && !contains(e.Domains.Secondary, req.Domain) {
			return false
		}
	}
	for _, want := range req.Tags {
		if !containsFold(e.Tags, want) {
			return false
		}
	}
	return true
}

// salience scores query relevance: the whole query must appear as a
// case-insensitive substring, and head fields (id, title) outweigh body
// fields.
func salience(e *entry.Entry, query string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	head, body := e.SearchableText()
	headText := strings.ToLower(strings.Join(head, " "))
	bodyText := strings.ToLower(strings.Join(body, " "))

	score := 0
	if strings.Contains(headText, q) {
		score += 3
	}
	if strings.Contains(bodyText, q) {
		score++
	}
	if score == 0 {
		return 0
	}
	if strings.EqualFold(e.ID, q) {
		score += 10
	}
	return score
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func containsFold(list []string, want string) bool {
	for _, v := range list {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
