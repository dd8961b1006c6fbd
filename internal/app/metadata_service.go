package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/example/skb/internal/core/entry"
	"github.com/example/skb/internal/core/sidecar"
	"github.com/example/skb/internal/ports/primary"
	"github.com/example/skb/internal/ports/secondary"
)

// MetadataServiceImpl implements the MetadataService interface. Sidecar
// mutations are serialized per path so concurrent updates cannot lose a
// version bump or interleave history records.
type MetadataServiceImpl struct {
	files          secondary.Storage
	project        secondary.Storage
	shared         secondary.Storage
	maxConcurrency int
	now            func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ primary.MetadataService = (*MetadataServiceImpl)(nil)

// NewMetadataService creates a new MetadataService. files resolves the
// entry paths callers pass in; project and shared back EntriesDue scans.
func NewMetadataService(files, project, shared secondary.Storage, maxConcurrency int) *MetadataServiceImpl {
	return &MetadataServiceImpl{
		files:          files,
		project:        project,
		shared:         shared,
		maxConcurrency: maxConcurrency,
		now:            time.Now,
		locks:          make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding one sidecar path.
func (s *MetadataServiceImpl) lockFor(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[path]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[path] = l
	return l
}

func (s *MetadataServiceImpl) loadSidecar(ctx context.Context, entryPath string) (*sidecar.Sidecar, string, error) {
	scPath := sidecar.PathFor(entryPath)
	data, err := s.files.Read(ctx, scPath)
	if err != nil {
		return nil, scPath, err
	}
	sc, err := sidecar.Parse(data)
	if err != nil {
		return nil, scPath, fmt.Errorf("failed to parse sidecar %s: %w", scPath, err)
	}
	return sc, scPath, nil
}

// Get loads the tracked metadata for one entry. Returns nil without error
// when no sidecar exists.
func (s *MetadataServiceImpl) Get(ctx context.Context, entryPath, entryID string) (*sidecar.EntryMetadata, error) {
	sc, _, err := s.loadSidecar(ctx, entryPath)
	if err != nil {
		if errors.Is(err, secondary.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sc.Entries[entryID], nil
}

// List returns the full sidecar for an entry file, nil when absent.
func (s *MetadataServiceImpl) List(ctx context.Context, entryPath string) (*sidecar.Sidecar, error) {
	sc, _, err := s.loadSidecar(ctx, entryPath)
	if err != nil {
		if errors.Is(err, secondary.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sc, nil
}

// Initialize creates a sidecar for an entry file, seeding one record per
// entry with a check deadline derived from its severity.
func (s *MetadataServiceImpl) Initialize(ctx context.Context, req primary.InitializeRequest) (*sidecar.Sidecar, error) {
	lock := s.lockFor(sidecar.PathFor(req.EntryPath))
	lock.Lock()
	defer lock.Unlock()

	if _, _, err := s.loadSidecar(ctx, req.EntryPath); err == nil {
		return nil, fmt.Errorf("sidecar already exists for %s", req.EntryPath)
	} else if !errors.Is(err, secondary.ErrNotFound) {
		return nil, err
	}

	data, err := s.files.Read(ctx, req.EntryPath)
	if err != nil {
		return nil, err
	}
	report := entry.ParseFile(req.EntryPath, data)
	if !report.Valid() {
		return nil, fmt.Errorf("cannot initialize metadata for invalid file %s (%d errors)",
			req.EntryPath, len(report.Errors))
	}

	now := s.now().UTC()
	stamp := now.Format(time.RFC3339)
	sc := &sidecar.Sidecar{
		Version: "1.0",
		FileMetadata: sidecar.FileMetadata{
			FileID:     filepath.Base(req.EntryPath),
			CreatedAt:  stamp,
			EntryCount: len(report.Entries),
		},
		Entries: make(map[string]*sidecar.EntryMetadata, len(report.Entries)),
	}

	ids := make([]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		ids = append(ids, e.ID)
		sc.Entries[e.ID] = &sidecar.EntryMetadata{
			EntryID:             e.ID,
			CreatedAt:           stamp,
			LastModified:        stamp,
			ValidationStatus:    sidecar.StatusNeedsReview,
			NextVersionCheckDue: sidecar.NextCheckDue(e.Severity, now).Format(time.RFC3339),
			TestedVersions:      e.TestedVersions,
		}
	}
	sort.Strings(ids)
	sc.Record("metadata_initialized", req.Agent, "", ids, now)

	if err := s.writeSidecar(ctx, req.EntryPath, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

// Update applies a mutation to one entry's metadata under the path lock.
func (s *MetadataServiceImpl) Update(ctx context.Context, req primary.UpdateMetadataRequest) (*sidecar.EntryMetadata, error) {
	lock := s.lockFor(sidecar.PathFor(req.EntryPath))
	lock.Lock()
	defer lock.Unlock()

	sc, scPath, err := s.loadSidecar(ctx, req.EntryPath)
	if err != nil {
		if errors.Is(err, secondary.ErrNotFound) {
			return nil, fmt.Errorf("no sidecar for %s: run meta init first", req.EntryPath)
		}
		return nil, err
	}

	meta, ok := sc.Entries[req.EntryID]
	if !ok {
		return nil, fmt.Errorf("entry %s not tracked in %s", req.EntryID, scPath)
	}

	now := s.now().UTC()
	stamp := now.Format(time.RFC3339)
	action := "metadata_updated"

	if req.ValidationStatus != "" {
		meta.ValidationStatus = req.ValidationStatus
	}
	if req.QualityScore != nil {
		meta.QualityScore = req.QualityScore
	}
	if len(req.TestedVersions) > 0 {
		if meta.TestedVersions == nil {
			meta.TestedVersions = make(map[string]string)
		}
		for k, v := range req.TestedVersions {
			meta.TestedVersions[k] = v
		}
	}
	if req.MarkAnalyzed {
		meta.LastAnalyzedAt = stamp
		// Analysis resets the staleness clock.
		data, err := s.files.Read(ctx, req.EntryPath)
		if err == nil {
			report := entry.ParseFile(req.EntryPath, data)
			for _, e := range report.Entries {
				if e.ID == req.EntryID {
					meta.NextVersionCheckDue = sidecar.NextCheckDue(e.Severity, now).Format(time.RFC3339)
					break
				}
			}
		}
		action = "version_checked"
	}
	if req.Deprecate {
		meta.IsDeprecated = true
		meta.ValidationStatus = sidecar.StatusDeprecated
		meta.SupersededBy = req.SupersededBy
		action = "deprecated"
	}
	meta.LastModified = stamp

	sc.Record(action, req.Agent, req.Reason, []string{req.EntryID}, now)
	if err := s.writeSidecar(ctx, req.EntryPath, sc); err != nil {
		return nil, err
	}
	return meta, nil
}

func (s *MetadataServiceImpl) writeSidecar(ctx context.Context, entryPath string, sc *sidecar.Sidecar) error {
	data, err := sc.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal sidecar: %w", err)
	}
	return s.files.Write(ctx, sidecar.PathFor(entryPath), data)
}

// EntriesDue returns entries across both tiers whose next version check
// falls on or before the given time, most overdue first.
func (s *MetadataServiceImpl) EntriesDue(ctx context.Context, before time.Time) ([]*primary.DueEntry, error) {
	var due []*primary.DueEntry

	for _, store := range []secondary.Storage{s.project, s.shared} {
		if store == nil {
			continue
		}
		files, err := store.ListEntryFiles(ctx, "")
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			data, err := store.Read(ctx, sidecar.PathFor(file))
			if err != nil {
				if errors.Is(err, secondary.ErrNotFound) {
					continue
				}
				return nil, err
			}
			sc, err := sidecar.Parse(data)
			if err != nil {
				return nil, fmt.Errorf("failed to parse sidecar for %s: %w", file, err)
			}

			severities := s.severitiesFor(ctx, store, file)
			for id, meta := range sc.Entries {
				if meta.IsDeprecated || meta.NextVersionCheckDue == "" {
					continue
				}
				dueAt, err := time.Parse(time.RFC3339, meta.NextVersionCheckDue)
				if err != nil || dueAt.After(before) {
					continue
				}
				due = append(due, &primary.DueEntry{
					EntryID:  id,
					FilePath: file,
					Severity: severities[id],
					DueAt:    meta.NextVersionCheckDue,
					Status:   meta.ValidationStatus,
				})
			}
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].DueAt != due[j].DueAt {
			return due[i].DueAt < due[j].DueAt
		}
		return due[i].EntryID < due[j].EntryID
	})
	return due, nil
}

func (s *MetadataServiceImpl) severitiesFor(ctx context.Context, store secondary.Storage, file string) map[string]string {
	out := make(map[string]string)
	data, err := store.Read(ctx, file)
	if err != nil {
		return out
	}
	report := entry.ParseFile(file, data)
	for _, e := range report.Entries {
		out[e.ID] = e.Severity
	}
	return out
}
