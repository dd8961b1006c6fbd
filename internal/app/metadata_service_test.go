package app

import (
	"context"
	"testing"
	"time"

	"github.com/example/skb/internal/core/sidecar"
	"github.com/example/skb/internal/ports/primary"
)

const trackedFile = `version: "1.0"
category: async
last_updated: "2026-08-01"
errors:
  - id: ASYNC-001
    title: Timeout misconfigured
    severity: critical
    scope: python
    problem: Default timeout too aggressive
    solution:
      explanation: Tune it
  - id: ASYNC-002
    title: Leaked task
    severity: low
    scope: python
    problem: Background task outlives its owner
    solution:
      explanation: Track and cancel
`

func newMetadataFixture(t *testing.T) (*MetadataServiceImpl, *mockStorage) {
	t.Helper()
	files := newMockStorage(map[string]string{
		"kb/async.yaml": trackedFile,
	})
	svc := NewMetadataService(files, files, nil, 2)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	}
	return svc, files
}

func TestMetadata_Initialize(t *testing.T) {
	svc, files := newMetadataFixture(t)
	ctx := context.Background()

	sc, err := svc.Initialize(ctx, primary.InitializeRequest{
		EntryPath: "kb/async.yaml",
		Agent:     "agent-1",
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if sc.FileMetadata.Version != 1 {
		t.Errorf("expected version 1, got %d", sc.FileMetadata.Version)
	}
	if sc.FileMetadata.EntryCount != 2 {
		t.Errorf("expected 2 tracked entries, got %d", sc.FileMetadata.EntryCount)
	}

	// Critical severity checks in 30 days, low in 180.
	critical := sc.Entries["ASYNC-001"]
	if critical.NextVersionCheckDue != "2026-09-29T12:00:00Z" {
		t.Errorf("unexpected critical deadline: %s", critical.NextVersionCheckDue)
	}
	low := sc.Entries["ASYNC-002"]
	if low.NextVersionCheckDue != "2027-02-26T12:00:00Z" {
		t.Errorf("unexpected low deadline: %s", low.NextVersionCheckDue)
	}

	if _, ok := files.files["kb/async_meta.yaml"]; !ok {
		t.Fatal("sidecar was not written next to the entry file")
	}

	// Re-initializing is an error.
	if _, err := svc.Initialize(ctx, primary.InitializeRequest{EntryPath: "kb/async.yaml"}); err == nil {
		t.Fatal("expected error on double init")
	}
}

func TestMetadata_UpdateBumpsVersionAndHistory(t *testing.T) {
	svc, _ := newMetadataFixture(t)
	ctx := context.Background()

	if _, err := svc.Initialize(ctx, primary.InitializeRequest{
		EntryPath: "kb/async.yaml", Agent: "agent-1",
	}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	quality := 85
	meta, err := svc.Update(ctx, primary.UpdateMetadataRequest{
		EntryPath:        "kb/async.yaml",
		EntryID:          "ASYNC-001",
		Agent:            "agent-2",
		Reason:           "verified against v3.12",
		ValidationStatus: sidecar.StatusValidated,
		QualityScore:     &quality,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if meta.ValidationStatus != sidecar.StatusValidated {
		t.Errorf("status not applied: %s", meta.ValidationStatus)
	}
	if meta.QualityScore == nil || *meta.QualityScore != 85 {
		t.Errorf("quality not applied: %v", meta.QualityScore)
	}

	sc, err := svc.List(ctx, "kb/async.yaml")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if sc.FileMetadata.Version != 2 {
		t.Errorf("expected version 2 after init+update, got %d", sc.FileMetadata.Version)
	}
	if len(sc.ChangeHistory) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(sc.ChangeHistory))
	}
	last := sc.ChangeHistory[1]
	if last.Agent != "agent-2" || last.Reason != "verified against v3.12" {
		t.Errorf("history record wrong: %+v", last)
	}
}

func TestMetadata_UpdateWithoutSidecar(t *testing.T) {
	svc, _ := newMetadataFixture(t)
	_, err := svc.Update(context.Background(), primary.UpdateMetadataRequest{
		EntryPath: "kb/async.yaml",
		EntryID:   "ASYNC-001",
	})
	if err == nil {
		t.Fatal("expected error when no sidecar exists")
	}
}

func TestMetadata_GetAbsentIsNil(t *testing.T) {
	svc, _ := newMetadataFixture(t)
	meta, err := svc.Get(context.Background(), "kb/async.yaml", "ASYNC-001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if meta != nil {
		t.Errorf("expected nil for missing sidecar, got %+v", meta)
	}
}

func TestMetadata_MarkAnalyzedResetsClock(t *testing.T) {
	svc, _ := newMetadataFixture(t)
	ctx := context.Background()

	if _, err := svc.Initialize(ctx, primary.InitializeRequest{EntryPath: "kb/async.yaml"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	svc.now = func() time.Time {
		return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	}
	meta, err := svc.Update(ctx, primary.UpdateMetadataRequest{
		EntryPath:    "kb/async.yaml",
		EntryID:      "ASYNC-001",
		MarkAnalyzed: true,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if meta.NextVersionCheckDue != "2026-11-14T00:00:00Z" {
		t.Errorf("deadline not reset from analysis time: %s", meta.NextVersionCheckDue)
	}
	if meta.LastAnalyzedAt == "" {
		t.Error("expected last_analyzed_at to be set")
	}
}

func TestMetadata_EntriesDue(t *testing.T) {
	svc, _ := newMetadataFixture(t)
	ctx := context.Background()

	if _, err := svc.Initialize(ctx, primary.InitializeRequest{EntryPath: "kb/async.yaml"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	// Before any deadline: nothing due.
	due, err := svc.EntriesDue(ctx, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("EntriesDue failed: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected nothing due, got %v", due)
	}

	// After the critical deadline (30d) but before the low one (180d).
	due, err = svc.EntriesDue(ctx, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("EntriesDue failed: %v", err)
	}
	if len(due) != 1 || due[0].EntryID != "ASYNC-001" {
		t.Fatalf("expected only ASYNC-001 due, got %v", due)
	}
	if due[0].Severity != "critical" {
		t.Errorf("expected severity carried through, got %s", due[0].Severity)
	}
}
