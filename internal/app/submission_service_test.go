package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/skb/internal/ports/primary"
	"github.com/example/skb/internal/ports/secondary"
)

const highQualitySubmission = `version: "1.0"
category: docker
last_updated: "2026-08-20"
errors:
  - id: DOCKER-024
    title: Volume mount shadows image content
    severity: high
    scope: docker
    problem: Bind mount hides files baked into the image
    root_cause: The mount target overlaps the image path
    solution:
      code: "volumes:\n  - ./src:/app/src"
      explanation: Mount only the subdirectory you need
    prevention: Review mount targets against the image layout
    tags: [docker, volumes]
    domains:
      primary: docker
`

const lowQualitySubmission = `version: "1.0"
category: docker
last_updated: "2026-08-20"
errors:
  - id: DOCKER-025
    title: Bare minimum entry
    severity: low
    scope: docker
    problem: Something
    solution:
      explanation: Do the thing
`

const invalidSubmission = `version: "1.0"
category: docker
errors:
  - id: DOCKER-026
    severity: URGENT
`

type submissionFixture struct {
	svc     *SubmissionServiceImpl
	project *mockStorage
	shared  *mockStorage
	pending *mockStorage
	review  *mockReviewHost
}

func newSubmissionFixture() *submissionFixture {
	f := &submissionFixture{
		project: newMockStorage(nil),
		shared:  newMockStorage(nil),
		pending: newMockStorage(nil),
		review:  newMockReviewHost(),
	}
	f.svc = NewSubmissionService(f.project, f.shared, f.pending, f.review)
	f.svc.newID = func() string { return "sub-fixed-id" }
	return f
}

func TestSubmitLocal_RoutesByCategory(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	entryYAML := []byte(`id: ASYNC-010
title: New local knowledge
severity: medium
scope: python
problem: Something project-specific
solution:
  explanation: Handle it locally
`)
	resp, err := f.svc.SubmitLocal(ctx, primary.SubmitLocalRequest{
		Category: "async",
		Content:  entryYAML,
	})
	if err != nil {
		t.Fatalf("SubmitLocal failed: %v", err)
	}
	if resp.EntryID != "ASYNC-010" {
		t.Errorf("unexpected entry id: %s", resp.EntryID)
	}
	// Unknown categories land under knowledge/.
	if resp.FilePath != "knowledge/async-async-010.yaml" {
		t.Errorf("unexpected file path: %s", resp.FilePath)
	}

	// Known categories get their own directory.
	lesson := []byte(`id: LESSON-001
title: A lesson learned
severity: low
scope: universal
problem: Local wisdom
solution:
  explanation: Remember it
`)
	resp, err = f.svc.SubmitLocal(ctx, primary.SubmitLocalRequest{
		Category: "lessons", Content: lesson,
	})
	if err != nil {
		t.Fatalf("second SubmitLocal failed: %v", err)
	}
	if resp.FilePath != "lessons/lessons-lesson-001.yaml" {
		t.Errorf("unexpected file path: %s", resp.FilePath)
	}

	reports, err := scanTier(ctx, f.project, "", 1)
	if err != nil {
		t.Fatalf("rescan failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected two entry files, got %+v", reports)
	}

	// Resubmitting the same entry overwrites in place.
	if _, err := f.svc.SubmitLocal(ctx, primary.SubmitLocalRequest{
		Category: "async", Content: entryYAML,
	}); err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	reports, err = scanTier(ctx, f.project, "", 1)
	if err != nil {
		t.Fatalf("rescan failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("resubmit must not create a new file, got %d files", len(reports))
	}
}

func TestSubmitShared_FilesReviewItem(t *testing.T) {
	f := newSubmissionFixture()

	resp, err := f.svc.SubmitShared(context.Background(), primary.SubmitSharedRequest{
		Title:   "Docker volume gotcha",
		Content: []byte(highQualitySubmission),
	})
	if err != nil {
		t.Fatalf("SubmitShared failed: %v", err)
	}
	if resp.NeedsConfirm {
		t.Fatal("high quality submission must not need confirmation")
	}
	if resp.Quality != 100 {
		t.Errorf("expected quality 100, got %d", resp.Quality)
	}
	if resp.ReviewID != "KBSUB-001" {
		t.Errorf("expected review id KBSUB-001, got %s", resp.ReviewID)
	}

	item := f.review.items["KBSUB-001"]
	if item == nil {
		t.Fatal("review item not created")
	}
	if !containsLabel(item.Labels, SubmissionLabel) {
		t.Errorf("missing pipeline label: %v", item.Labels)
	}
	if !strings.Contains(item.Body, "DOCKER-024") {
		t.Errorf("body should list entry ids: %s", item.Body)
	}

	pending, err := f.svc.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].State != primary.SubmissionPending {
		t.Fatalf("expected one pending submission, got %+v", pending)
	}
}

func TestSubmitShared_QualityGate(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	resp, err := f.svc.SubmitShared(ctx, primary.SubmitSharedRequest{
		Content: []byte(lowQualitySubmission),
	})
	if err != nil {
		t.Fatalf("SubmitShared failed: %v", err)
	}
	if !resp.NeedsConfirm {
		t.Fatal("low quality submission must require confirmation")
	}
	if len(f.review.items) != 0 {
		t.Fatal("nothing may be filed without confirmation")
	}

	// Force pushes it through.
	resp, err = f.svc.SubmitShared(ctx, primary.SubmitSharedRequest{
		Content: []byte(lowQualitySubmission),
		Force:   true,
	})
	if err != nil {
		t.Fatalf("forced SubmitShared failed: %v", err)
	}
	if resp.NeedsConfirm || resp.ReviewID == "" {
		t.Fatalf("forced submission should file: %+v", resp)
	}
}

func TestSubmitShared_InvalidContent(t *testing.T) {
	f := newSubmissionFixture()
	_, err := f.svc.SubmitShared(context.Background(), primary.SubmitSharedRequest{
		Content: []byte(invalidSubmission),
	})
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if len(f.review.items) != 0 {
		t.Fatal("invalid submissions must not reach the review host")
	}
}

func TestApprove_MaterializesAndIsIdempotent(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	if _, err := f.svc.SubmitShared(ctx, primary.SubmitSharedRequest{
		Content: []byte(highQualitySubmission),
	}); err != nil {
		t.Fatalf("SubmitShared failed: %v", err)
	}

	resp, err := f.svc.Approve(ctx, primary.ApproveRequest{ReviewID: "KBSUB-001", Curator: "curator"})
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if resp.AlreadyApproved {
		t.Fatal("first approval must not be a replay")
	}
	// Materialized under <domain>/<category>-<entry id>.yaml.
	if resp.TargetPath != "docker/docker-docker-024.yaml" {
		t.Errorf("unexpected target path: %s", resp.TargetPath)
	}

	materialized, ok := f.shared.files[resp.TargetPath]
	if !ok {
		t.Fatal("approved content not materialized in the shared tier")
	}
	if !strings.Contains(string(materialized), "DOCKER-024") {
		t.Errorf("materialized file lost the entry: %s", materialized)
	}

	item := f.review.items["KBSUB-001"]
	if item.State != secondary.ReviewStateClosed || item.Verdict != secondary.VerdictApproved {
		t.Errorf("review item not closed approved: %+v", item)
	}

	// Replaying the approval is a no-op with the same target.
	again, err := f.svc.Approve(ctx, primary.ApproveRequest{ReviewID: "KBSUB-001", Curator: "curator"})
	if err != nil {
		t.Fatalf("re-approve failed: %v", err)
	}
	if !again.AlreadyApproved || again.TargetPath != resp.TargetPath {
		t.Errorf("replay should be a no-op: %+v", again)
	}

	pending, err := f.svc.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("approved submission still pending: %+v", pending)
	}
}

func TestRequestChanges_ReturnsToDraft(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	if _, err := f.svc.SubmitShared(ctx, primary.SubmitSharedRequest{
		Content: []byte(highQualitySubmission),
	}); err != nil {
		t.Fatalf("SubmitShared failed: %v", err)
	}

	if err := f.svc.RequestChanges(ctx, "KBSUB-001", "curator", "add prevention"); err != nil {
		t.Fatalf("RequestChanges failed: %v", err)
	}

	sub, err := f.svc.GetSubmission(ctx, "KBSUB-001")
	if err != nil {
		t.Fatalf("GetSubmission failed: %v", err)
	}
	if sub.State != primary.SubmissionDraft {
		t.Errorf("expected draft state, got %s", sub.State)
	}

	// The review item stays open with the feedback recorded.
	if f.review.items["KBSUB-001"].State != secondary.ReviewStateOpen {
		t.Error("review item must stay open")
	}
	if len(f.review.comments["KBSUB-001"]) != 1 {
		t.Errorf("expected one feedback comment, got %v", f.review.comments["KBSUB-001"])
	}

	// Repeating is a no-op, and a draft cannot be approved.
	if err := f.svc.RequestChanges(ctx, "KBSUB-001", "curator", ""); err != nil {
		t.Fatalf("repeat RequestChanges failed: %v", err)
	}
	pending, err := f.svc.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("draft submission must not be listed as pending: %+v", pending)
	}
}

func TestApprove_WriteFailureLeavesPending(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	if _, err := f.svc.SubmitShared(ctx, primary.SubmitSharedRequest{
		Content: []byte(highQualitySubmission),
	}); err != nil {
		t.Fatalf("SubmitShared failed: %v", err)
	}

	f.shared.writeErr = &secondary.TransportError{Op: "write", Path: "shared", Err: context.DeadlineExceeded}
	if _, err := f.svc.Approve(ctx, primary.ApproveRequest{ReviewID: "KBSUB-001"}); err == nil {
		t.Fatal("expected materialization failure to surface")
	}

	sub, err := f.svc.GetSubmission(ctx, "KBSUB-001")
	if err != nil {
		t.Fatalf("GetSubmission failed: %v", err)
	}
	if sub.State != primary.SubmissionPending {
		t.Errorf("failed materialization must leave the submission pending, got %s", sub.State)
	}
	if f.review.items["KBSUB-001"].State != secondary.ReviewStateOpen {
		t.Error("review item must stay open after a failed materialization")
	}
}

func TestReject_ClosesWithReason(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	if _, err := f.svc.SubmitShared(ctx, primary.SubmitSharedRequest{
		Content: []byte(highQualitySubmission),
	}); err != nil {
		t.Fatalf("SubmitShared failed: %v", err)
	}

	if err := f.svc.Reject(ctx, "KBSUB-001", "curator", "duplicate of DOCKER-020"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	item := f.review.items["KBSUB-001"]
	if item.Verdict != secondary.VerdictRejected {
		t.Errorf("expected rejected verdict, got %s", item.Verdict)
	}
	if len(f.shared.files) != 0 {
		t.Error("rejected submission must not touch the shared tier")
	}

	sub, err := f.svc.GetSubmission(ctx, "KBSUB-001")
	if err != nil {
		t.Fatalf("GetSubmission failed: %v", err)
	}
	if sub.State != primary.SubmissionRejected || sub.Reason != "duplicate of DOCKER-020" {
		t.Errorf("unexpected submission state: %+v", sub)
	}

	// Approving after rejection fails.
	if _, err := f.svc.Approve(ctx, primary.ApproveRequest{ReviewID: "KBSUB-001"}); err == nil {
		t.Fatal("expected approval of a rejected submission to fail")
	}
}

func TestSubmitShared_TransportFailureSurfaces(t *testing.T) {
	f := newSubmissionFixture()
	f.review.createErr = &secondary.TransportError{Op: "create", Path: "review", Err: context.DeadlineExceeded}

	_, err := f.svc.SubmitShared(context.Background(), primary.SubmitSharedRequest{
		Content: []byte(highQualitySubmission),
	})
	var te *secondary.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError to propagate, got %v", err)
	}
}
