package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/example/skb/internal/core/domain"
	"github.com/example/skb/internal/core/entry"
	"github.com/example/skb/internal/ports/primary"
	"github.com/example/skb/internal/ports/secondary"
)

// SubmissionLabel marks review items created by this pipeline.
const SubmissionLabel = "kb-submission"

// SubmissionServiceImpl implements the SubmissionService interface.
type SubmissionServiceImpl struct {
	project secondary.Storage
	shared  secondary.Storage
	pending secondary.Storage
	review  secondary.ReviewHost
	now     func() time.Time
	newID   func() string
}

var _ primary.SubmissionService = (*SubmissionServiceImpl)(nil)

// NewSubmissionService creates a new SubmissionService with injected
// dependencies. pending stages draft submissions; review is the external
// curation host.
func NewSubmissionService(project, shared, pending secondary.Storage, review secondary.ReviewHost) *SubmissionServiceImpl {
	return &SubmissionServiceImpl{
		project: project,
		shared:  shared,
		pending: pending,
		review:  review,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// submissionRecord is the staged submission persisted under the pending
// directory. Content travels with the record so approval never depends on
// the submitting project still existing.
type submissionRecord struct {
	ID            string   `yaml:"id"`
	ReviewID      string   `yaml:"review_id,omitempty"`
	Title         string   `yaml:"title"`
	Description   string   `yaml:"description,omitempty"`
	Domain        string   `yaml:"domain"`
	Type          string   `yaml:"type"`
	Category      string   `yaml:"category"`
	Verified      bool     `yaml:"verified"`
	EntryIDs      []string `yaml:"entry_ids"`
	ProjectSource string   `yaml:"project_source,omitempty"`
	Agent         string   `yaml:"agent,omitempty"`
	State         string   `yaml:"state"`
	Quality       int      `yaml:"quality"`
	CreatedAt     string   `yaml:"created_at"`
	TargetPath    string   `yaml:"target_path,omitempty"`
	Reason        string   `yaml:"reason,omitempty"`
	Content       string   `yaml:"content"`
}

func (r *submissionRecord) path() string {
	return r.ID + ".yaml"
}

func (r *submissionRecord) toPort() *primary.Submission {
	return &primary.Submission{
		ID:            r.ID,
		ReviewID:      r.ReviewID,
		Title:         r.Title,
		Description:   r.Description,
		Domain:        r.Domain,
		Type:          r.Type,
		Category:      r.Category,
		Verified:      r.Verified,
		EntryIDs:      r.EntryIDs,
		ProjectSource: r.ProjectSource,
		Agent:         r.Agent,
		State:         r.State,
		Quality:       r.Quality,
		CreatedAt:     r.CreatedAt,
		TargetPath:    r.TargetPath,
		Reason:        r.Reason,
	}
}

// localCategoryDirs are the project-tier subdirectories with dedicated
// routing; everything else lands under knowledge/.
var localCategoryDirs = map[string]bool{
	"integrations": true,
	"endpoints":    true,
	"decisions":    true,
	"lessons":      true,
}

// SubmitLocal writes one entry into the project tier, no review. One
// envelope per file, named <category>-<id>.yaml; resubmitting the same
// entry overwrites the same file.
func (s *SubmissionServiceImpl) SubmitLocal(ctx context.Context, req primary.SubmitLocalRequest) (*primary.SubmitLocalResponse, error) {
	if req.Category == "" {
		return nil, fmt.Errorf("category is required")
	}

	var e entry.Entry
	if err := yaml.Unmarshal(req.Content, &e); err != nil {
		return nil, fmt.Errorf("failed to parse entry: %w", err)
	}
	kind := entry.KindError
	if e.Problem == "" && e.Pattern != "" {
		kind = entry.KindPattern
	}

	dir := "knowledge"
	if localCategoryDirs[req.Category] {
		dir = req.Category
	}
	filePath := fmt.Sprintf("%s/%s-%s.yaml", dir, req.Category, strings.ToLower(e.ID))

	env := &entry.Envelope{
		Version:     "1.0",
		Category:    req.Category,
		LastUpdated: s.now().UTC().Format("2006-01-02"),
	}
	if kind == entry.KindPattern {
		env.Patterns = append(env.Patterns, e)
	} else {
		env.Errors = append(env.Errors, e)
	}

	out, err := env.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", filePath, err)
	}

	// Validate the result before persisting; a bad entry never lands.
	report := entry.ParseFile(filePath, out)
	if !report.Valid() {
		return nil, fmt.Errorf("entry failed validation: %s", joinDiagnostics(report.Errors))
	}

	if err := s.project.Write(ctx, filePath, out); err != nil {
		return nil, err
	}

	e.Kind = kind
	return &primary.SubmitLocalResponse{
		EntryID:  e.ID,
		FilePath: filePath,
		Quality:  entry.Quality(&e),
	}, nil
}

// SubmitShared validates, quality-gates, and files a shared-tier
// submission with the review host.
func (s *SubmissionServiceImpl) SubmitShared(ctx context.Context, req primary.SubmitSharedRequest) (*primary.SubmitSharedResponse, error) {
	report := entry.ParseFile("submission", req.Content)
	if !report.Valid() {
		return nil, fmt.Errorf("submission failed validation: %s", joinDiagnostics(report.Errors))
	}
	if len(report.Entries) == 0 {
		return nil, fmt.Errorf("submission contains no entries")
	}

	quality := averageQuality(report.Entries)
	resp := &primary.SubmitSharedResponse{
		Quality:     quality,
		QualityTier: entry.QualityTier(quality),
	}
	for _, w := range report.Warnings {
		resp.Warnings = append(resp.Warnings, w.String())
	}

	if quality < entry.QualityThreshold && !req.Force {
		resp.NeedsConfirm = true
		return resp, nil
	}

	domainName := req.Domain
	if domainName == "" {
		domainName = inferSubmissionDomain(report.Entries)
	}
	if !domain.Valid(domainName) && domain.ScopeDomain(domainName) != domainName {
		return nil, fmt.Errorf("unknown domain %q (known: %v)", domainName, domain.Names())
	}

	ids := make([]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)

	kind := "error"
	if len(report.Envelope.Patterns) > 0 {
		kind = "pattern"
	}

	rec := &submissionRecord{
		ID:            s.newID(),
		Title:         req.Title,
		Description:   req.Description,
		Domain:        domainName,
		Type:          kind,
		Category:      report.Envelope.Category,
		Verified:      quality >= entry.QualityThreshold,
		EntryIDs:      ids,
		ProjectSource: req.ProjectSource,
		Agent:         req.Agent,
		State:         primary.SubmissionDraft,
		Quality:       quality,
		CreatedAt:     s.now().UTC().Format(time.RFC3339),
		Content:       string(req.Content),
	}
	if err := s.saveRecord(ctx, rec); err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("KB submission: %s (%s)", strings.Join(ids, ", "), domainName)
	}
	body := submissionBody(rec)
	reviewID, err := s.review.CreateItem(ctx, title, body, []string{SubmissionLabel, "domain:" + domainName})
	if err != nil {
		return nil, err
	}

	rec.ReviewID = reviewID
	rec.State = primary.SubmissionPending
	if err := s.saveRecord(ctx, rec); err != nil {
		return nil, err
	}

	resp.SubmissionID = rec.ID
	resp.ReviewID = reviewID
	return resp, nil
}

// ListPending returns submissions awaiting review, oldest first.
func (s *SubmissionServiceImpl) ListPending(ctx context.Context) ([]*primary.Submission, error) {
	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}

	var out []*primary.Submission
	for _, rec := range records {
		if rec.State == primary.SubmissionPending {
			out = append(out, rec.toPort())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetSubmission retrieves one submission by review ID.
func (s *SubmissionServiceImpl) GetSubmission(ctx context.Context, reviewID string) (*primary.Submission, error) {
	rec, err := s.recordByReviewID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	return rec.toPort(), nil
}

// ValidateSubmission re-validates a pending submission's content.
func (s *SubmissionServiceImpl) ValidateSubmission(ctx context.Context, reviewID string) (*entry.FileReport, error) {
	rec, err := s.recordByReviewID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	return entry.ParseFile(reviewID, []byte(rec.Content)), nil
}

// Approve materializes a submission into the shared tier and closes the
// review item. Replaying an approval is a no-op.
func (s *SubmissionServiceImpl) Approve(ctx context.Context, req primary.ApproveRequest) (*primary.ApproveResponse, error) {
	rec, err := s.recordByReviewID(ctx, req.ReviewID)
	if err != nil {
		return nil, err
	}

	if rec.State == primary.SubmissionApproved {
		return &primary.ApproveResponse{
			ReviewID:        req.ReviewID,
			TargetPath:      rec.TargetPath,
			EntryIDs:        rec.EntryIDs,
			AlreadyApproved: true,
		}, nil
	}
	if rec.State == primary.SubmissionRejected {
		return nil, fmt.Errorf("submission %s was rejected", req.ReviewID)
	}
	if rec.State != primary.SubmissionPending {
		return nil, fmt.Errorf("submission %s is %s, not pending review", req.ReviewID, rec.State)
	}

	report := entry.ParseFile(req.ReviewID, []byte(rec.Content))
	if !report.Valid() {
		return nil, fmt.Errorf("submission no longer validates: %s", joinDiagnostics(report.Errors))
	}
	if len(rec.EntryIDs) == 0 {
		return nil, fmt.Errorf("submission %s names no entries", req.ReviewID)
	}

	// Materialized files are named after the leading entry so the shared
	// tier reads as knowledge, not as review bookkeeping.
	target := fmt.Sprintf("%s/%s-%s.yaml", rec.Domain, rec.Category, strings.ToLower(rec.EntryIDs[0]))
	if err := s.shared.Write(ctx, target, []byte(rec.Content)); err != nil {
		return nil, err
	}

	rec.State = primary.SubmissionApproved
	rec.TargetPath = target
	if err := s.saveRecord(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.review.Comment(ctx, req.ReviewID,
		fmt.Sprintf("Approved by %s, materialized at %s", req.Curator, target)); err != nil {
		return nil, err
	}
	if err := s.review.Close(ctx, req.ReviewID, secondary.VerdictApproved); err != nil {
		return nil, err
	}

	return &primary.ApproveResponse{
		ReviewID:   req.ReviewID,
		TargetPath: target,
		EntryIDs:   rec.EntryIDs,
	}, nil
}

// RequestChanges sends a pending submission back to draft with feedback.
// The review item stays open so the thread survives revision.
func (s *SubmissionServiceImpl) RequestChanges(ctx context.Context, reviewID, curator, reason string) error {
	rec, err := s.recordByReviewID(ctx, reviewID)
	if err != nil {
		return err
	}
	if rec.State == primary.SubmissionApproved || rec.State == primary.SubmissionRejected {
		return fmt.Errorf("submission %s is already %s", reviewID, rec.State)
	}
	if rec.State == primary.SubmissionDraft {
		return nil
	}

	rec.State = primary.SubmissionDraft
	rec.Reason = reason
	if err := s.saveRecord(ctx, rec); err != nil {
		return err
	}

	msg := fmt.Sprintf("Changes requested by %s", curator)
	if reason != "" {
		msg += ": " + reason
	}
	return s.review.Comment(ctx, reviewID, msg)
}

// Reject closes a submission with a reason.
func (s *SubmissionServiceImpl) Reject(ctx context.Context, reviewID, curator, reason string) error {
	rec, err := s.recordByReviewID(ctx, reviewID)
	if err != nil {
		return err
	}
	if rec.State == primary.SubmissionRejected {
		return nil
	}
	if rec.State == primary.SubmissionApproved {
		return fmt.Errorf("submission %s was already approved", reviewID)
	}

	rec.State = primary.SubmissionRejected
	rec.Reason = reason
	if err := s.saveRecord(ctx, rec); err != nil {
		return err
	}

	msg := fmt.Sprintf("Rejected by %s", curator)
	if reason != "" {
		msg += ": " + reason
	}
	if err := s.review.Comment(ctx, reviewID, msg); err != nil {
		return err
	}
	return s.review.Close(ctx, reviewID, secondary.VerdictRejected)
}

func (s *SubmissionServiceImpl) saveRecord(ctx context.Context, rec *submissionRecord) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}
	return s.pending.Write(ctx, rec.path(), data)
}

func (s *SubmissionServiceImpl) loadRecords(ctx context.Context) ([]*submissionRecord, error) {
	files, err := s.pending.ListEntryFiles(ctx, "")
	if err != nil {
		return nil, err
	}

	var records []*submissionRecord
	for _, file := range files {
		data, err := s.pending.Read(ctx, file)
		if err != nil {
			return nil, err
		}
		var rec submissionRecord
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse submission %s: %w", file, err)
		}
		records = append(records, &rec)
	}
	return records, nil
}

func (s *SubmissionServiceImpl) recordByReviewID(ctx context.Context, reviewID string) (*submissionRecord, error) {
	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.ReviewID == reviewID {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("submission %s: %w", reviewID, secondary.ErrNotFound)
}

// submissionBody renders the review item body: a metadata block followed
// by the proposed content.
func submissionBody(rec *submissionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "submission: %s\n", rec.ID)
	fmt.Fprintf(&b, "domain: %s\n", rec.Domain)
	fmt.Fprintf(&b, "type: %s\n", rec.Type)
	fmt.Fprintf(&b, "category: %s\n", rec.Category)
	fmt.Fprintf(&b, "entries: %s\n", strings.Join(rec.EntryIDs, ", "))
	fmt.Fprintf(&b, "quality: %d\n", rec.Quality)
	fmt.Fprintf(&b, "verified: %t\n", rec.Verified)
	fmt.Fprintf(&b, "submitted_at: %s\n", rec.CreatedAt)
	if rec.Agent != "" {
		fmt.Fprintf(&b, "agent: %s\n", rec.Agent)
	}
	if rec.ProjectSource != "" {
		fmt.Fprintf(&b, "source: %s\n", rec.ProjectSource)
	}
	if rec.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", rec.Description)
	}
	fmt.Fprintf(&b, "\n---\n%s", rec.Content)
	return b.String()
}

// inferSubmissionDomain picks a domain for a submission that names none:
// the first explicit assignment, else scope mapping, else universal.
func inferSubmissionDomain(entries []entry.Entry) string {
	for _, e := range entries {
		if e.Domains != nil && e.Domains.Primary != "" {
			return e.Domains.Primary
		}
	}
	for _, e := range entries {
		if e.Scope != "" {
			return domain.ScopeDomain(e.Scope)
		}
	}
	return "universal"
}

func averageQuality(entries []entry.Entry) int {
	if len(entries) == 0 {
		return 0
	}
	total := 0
	for i := range entries {
		total += entry.Quality(&entries[i])
	}
	return total / len(entries)
}

func joinDiagnostics(diags []entry.Diagnostic) string {
	parts := make([]string, 0, len(diags))
	for _, d := range diags {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "; ")
}
