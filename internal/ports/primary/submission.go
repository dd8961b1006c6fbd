package primary

import (
	"context"

	"github.com/example/skb/internal/core/entry"
)

// Submission lifecycle states.
const (
	SubmissionDraft    = "draft"
	SubmissionPending  = "pending_review"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// SubmissionService defines the primary port for the promotion pipeline:
// capturing knowledge locally and promoting it to the shared tier through
// review.
type SubmissionService interface {
	// SubmitLocal writes an entry into the project tier, no review.
	SubmitLocal(ctx context.Context, req SubmitLocalRequest) (*SubmitLocalResponse, error)

	// SubmitShared validates, quality-gates, and files a shared-tier
	// submission with the review host.
	SubmitShared(ctx context.Context, req SubmitSharedRequest) (*SubmitSharedResponse, error)

	// ListPending returns submissions awaiting review.
	ListPending(ctx context.Context) ([]*Submission, error)

	// GetSubmission retrieves one submission by review ID.
	GetSubmission(ctx context.Context, reviewID string) (*Submission, error)

	// ValidateSubmission re-validates a pending submission's content.
	ValidateSubmission(ctx context.Context, reviewID string) (*entry.FileReport, error)

	// Approve materializes an approved submission into the shared tier
	// and closes the review item. Approving an already-approved
	// submission is a no-op returning the existing target path.
	Approve(ctx context.Context, req ApproveRequest) (*ApproveResponse, error)

	// RequestChanges sends a pending submission back to draft with
	// feedback. The review item stays open; a revised submission is filed
	// as a new record.
	RequestChanges(ctx context.Context, reviewID, curator, reason string) error

	// Reject closes a submission with a reason.
	Reject(ctx context.Context, reviewID, curator, reason string) error
}

// SubmitLocalRequest contains parameters for a project-tier submission.
type SubmitLocalRequest struct {
	Category string
	Content  []byte // one entry as YAML
	Agent    string
}

// SubmitLocalResponse contains the result of a project-tier submission.
type SubmitLocalResponse struct {
	EntryID  string
	FilePath string
	Quality  int
}

// SubmitSharedRequest contains parameters for a shared-tier submission.
type SubmitSharedRequest struct {
	Title         string
	Description   string
	Domain        string
	Content       []byte // full entry file as YAML
	ProjectSource string
	Agent         string
	// Force submits below the quality threshold without confirmation.
	Force bool
}

// SubmitSharedResponse contains the result of filing a submission.
type SubmitSharedResponse struct {
	SubmissionID string
	ReviewID     string
	Quality      int
	QualityTier  string
	// NeedsConfirm is set when quality is below threshold and Force was
	// not given; nothing was filed.
	NeedsConfirm bool
	Warnings     []string
}

// Submission is a shared-tier submission at the port boundary.
type Submission struct {
	ID            string
	ReviewID      string
	Title         string
	Description   string
	Domain        string
	Type          string
	Category      string
	Verified      bool
	EntryIDs      []string
	ProjectSource string
	Agent         string
	State         string
	Quality       int
	CreatedAt     string
	TargetPath    string
	Reason        string
}

// ApproveRequest contains parameters for approving a submission.
type ApproveRequest struct {
	ReviewID string
	Curator  string
}

// ApproveResponse contains the result of an approval.
type ApproveResponse struct {
	ReviewID   string
	TargetPath string
	EntryIDs   []string
	// AlreadyApproved is set when the approval was a no-op replay.
	AlreadyApproved bool
}
