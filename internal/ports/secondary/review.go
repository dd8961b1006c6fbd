package secondary

import "context"

// Review item states and verdicts. An item is open until a curator closes
// it with a terminal verdict.
const (
	ReviewStateOpen   = "open"
	ReviewStateClosed = "closed"

	VerdictApproved = "approved"
	VerdictRejected = "rejected"
)

// ReviewItem is a durable submission awaiting curation. The host assigns
// the stable ID; Body carries the submission metadata block and the
// proposed YAML content.
type ReviewItem struct {
	ID        string
	Title     string
	Body      string
	Labels    []string
	State     string
	Verdict   string
	CreatedAt string
	ClosedAt  string
}

// ReviewHost is the contract with the external review system. The
// pipeline needs only a durable item with a stable identifier and a
// terminal approve/reject verdict; the host's identity (issue tracker,
// chat, sqlite queue) is out of scope.
type ReviewHost interface {
	// CreateItem opens a new review item and returns its stable ID.
	CreateItem(ctx context.Context, title, body string, labels []string) (string, error)

	// GetItem retrieves an item by ID. Returns ErrNotFound if absent.
	GetItem(ctx context.Context, id string) (*ReviewItem, error)

	// ListOpen returns open items carrying the given label.
	ListOpen(ctx context.Context, label string) ([]*ReviewItem, error)

	// Comment appends a comment to an item.
	Comment(ctx context.Context, id, body string) error

	// Close transitions an item to the closed state with a terminal
	// verdict. Closing an already-closed item with the same verdict is
	// a no-op.
	Close(ctx context.Context, id, verdict string) error
}
