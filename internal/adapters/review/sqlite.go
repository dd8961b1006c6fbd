// Package review contains the SQLite implementation of the review host
// port: a local durable queue standing in for an external tracker.
package review

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/skb/internal/ports/secondary"
)

// SQLiteHost implements secondary.ReviewHost with SQLite.
type SQLiteHost struct {
	db *sql.DB
}

var _ secondary.ReviewHost = (*SQLiteHost)(nil)

// NewSQLiteHost creates a new SQLite review host.
func NewSQLiteHost(db *sql.DB) *SQLiteHost {
	return &SQLiteHost{db: db}
}

// nextID generates the next sequential review ID (KBSUB-001, KBSUB-002...).
func (h *SQLiteHost) nextID(ctx context.Context) (string, error) {
	var maxID sql.NullString
	err := h.db.QueryRowContext(ctx,
		"SELECT MAX(id) FROM review_items WHERE id LIKE 'KBSUB-%'",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get max review id: %w", err)
	}

	next := 1
	if maxID.Valid {
		var n int
		if _, err := fmt.Sscanf(maxID.String, "KBSUB-%d", &n); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("KBSUB-%03d", next), nil
}

// CreateItem opens a new review item and returns its ID.
func (h *SQLiteHost) CreateItem(ctx context.Context, title, body string, labels []string) (string, error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := h.nextID(ctx)
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO review_items (id, title, body, state) VALUES (?, ?, ?, 'open')",
		id, title, body,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create review item: %w", err)
	}

	for _, label := range labels {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO review_labels (item_id, label) VALUES (?, ?)",
			id, label,
		)
		if err != nil {
			return "", fmt.Errorf("failed to attach label: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit review item: %w", err)
	}
	return id, nil
}

// GetItem retrieves an item by ID.
func (h *SQLiteHost) GetItem(ctx context.Context, id string) (*secondary.ReviewItem, error) {
	var (
		verdict   sql.NullString
		createdAt time.Time
		closedAt  sql.NullTime
	)

	item := &secondary.ReviewItem{}
	err := h.db.QueryRowContext(ctx,
		"SELECT id, title, body, state, verdict, created_at, closed_at FROM review_items WHERE id = ?",
		id,
	).Scan(&item.ID, &item.Title, &item.Body, &item.State, &verdict, &createdAt, &closedAt)

	if err == sql.ErrNoRows {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review item: %w", err)
	}

	item.Verdict = verdict.String
	item.CreatedAt = createdAt.Format(time.RFC3339)
	if closedAt.Valid {
		item.ClosedAt = closedAt.Time.Format(time.RFC3339)
	}

	labels, err := h.labelsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Labels = labels

	return item, nil
}

func (h *SQLiteHost) labelsFor(ctx context.Context, id string) ([]string, error) {
	rows, err := h.db.QueryContext(ctx,
		"SELECT label FROM review_labels WHERE item_id = ? ORDER BY label",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// ListOpen returns open items carrying the given label, oldest first.
func (h *SQLiteHost) ListOpen(ctx context.Context, label string) ([]*secondary.ReviewItem, error) {
	query := "SELECT id FROM review_items WHERE state = 'open'"
	args := []any{}

	if label != "" {
		query = `SELECT i.id FROM review_items i
			JOIN review_labels l ON l.item_id = i.id
			WHERE i.state = 'open' AND l.label = ?`
		args = append(args, label)
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list review items: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan review id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items := make([]*secondary.ReviewItem, 0, len(ids))
	for _, id := range ids {
		item, err := h.GetItem(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Comment appends a comment to an item.
func (h *SQLiteHost) Comment(ctx context.Context, id, body string) error {
	res, err := h.db.ExecContext(ctx,
		"INSERT INTO review_comments (item_id, body) SELECT id, ? FROM review_items WHERE id = ?",
		body, id,
	)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	if n == 0 {
		return secondary.ErrNotFound
	}
	return nil
}

// Close transitions an item to closed with a terminal verdict. Closing an
// already-closed item with the same verdict is a no-op; a different
// verdict is a conflict.
func (h *SQLiteHost) Close(ctx context.Context, id, verdict string) error {
	item, err := h.GetItem(ctx, id)
	if err != nil {
		return err
	}

	if item.State == secondary.ReviewStateClosed {
		if item.Verdict == verdict {
			return nil
		}
		return fmt.Errorf("review item %s already closed as %s", id, item.Verdict)
	}

	_, err = h.db.ExecContext(ctx,
		"UPDATE review_items SET state = 'closed', verdict = ?, closed_at = CURRENT_TIMESTAMP WHERE id = ?",
		verdict, id,
	)
	if err != nil {
		return fmt.Errorf("failed to close review item: %w", err)
	}
	return nil
}
