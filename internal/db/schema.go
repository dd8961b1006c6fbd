package db

// SchemaSQL is the complete schema for the local review queue.
//
// This is the single source of truth for the database schema. Tests build
// their fixtures via GetSchemaSQL(); if repository code references a
// column that does not exist here, tests fail immediately with
// "no such column".
const SchemaSQL = `
-- Review items (shared-tier submissions awaiting curation)
CREATE TABLE IF NOT EXISTS review_items (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	state TEXT NOT NULL CHECK(state IN ('open', 'closed')) DEFAULT 'open',
	verdict TEXT CHECK(verdict IN ('approved', 'rejected')),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	closed_at DATETIME
);

CREATE TABLE IF NOT EXISTS review_labels (
	item_id TEXT NOT NULL,
	label TEXT NOT NULL,
	PRIMARY KEY (item_id, label),
	FOREIGN KEY (item_id) REFERENCES review_items(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS review_comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (item_id) REFERENCES review_items(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_review_items_state ON review_items(state);
CREATE INDEX IF NOT EXISTS idx_review_labels_label ON review_labels(label);
`

// GetSchemaSQL returns the schema DDL.
func GetSchemaSQL() string {
	return SchemaSQL
}
