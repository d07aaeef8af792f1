package journal

// schema is applied on every open; CREATE IF NOT EXISTS keeps it idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS operations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT NOT NULL,
	issue      INTEGER NOT NULL,
	agent      TEXT NOT NULL DEFAULT '',
	session_id TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_operations_issue ON operations(issue);
CREATE INDEX IF NOT EXISTS idx_operations_kind ON operations(kind);
`
