// Package journal keeps a local, best-effort record of coordinator
// operations for the activity feed. It is observability only: claim state
// lives exclusively in the board's comment log, and a journal write failure
// never fails the operation that triggered it.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Kind categorizes journal entries.
type Kind string

const (
	// KindClaimWon records a claim attempt that posted a claim comment.
	KindClaimWon Kind = "claim_won"
	// KindClaimContended records a claim attempt refused because a fresh
	// claim by another session was observed. Expected, not an error.
	KindClaimContended Kind = "claim_contended"
	// KindClaimStolen records a claim that superseded a stale one.
	KindClaimStolen Kind = "claim_stolen"
	// KindRenewal records a successful claim renewal.
	KindRenewal Kind = "renewal"
	// KindRenewalRefused records a renewal refused for lack of ownership.
	KindRenewalRefused Kind = "renewal_refused"
	// KindRelease records a release comment being posted.
	KindRelease Kind = "release"
	// KindStatusChange records a status field mutation.
	KindStatusChange Kind = "status_change"
	// KindBlockerAdded records a blocked-by edit.
	KindBlockerAdded Kind = "blocker_added"
	// KindDiscoveredFrom records a provenance write.
	KindDiscoveredFrom Kind = "discovered_from"
)

// Entry is one journal record.
type Entry struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	Issue     int       `json:"issue"`
	Agent     string    `json:"agent,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows journal reads.
type Filter struct {
	Issue int  // 0 = all issues
	Kind  Kind // "" = all kinds
	Limit int  // 0 = default 20
}

// Journal is a SQLite-backed operation log.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record appends an entry. CreatedAt defaults to now when unset.
func (j *Journal) Record(ctx context.Context, e *Entry) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO operations (kind, issue, agent, session_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(e.Kind), e.Issue, e.Agent, e.SessionID, e.Detail, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record journal entry (kind=%s, issue=%d): %w", e.Kind, e.Issue, err)
	}
	return nil
}

// Recent returns entries matching the filter, most recent first.
func (j *Journal) Recent(ctx context.Context, f Filter) ([]*Entry, error) {
	query := `
		SELECT id, kind, issue, agent, session_id, detail, created_at
		FROM operations
		WHERE 1=1
	`
	args := []interface{}{}

	if f.Issue != 0 {
		query += " AND issue = ?"
		args = append(args, f.Issue)
	}
	if f.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(f.Kind))
	}

	query += " ORDER BY id DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var kind, createdAt string
		if err := rows.Scan(&e.ID, &kind, &e.Issue, &e.Agent, &e.SessionID, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.Kind = Kind(kind)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
