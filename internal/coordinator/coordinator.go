// Package coordinator implements the work-claim protocol: selecting,
// claiming, renewing, and releasing issues on a shared project board using
// the board's comment stream as the only persistent claim state.
//
// The board offers no transactions or locks, so at-most-one-active-claimant
// is a best-effort property derived from the comment log, not a guarantee.
// Claim attempts use read-then-write with a race window bounded by the
// board's round-trip latency; callers that lose a race after writing must
// treat their work as potentially wasted. No client-side locking is added
// here because no lock can coordinate independent agent processes on
// different machines.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/steveyegge/boardman/internal/board"
	"github.com/steveyegge/boardman/internal/claims"
	"github.com/steveyegge/boardman/internal/journal"
	"github.com/steveyegge/boardman/internal/types"
)

const (
	// defaultCommentWindow is how many recent comments reconstruction reads.
	defaultCommentWindow = 50

	// defaultClaimTTL is the global claim timeout when config doesn't set one.
	defaultClaimTTL = 24 * time.Hour
)

// Config holds coordinator configuration.
type Config struct {
	Store               board.Store
	StatusField         string            // board field for workflow status (default "Status")
	BlockedByField      string            // board text field for the blocked-by list (default "Blocked By")
	DiscoveredFromField string            // board text field for provenance (default "Discovered From")
	CommentWindow       int               // comments read per reconstruction (default 50)
	ExcludeLabels       []string          // labels that remove an issue from ready work
	AgentAliases        map[string]string // extends built-in agent name normalization
	Journal             *journal.Journal  // optional local operation journal
	Now                 func() time.Time  // clock override for tests
}

// Coordinator runs the claim protocol against a board.Store.
type Coordinator struct {
	store               board.Store
	statusField         string
	blockedByField      string
	discoveredFromField string
	window              int
	exclude             map[string]bool
	aliases             map[string]string
	journal             *journal.Journal
	now                 func() time.Time
}

// New creates a coordinator.
func New(cfg *Config) (*Coordinator, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	c := &Coordinator{
		store:               cfg.Store,
		statusField:         cfg.StatusField,
		blockedByField:      cfg.BlockedByField,
		discoveredFromField: cfg.DiscoveredFromField,
		window:              cfg.CommentWindow,
		exclude:             make(map[string]bool, len(cfg.ExcludeLabels)),
		aliases:             cfg.AgentAliases,
		journal:             cfg.Journal,
		now:                 cfg.Now,
	}
	if c.statusField == "" {
		c.statusField = "Status"
	}
	if c.blockedByField == "" {
		c.blockedByField = "Blocked By"
	}
	if c.discoveredFromField == "" {
		c.discoveredFromField = "Discovered From"
	}
	if c.window <= 0 {
		c.window = defaultCommentWindow
	}
	if c.now == nil {
		c.now = time.Now
	}
	for _, l := range cfg.ExcludeLabels {
		c.exclude[l] = true
	}
	return c, nil
}

// ActiveClaim reconstructs the current claim on an issue from its comment
// log. Returns nil when no claim is active.
func (c *Coordinator) ActiveClaim(ctx context.Context, issue *types.Issue) (*types.AgentClaim, error) {
	comments, err := c.store.GetComments(ctx, issue, c.window)
	if err != nil {
		return nil, fmt.Errorf("failed to read claim log for #%d: %w", issue.Number, err)
	}
	return claims.ActiveClaim(issue.Number, comments), nil
}

// Issue finds the board item for an issue number.
func (c *Coordinator) Issue(ctx context.Context, number int) (*types.Issue, error) {
	items, err := c.store.GetItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board items: %w", err)
	}
	for _, issue := range items {
		if issue.Number == number {
			return issue, nil
		}
	}
	return nil, fmt.Errorf("%w: #%d", board.ErrIssueNotFound, number)
}

// normalizeAgent applies configured aliases, then the built-in table.
func (c *Coordinator) normalizeAgent(name string) string {
	if canonical, ok := c.aliases[name]; ok {
		return canonical
	}
	return types.NormalizeAgent(name)
}

// record journals an operation. Journaling is observability only: failures
// are logged and swallowed so they can never fail the claim path.
func (c *Coordinator) record(ctx context.Context, kind journal.Kind, issue int, agent, session, detail string) {
	if c.journal == nil {
		return
	}
	err := c.journal.Record(ctx, &journal.Entry{
		Kind:      kind,
		Issue:     issue,
		Agent:     agent,
		SessionID: session,
		Detail:    detail,
	})
	if err != nil {
		slog.Warn("failed to journal operation", "kind", kind, "issue", issue, "error", err)
	}
}
