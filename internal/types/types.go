package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Issue represents a work item tracked on the project board.
//
// The board owns the issue lifecycle (creation, open/closed state); this
// coordinator only mutates Status, BlockedBy, DiscoveredFrom, and appends
// comments. ItemID and ContentID are opaque board identifiers needed for
// mutation calls and are never interpreted.
type Issue struct {
	Number         int       `json:"number"`
	Title          string    `json:"title"`
	Body           string    `json:"body,omitempty"`
	State          State     `json:"state"`
	Status         Status    `json:"status"`
	Priority       Priority  `json:"priority"`
	Type           string    `json:"type,omitempty"`
	Agent          string    `json:"agent,omitempty"` // assigned agent display name; assignment is not a claim
	BlockedBy      []int     `json:"blocked_by,omitempty"`
	DiscoveredFrom *int      `json:"discovered_from,omitempty"`
	Labels         []string  `json:"labels,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	URL            string    `json:"url,omitempty"`
	RepoOwner      string    `json:"repo_owner,omitempty"`
	RepoName       string    `json:"repo_name,omitempty"`
	ItemID         string    `json:"item_id"`    // project item node id (field mutations)
	ContentID      string    `json:"content_id"` // issue node id (comment mutations)
}

// HasLabel reports whether the issue carries the given label (exact match).
func (i *Issue) HasLabel(label string) bool {
	for _, l := range i.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// IsBlockedBy reports whether blocker is already in the issue's blocked-by set.
func (i *Issue) IsBlockedBy(blocker int) bool {
	for _, b := range i.BlockedBy {
		if b == blocker {
			return true
		}
	}
	return false
}

// BlockedByText renders the blocked-by set as the comma-separated list
// stored in the board's text field, sorted ascending for stable writes.
func (i *Issue) BlockedByText() string {
	if len(i.BlockedBy) == 0 {
		return ""
	}
	nums := make([]int, len(i.BlockedBy))
	copy(nums, i.BlockedBy)
	sort.Ints(nums)
	parts := make([]string, len(nums))
	for j, n := range nums {
		parts[j] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// ParseBlockedBy parses the board's comma-separated blocked-by text field.
// Blank entries are skipped; a malformed entry is an error because it means
// someone hand-edited the field into a shape we would silently drop.
func ParseBlockedBy(text string) ([]int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.TrimPrefix(part, "#")
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid blocked-by entry %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// State is the board-owned open/closed state of an issue.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// Status is the domain-owned workflow status, mirrored into the board's
// "Status" single-select field.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
)

// IsValid checks if the status value is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusBlocked:
		return true
	}
	return false
}

// DisplayName returns the board's single-select option name for the status.
// This is the single enum-to-board adapter: schema drift surfaces here and
// in the board client's option lookup, nowhere else.
func (s Status) DisplayName() string {
	switch s {
	case StatusTodo:
		return "Todo"
	case StatusInProgress:
		return "In Progress"
	case StatusBlocked:
		return "Blocked"
	}
	return string(s)
}

// ParseStatus maps a board option display name back to a Status.
// Unknown names map to StatusTodo so externally-added options don't make
// items invisible to the selector filters.
func ParseStatus(name string) Status {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "todo", "to do", "backlog":
		return StatusTodo
	case "in progress", "in_progress", "doing":
		return StatusInProgress
	case "blocked":
		return StatusBlocked
	}
	return StatusTodo
}

// Priority orders ready work. Critical sorts first.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns the sort key for the priority (lower is more urgent).
// Unknown priorities sort after Low.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// ParsePriority maps a board option display name to a Priority.
func ParsePriority(name string) Priority {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "critical", "urgent", "p0":
		return PriorityCritical
	case "high", "p1":
		return PriorityHigh
	case "medium", "p2":
		return PriorityMedium
	case "low", "p3":
		return PriorityLow
	}
	return PriorityMedium
}

// Comment is a single entry from an issue's comment stream, the only
// persistent state the claim protocol has.
type Comment struct {
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// AgentClaim is a derived view over the comment log asserting that one
// agent currently owns an issue. It has no storage of its own: it exists
// the instant a well-formed claim comment is posted and is destroyed the
// instant a release comment (or an expiry check) supersedes it.
type AgentClaim struct {
	IssueNumber int        `json:"issue_number"`
	Agent       string     `json:"agent"`
	SessionID   string     `json:"session_id"`
	ClaimedAt   time.Time  `json:"claimed_at"`
	RenewedAt   *time.Time `json:"renewed_at,omitempty"`
}

// EffectiveTimestamp returns the timestamp freshness checks run against:
// the last renewal if one happened, otherwise the original claim time.
func (c *AgentClaim) EffectiveTimestamp() time.Time {
	if c.RenewedAt != nil {
		return *c.RenewedAt
	}
	return c.ClaimedAt
}

// IsStale reports whether the claim is older than ttl as of now.
// A stale claim is functionally free for claiming purposes but still
// distinguishable for logging.
func (c *AgentClaim) IsStale(ttl time.Duration, now time.Time) bool {
	return now.Sub(c.EffectiveTimestamp()) >= ttl
}

// ReleaseReason explains why an agent released its claim and drives the
// resulting status transition.
type ReleaseReason string

const (
	ReasonCompleted ReleaseReason = "completed"
	ReasonPrCreated ReleaseReason = "pr_created"
	ReasonBlocked   ReleaseReason = "blocked"
	ReasonAbandoned ReleaseReason = "abandoned"
	ReasonError     ReleaseReason = "error"
)

// IsValid checks if the release reason value is valid.
func (r ReleaseReason) IsValid() bool {
	switch r {
	case ReasonCompleted, ReasonPrCreated, ReasonBlocked, ReasonAbandoned, ReasonError:
		return true
	}
	return false
}

// StatusAfterRelease returns the status an issue transitions to when a
// claim is released for this reason. The second return is false when the
// status must be left unchanged (completed work stays in_progress until a
// merge event elsewhere advances it).
func (r ReleaseReason) StatusAfterRelease() (Status, bool) {
	switch r {
	case ReasonBlocked:
		return StatusBlocked, true
	case ReasonAbandoned, ReasonError:
		return StatusTodo, true
	}
	return "", false
}

// WorkFilter narrows ready-work selection.
type WorkFilter struct {
	Agent string // only issues assigned to this agent or unassigned
	Limit int    // maximum issues to return (0 = no limit)
}
