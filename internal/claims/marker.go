// Package claims implements the comment-marker event log that claim state
// is derived from. Three fixed prefixes turn free-form issue comments into
// a typed, append-only event stream; reconstructing the active claim is a
// fold over that stream from newest to oldest.
package claims

import (
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/boardman/internal/types"
)

// Marker prefixes. These are the wire format: any comment whose first
// non-blank line starts with one of these is a claim event, everything
// else is ordinary discussion.
const (
	MarkerClaim   = "**[Agent Claim]**"
	MarkerRenewal = "**[Claim Renewal]**"
	MarkerRelease = "**[Agent Release]**"
)

// eventKind tags a parsed marker comment.
type eventKind int

const (
	kindClaim eventKind = iota
	kindRenewal
	kindRelease
)

// event is one parsed marker comment.
type event struct {
	kind      eventKind
	agent     string
	timestamp time.Time
	sessionID string
	reason    string // release only
}

// ClaimComment renders the marker comment posted when an agent claims an issue.
func ClaimComment(agent string, at time.Time, sessionID string) string {
	return fmt.Sprintf("%s\nAgent: `%s`\nStarted: `%s`\nSession ID: `%s`",
		MarkerClaim, agent, at.UTC().Format(time.RFC3339), sessionID)
}

// RenewalComment renders the marker comment posted when an agent renews its claim.
func RenewalComment(agent string, at time.Time, sessionID string) string {
	return fmt.Sprintf("%s\nAgent: `%s`\nRenewed: `%s`\nSession ID: `%s`",
		MarkerRenewal, agent, at.UTC().Format(time.RFC3339), sessionID)
}

// ReleaseComment renders the marker comment posted when an agent releases an
// issue. Release is unconditional, so the comment records who let go and why
// even if ownership had already moved.
func ReleaseComment(agent string, at time.Time, sessionID string, reason types.ReleaseReason) string {
	return fmt.Sprintf("%s\nAgent: `%s`\nReleased: `%s`\nSession ID: `%s`\nReason: `%s`",
		MarkerRelease, agent, at.UTC().Format(time.RFC3339), sessionID, reason)
}

// parseMarker parses a comment body into a claim event. The second return
// is false when the body is not a marker comment, or is a marker comment
// missing required fields -- malformed markers are treated as absent, never
// as errors, because the comment stream is shared with humans and other
// tools we don't control.
func parseMarker(body string) (*event, bool) {
	lines := strings.Split(body, "\n")

	// Find the marker on the first non-blank line.
	var kind eventKind
	found := false
	rest := lines
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, MarkerClaim):
			kind = kindClaim
		case strings.HasPrefix(trimmed, MarkerRenewal):
			kind = kindRenewal
		case strings.HasPrefix(trimmed, MarkerRelease):
			kind = kindRelease
		default:
			return nil, false
		}
		found = true
		rest = lines[i+1:]
		break
	}
	if !found {
		return nil, false
	}

	ev := &event{kind: kind}
	var tsValue string
	for _, line := range rest {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), "`")
		switch strings.TrimSpace(key) {
		case "Agent":
			ev.agent = value
		case "Started", "Renewed", "Released":
			tsValue = value
		case "Session ID":
			ev.sessionID = value
		case "Reason":
			ev.reason = value
		}
	}

	if ev.agent == "" || tsValue == "" {
		return nil, false
	}
	ts, err := time.Parse(time.RFC3339, tsValue)
	if err != nil {
		return nil, false
	}
	ev.timestamp = ts

	// Claims and renewals feed an AgentClaim, which needs the session id.
	// Releases supersede regardless, so a missing session doesn't void them.
	if ev.sessionID == "" && kind != kindRelease {
		return nil, false
	}

	return ev, true
}
