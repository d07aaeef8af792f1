package claims

import "github.com/steveyegge/boardman/internal/types"

// ActiveClaim replays an issue's comment window and derives the current
// claim. Comments must be ordered oldest to newest, as the board returns
// them; the scan runs newest to oldest so the most recent event wins:
//
//   - a Release encountered first means no active claim, regardless of
//     which agent posted it
//   - otherwise the first Claim or Renewal encountered is the active claim
//   - no marker in the window means no active claim
//
// This "last relevant event wins" fold is the only determinism available
// from an append-only log with no transactional store behind it. The
// result is a best-effort derived fact: a concurrent writer may have
// appended a newer event we haven't observed yet.
func ActiveClaim(issueNumber int, comments []types.Comment) *types.AgentClaim {
	for i := len(comments) - 1; i >= 0; i-- {
		ev, ok := parseMarker(comments[i].Body)
		if !ok {
			continue
		}

		switch ev.kind {
		case kindRelease:
			return nil
		case kindClaim:
			return &types.AgentClaim{
				IssueNumber: issueNumber,
				Agent:       ev.agent,
				SessionID:   ev.sessionID,
				ClaimedAt:   ev.timestamp,
			}
		case kindRenewal:
			ts := ev.timestamp
			return &types.AgentClaim{
				IssueNumber: issueNumber,
				Agent:       ev.agent,
				SessionID:   ev.sessionID,
				ClaimedAt:   ev.timestamp,
				RenewedAt:   &ts,
			}
		}
	}
	return nil
}
