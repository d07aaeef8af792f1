package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/steveyegge/boardman/internal/claims"
	"github.com/steveyegge/boardman/internal/journal"
	"github.com/steveyegge/boardman/internal/types"
)

// ClaimWork attempts to claim an issue for an agent session.
//
// Returns (false, nil) when another fresh claim holds the issue: contention
// is an expected outcome, not an error, and no writes are performed on that
// path. Otherwise a claim comment is posted and the issue moves to
// in_progress.
//
// The check-then-post sequence is deliberately not atomic. Two callers can
// both observe "no fresh claim" and both post; the comment log records both
// and the later one wins on the next reconstruction. Do not add client-side
// locking around this: no shared lock exists across agent processes, and
// pretending otherwise only hides the race the protocol is designed to
// tolerate.
func (c *Coordinator) ClaimWork(ctx context.Context, issue *types.Issue, agent, sessionID string, ttl time.Duration) (bool, error) {
	agent = c.normalizeAgent(agent)
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}

	existing, err := c.ActiveClaim(ctx, issue)
	if err != nil {
		return false, err
	}

	stale := false
	if existing != nil {
		if !existing.IsStale(ttl, c.now()) {
			// Held and fresh. Even for the same agent: renewal is the
			// sanctioned way to extend a claim you already hold.
			slog.Info("claim contended",
				"issue", issue.Number,
				"holder", existing.Agent,
				"age", c.now().Sub(existing.EffectiveTimestamp()).Round(time.Second))
			c.record(ctx, journal.KindClaimContended, issue.Number, agent, sessionID,
				fmt.Sprintf("held by %s", existing.Agent))
			return false, nil
		}
		stale = true
	}

	comment := claims.ClaimComment(agent, c.now(), sessionID)
	if err := c.store.PostComment(ctx, issue, comment); err != nil {
		return false, fmt.Errorf("failed to post claim comment on #%d: %w", issue.Number, err)
	}

	if err := c.UpdateStatus(ctx, issue, types.StatusInProgress); err != nil {
		// The claim comment is already on the log, so the claim exists;
		// surface the status failure rather than trying to unwind it.
		return true, fmt.Errorf("claimed #%d but failed to update status: %w", issue.Number, err)
	}

	kind := journal.KindClaimWon
	detail := ""
	if stale {
		kind = journal.KindClaimStolen
		detail = fmt.Sprintf("superseded stale claim by %s", existing.Agent)
		slog.Info("stole stale claim", "issue", issue.Number, "previous_holder", existing.Agent)
	}
	c.record(ctx, kind, issue.Number, agent, sessionID, detail)

	return true, nil
}

// RenewClaim extends an agent's hold on an issue. It succeeds only when an
// active claim exists and belongs to the calling agent; session ids are not
// compared, so an agent may renew a claim started under a different session
// of the same agent name. Returns (false, nil) with no writes otherwise.
func (c *Coordinator) RenewClaim(ctx context.Context, issue *types.Issue, agent, sessionID string) (bool, error) {
	agent = c.normalizeAgent(agent)

	existing, err := c.ActiveClaim(ctx, issue)
	if err != nil {
		return false, err
	}
	if existing == nil || existing.Agent != agent {
		holder := "nobody"
		if existing != nil {
			holder = existing.Agent
		}
		c.record(ctx, journal.KindRenewalRefused, issue.Number, agent, sessionID,
			fmt.Sprintf("held by %s", holder))
		return false, nil
	}

	comment := claims.RenewalComment(agent, c.now(), sessionID)
	if err := c.store.PostComment(ctx, issue, comment); err != nil {
		return false, fmt.Errorf("failed to post renewal comment on #%d: %w", issue.Number, err)
	}

	c.record(ctx, journal.KindRenewal, issue.Number, agent, sessionID, "")
	return true, nil
}

// ReleaseWork releases an issue unconditionally: an agent must always be
// able to relinquish its own understanding of a claim, even one that has
// gone stale or been stolen, so no ownership check runs here. The reason
// drives the resulting status:
//
//	completed, pr_created -> unchanged (a merge event elsewhere advances it)
//	blocked               -> blocked
//	abandoned, error      -> todo (returned to the ready pool)
func (c *Coordinator) ReleaseWork(ctx context.Context, issue *types.Issue, agent, sessionID string, reason types.ReleaseReason) error {
	agent = c.normalizeAgent(agent)
	if !reason.IsValid() {
		return fmt.Errorf("invalid release reason: %s", reason)
	}

	comment := claims.ReleaseComment(agent, c.now(), sessionID, reason)
	if err := c.store.PostComment(ctx, issue, comment); err != nil {
		return fmt.Errorf("failed to post release comment on #%d: %w", issue.Number, err)
	}

	c.record(ctx, journal.KindRelease, issue.Number, agent, sessionID, string(reason))

	if status, ok := reason.StatusAfterRelease(); ok {
		if err := c.UpdateStatus(ctx, issue, status); err != nil {
			return fmt.Errorf("released #%d but failed to update status: %w", issue.Number, err)
		}
	}
	return nil
}
