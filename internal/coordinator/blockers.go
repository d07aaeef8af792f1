package coordinator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/steveyegge/boardman/internal/journal"
	"github.com/steveyegge/boardman/internal/types"
)

// AddBlocker records that blocker must be resolved before the issue is
// eligible for ready work. Idempotent: re-adding an existing blocker
// rewrites the same comma-separated list, which the board treats as a
// no-op.
func (c *Coordinator) AddBlocker(ctx context.Context, issue *types.Issue, blocker int) error {
	if blocker == issue.Number {
		return fmt.Errorf("issue #%d cannot block itself", issue.Number)
	}

	if !issue.IsBlockedBy(blocker) {
		issue.BlockedBy = append(issue.BlockedBy, blocker)
	}

	if err := c.store.MutateTextField(ctx, issue, c.blockedByField, issue.BlockedByText()); err != nil {
		return fmt.Errorf("failed to update blocked-by for #%d: %w", issue.Number, err)
	}

	c.record(ctx, journal.KindBlockerAdded, issue.Number, "", "", strconv.Itoa(blocker))
	return nil
}

// MarkDiscoveredFrom records the parent issue this one was discovered
// during. Single-value provenance write, idempotent like AddBlocker.
func (c *Coordinator) MarkDiscoveredFrom(ctx context.Context, issue *types.Issue, parent int) error {
	if parent == issue.Number {
		return fmt.Errorf("issue #%d cannot be discovered from itself", issue.Number)
	}

	if err := c.store.MutateTextField(ctx, issue, c.discoveredFromField, strconv.Itoa(parent)); err != nil {
		return fmt.Errorf("failed to update discovered-from for #%d: %w", issue.Number, err)
	}

	p := parent
	issue.DiscoveredFrom = &p
	c.record(ctx, journal.KindDiscoveredFrom, issue.Number, "", "", strconv.Itoa(parent))
	return nil
}
