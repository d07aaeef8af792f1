package coordinator

import (
	"context"
	"fmt"

	"github.com/steveyegge/boardman/internal/journal"
	"github.com/steveyegge/boardman/internal/types"
)

// UpdateStatus mirrors the domain status into the board's status field.
// The enum-to-option mapping is Status.DisplayName; the board client
// resolves the option id from its schema cache. A board missing the field
// or option surfaces ErrFieldNotFound/ErrOptionNotFound -- a configuration
// error, fatal to the operation and never retried here.
func (c *Coordinator) UpdateStatus(ctx context.Context, issue *types.Issue, status types.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status: %s", status)
	}

	if err := c.store.MutateSingleSelect(ctx, issue, c.statusField, status.DisplayName()); err != nil {
		return err
	}

	issue.Status = status
	c.record(ctx, journal.KindStatusChange, issue.Number, "", "", status.DisplayName())
	return nil
}
