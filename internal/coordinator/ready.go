package coordinator

import (
	"context"
	"fmt"
	"sort"

	"github.com/steveyegge/boardman/internal/types"
)

// ReadyWork returns the prioritized queue of claimable issues: open on the
// board, status todo, unblocked, carrying no excluded label, and -- when an
// agent filter is given -- assigned to that agent or unassigned.
//
// Assignment and claim are separate concepts: an issue assigned to an agent
// with no active claim is still eligible. Assignment narrows the candidate
// pool; the claim protocol is the actual mutual-exclusion mechanism, so no
// comment fetches happen here.
//
// Results are ordered by ascending priority (critical first), stable for
// ties, truncated to filter.Limit when positive.
func (c *Coordinator) ReadyWork(ctx context.Context, filter types.WorkFilter) ([]*types.Issue, error) {
	items, err := c.store.GetItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board items: %w", err)
	}

	agent := ""
	if filter.Agent != "" {
		agent = c.normalizeAgent(filter.Agent)
	}

	var ready []*types.Issue
	for _, issue := range items {
		if issue.State != types.StateOpen {
			continue
		}
		if issue.Status != types.StatusTodo {
			continue
		}
		if agent != "" && issue.Agent != "" && c.normalizeAgent(issue.Agent) != agent {
			continue
		}
		if len(issue.BlockedBy) > 0 {
			continue
		}
		if c.hasExcludedLabel(issue) {
			continue
		}
		ready = append(ready, issue)
	}

	sort.SliceStable(ready, func(i, j int) bool {
		return ready[i].Priority.Rank() < ready[j].Priority.Rank()
	})

	if filter.Limit > 0 && len(ready) > filter.Limit {
		ready = ready[:filter.Limit]
	}
	return ready, nil
}

// hasExcludedLabel reports whether any of the issue's labels is configured
// as excluding it from ready work.
func (c *Coordinator) hasExcludedLabel(issue *types.Issue) bool {
	for _, l := range issue.Labels {
		if c.exclude[l] {
			return true
		}
	}
	return false
}
