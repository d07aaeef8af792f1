package coordinator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/boardman/internal/types"
)

// claimFetchParallelism bounds concurrent comment fetches in the overview.
// The board client paces requests anyway; this just keeps a wide board from
// queueing hundreds of goroutines behind the limiter.
const claimFetchParallelism = 4

// ClaimStatus pairs an in-progress issue with its reconstructed claim.
type ClaimStatus struct {
	Issue *types.Issue
	Claim *types.AgentClaim // nil when in_progress with no active claim
	Stale bool              // claim older than ttl, functionally free
}

// ActiveClaims reconstructs claims for every in-progress issue on the
// board. Read-only: a diagnostic overview of who holds what and which
// claims have gone stale.
func (c *Coordinator) ActiveClaims(ctx context.Context, ttl time.Duration) ([]ClaimStatus, error) {
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}

	items, err := c.store.GetItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board items: %w", err)
	}

	var inProgress []*types.Issue
	for _, issue := range items {
		if issue.State == types.StateOpen && issue.Status == types.StatusInProgress {
			inProgress = append(inProgress, issue)
		}
	}

	results := make([]ClaimStatus, len(inProgress))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(claimFetchParallelism)
	for i, issue := range inProgress {
		i, issue := i, issue
		g.Go(func() error {
			claim, err := c.ActiveClaim(gctx, issue)
			if err != nil {
				return err
			}
			results[i] = ClaimStatus{Issue: issue, Claim: claim}
			if claim != nil {
				results[i].Stale = claim.IsStale(ttl, c.now())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Issue.Number < results[j].Issue.Number
	})
	return results, nil
}
