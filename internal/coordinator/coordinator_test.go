package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/boardman/internal/board"
	"github.com/steveyegge/boardman/internal/types"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// fieldWrite records one field mutation against the fake store.
type fieldWrite struct {
	issue int
	field string
	value string
}

// fakeStore is an in-memory board.Store. Comments posted through it land in
// the per-issue log immediately, the way the real board makes a posted
// comment visible to the next reader.
type fakeStore struct {
	items    []*types.Issue
	comments map[int][]types.Comment
	selects  []fieldWrite
	texts    []fieldWrite

	postErr   error
	selectErr error

	commentFetches int
}

func newFakeStore(items ...*types.Issue) *fakeStore {
	return &fakeStore{items: items, comments: make(map[int][]types.Comment)}
}

func (f *fakeStore) GetItems(ctx context.Context) ([]*types.Issue, error) {
	return f.items, nil
}

func (f *fakeStore) GetComments(ctx context.Context, issue *types.Issue, limit int) ([]types.Comment, error) {
	f.commentFetches++
	log := f.comments[issue.Number]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	return log, nil
}

func (f *fakeStore) PostComment(ctx context.Context, issue *types.Issue, body string) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.comments[issue.Number] = append(f.comments[issue.Number], types.Comment{Body: body, CreatedAt: time.Now()})
	return nil
}

func (f *fakeStore) MutateSingleSelect(ctx context.Context, issue *types.Issue, fieldName, optionName string) error {
	if f.selectErr != nil {
		return f.selectErr
	}
	f.selects = append(f.selects, fieldWrite{issue.Number, fieldName, optionName})
	return nil
}

func (f *fakeStore) MutateTextField(ctx context.Context, issue *types.Issue, fieldName, text string) error {
	f.texts = append(f.texts, fieldWrite{issue.Number, fieldName, text})
	return nil
}

// writes is the total number of mutations performed against the store.
func (f *fakeStore) writes() int {
	total := len(f.selects) + len(f.texts)
	for _, log := range f.comments {
		total += len(log)
	}
	return total
}

// testClock is a settable clock shared with the coordinator under test.
type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCoordinator(t *testing.T, store *fakeStore) (*Coordinator, *testClock) {
	t.Helper()
	clock := &testClock{now: t0}
	coord, err := New(&Config{Store: store, Now: clock.Now})
	require.NoError(t, err)
	return coord, clock
}

func issue(number int, status types.Status) *types.Issue {
	return &types.Issue{
		Number: number,
		Title:  "test issue",
		State:  types.StateOpen,
		Status: status,
		ItemID: "item",
	}
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
	_, err = New(&Config{})
	assert.Error(t, err)
}

func TestClaimWorkUnclaimedIssue(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store)
	iss := issue(42, types.StatusTodo)

	won, err := coord.ClaimWork(context.Background(), iss, "Claude Code", "s1", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, won)

	require.Len(t, store.comments[42], 1)
	assert.Contains(t, store.comments[42][0].Body, "**[Agent Claim]**")
	assert.Contains(t, store.comments[42][0].Body, "Claude Code")

	require.Len(t, store.selects, 1)
	assert.Equal(t, fieldWrite{42, "Status", "In Progress"}, store.selects[0])
	assert.Equal(t, types.StatusInProgress, iss.Status)
}

func TestClaimWorkContendedFreshClaim(t *testing.T) {
	store := newFakeStore()
	coord, clock := newTestCoordinator(t, store)
	iss := issue(42, types.StatusTodo)

	won, err := coord.ClaimWork(context.Background(), iss, "Claude Code", "s1", 24*time.Hour)
	require.NoError(t, err)
	require.True(t, won)
	writesAfterClaim := store.writes()

	clock.Advance(10 * time.Minute)
	won, err = coord.ClaimWork(context.Background(), iss, "Codex", "s2", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, won, "fresh claim must not be stolen")
	assert.Equal(t, writesAfterClaim, store.writes(), "contended claim must perform no writes")
}

func TestClaimWorkFreshSelfClaimContended(t *testing.T) {
	// Same agent, same session: re-claiming a fresh claim still returns
	// false. Renewal is the way to extend a hold.
	store := newFakeStore()
	coord, clock := newTestCoordinator(t, store)
	iss := issue(42, types.StatusTodo)

	won, err := coord.ClaimWork(context.Background(), iss, "Claude Code", "s1", 24*time.Hour)
	require.NoError(t, err)
	require.True(t, won)

	clock.Advance(time.Minute)
	won, err = coord.ClaimWork(context.Background(), iss, "Claude Code", "s1", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestClaimWorkStealsStaleClaim(t *testing.T) {
	store := newFakeStore()
	coord, clock := newTestCoordinator(t, store)
	iss := issue(42, types.StatusTodo)

	won, err := coord.ClaimWork(context.Background(), iss, "Claude Code", "s1", 24*time.Hour)
	require.NoError(t, err)
	require.True(t, won)

	clock.Advance(25 * time.Hour)
	won, err = coord.ClaimWork(context.Background(), iss, "Codex", "s2", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, won, "stale claim should be claimable")

	claim, err := coord.ActiveClaim(context.Background(), iss)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, "Codex", claim.Agent)
	assert.Equal(t, "s2", claim.SessionID)
}

func TestClaimWorkNormalizesAgentName(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store)
	iss := issue(42, types.StatusTodo)

	won, err := coord.ClaimWork(context.Background(), iss, "claude", "s1", 24*time.Hour)
	require.NoError(t, err)
	require.True(t, won)

	claim, err := coord.ActiveClaim(context.Background(), iss)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, "Claude Code", claim.Agent)
}

func TestClaimWorkStatusFailureStillClaims(t *testing.T) {
	// The claim comment lands before the status mutation. A status failure
	// means the claim exists but the board disagrees; the caller gets both
	// the success and the error.
	store := newFakeStore()
	store.selectErr = errors.New("boom")
	coord, _ := newTestCoordinator(t, store)
	iss := issue(42, types.StatusTodo)

	won, err := coord.ClaimWork(context.Background(), iss, "Claude Code", "s1", 24*time.Hour)
	assert.True(t, won)
	assert.Error(t, err)
	assert.Len(t, store.comments[42], 1)
}

func TestRenewClaimByHolder(t *testing.T) {
	store := newFakeStore()
	coord, clock := newTestCoordinator(t, store)
	iss := issue(42, types.StatusInProgress)

	_, err := coord.ClaimWork(context.Background(), iss, "Claude Code", "s1", 24*time.Hour)
	require.NoError(t, err)

	clock.Advance(6 * time.Hour)
	renewed, err := coord.RenewClaim(context.Background(), iss, "Claude Code", "s1")
	require.NoError(t, err)
	assert.True(t, renewed)

	claim, err := coord.ActiveClaim(context.Background(), iss)
	require.NoError(t, err)
	require.NotNil(t, claim)
	require.NotNil(t, claim.RenewedAt)
	assert.False(t, claim.IsStale(24*time.Hour, clock.Now().Add(20*time.Hour)),
		"renewal should reset the staleness clock")
}

func TestRenewClaimAcrossSessionsOfSameAgent(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store)
	iss := issue(42, types.StatusInProgress)

	_, err := coord.ClaimWork(context.Background(), iss, "Claude Code", "s1", 24*time.Hour)
	require.NoError(t, err)

	renewed, err := coord.RenewClaim(context.Background(), iss, "Claude Code", "s99")
	require.NoError(t, err)
	assert.True(t, renewed, "renewal matches on agent name, not session")
}

func TestRenewClaimRefusedForNonHolder(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store)
	iss := issue(42, types.StatusInProgress)

	_, err := coord.ClaimWork(context.Background(), iss, "Claude Code", "s1", 24*time.Hour)
	require.NoError(t, err)
	writesBefore := store.writes()

	renewed, err := coord.RenewClaim(context.Background(), iss, "Codex", "s2")
	require.NoError(t, err)
	assert.False(t, renewed)
	assert.Equal(t, writesBefore, store.writes(), "refused renewal must perform no writes")
}

func TestRenewClaimRefusedWhenUnclaimed(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store)
	iss := issue(42, types.StatusInProgress)

	renewed, err := coord.RenewClaim(context.Background(), iss, "Claude Code", "s1")
	require.NoError(t, err)
	assert.False(t, renewed)
	assert.Zero(t, store.writes())
}

func TestReleaseWorkStatusMapping(t *testing.T) {
	tests := []struct {
		reason     types.ReleaseReason
		wantStatus string // "" means no status write
	}{
		{types.ReasonCompleted, ""},
		{types.ReasonPrCreated, ""},
		{types.ReasonBlocked, "Blocked"},
		{types.ReasonAbandoned, "Todo"},
		{types.ReasonError, "Todo"},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			store := newFakeStore()
			coord, _ := newTestCoordinator(t, store)
			iss := issue(42, types.StatusInProgress)

			err := coord.ReleaseWork(context.Background(), iss, "Claude Code", "s1", tt.reason)
			require.NoError(t, err)

			require.Len(t, store.comments[42], 1)
			assert.Contains(t, store.comments[42][0].Body, "**[Agent Release]**")
			assert.Contains(t, store.comments[42][0].Body, string(tt.reason))

			if tt.wantStatus == "" {
				assert.Empty(t, store.selects, "completed/pr_created must leave status alone")
			} else {
				require.Len(t, store.selects, 1)
				assert.Equal(t, fieldWrite{42, "Status", tt.wantStatus}, store.selects[0])
			}
		})
	}
}

func TestReleaseWorkUnconditional(t *testing.T) {
	// Releasing a claim held by someone else still posts the marker: the
	// reconstructor, not the writer, arbitrates what the release means.
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store)
	iss := issue(42, types.StatusInProgress)

	_, err := coord.ClaimWork(context.Background(), iss, "Claude Code", "s1", 24*time.Hour)
	require.NoError(t, err)

	err = coord.ReleaseWork(context.Background(), iss, "Codex", "s2", types.ReasonAbandoned)
	require.NoError(t, err)

	claim, err := coord.ActiveClaim(context.Background(), iss)
	require.NoError(t, err)
	assert.Nil(t, claim, "release supersedes the prior claim")
}

func TestReleaseWorkInvalidReason(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store)
	iss := issue(42, types.StatusInProgress)

	err := coord.ReleaseWork(context.Background(), iss, "Claude Code", "s1", "rage_quit")
	assert.Error(t, err)
	assert.Zero(t, store.writes())
}

// TestClaimLifecycleScenario walks the full contention timeline: claim,
// contended re-claim, staleness, steal, and a refused renewal by the
// original holder after the steal.
func TestClaimLifecycleScenario(t *testing.T) {
	store := newFakeStore()
	coord, clock := newTestCoordinator(t, store)
	iss := issue(42, types.StatusTodo)
	ctx := context.Background()
	ttl := 24 * time.Hour

	won, err := coord.ClaimWork(ctx, iss, "Claude Code", "s1", ttl)
	require.NoError(t, err)
	require.True(t, won, "unclaimed issue should be claimable")

	clock.Advance(10 * time.Minute)
	won, err = coord.ClaimWork(ctx, iss, "Codex", "s2", ttl)
	require.NoError(t, err)
	require.False(t, won, "claim 10 minutes old is fresh")

	clock.Advance(25 * time.Hour)
	won, err = coord.ClaimWork(ctx, iss, "Codex", "s2", ttl)
	require.NoError(t, err)
	require.True(t, won, "claim past its ttl is stealable")

	renewed, err := coord.RenewClaim(ctx, iss, "Claude Code", "s1")
	require.NoError(t, err)
	require.False(t, renewed, "original holder cannot renew after a steal")

	claim, err := coord.ActiveClaim(ctx, iss)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, "Codex", claim.Agent)
}

func TestReadyWorkFilters(t *testing.T) {
	closed := issue(1, types.StatusTodo)
	closed.State = types.StateClosed
	inProgress := issue(2, types.StatusInProgress)
	blocked := issue(3, types.StatusTodo)
	blocked.BlockedBy = []int{2}
	labeled := issue(4, types.StatusTodo)
	labeled.Labels = []string{"wontfix"}
	otherAgent := issue(5, types.StatusTodo)
	otherAgent.Agent = "Gemini CLI"
	assigned := issue(6, types.StatusTodo)
	assigned.Agent = "claude" // raw alias on the board
	unassigned := issue(7, types.StatusTodo)

	store := newFakeStore(closed, inProgress, blocked, labeled, otherAgent, assigned, unassigned)
	coord, err := New(&Config{Store: store, ExcludeLabels: []string{"wontfix"}})
	require.NoError(t, err)

	ready, err := coord.ReadyWork(context.Background(), types.WorkFilter{Agent: "Claude Code"})
	require.NoError(t, err)

	var numbers []int
	for _, iss := range ready {
		numbers = append(numbers, iss.Number)
	}
	assert.Equal(t, []int{6, 7}, numbers,
		"only the alias-matched assignment and the unassigned issue are ready")
	assert.Zero(t, store.commentFetches, "ready work must not read comment logs")
}

func TestReadyWorkPriorityOrderStable(t *testing.T) {
	low := issue(1, types.StatusTodo)
	low.Priority = types.PriorityLow
	criticalA := issue(2, types.StatusTodo)
	criticalA.Priority = types.PriorityCritical
	medium := issue(3, types.StatusTodo)
	medium.Priority = types.PriorityMedium
	criticalB := issue(4, types.StatusTodo)
	criticalB.Priority = types.PriorityCritical

	store := newFakeStore(low, criticalA, medium, criticalB)
	coord, _ := newTestCoordinator(t, store)

	ready, err := coord.ReadyWork(context.Background(), types.WorkFilter{})
	require.NoError(t, err)
	require.Len(t, ready, 4)
	assert.Equal(t, 2, ready[0].Number, "critical first, board order for ties")
	assert.Equal(t, 4, ready[1].Number)
	assert.Equal(t, 3, ready[2].Number)
	assert.Equal(t, 1, ready[3].Number)
}

func TestReadyWorkLimit(t *testing.T) {
	store := newFakeStore(
		issue(1, types.StatusTodo),
		issue(2, types.StatusTodo),
		issue(3, types.StatusTodo),
	)
	coord, _ := newTestCoordinator(t, store)

	ready, err := coord.ReadyWork(context.Background(), types.WorkFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, ready, 2)
}

func TestAddBlocker(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store)
	iss := issue(42, types.StatusTodo)
	iss.BlockedBy = []int{7}

	err := coord.AddBlocker(context.Background(), iss, 9)
	require.NoError(t, err)
	require.Len(t, store.texts, 1)
	assert.Equal(t, fieldWrite{42, "Blocked By", "7, 9"}, store.texts[0])

	// Re-adding is an idempotent rewrite of the same list.
	err = coord.AddBlocker(context.Background(), iss, 9)
	require.NoError(t, err)
	require.Len(t, store.texts, 2)
	assert.Equal(t, "7, 9", store.texts[1].value)
}

func TestAddBlockerSelf(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store)
	iss := issue(42, types.StatusTodo)

	err := coord.AddBlocker(context.Background(), iss, 42)
	assert.Error(t, err)
	assert.Zero(t, store.writes())
}

func TestMarkDiscoveredFrom(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store)
	iss := issue(42, types.StatusTodo)

	err := coord.MarkDiscoveredFrom(context.Background(), iss, 7)
	require.NoError(t, err)
	require.Len(t, store.texts, 1)
	assert.Equal(t, fieldWrite{42, "Discovered From", "7"}, store.texts[0])
	require.NotNil(t, iss.DiscoveredFrom)
	assert.Equal(t, 7, *iss.DiscoveredFrom)

	err = coord.MarkDiscoveredFrom(context.Background(), iss, 42)
	assert.Error(t, err, "self-provenance is rejected")
}

func TestActiveClaimsOverview(t *testing.T) {
	claimed := issue(2, types.StatusInProgress)
	staleOne := issue(1, types.StatusInProgress)
	unclaimed := issue(3, types.StatusInProgress)
	todo := issue(4, types.StatusTodo)

	store := newFakeStore(claimed, staleOne, unclaimed, todo)
	coord, clock := newTestCoordinator(t, store)
	ctx := context.Background()

	_, err := coord.ClaimWork(ctx, staleOne, "Claude Code", "s1", 24*time.Hour)
	require.NoError(t, err)
	clock.Advance(30 * time.Hour)
	_, err = coord.ClaimWork(ctx, claimed, "Codex", "s2", 24*time.Hour)
	require.NoError(t, err)

	statuses, err := coord.ActiveClaims(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, statuses, 3, "only in-progress issues appear")

	assert.Equal(t, 1, statuses[0].Issue.Number)
	require.NotNil(t, statuses[0].Claim)
	assert.True(t, statuses[0].Stale)

	assert.Equal(t, 2, statuses[1].Issue.Number)
	require.NotNil(t, statuses[1].Claim)
	assert.False(t, statuses[1].Stale)

	assert.Equal(t, 3, statuses[2].Issue.Number)
	assert.Nil(t, statuses[2].Claim)
}

func TestUpdateStatusInvalid(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store)
	iss := issue(42, types.StatusTodo)

	err := coord.UpdateStatus(context.Background(), iss, "shipping")
	assert.Error(t, err)
	assert.Zero(t, store.writes())
}

func TestIssueLookup(t *testing.T) {
	store := newFakeStore(issue(7, types.StatusTodo))
	coord, _ := newTestCoordinator(t, store)

	found, err := coord.Issue(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, found.Number)

	_, err = coord.Issue(context.Background(), 99)
	assert.ErrorIs(t, err, board.ErrIssueNotFound)
}
