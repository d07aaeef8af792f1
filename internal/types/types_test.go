package types

import (
	"testing"
	"time"
)

func TestParseBlockedBy(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single", "42", []int{42}, false},
		{"list", "1, 2, 3", []int{1, 2, 3}, false},
		{"no spaces", "1,2,3", []int{1, 2, 3}, false},
		{"hash prefixes", "#7, #9", []int{7, 9}, false},
		{"trailing comma", "5,", []int{5}, false},
		{"garbage", "1, banana", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBlockedBy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBlockedBy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseBlockedBy(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseBlockedBy(%q)[%d] = %d, want %d", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBlockedByTextSortedAndStable(t *testing.T) {
	issue := &Issue{Number: 1, BlockedBy: []int{9, 3, 7}}
	if got := issue.BlockedByText(); got != "3, 7, 9" {
		t.Errorf("BlockedByText() = %q, want %q", got, "3, 7, 9")
	}
	// Rendering must not reorder the underlying set.
	if issue.BlockedBy[0] != 9 {
		t.Errorf("BlockedByText mutated BlockedBy: %v", issue.BlockedBy)
	}

	empty := &Issue{Number: 2}
	if got := empty.BlockedByText(); got != "" {
		t.Errorf("BlockedByText() on empty set = %q, want empty", got)
	}
}

func TestStatusDisplayNameRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusTodo, StatusInProgress, StatusBlocked} {
		if got := ParseStatus(s.DisplayName()); got != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s.DisplayName(), got, s)
		}
	}
}

func TestParseStatusUnknownDefaultsToTodo(t *testing.T) {
	if got := ParseStatus("Someone's Custom Column"); got != StatusTodo {
		t.Errorf("ParseStatus(custom) = %q, want todo", got)
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	order := []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("Rank(%s) = %d should be less than Rank(%s) = %d",
				order[i-1], order[i-1].Rank(), order[i], order[i].Rank())
		}
	}
	if Priority("weird").Rank() <= PriorityLow.Rank() {
		t.Errorf("unknown priority should sort after Low")
	}
}

func TestReleaseReasonStatusMapping(t *testing.T) {
	tests := []struct {
		reason     ReleaseReason
		wantStatus Status
		wantChange bool
	}{
		{ReasonCompleted, "", false},
		{ReasonPrCreated, "", false},
		{ReasonBlocked, StatusBlocked, true},
		{ReasonAbandoned, StatusTodo, true},
		{ReasonError, StatusTodo, true},
	}

	for _, tt := range tests {
		status, change := tt.reason.StatusAfterRelease()
		if change != tt.wantChange {
			t.Errorf("%s: change = %v, want %v", tt.reason, change, tt.wantChange)
		}
		if change && status != tt.wantStatus {
			t.Errorf("%s: status = %q, want %q", tt.reason, status, tt.wantStatus)
		}
	}
}

func TestReleaseReasonIsValid(t *testing.T) {
	for _, r := range []ReleaseReason{ReasonCompleted, ReasonPrCreated, ReasonBlocked, ReasonAbandoned, ReasonError} {
		if !r.IsValid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if ReleaseReason("rage_quit").IsValid() {
		t.Error("unknown reason should be invalid")
	}
}

func TestNormalizeAgent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"claude", "Claude Code"},
		{"Claude", "Claude Code"},
		{"CLAUDE-CODE", "Claude Code"},
		{"codex", "Codex"},
		{"gemini", "Gemini CLI"},
		{"  claude  ", "Claude Code"},
		{"Some Custom Agent", "Some Custom Agent"},
	}
	for _, tt := range tests {
		if got := NormalizeAgent(tt.in); got != tt.want {
			t.Errorf("NormalizeAgent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAgentClaimEffectiveTimestamp(t *testing.T) {
	claimed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	renewed := claimed.Add(6 * time.Hour)

	claim := &AgentClaim{ClaimedAt: claimed}
	if got := claim.EffectiveTimestamp(); !got.Equal(claimed) {
		t.Errorf("EffectiveTimestamp() = %v, want claimed-at %v", got, claimed)
	}

	claim.RenewedAt = &renewed
	if got := claim.EffectiveTimestamp(); !got.Equal(renewed) {
		t.Errorf("EffectiveTimestamp() = %v, want renewed-at %v", got, renewed)
	}
}

func TestAgentClaimIsStale(t *testing.T) {
	claimed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	claim := &AgentClaim{ClaimedAt: claimed}
	ttl := 24 * time.Hour

	if claim.IsStale(ttl, claimed.Add(23*time.Hour)) {
		t.Error("claim younger than ttl should be fresh")
	}
	if !claim.IsStale(ttl, claimed.Add(25*time.Hour)) {
		t.Error("claim older than ttl should be stale")
	}

	// Renewal resets the staleness clock.
	renewed := claimed.Add(20 * time.Hour)
	claim.RenewedAt = &renewed
	if claim.IsStale(ttl, claimed.Add(25*time.Hour)) {
		t.Error("renewed claim should be fresh again")
	}
}
