// Package board implements the Issue Store collaborator: a client for the
// project board's GraphQL API exposing item queries, comment read/write,
// and field mutations. Transport retry and rate-limit handling live here,
// not in the coordinator -- callers see each operation as a single
// synchronous request/response that may fail.
package board

import (
	"context"
	"errors"

	"github.com/steveyegge/boardman/internal/types"
)

// Store is the issue-store surface the coordinator consumes. The board
// offers no transactions or locks; every method is a point-in-time call
// whose failure is surfaced, not retried, above this layer.
type Store interface {
	// GetItems bulk-reads the project's items with their current field
	// values mapped into domain issues.
	GetItems(ctx context.Context) ([]*types.Issue, error)

	// GetComments returns up to limit of the issue's most recent comments,
	// ordered oldest to newest.
	GetComments(ctx context.Context, issue *types.Issue, limit int) ([]types.Comment, error)

	// PostComment appends a comment to the issue.
	PostComment(ctx context.Context, issue *types.Issue, body string) error

	// MutateSingleSelect sets a single-select field on the issue's project
	// item to the option with the given display name.
	MutateSingleSelect(ctx context.Context, issue *types.Issue, fieldName, optionName string) error

	// MutateTextField sets a text field on the issue's project item.
	MutateTextField(ctx context.Context, issue *types.Issue, fieldName, text string) error
}

// Typed errors for structural failures. These are configuration or input
// errors: the coordinator never retries them and never auto-corrects the
// board schema.
var (
	ErrProjectNotFound = errors.New("project not found on board")
	ErrIssueNotFound   = errors.New("issue not found on board")
	ErrFieldNotFound   = errors.New("field not found in board schema")
	ErrOptionNotFound  = errors.New("field option not found in board schema")
)
