package board

import (
	"context"
	"fmt"
	"time"

	"github.com/steveyegge/boardman/internal/types"
)

const (
	// itemsPageSize is the page size for bulk item reads.
	itemsPageSize = 100

	// maxItemPages bounds pagination so a runaway board can't spin forever.
	maxItemPages = 50
)

// projectQuery resolves a project's node id under an organization or user.
const projectQuery = `
query($owner: String!, $number: Int!) {
	organization(login: $owner) {
		projectV2(number: $number) { id }
	}
	user(login: $owner) {
		projectV2(number: $number) { id }
	}
}`

// projectResponse is the response envelope for projectQuery.
type projectResponse struct {
	Organization *struct {
		ProjectV2 *struct {
			ID string `json:"id"`
		} `json:"projectV2"`
	} `json:"organization"`
	User *struct {
		ProjectV2 *struct {
			ID string `json:"id"`
		} `json:"projectV2"`
	} `json:"user"`
}

// resolveProject returns the cached project node id, looking it up on first use.
// The owner login is tried as an organization first, then as a user.
func (c *Client) resolveProject(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.projectID
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	req := &graphQLRequest{
		Query: projectQuery,
		Variables: map[string]interface{}{
			"owner":  c.owner,
			"number": c.number,
		},
	}
	var resp projectResponse
	if err := c.execute(ctx, req, &resp); err != nil {
		return "", fmt.Errorf("failed to resolve project %s/%d: %w", c.owner, c.number, err)
	}

	var id string
	if resp.Organization != nil && resp.Organization.ProjectV2 != nil {
		id = resp.Organization.ProjectV2.ID
	} else if resp.User != nil && resp.User.ProjectV2 != nil {
		id = resp.User.ProjectV2.ID
	}
	if id == "" {
		return "", fmt.Errorf("%w: %s/%d", ErrProjectNotFound, c.owner, c.number)
	}

	c.mu.Lock()
	c.projectID = id
	c.mu.Unlock()
	return id, nil
}

// itemsQuery pages through the project's items with field values and content.
const itemsQuery = `
query($project: ID!, $first: Int!, $after: String) {
	node(id: $project) {
		... on ProjectV2 {
			items(first: $first, after: $after) {
				pageInfo { hasNextPage endCursor }
				nodes {
					id
					fieldValues(first: 20) {
						nodes {
							... on ProjectV2ItemFieldSingleSelectValue {
								name
								field { ... on ProjectV2FieldCommon { name } }
							}
							... on ProjectV2ItemFieldTextValue {
								text
								field { ... on ProjectV2FieldCommon { name } }
							}
						}
					}
					content {
						... on Issue {
							id
							number
							title
							body
							state
							url
							createdAt
							updatedAt
							repository { name owner { login } }
							labels(first: 20) { nodes { name } }
						}
					}
				}
			}
		}
	}
}`

// itemFieldValue is one field value node on a project item.
type itemFieldValue struct {
	Name  string `json:"name,omitempty"` // single-select option name
	Text  string `json:"text,omitempty"` // text field value
	Field struct {
		Name string `json:"name"`
	} `json:"field"`
}

// itemContent is the issue behind a project item. Draft items and pull
// requests decode to a zero Number and are skipped.
type itemContent struct {
	ID         string `json:"id"`
	Number     int    `json:"number"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	State      string `json:"state"`
	URL        string `json:"url"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	Repository struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
	Labels struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
}

// itemsResponse is the response envelope for itemsQuery.
type itemsResponse struct {
	Node struct {
		Items struct {
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Nodes []struct {
				ID          string `json:"id"`
				FieldValues struct {
					Nodes []itemFieldValue `json:"nodes"`
				} `json:"fieldValues"`
				Content *itemContent `json:"content"`
			} `json:"nodes"`
		} `json:"items"`
	} `json:"node"`
}

// GetItems bulk-reads the project's items and maps them to domain issues.
func (c *Client) GetItems(ctx context.Context) ([]*types.Issue, error) {
	projectID, err := c.resolveProject(ctx)
	if err != nil {
		return nil, err
	}

	var issues []*types.Issue
	var cursor string
	for page := 0; ; page++ {
		if page >= maxItemPages {
			return nil, fmt.Errorf("pagination limit exceeded: stopped after %d pages", maxItemPages)
		}

		vars := map[string]interface{}{
			"project": projectID,
			"first":   itemsPageSize,
		}
		if cursor != "" {
			vars["after"] = cursor
		}

		var resp itemsResponse
		if err := c.execute(ctx, &graphQLRequest{Query: itemsQuery, Variables: vars}, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch project items: %w", err)
		}

		for _, node := range resp.Node.Items.Nodes {
			if node.Content == nil || node.Content.Number == 0 {
				continue // draft item or PR, not claimable work
			}
			issue, err := c.itemToIssue(node.ID, node.Content, node.FieldValues.Nodes)
			if err != nil {
				return nil, err
			}
			issues = append(issues, issue)
		}

		if !resp.Node.Items.PageInfo.HasNextPage {
			break
		}
		cursor = resp.Node.Items.PageInfo.EndCursor
	}

	return issues, nil
}

// itemToIssue maps a project item plus its field values onto a domain issue.
func (c *Client) itemToIssue(itemID string, content *itemContent, fields []itemFieldValue) (*types.Issue, error) {
	issue := &types.Issue{
		Number:    content.Number,
		Title:     content.Title,
		Body:      content.Body,
		URL:       content.URL,
		RepoOwner: content.Repository.Owner.Login,
		RepoName:  content.Repository.Name,
		ItemID:    itemID,
		ContentID: content.ID,
		Status:    types.StatusTodo,
		Priority:  types.PriorityMedium,
	}

	switch content.State {
	case "OPEN", "open":
		issue.State = types.StateOpen
	default:
		issue.State = types.StateClosed
	}

	if t, err := time.Parse(time.RFC3339, content.CreatedAt); err == nil {
		issue.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, content.UpdatedAt); err == nil {
		issue.UpdatedAt = t
	}
	for _, l := range content.Labels.Nodes {
		issue.Labels = append(issue.Labels, l.Name)
	}

	for _, fv := range fields {
		switch fv.Field.Name {
		case c.fields.Status:
			issue.Status = types.ParseStatus(fv.Name)
		case c.fields.Priority:
			issue.Priority = types.ParsePriority(fv.Name)
		case c.fields.Agent:
			if fv.Text != "" {
				issue.Agent = fv.Text
			} else {
				issue.Agent = fv.Name
			}
		case c.fields.Type:
			if fv.Text != "" {
				issue.Type = fv.Text
			} else {
				issue.Type = fv.Name
			}
		case c.fields.BlockedBy:
			blocked, err := types.ParseBlockedBy(fv.Text)
			if err != nil {
				return nil, fmt.Errorf("issue #%d: %w", content.Number, err)
			}
			issue.BlockedBy = blocked
		case c.fields.DiscoveredFrom:
			parents, err := types.ParseBlockedBy(fv.Text)
			if err != nil {
				return nil, fmt.Errorf("issue #%d: %w", content.Number, err)
			}
			if len(parents) > 0 {
				issue.DiscoveredFrom = &parents[0]
			}
		}
	}

	return issue, nil
}

// commentsQuery fetches the most recent comments on an issue, which the API
// returns oldest to newest when using `last`.
const commentsQuery = `
query($owner: String!, $repo: String!, $number: Int!, $last: Int!) {
	repository(owner: $owner, name: $repo) {
		issue(number: $number) {
			comments(last: $last) {
				nodes { body createdAt }
			}
		}
	}
}`

// commentsResponse is the response envelope for commentsQuery.
type commentsResponse struct {
	Repository *struct {
		Issue *struct {
			Comments struct {
				Nodes []struct {
					Body      string `json:"body"`
					CreatedAt string `json:"createdAt"`
				} `json:"nodes"`
			} `json:"comments"`
		} `json:"issue"`
	} `json:"repository"`
}

// GetComments returns up to limit of the issue's most recent comments,
// oldest to newest.
func (c *Client) GetComments(ctx context.Context, issue *types.Issue, limit int) ([]types.Comment, error) {
	req := &graphQLRequest{
		Query: commentsQuery,
		Variables: map[string]interface{}{
			"owner":  issue.RepoOwner,
			"repo":   issue.RepoName,
			"number": issue.Number,
			"last":   limit,
		},
	}
	var resp commentsResponse
	if err := c.execute(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch comments for #%d: %w", issue.Number, err)
	}
	if resp.Repository == nil || resp.Repository.Issue == nil {
		return nil, fmt.Errorf("%w: #%d", ErrIssueNotFound, issue.Number)
	}

	comments := make([]types.Comment, 0, len(resp.Repository.Issue.Comments.Nodes))
	for _, n := range resp.Repository.Issue.Comments.Nodes {
		comment := types.Comment{Body: n.Body}
		if t, err := time.Parse(time.RFC3339, n.CreatedAt); err == nil {
			comment.CreatedAt = t
		}
		comments = append(comments, comment)
	}
	return comments, nil
}
