package board

import (
	"context"
	"fmt"

	"github.com/steveyegge/boardman/internal/types"
)

// fieldsQuery fetches the project's field schema: ids, data types, and
// single-select options.
const fieldsQuery = `
query($project: ID!) {
	node(id: $project) {
		... on ProjectV2 {
			fields(first: 50) {
				nodes {
					... on ProjectV2FieldCommon { id name dataType }
					... on ProjectV2SingleSelectField {
						id
						name
						dataType
						options { id name }
					}
				}
			}
		}
	}
}`

// fieldDef is one field in the board schema.
type fieldDef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	DataType string `json:"dataType"`
	Options  []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"options"`
}

// fieldsResponse is the response envelope for fieldsQuery.
type fieldsResponse struct {
	Node struct {
		Fields struct {
			Nodes []fieldDef `json:"nodes"`
		} `json:"fields"`
	} `json:"node"`
}

// lookupField returns the schema definition for a field by display name,
// populating the schema cache on first use. A missing field is a
// configuration error (ErrFieldNotFound), never retried: the board schema
// does not fix itself between attempts.
func (c *Client) lookupField(ctx context.Context, name string) (*fieldDef, error) {
	projectID, err := c.resolveProject(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	schema := c.schema
	c.mu.Unlock()

	if schema == nil {
		req := &graphQLRequest{
			Query:     fieldsQuery,
			Variables: map[string]interface{}{"project": projectID},
		}
		var resp fieldsResponse
		if err := c.execute(ctx, req, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch board schema: %w", err)
		}

		schema = make(map[string]*fieldDef, len(resp.Node.Fields.Nodes))
		for i := range resp.Node.Fields.Nodes {
			def := resp.Node.Fields.Nodes[i]
			if def.ID == "" {
				continue
			}
			schema[def.Name] = &def
		}

		c.mu.Lock()
		c.schema = schema
		c.mu.Unlock()
	}

	def, ok := schema[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
	}
	return def, nil
}

// addCommentMutation appends a comment to an issue by node id.
const addCommentMutation = `
mutation($subject: ID!, $body: String!) {
	addComment(input: {subjectId: $subject, body: $body}) {
		clientMutationId
	}
}`

// PostComment appends a comment to the issue.
func (c *Client) PostComment(ctx context.Context, issue *types.Issue, body string) error {
	req := &graphQLRequest{
		Query: addCommentMutation,
		Variables: map[string]interface{}{
			"subject": issue.ContentID,
			"body":    body,
		},
	}
	if err := c.execute(ctx, req, nil); err != nil {
		return fmt.Errorf("failed to post comment on #%d: %w", issue.Number, err)
	}
	return nil
}

// updateFieldMutation sets a project item's field value.
const updateFieldMutation = `
mutation($project: ID!, $item: ID!, $field: ID!, $value: ProjectV2FieldValue!) {
	updateProjectV2ItemFieldValue(input: {
		projectId: $project
		itemId: $item
		fieldId: $field
		value: $value
	}) {
		projectV2Item { id }
	}
}`

// MutateSingleSelect sets a single-select field to the option with the given
// display name. An unknown option is ErrOptionNotFound: a configuration
// error surfaced to the caller, not auto-corrected.
func (c *Client) MutateSingleSelect(ctx context.Context, issue *types.Issue, fieldName, optionName string) error {
	def, err := c.lookupField(ctx, fieldName)
	if err != nil {
		return err
	}

	var optionID string
	for _, opt := range def.Options {
		if opt.Name == optionName {
			optionID = opt.ID
			break
		}
	}
	if optionID == "" {
		return fmt.Errorf("%w: %q has no option %q", ErrOptionNotFound, fieldName, optionName)
	}

	return c.updateField(ctx, issue, def.ID, map[string]interface{}{"singleSelectOptionId": optionID})
}

// MutateTextField sets a text field on the issue's project item.
func (c *Client) MutateTextField(ctx context.Context, issue *types.Issue, fieldName, text string) error {
	def, err := c.lookupField(ctx, fieldName)
	if err != nil {
		return err
	}
	return c.updateField(ctx, issue, def.ID, map[string]interface{}{"text": text})
}

// updateField issues the field-mutation call for an already-resolved field id.
func (c *Client) updateField(ctx context.Context, issue *types.Issue, fieldID string, value map[string]interface{}) error {
	projectID, err := c.resolveProject(ctx)
	if err != nil {
		return err
	}

	req := &graphQLRequest{
		Query: updateFieldMutation,
		Variables: map[string]interface{}{
			"project": projectID,
			"item":    issue.ItemID,
			"field":   fieldID,
			"value":   value,
		},
	}
	if err := c.execute(ctx, req, nil); err != nil {
		return fmt.Errorf("failed to update field on #%d: %w", issue.Number, err)
	}
	return nil
}
