package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	// defaultEndpoint is the GitHub GraphQL API endpoint.
	defaultEndpoint = "https://api.github.com/graphql"

	// defaultTimeout is the per-request HTTP timeout.
	defaultTimeout = 30 * time.Second

	// maxRetries bounds transport retries for rate-limited or failed requests.
	maxRetries = 3

	// requestsPerSecond paces outgoing API calls. The coordinator's claim
	// overview fans out comment fetches; without pacing a wide board trips
	// secondary rate limits.
	requestsPerSecond = 5
)

// FieldNames maps domain concepts to the board's field display names.
type FieldNames struct {
	Status         string `yaml:"status"`
	Priority       string `yaml:"priority"`
	Agent          string `yaml:"agent"`
	Type           string `yaml:"type"`
	BlockedBy      string `yaml:"blocked_by"`
	DiscoveredFrom string `yaml:"discovered_from"`
}

// DefaultFieldNames returns the field names a freshly provisioned board uses.
func DefaultFieldNames() FieldNames {
	return FieldNames{
		Status:         "Status",
		Priority:       "Priority",
		Agent:          "Agent",
		Type:           "Type",
		BlockedBy:      "Blocked By",
		DiscoveredFrom: "Discovered From",
	}
}

// Client talks to the board's GraphQL API. It caches the project's node id
// and field schema after first resolution; field ids are stable for the
// lifetime of a run and re-resolving per mutation would double every call.
type Client struct {
	token      string
	owner      string
	number     int
	fields     FieldNames
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu        sync.Mutex
	projectID string
	schema    map[string]*fieldDef // field display name -> definition
}

// NewClient creates a board client for the given owner's project number.
func NewClient(token, owner string, number int, fields FieldNames) *Client {
	return &Client{
		token:    token,
		owner:    owner,
		number:   number,
		fields:   fields,
		endpoint: defaultEndpoint,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// WithEndpoint overrides the API endpoint (tests, GitHub Enterprise).
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// WithHTTPClient overrides the HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

// graphQLRequest is a GraphQL request payload.
type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// graphQLResponse is a generic GraphQL response envelope.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

// graphQLError is a single error from a GraphQL response.
type graphQLError struct {
	Message string   `json:"message"`
	Type    string   `json:"type,omitempty"`
	Path    []string `json:"path,omitempty"`
}

// execute sends a GraphQL request and decodes the data payload into out.
// Transport failures and rate limits are retried with exponential backoff;
// GraphQL-level errors and non-429 HTTP errors are permanent.
func (c *Client) execute(ctx context.Context, req *graphQLRequest, out interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusBadGateway ||
			resp.StatusCode == http.StatusServiceUnavailable {
			return fmt.Errorf("transient API error (status %d)", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("API error: %s (status %d)", string(respBody), resp.StatusCode))
		}

		var gqlResp graphQLResponse
		if err := json.Unmarshal(respBody, &gqlResp); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse response: %w", err))
		}
		// NOT_FOUND errors arrive alongside partial data (the org/user project
		// lookup always produces one for the branch that doesn't exist); they
		// are resolved by the caller inspecting the data, not treated as
		// transport failures.
		var msgs []string
		for _, e := range gqlResp.Errors {
			if e.Type == "NOT_FOUND" {
				continue
			}
			msgs = append(msgs, e.Message)
		}
		if len(msgs) > 0 {
			return backoff.Permanent(fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; ")))
		}

		if out != nil && len(gqlResp.Data) > 0 {
			if err := json.Unmarshal(gqlResp.Data, out); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to decode data: %w", err))
			}
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return err
	}
	return nil
}
