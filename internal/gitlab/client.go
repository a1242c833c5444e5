package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNotConfigured is returned before any network I/O when no access
// token is available.
var ErrNotConfigured = errors.New("gitlab access token not configured")

// HTTPClient is the subset of *http.Client the GitLab client needs
// (allows mocking in tests).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a GitLab-compatible v4 REST API using a static
// personal access token.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
}

func NewClient(baseURL, token string, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// ListMergeRequests fetches the merge requests matching q, newest
// updates first.
func (c *Client) ListMergeRequests(ctx context.Context, q Query) ([]MergeRequest, error) {
	if c.token == "" {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/api/v4/merge_requests?%s", c.baseURL, q.Values().Encode())

	var mrs []MergeRequest
	if err := c.doRequest(ctx, url, &mrs); err != nil {
		return nil, fmt.Errorf("listing merge requests: %w", err)
	}

	return mrs, nil
}

// GetApprovals fetches the approval detail for a single merge request.
func (c *Client) GetApprovals(ctx context.Context, projectID, iid int) (*Approvals, error) {
	if c.token == "" {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/api/v4/projects/%d/merge_requests/%d/approvals", c.baseURL, projectID, iid)

	var approvals Approvals
	if err := c.doRequest(ctx, url, &approvals); err != nil {
		return nil, fmt.Errorf("getting approvals for !%d: %w", iid, err)
	}

	return &approvals, nil
}

func (c *Client) doRequest(ctx context.Context, url string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("PRIVATE-TOKEN", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
