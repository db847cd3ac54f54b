// Package issues calls the downstream issue-tracking service. The inbound
// bearer token is forwarded verbatim; failures propagate to the caller of
// the specific endpoint with no retry and no fallback value.
package issues

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Issue is the summary shape returned by the issue service.
type Issue struct {
	UID         string `json:"uid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	AuthorUID   string `json:"authorId"`
	ServiceUID  string `json:"serviceId"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

// Client talks to the issue service over its REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given base URL, e.g.
// "http://issue-service:8080/api/v1".
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	trimmed := strings.TrimRight(baseURL, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("issues: base URL required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: trimmed, http: httpClient}, nil
}

// CountByAuthor returns the number of issues authored by the uid.
func (c *Client) CountByAuthor(ctx context.Context, bearer, authorUID string) (int64, error) {
	return c.count(ctx, bearer, url.Values{"authorId": {authorUID}})
}

// CountByService returns the number of issues assigned to the service.
func (c *Client) CountByService(ctx context.Context, bearer, serviceUID string) (int64, error) {
	return c.count(ctx, bearer, url.Values{"serviceId": {serviceUID}})
}

// ListByAuthor returns the issues authored by the uid, optionally filtered
// by issue status.
func (c *Client) ListByAuthor(ctx context.Context, bearer, authorUID, status string) ([]Issue, error) {
	query := url.Values{"authorId": {authorUID}}
	if status != "" {
		query.Set("status", status)
	}

	var issues []Issue
	if err := c.get(ctx, bearer, "/issues", query, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (c *Client) count(ctx context.Context, bearer string, query url.Values) (int64, error) {
	var response countResponse
	if err := c.get(ctx, bearer, "/issues/count", query, &response); err != nil {
		return 0, err
	}
	return response.Count, nil
}

func (c *Client) get(ctx context.Context, bearer, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("issues: build request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+bearer)

	response, err := c.http.Do(request)
	if err != nil {
		return fmt.Errorf("issues: call %s: %w", path, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("issues: %s returned %d", path, response.StatusCode)
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("issues: decode %s response: %w", path, err)
	}
	return nil
}
