// Package jenkins provides a client for the Jenkins JSON API and the CI
// source collector built on it.
package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"opslens/src/collector"
)

// jobsTree limits the job listing to the fields the collector reads.
const jobsTree = "jobs[name,lastBuild[number,result,timestamp]]"

// Client is a Jenkins API client.
type Client struct {
	baseURL    string
	username   string
	apiToken   string
	httpClient *http.Client
}

// Job represents a Jenkins job and its most recent build.
type Job struct {
	Name      string `json:"name"`
	LastBuild *Build `json:"lastBuild"`
}

// Build represents a Jenkins build.
type Build struct {
	Number int    `json:"number"`
	Result string `json:"result"`
	// Timestamp is the build start time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Time returns the build start time.
func (b Build) Time() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}

// NewClient creates a new Jenkins API client. Basic auth is sent only when
// both username and apiToken are set.
func NewClient(baseURL, username, apiToken string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListJobs fetches every top-level job with its last build.
func (c *Client) ListJobs(ctx context.Context) ([]Job, error) {
	query := url.Values{"tree": {jobsTree}}
	resp, err := c.get(ctx, "/api/json?"+query.Encode(), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Jobs []Job `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return payload.Jobs, nil
}

// ConsoleText fetches the plain-text console output of a build.
func (c *Client) ConsoleText(ctx context.Context, job string, number int) (string, error) {
	path := fmt.Sprintf("/job/%s/%d/consoleText", url.PathEscape(job), number)
	resp, err := c.get(ctx, path, "text/plain")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	logBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read console output: %w", err)
	}

	return string(logBytes), nil
}

func (c *Client) get(ctx context.Context, path, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.username != "" && c.apiToken != "" {
		req.SetBasicAuth(c.username, c.apiToken)
	}
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", collector.ErrAuthFailed, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}
