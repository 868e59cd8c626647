package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"jobqueue/pkg/api"
)

// Client handles API calls to the queued admin API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new client with the given base URL and API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the admin API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *Client) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// Enqueue sends POST /jobs.
func (c *Client) Enqueue(req api.EnqueueRequest) (*api.EnqueueResponse, error) {
	var resp api.EnqueueResponse
	if err := c.do(http.MethodPost, "/jobs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScheduleRecurring sends POST /jobs/recurring.
func (c *Client) ScheduleRecurring(req api.ScheduleRecurringRequest) (*api.ScheduleRecurringResponse, error) {
	var resp api.ScheduleRecurringResponse
	if err := c.do(http.MethodPost, "/jobs/recurring", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List sends GET /jobs, optionally filtered by status.
func (c *Client) List(status string, limit int) (*api.ListResponse, error) {
	path := fmt.Sprintf("/jobs?limit=%d", limit)
	if status != "" {
		path += "&status=" + status
	}
	var resp api.ListResponse
	if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CountByStatus sends GET /jobs/count.
func (c *Client) CountByStatus() (*api.CountByStatusResponse, error) {
	var resp api.CountByStatusResponse
	if err := c.do(http.MethodGet, "/jobs/count", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Retry sends POST /jobs/{id}/retry.
func (c *Client) Retry(id int64) error {
	return c.do(http.MethodPost, fmt.Sprintf("/jobs/%d/retry", id), nil, nil)
}

// Cancel sends DELETE /jobs/{id}.
func (c *Client) Cancel(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/jobs/%d", id), nil, nil)
}
