// Package backend is the boundary to the dispatch service: a thin HTTP
// client for task snapshots and status transitions, and a websocket feed
// of change notifications. Payloads are validated once here; the rest of
// the core only ever sees a well-formed model.Task.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ecopickup/driversync/internal/model"
)

// Client is a thin HTTP client for the dispatch backend's REST API.
// It handles Bearer token authentication, JSON marshaling, and
// automatic retry with exponential backoff on HTTP 429.
type Client struct {
	baseURL         string
	token           string
	httpClient      *http.Client
	maxRetries      int
	defaultDeadline float64
}

// NewClient creates a new dispatch backend client. The baseURL should be
// the root URL of the service. defaultDeadlineHours is applied to task
// payloads that omit a deadline window; a nonpositive value falls back
// to model.DefaultDeadlineHours.
func NewClient(baseURL, token string, defaultDeadlineHours float64) *Client {
	if defaultDeadlineHours <= 0 {
		defaultDeadlineHours = model.DefaultDeadlineHours
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries:      3,
		defaultDeadline: defaultDeadlineHours,
	}
}

// FetchDriverTasks retrieves the full active task snapshot for a driver.
// No pagination: a single driver's list is tens of tasks at most.
func (c *Client) FetchDriverTasks(ctx context.Context, driverID string) ([]model.Task, error) {
	var resp tasksResponse
	path := "/api/drivers/" + url.PathEscape(driverID) + "/tasks"
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return decodeTasks(resp.Tasks, c.defaultDeadline), nil
}

// ApplyTransition applies a single status transition to one task. The
// proof may be nil when the transition carries no evidence.
func (c *Client) ApplyTransition(ctx context.Context, taskID string, status model.TaskStatus, proof *model.Proof) error {
	body := transitionRequest{Status: status, Proof: proof}
	path := "/api/tasks/" + url.PathEscape(taskID) + "/transition"
	return c.post(ctx, path, body, nil)
}

// get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// post performs an HTTP POST request with a JSON body and unmarshals
// the JSON response.
func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and JSON (de)serialization.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	u := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Rebuild the body reader on retries since it was consumed.
		if attempt > 0 && body != nil {
			data, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return &AuthError{
				Message: fmt.Sprintf("backend rejected token for %s", c.baseURL),
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var backendErr errorResponse
			if json.Unmarshal(respBody, &backendErr) == nil && backendErr.Message != "" {
				return fmt.Errorf(
					"backend error (%d) on %s %s: %s",
					resp.StatusCode, method, path, backendErr.Message,
				)
			}
			return fmt.Errorf(
				"unexpected status %d on %s %s: %s",
				resp.StatusCode, method, path, string(respBody),
			)
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
